package appdata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	fields, err := Parse("SN:7,Timestamp:2024-01-02 10:11,Confidence ratio:0.9")
	require.Error(t, err, "a ':' inside the timestamp value is malformed")
	require.True(t, errors.Is(err, ErrMalformedRecord))
	require.Nil(t, fields)

	fields, err = Parse("SN:7,Confidence ratio:0.9,Detected:1")
	require.NoError(t, err)
	require.Equal(t, Fields{
		{"SN", "7"},
		{"Confidence ratio", "0.9"},
		{"Detected", "1"},
	}, fields)
	v, ok := fields.Get(KeyConfidenceRatio)
	require.True(t, ok)
	require.Equal(t, "0.9", v)
	require.Equal(t, "1", fields.Detected())
}

func TestParseMalformed(t *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"no separator", "Detected"},
		{"extra colon", "Detected:1:2"},
		{"trailing comma", "Detected:1,"},
		{"newline", "Detected:1\nCount:2"},
		{"error marker", "ERROR: Unable to read data,x"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.text)
			require.True(t, errors.Is(err, ErrMalformedRecord))
		})
	}
}

func TestUnreadableMarkerParses(t *testing.T) {
	fields, err := Parse("ERROR: Unable to read data")
	require.NoError(t, err)
	require.Equal(t, DefaultDetected, fields.Detected())
	detected, err := Classify(fields)
	require.NoError(t, err)
	require.False(t, detected)
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		detected bool
		err      bool
	}{
		{"detected", "Detected:1,Count:3", true, false},
		{"count above one", "Detected:2", true, false},
		{"not detected", "Count:0,Detected:0", false, false},
		{"missing", "Count:3", false, false},
		{"negative", "Detected:-1", false, false},
		{"not a number", "Detected:yes", false, true},
		{"error marker", "Detected:ERROR", false, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fields, err := Parse(tc.text)
			require.NoError(t, err)
			detected, err := Classify(fields)
			if tc.err {
				require.True(t, errors.Is(err, ErrMalformedRecord))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.detected, detected)
		})
	}
}

func TestFormat(t *testing.T) {
	text, err := Format(Fields{{KeyDetected, "1"}, {KeyCount, "3"}})
	require.NoError(t, err)
	require.Equal(t, "Detected:1,Count:3", text)

	_, err = Format(Fields{{KeyTimestamp, "10:11"}})
	require.True(t, errors.Is(err, ErrMalformedRecord))
	_, err = Format(Fields{{"a,b", "1"}})
	require.True(t, errors.Is(err, ErrMalformedRecord))
}

func TestClassificationLine(t *testing.T) {
	require.Equal(t, "Detected:1,Count:3 Pedestrian Detected", ClassificationLine("Detected:1,Count:3", true))
	require.Equal(t, "Detected:0 No Pedestrian Detected", ClassificationLine("Detected:0", false))
}
