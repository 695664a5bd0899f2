package telemetry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/v2x.go/pkg/gps"
	"github.com/robotalks/v2x.go/pkg/wave/appdata"
)

const detectorCSV = `Serial Number,Timestamp,Number of Detections,Confidence Range,Detection (1/0)
1,2024-05-01 10 00 00,0,N/A,0
2,2024-05-01 10 00 01,3,0.61-0.92,1
`

func TestReadLatest(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		expected Record
	}{
		{
			name:    "detector header",
			content: detectorCSV,
			expected: Record{
				SerialNumber: "2", Timestamp: "2024-05-01 10 00 01",
				Count: "3", ConfidenceRange: "0.61-0.92", Detected: "1",
			},
		},
		{
			name:    "no header",
			content: "7,2024-05-01 10 00 07,1,0.80-0.80,1\n",
			expected: Record{
				SerialNumber: "7", Timestamp: "2024-05-01 10 00 07",
				Count: "1", ConfidenceRange: "0.80-0.80", Detected: "1",
			},
		},
		{
			name:    "reordered header",
			content: "sn,timestamp,detected,count,confidence\n9,t9,1,2,0.7-0.9\n",
			expected: Record{
				SerialNumber: "9", Timestamp: "t9",
				Count: "2", ConfidenceRange: "0.7-0.9", Detected: "1",
			},
		},
		{
			name:    "missing confidence",
			content: "Serial Number,Timestamp,Number of Detections,Confidence Range,Detection (1/0)\n4,t4,2,,1\n",
			expected: Record{
				SerialNumber: "4", Timestamp: "t4",
				Count: "2", ConfidenceRange: ErrorMarker, Detected: "1",
				Malformed: true,
			},
		},
		{
			name:    "short row",
			content: "5,t5,2\n",
			expected: Record{
				SerialNumber: "5", Timestamp: "t5", Count: "2",
				ConfidenceRange: ErrorMarker, Detected: ErrorMarker,
				Malformed: true,
			},
		},
		{
			name:    "delimiter in value",
			content: "6,10:00:06,1,0.5-0.6,1\n",
			expected: Record{
				SerialNumber: "6", Timestamp: ErrorMarker, Count: "1",
				ConfidenceRange: "0.5-0.6", Detected: "1",
				Malformed: true,
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := ReadLatest(strings.NewReader(tc.content))
			require.NoError(t, err)
			require.Equal(t, tc.expected, *rec)
		})
	}
}

func TestReadLatestUnreadable(t *testing.T) {
	for _, content := range []string{"", "Serial Number,Timestamp\n", "a,\"b\n"} {
		_, err := ReadLatest(strings.NewReader(content))
		require.True(t, errors.Is(err, ErrUnreadable), "content %q", content)
	}
}

func TestCSVSource(t *testing.T) {
	dir := t.TempDir()
	src := &CSVSource{Path: filepath.Join(dir, "person_detection.csv")}
	_, err := src.Latest(context.Background())
	require.True(t, errors.Is(err, ErrUnreadable))

	require.NoError(t, os.WriteFile(src.Path, []byte(detectorCSV), 0644))
	rec, err := src.Latest(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2", rec.SerialNumber)
	require.NoError(t, rec.Err())
}

func TestApplicationText(t *testing.T) {
	fix := gps.Fix{Latitude: 17.602347, Longitude: 78.127117, Speed: 0.5}
	rec := &Record{SerialNumber: "2", Timestamp: "2024-05-01 10 00 01", Count: "3", ConfidenceRange: "0.61-0.92", Detected: "1"}
	text := ApplicationText(rec, fix)
	require.Equal(t, "SN:2,Timestamp:2024-05-01 10 00 01,Confidence ratio:0.61-0.92,Count:3,Detected:1,Lat:17.602347,Long:78.127117,Speed:0.5", text)

	fields, err := appdata.Parse(text)
	require.NoError(t, err)
	require.Equal(t, "1", fields.Detected())

	require.Equal(t, UnreadableMarker, ApplicationText(nil, fix))
}

func TestApplicationTextMissingConfidence(t *testing.T) {
	rec, err := ReadLatest(strings.NewReader("3,t3,1,,1\n"))
	require.NoError(t, err)
	require.True(t, errors.Is(rec.Err(), ErrMalformedRecord))
	text := ApplicationText(rec, gps.Fix{Latitude: 1, Longitude: 2})
	require.Contains(t, text, "Confidence ratio:"+ErrorMarker+",")
	// the text stays parseable downstream.
	fields, err := appdata.Parse(text)
	require.NoError(t, err)
	detected, err := appdata.Classify(fields)
	require.NoError(t, err)
	require.True(t, detected)
}
