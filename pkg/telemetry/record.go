// Package telemetry reads the pedestrian detector's records and
// renders the application text broadcast by the RSU.
package telemetry

import (
	"context"
	"errors"
	"strconv"

	"github.com/robotalks/v2x.go/pkg/gps"
	"github.com/robotalks/v2x.go/pkg/wave/appdata"
)

// Markers substituted for unusable input.
const (
	// ErrorMarker replaces a missing or unusable field.
	ErrorMarker = "ERROR"
	// UnreadableMarker replaces the whole text when no record is available.
	UnreadableMarker = "ERROR: Unable to read data"
)

var (
	// ErrUnreadable indicates the source has no record to offer.
	ErrUnreadable = errors.New("unable to read record")
	// ErrMalformedRecord indicates a record has missing or unusable fields.
	ErrMalformedRecord = appdata.ErrMalformedRecord
)

// Record is one detector output row.
type Record struct {
	SerialNumber    string
	Timestamp       string
	Count           string
	ConfidenceRange string
	Detected        string
	// Malformed is set when any field was replaced by ErrorMarker.
	Malformed bool
}

// Source yields the latest record.
type Source interface {
	Latest(ctx context.Context) (*Record, error)
}

// sanitize replaces blank values or values with payload delimiters.
func (r *Record) sanitize() {
	for _, v := range []*string{&r.SerialNumber, &r.Timestamp, &r.Count, &r.ConfidenceRange, &r.Detected} {
		if *v == "" || appdata.Validate(*v) != nil {
			*v = ErrorMarker
			r.Malformed = true
		}
	}
}

// Err returns ErrMalformedRecord when the record was patched with markers.
func (r *Record) Err() error {
	if r.Malformed {
		return ErrMalformedRecord
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ApplicationText renders the broadcast text of rec at fix. A nil
// record renders as UnreadableMarker.
func ApplicationText(rec *Record, fix gps.Fix) string {
	if rec == nil {
		return UnreadableMarker
	}
	r := *rec
	r.sanitize()
	text, err := appdata.Format(appdata.Fields{
		{Key: appdata.KeySerialNumber, Value: r.SerialNumber},
		{Key: appdata.KeyTimestamp, Value: r.Timestamp},
		{Key: appdata.KeyConfidenceRatio, Value: r.ConfidenceRange},
		{Key: appdata.KeyCount, Value: r.Count},
		{Key: appdata.KeyDetected, Value: r.Detected},
		{Key: appdata.KeyLatitude, Value: formatFloat(fix.Latitude)},
		{Key: appdata.KeyLongitude, Value: formatFloat(fix.Longitude)},
		{Key: appdata.KeySpeed, Value: formatFloat(fix.Speed)},
	})
	if err != nil {
		// sanitized fields and formatted floats never carry delimiters.
		return UnreadableMarker
	}
	return text
}
