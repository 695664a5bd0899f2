package telemetry

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

// Column indices of a Record.
const (
	colSerial = iota
	colTimestamp
	colCount
	colConfidence
	colDetected
	numColumns
)

// detectorOrder is the column order the detector writes without header.
var detectorOrder = [numColumns]int{0, 1, 2, 3, 4}

var headerNames = map[string]int{
	"serial number":        colSerial,
	"serial":               colSerial,
	"sn":                   colSerial,
	"timestamp":            colTimestamp,
	"time":                 colTimestamp,
	"number of detections": colCount,
	"count":                colCount,
	"confidence range":     colConfidence,
	"confidence ratio":     colConfidence,
	"confidence":           colConfidence,
	"detection (1/0)":      colDetected,
	"detection":            colDetected,
	"detected":             colDetected,
}

// CSVSource reads the last row of the detector CSV file each time.
type CSVSource struct {
	Path string
}

// Latest implements Source.
func (s *CSVSource) Latest(ctx context.Context) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()
	return ReadLatest(f)
}

// ReadLatest parses CSV content and returns its last data row.
// Columns are located by header names when the first row is a header,
// otherwise the detector's order is assumed.
func ReadLatest(r io.Reader) (*Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnreadable)
	}
	order, isHeader := columnsOf(rows[0])
	if isHeader {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrUnreadable)
	}
	row := rows[len(rows)-1]
	get := func(col int) string {
		if idx := order[col]; idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}
	rec := &Record{
		SerialNumber:    get(colSerial),
		Timestamp:       get(colTimestamp),
		Count:           get(colCount),
		ConfidenceRange: get(colConfidence),
		Detected:        get(colDetected),
	}
	rec.sanitize()
	if rec.Malformed {
		glog.Warningf("telemetry row %q has missing fields", row)
	}
	return rec, nil
}

// columnsOf recognizes a header row. A row whose first cell is a number
// is data.
func columnsOf(row []string) (order [numColumns]int, isHeader bool) {
	if len(row) == 0 {
		return detectorOrder, false
	}
	if _, err := strconv.Atoi(strings.TrimSpace(row[0])); err == nil {
		return detectorOrder, false
	}
	for i := range order {
		order[i] = -1
	}
	for idx, name := range row {
		if col, ok := headerNames[strings.ToLower(strings.TrimSpace(name))]; ok && order[col] < 0 {
			order[col] = idx
			isHeader = true
		}
	}
	if !isHeader {
		return detectorOrder, false
	}
	return order, true
}
