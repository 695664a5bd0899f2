// Package appdata handles the application text carried in a WSM:
// key:value pairs separated by commas, without any escaping.
// Keys and values must not contain ',', ':' or a newline.
package appdata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Delimiters.
const (
	PairSep     = ","
	KeyValueSep = ":"
	forbidden   = ",:\n"
)

// Well-known keys.
const (
	KeySerialNumber    = "SN"
	KeyTimestamp       = "Timestamp"
	KeyConfidenceRatio = "Confidence ratio"
	KeyCount           = "Count"
	KeyDetected        = "Detected"
	KeyLatitude        = "Lat"
	KeyLongitude       = "Long"
	KeySpeed           = "Speed"
)

// DefaultDetected is used when the Detected key is absent.
const DefaultDetected = "0"

// Classification log suffixes.
const (
	SuffixDetected    = " Pedestrian Detected"
	SuffixNotDetected = " No Pedestrian Detected"
)

// ErrMalformedRecord indicates the text violates the pair format.
var ErrMalformedRecord = errors.New("malformed record")

// Pair is a single key:value.
type Pair struct {
	Key   string
	Value string
}

// Fields is an ordered list of pairs.
type Fields []Pair

// Get returns the value of the first pair with key.
func (f Fields) Get(key string) (string, bool) {
	for _, p := range f {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Detected returns the Detected value, DefaultDetected when missing.
func (f Fields) Detected() string {
	if v, ok := f.Get(KeyDetected); ok {
		return v
	}
	return DefaultDetected
}

// Validate checks s can be used as a key or value.
func Validate(s string) error {
	if i := strings.IndexAny(s, forbidden); i >= 0 {
		return fmt.Errorf("%w: %q contains %q", ErrMalformedRecord, s, s[i])
	}
	return nil
}

// Parse splits text into pairs. It fails closed: a pair which isn't
// exactly one key and one value rejects the whole text.
func Parse(text string) (Fields, error) {
	if strings.Contains(text, "\n") {
		return nil, fmt.Errorf("%w: newline in text", ErrMalformedRecord)
	}
	pairs := strings.Split(text, PairSep)
	fields := make(Fields, 0, len(pairs))
	for _, pair := range pairs {
		kv := strings.Split(pair, KeyValueSep)
		if len(kv) != 2 {
			return nil, fmt.Errorf("%w: pair %q", ErrMalformedRecord, pair)
		}
		fields = append(fields, Pair{Key: kv[0], Value: kv[1]})
	}
	return fields, nil
}

// Format renders fields, refusing keys or values with delimiters.
func Format(fields Fields) (string, error) {
	var sb strings.Builder
	for i, p := range fields {
		if err := Validate(p.Key); err != nil {
			return "", err
		}
		if err := Validate(p.Value); err != nil {
			return "", err
		}
		if i > 0 {
			sb.WriteString(PairSep)
		}
		sb.WriteString(p.Key)
		sb.WriteString(KeyValueSep)
		sb.WriteString(p.Value)
	}
	return sb.String(), nil
}

// Classify reports whether a pedestrian is detected: Detected > 0.
func Classify(fields Fields) (bool, error) {
	v := fields.Detected()
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("%w: Detected %q", ErrMalformedRecord, v)
	}
	return n > 0, nil
}

// Suffix returns the log suffix of a classification.
func Suffix(detected bool) string {
	if detected {
		return SuffixDetected
	}
	return SuffixNotDetected
}

// ClassificationLine is the log line of a classified text.
func ClassificationLine(text string, detected bool) string {
	return text + Suffix(detected)
}
