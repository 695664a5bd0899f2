// Package logfile appends lines to the station's text logs.
package logfile

import (
	"os"
	"strings"
)

// Append opens path for appending (creating it), writes line terminated
// by a newline and closes it. No handle is kept between calls.
func Append(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	_, err = f.WriteString(line)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Writer appends lines to a fixed path.
type Writer struct {
	Path string
}

// Append appends a line.
func (w *Writer) Append(line string) error {
	return Append(w.Path, line)
}
