package tracker

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"indoortrack/internal/telemetry"
)

// JSONStdoutWriter prints position and transition rows as JSON to STDOUT.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// Write outputs a position row in JSON format.
func (w *JSONStdoutWriter) Write(row telemetry.PositionRow) error {
	data, _ := json.Marshal(row)
	fmt.Fprintln(w.out, string(data))
	return nil
}

// WriteBatch outputs multiple position rows in JSON format.
func (w *JSONStdoutWriter) WriteBatch(rows []telemetry.PositionRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteTransition outputs a zone transition event in JSON format.
func (w *JSONStdoutWriter) WriteTransition(t telemetry.TransitionRow) error {
	data, _ := json.Marshal(t)
	fmt.Fprintln(w.out, string(data))
	return nil
}

// WriteTransitions outputs multiple zone transitions in JSON format.
func (w *JSONStdoutWriter) WriteTransitions(rows []telemetry.TransitionRow) error {
	for _, t := range rows {
		_ = w.WriteTransition(t)
	}
	return nil
}
