package tracker

import "indoortrack/internal/telemetry"

// MultiWriter fan-outs position and transition rows to multiple writers.
type MultiWriter struct {
	posWriters   []PositionWriter
	transWriters []TransitionWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(pws []PositionWriter, tws []TransitionWriter) *MultiWriter {
	return &MultiWriter{posWriters: pws, transWriters: tws}
}

// Write sends a position row to all writers.
func (mw *MultiWriter) Write(row telemetry.PositionRow) error {
	for _, w := range mw.posWriters {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends multiple position rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(rows []telemetry.PositionRow) error {
	for _, w := range mw.posWriters {
		if bw, ok := w.(batchPositionWriter); ok {
			if err := bw.WriteBatch(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteTransition sends a transition row to all transition writers.
func (mw *MultiWriter) WriteTransition(row telemetry.TransitionRow) error {
	for _, w := range mw.transWriters {
		if err := w.WriteTransition(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteTransitions sends multiple transitions to all transition writers, using batch if supported.
func (mw *MultiWriter) WriteTransitions(rows []telemetry.TransitionRow) error {
	for _, w := range mw.transWriters {
		if bw, ok := w.(batchTransitionWriter); ok {
			if err := bw.WriteTransitions(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.WriteTransition(r); err != nil {
				return err
			}
		}
	}
	return nil
}
