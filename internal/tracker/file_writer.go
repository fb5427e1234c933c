package tracker

import (
	"encoding/json"
	"os"

	"indoortrack/internal/telemetry"
)

// FileWriter writes position and transition data to JSONL files.
type FileWriter struct {
	posFile   *os.File
	transFile *os.File
	posEnc    *json.Encoder
	transEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. transitionPath may be empty to skip
// the transition log.
func NewFileWriter(positionPath, transitionPath string) (*FileWriter, error) {
	pf, err := os.Create(positionPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{posFile: pf, posEnc: json.NewEncoder(pf)}
	if transitionPath != "" {
		tf, err := os.Create(transitionPath)
		if err != nil {
			pf.Close()
			return nil, err
		}
		fw.transFile = tf
		fw.transEnc = json.NewEncoder(tf)
	}
	return fw, nil
}

// Write logs a single position row.
func (f *FileWriter) Write(row telemetry.PositionRow) error {
	return f.posEnc.Encode(row)
}

// WriteBatch logs multiple position rows.
func (f *FileWriter) WriteBatch(rows []telemetry.PositionRow) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteTransition logs a single transition row, if enabled.
func (f *FileWriter) WriteTransition(row telemetry.TransitionRow) error {
	if f.transEnc == nil {
		return nil
	}
	return f.transEnc.Encode(row)
}

// WriteTransitions logs multiple transition rows.
func (f *FileWriter) WriteTransitions(rows []telemetry.TransitionRow) error {
	for _, r := range rows {
		if err := f.WriteTransition(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.posFile != nil {
		if e := f.posFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.transFile != nil {
		if e := f.transFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
