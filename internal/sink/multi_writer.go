package sink

import (
	"errors"
	"io"

	"network-analyser/internal/telemetry"
)

// MultiWriter fan-outs snapshots to multiple writers.
type MultiWriter struct {
	writers []SnapshotWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...SnapshotWriter) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// Add appends a writer.
func (mw *MultiWriter) Add(w SnapshotWriter) {
	mw.writers = append(mw.writers, w)
}

// Len returns the number of writers.
func (mw *MultiWriter) Len() int { return len(mw.writers) }

// Write sends a snapshot to all writers. A failing writer does not prevent
// the remaining ones from receiving it; all errors are joined.
func (mw *MultiWriter) Write(s telemetry.Snapshot) error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.Write(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every writer implementing io.Closer.
func (mw *MultiWriter) Close() error {
	var errs []error
	for _, w := range mw.writers {
		if c, ok := w.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
