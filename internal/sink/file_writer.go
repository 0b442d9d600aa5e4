package sink

import (
	"encoding/json"
	"os"
	"sync"

	"network-analyser/internal/telemetry"
)

// FileWriter writes snapshots to a JSONL file.
type FileWriter struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileWriter creates or truncates path.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileWriter{file: f, enc: json.NewEncoder(f)}, nil
}

// Write logs a single snapshot.
func (f *FileWriter) Write(s telemetry.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enc.Encode(s)
}

// Close closes the underlying file.
func (f *FileWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}
