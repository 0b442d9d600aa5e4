package sink

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"network-analyser/internal/telemetry"
)

func TestFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.jsonl")
	fw, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	for seq := uint64(1); seq <= 3; seq++ {
		if err := fw.Write(testSnapshot(seq)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	var seqs []uint64
	for sc.Scan() {
		var got telemetry.Snapshot
		if err := json.Unmarshal(sc.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if err := got.Validate(); err != nil {
			t.Fatalf("logged snapshot invalid: %v", err)
		}
		seqs = append(seqs, got.Sequence)
	}
	if len(seqs) != 3 || seqs[0] != 1 || seqs[2] != 3 {
		t.Fatalf("unexpected sequences %v", seqs)
	}
}

func TestFileWriterBadPath(t *testing.T) {
	if _, err := NewFileWriter(filepath.Join(t.TempDir(), "missing", "x.jsonl")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
