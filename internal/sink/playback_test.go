package sink

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func encodeSnapshots(t *testing.T, seqs ...uint64) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, seq := range seqs {
		if err := enc.Encode(testSnapshot(seq)); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	return &buf
}

func TestReplayLog(t *testing.T) {
	cw := &collectWriter{}
	if err := ReplayLog(encodeSnapshots(t, 1, 2, 3), cw, 0); err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if len(cw.snaps) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(cw.snaps))
	}
	for i, s := range cw.snaps {
		if s.Sequence != uint64(i+1) {
			t.Fatalf("snapshot %d has sequence %d", i, s.Sequence)
		}
	}
}

func TestReplayPacing(t *testing.T) {
	var sleeps []time.Duration
	sleep := func(d time.Duration) { sleeps = append(sleeps, d) }
	cw := &collectWriter{}
	// testSnapshot spaces GeneratedAt by one second per sequence number.
	if err := replay(encodeSnapshots(t, 1, 3), cw, 4, sleep); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(sleeps) != 1 || sleeps[0] != 500*time.Millisecond {
		t.Fatalf("unexpected sleeps %v", sleeps)
	}
}

func TestReplayRejectsInvalid(t *testing.T) {
	buf := encodeSnapshots(t, 1)
	buf.WriteString(`{"sequence":2,"anomalies":[]}` + "\n")
	cw := &collectWriter{}
	err := ReplayLog(buf, cw, 0)
	if err == nil || !strings.Contains(err.Error(), "snapshot 2") {
		t.Fatalf("expected validation error on snapshot 2, got %v", err)
	}
	if len(cw.snaps) != 1 {
		t.Fatalf("valid snapshot before the bad one should be written")
	}
}

func TestReplayLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	if err := os.WriteFile(path, encodeSnapshots(t, 5).Bytes(), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cw := &collectWriter{}
	if err := ReplayLogFile(path, cw, 0); err != nil {
		t.Fatalf("ReplayLogFile: %v", err)
	}
	if len(cw.snaps) != 1 || cw.snaps[0].Sequence != 5 {
		t.Fatalf("unexpected replay %+v", cw.snaps)
	}
	if err := ReplayLogFile(filepath.Join(t.TempDir(), "none"), cw, 0); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
