package sink

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"testing"
	"time"

	"network-analyser/internal/telemetry"
)

var testClock = time.Date(2024, 5, 1, 13, 37, 0, 0, time.UTC)

func testSnapshot(seq uint64) telemetry.Snapshot {
	gen := telemetry.NewGenerator(
		telemetry.WithRand(rand.New(rand.NewSource(int64(seq)))),
		telemetry.WithClock(func() time.Time { return testClock.Add(time.Duration(seq) * time.Second) }),
	)
	s := gen.Snapshot()
	s.Sequence = seq
	return s
}

type collectWriter struct{ snaps []telemetry.Snapshot }

func (c *collectWriter) Write(s telemetry.Snapshot) error {
	c.snaps = append(c.snaps, s)
	return nil
}

type failWriter struct{ err error }

func (f failWriter) Write(telemetry.Snapshot) error { return f.err }

func TestObserverLogsWriteErrors(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	obs := Observer(failWriter{err: errors.New("disk full")}, log)
	obs(testSnapshot(4))
	out := buf.String()
	if !strings.Contains(out, "snapshot write failed") || !strings.Contains(out, "disk full") || !strings.Contains(out, "sequence=4") {
		t.Fatalf("unexpected log output: %q", out)
	}
}

func TestObserverForwards(t *testing.T) {
	cw := &collectWriter{}
	Observer(cw, nil)(testSnapshot(1))
	if len(cw.snaps) != 1 || cw.snaps[0].Sequence != 1 {
		t.Fatalf("snapshot not forwarded: %+v", cw.snaps)
	}
}

func TestJSONStdoutWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := &JSONStdoutWriter{out: buf}
	snap := testSnapshot(2)
	if err := w.Write(snap); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var got telemetry.Snapshot
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Sequence != 2 || got.Network != snap.Network || len(got.Anomalies) != len(snap.Anomalies) {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if !strings.Contains(buf.String(), `"source_ip"`) {
		t.Fatalf("expected snake_case keys: %s", buf.String())
	}
}

func TestColorStdoutWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := &ColorStdoutWriter{sensorID: "s1", interval: 2 * time.Second, out: buf}
	snap := testSnapshot(3)
	if err := w.Write(snap); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "Network Analyser:") || !strings.Contains(output, "s1") {
		t.Fatalf("overview not printed: %q", output)
	}
	if !strings.Contains(output, "\x1b[") {
		t.Fatalf("expected color codes in output: %q", output)
	}
	for _, c := range telemetry.SecurityCategories {
		if !strings.Contains(output, c) {
			t.Fatalf("missing category %s", c)
		}
	}

	buf.Reset()
	if err := w.Write(snap); err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	if strings.Contains(buf.String(), "Network Analyser:") {
		t.Fatalf("overview printed more than once")
	}
}

func TestTrafficTotals(t *testing.T) {
	var samples [telemetry.HoursPerDay]telemetry.TrafficSample
	for i := range samples {
		samples[i] = telemetry.TrafficSample{Time: time.Date(2024, 1, 1, i, 5, 0, 0, time.UTC).Format("15:04"), Inbound: 1, Outbound: 1}
	}
	samples[7].Inbound = 50
	in, out, peak := TrafficTotals(samples)
	if in != 23+50 || out != 24 || peak != "07:05" {
		t.Fatalf("got in=%d out=%d peak=%s", in, out, peak)
	}
}
