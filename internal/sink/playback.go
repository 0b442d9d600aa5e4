package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"network-analyser/internal/telemetry"
)

// ReplayLog replays snapshots from r to writer. A speed >0 accelerates playback.
// If speed <= 0, no artificial delay is inserted. Every snapshot is validated
// before it is written.
func ReplayLog(r io.Reader, writer SnapshotWriter, speed float64) error {
	return replay(r, writer, speed, time.Sleep)
}

func replay(r io.Reader, writer SnapshotWriter, speed float64, sleep func(time.Duration)) error {
	dec := json.NewDecoder(r)
	var prev time.Time
	for line := 1; ; line++ {
		var s telemetry.Snapshot
		if err := dec.Decode(&s); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("snapshot %d: %w", line, err)
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("snapshot %d: %w", line, err)
		}
		if !prev.IsZero() && speed > 0 {
			diff := s.GeneratedAt.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				sleep(diff)
			}
		}
		if err := writer.Write(s); err != nil {
			return err
		}
		prev = s.GeneratedAt
	}
}

// ReplayLogFile opens a file and replays its snapshots.
func ReplayLogFile(path string, writer SnapshotWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayLog(f, writer, speed)
}
