// Package sink contains consumers that persist or display telemetry
// snapshots delivered by the feed service.
package sink

import (
	"log/slog"

	"network-analyser/internal/feed"
	"network-analyser/internal/telemetry"
)

// SnapshotWriter is an interface to support different output writers.
type SnapshotWriter interface {
	Write(telemetry.Snapshot) error
}

// Observer adapts w to a feed observer. Write errors are logged and
// otherwise dropped so one failing sink never stalls the feed.
func Observer(w SnapshotWriter, log *slog.Logger) feed.Observer {
	if log == nil {
		log = slog.Default()
	}
	return func(s telemetry.Snapshot) {
		if err := w.Write(s); err != nil {
			log.Error("snapshot write failed", "sequence", s.Sequence, "err", err)
		}
	}
}
