package main

import (
	"log/slog"
	"os"

	"golang.org/x/term"

	"network-analyser/internal/config"
	"network-analyser/internal/sink"
)

type writerOptions struct {
	printOnly bool
	tui       bool
	logFile   string
}

// newWriters builds the snapshot writers selected by cfg and opts. The
// returned cleanup closes every writer.
func newWriters(cfg *config.AnalyserConfig, opts writerOptions, log *slog.Logger) (*sink.MultiWriter, *sink.TUIWriter, func(), error) {
	ws, tui, err := baseWriters(cfg, opts, log)
	if err != nil {
		return nil, nil, nil, err
	}
	mw := sink.NewMultiWriter(ws...)
	cleanup := func() {
		if err := mw.Close(); err != nil {
			log.Error("closing writers", "err", err)
		}
	}
	return mw, tui, cleanup, nil
}

// baseWriters chooses the display writer followed by every configured sink.
// Broker and database sinks are skipped in print-only mode.
func baseWriters(cfg *config.AnalyserConfig, opts writerOptions, log *slog.Logger) ([]sink.SnapshotWriter, *sink.TUIWriter, error) {
	var ws []sink.SnapshotWriter
	var tui *sink.TUIWriter
	switch {
	case opts.tui:
		tui = sink.NewTUIWriter(cfg.SensorID, cfg.TickInterval)
		ws = append(ws, tui)
	case term.IsTerminal(int(os.Stdout.Fd())):
		ws = append(ws, sink.NewColorStdoutWriter(cfg.SensorID, cfg.TickInterval))
	default:
		ws = append(ws, sink.NewJSONStdoutWriter())
	}

	closeAll := func() { _ = sink.NewMultiWriter(ws...).Close() }

	if opts.logFile != "" {
		fw, err := sink.NewFileWriter(opts.logFile)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		ws = append(ws, fw)
	}
	if opts.printOnly {
		log.Info("print-only mode: broker and database sinks disabled")
		return ws, tui, nil
	}

	out := cfg.Outputs
	if out.Greptime.Endpoint != "" {
		w, err := sink.NewGreptimeDBWriter(out.Greptime, cfg.SensorID, log)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		log.Info("greptime sink enabled", "endpoint", out.Greptime.Endpoint, "database", out.Greptime.Database)
		ws = append(ws, w)
	}
	if out.MQTT.Broker != "" {
		w, err := sink.NewMQTTWriter(out.MQTT, log)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		log.Info("mqtt sink enabled", "broker", out.MQTT.Broker, "topic", out.MQTT.Topic)
		ws = append(ws, w)
	}
	if out.Redis.Addr != "" {
		log.Info("redis sink enabled", "addr", out.Redis.Addr, "key", out.Redis.Key)
		ws = append(ws, sink.NewRedisWriter(out.Redis))
	}
	return ws, tui, nil
}
