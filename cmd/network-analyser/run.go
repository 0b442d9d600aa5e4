package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"network-analyser/internal/admin"
	"network-analyser/internal/config"
	"network-analyser/internal/feed"
	"network-analyser/internal/logging"
	"network-analyser/internal/sink"
	"network-analyser/internal/telemetry"
)

const tuiLogFile = "network-analyser.log"

var (
	runPrintOnly bool
	runTUI       bool
	runNoAdmin   bool
	runTick      time.Duration
	runLogFile   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the snapshot feed",
	Long:  "run starts the feed, subscribes the configured writers and serves the admin API until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath, schemaPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("tick") {
			cfg.TickInterval = runTick
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		if runTUI && cfg.Log.File == "" {
			cfg.Log.File = tuiLogFile
		}

		logger, logCloser, err := logging.NewWithOptions(loggingOptions(cfg.Log))
		if err != nil {
			return err
		}
		defer logCloser.Close()
		logger = logger.With("sensor_id", cfg.SensorID)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, logger)

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		gen := telemetry.NewGenerator(telemetry.WithProfile(cfg.Profile()))
		svc := feed.NewService(gen, feed.Config{
			Interval: cfg.TickInterval,
			Logger:   logger,
			Metrics:  feed.NewMetrics(reg),
		})
		defer svc.Close()

		writer, tui, cleanup, err := newWriters(cfg, writerOptions{
			printOnly: runPrintOnly,
			tui:       runTUI,
			logFile:   runLogFile,
		}, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		unsubscribe := svc.Subscribe(sink.Observer(writer, logger))
		defer unsubscribe()

		if !runNoAdmin {
			srv := admin.NewServer(svc, cfg.SensorID, reg, logger)
			go func() {
				if tui != nil {
					tui.SetAdminStatus(true)
				}
				if err := srv.Start(ctx, cfg.Admin.Addr); err != nil {
					logging.FromContext(ctx).Error("admin server failed", "err", err)
					if tui != nil {
						tui.SetAdminStatus(false)
					}
				}
			}()
		}

		<-ctx.Done()
		logger.Info("network analyser stopped")
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runPrintOnly, "print-only", false, "Only print snapshots; skip GreptimeDB, MQTT and Redis sinks")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Render snapshots in an interactive terminal UI")
	runCmd.Flags().BoolVar(&runNoAdmin, "no-admin", false, "Disable the HTTP admin server")
	runCmd.Flags().DurationVar(&runTick, "tick", config.DefaultTickInterval, "Snapshot tick interval (e.g. 500ms, 2s)")
	runCmd.Flags().StringVar(&runLogFile, "log-file", "", "Path to export snapshots (JSONL)")
}

func loggingOptions(l config.Log) logging.Options {
	return logging.Options{
		Level:      l.Level,
		File:       l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		JSON:       l.Format == "json",
	}
}
