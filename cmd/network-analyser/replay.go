package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"network-analyser/internal/config"
	"network-analyser/internal/logging"
	"network-analyser/internal/sink"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a snapshot log file",
	Long:  "replay feeds snapshots from a JSONL log back into the configured writers.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		cfg, err := config.Load(configPath, schemaPath)
		if err != nil {
			return err
		}
		logger, logCloser, err := logging.NewWithOptions(loggingOptions(cfg.Log))
		if err != nil {
			return err
		}
		defer logCloser.Close()

		writer, _, cleanup, err := newWriters(cfg, writerOptions{printOnly: replayPrintOnly}, logger)
		if err != nil {
			return err
		}
		defer cleanup()
		return sink.ReplayLogFile(replayInput, writer, replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to snapshot log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print snapshots to STDOUT instead of writing to brokers and databases")
	replayCmd.MarkFlagRequired("input")
}
