package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	schemaPath string
)

var rootCmd = &cobra.Command{
	Use:   "network-analyser",
	Short: "Network security telemetry analyser",
	Long:  "network-analyser generates network security snapshots on a timer and streams them to terminals, files, brokers and databases.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/analyser.yaml", "Path to analyser configuration YAML")
	rootCmd.PersistentFlags().StringVar(&schemaPath, "schema", "schemas/analyser.cue", "Path to CUE schema file (empty to skip validation)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replayCmd)
}
