package main

import (
	"flag"
	"log"
	"os"

	"network-analyser/internal/config"
	"network-analyser/internal/sink"
)

func main() {
	input := flag.String("input", "", "Path to snapshot log file")
	speed := flag.Float64("speed", 1.0, "Playback speed multiplier")
	printOnly := flag.Bool("print-only", false, "Print snapshots to STDOUT instead of writing to GreptimeDB")
	flag.Parse()

	if *input == "" {
		log.Fatal("input file required")
	}

	cfg := config.Default()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}

	var writer sink.SnapshotWriter
	if *printOnly || cfg.Outputs.Greptime.Endpoint == "" {
		writer = sink.NewJSONStdoutWriter()
	} else {
		w, err := sink.NewGreptimeDBWriter(cfg.Outputs.Greptime, cfg.SensorID, nil)
		if err != nil {
			log.Fatalf("Failed to init GreptimeDB writer: %v", err)
		}
		writer = w
	}

	if err := sink.ReplayLogFile(*input, writer, *speed); err != nil {
		log.Fatalf("Replay failed: %v", err)
	}
}
