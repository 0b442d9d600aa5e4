package main

import (
	"flag"
	"log"

	"network-analyser/internal/config"
	"network-analyser/internal/dashboard"
)

func main() {
	cfgPath := flag.String("config", "config/analyser.yaml", "Path to analyser config")
	schemaPath := flag.String("schema", "schemas/analyser.cue", "Path to CUE schema")
	out := flag.String("out", "build", "Output directory")
	flag.Parse()

	cfg, err := config.Load(*cfgPath, *schemaPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := dashboard.Render(*out, cfg.Outputs.Greptime); err != nil {
		log.Fatal(err)
	}
}
