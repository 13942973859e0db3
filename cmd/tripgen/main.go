package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/weitweety/biking-data-analyzer/internal/config"
	"github.com/weitweety/biking-data-analyzer/internal/logging"
	"github.com/weitweety/biking-data-analyzer/internal/tripgen"
)

func main() {
	var (
		rows = flag.Int("rows", 1000, "number of trips to generate")
		out  = flag.String("out", "", "output file (default <DATA_DIR>/generated_trips.csv)")
		seed = flag.Int64("seed", 0, "random seed; 0 picks a random one")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.LogFatal(logging.New("info", "text"), "failed to load configuration", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	path := *out
	if path == "" {
		path = filepath.Join(cfg.DataDir, "generated_trips.csv")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logging.LogFatal(log, "failed to create output directory", err)
	}

	f, err := os.Create(path)
	if err != nil {
		logging.LogFatal(log, "failed to create output file", err)
	}
	if err := tripgen.New(*seed).Write(f, *rows); err != nil {
		f.Close()
		logging.LogFatal(log, "failed to write trips", err)
	}
	if err := f.Close(); err != nil {
		logging.LogFatal(log, "failed to close output file", err)
	}
	log.WithFields(logrus.Fields{"path": path, "rows": *rows}).Info("generated trips")
}
