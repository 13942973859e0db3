package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/weitweety/biking-data-analyzer/internal/archive"
	"github.com/weitweety/biking-data-analyzer/internal/config"
	"github.com/weitweety/biking-data-analyzer/internal/domain"
	"github.com/weitweety/biking-data-analyzer/internal/logging"
	"github.com/weitweety/biking-data-analyzer/internal/metrics/datadog"
	"github.com/weitweety/biking-data-analyzer/internal/notify"
	"github.com/weitweety/biking-data-analyzer/internal/pipeline"
	"github.com/weitweety/biking-data-analyzer/internal/snapshot"
	"github.com/weitweety/biking-data-analyzer/internal/storage"
	_ "github.com/weitweety/biking-data-analyzer/internal/storage/all"
	httptransport "github.com/weitweety/biking-data-analyzer/internal/transport/http"
)

func main() {
	var (
		loop      = flag.Bool("loop", false, "run repeatedly instead of once")
		interval  = flag.Duration("interval", 0, "loop interval (default PIPELINE_INTERVAL)")
		kindFlag  = flag.String("kind", "", "record kind to process: trip or data_record (default PIPELINE_KIND)")
		checkOnly = flag.Bool("check", false, "only validate the database connection")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.LogFatal(logging.New("info", "text"), "failed to load configuration", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	every := time.Duration(0)
	if *loop {
		every = cfg.PipelineInterval
		if *interval > 0 {
			every = *interval
		}
	}
	if err := run(cfg, log, every, *kindFlag, *checkOnly); err != nil {
		logging.LogError(log, "pipeline exited with error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *logrus.Logger, interval time.Duration, kindFlag string, checkOnly bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if kindFlag == "" {
		kindFlag = cfg.PipelineKind
	}
	kind, err := domain.ParseKind(kindFlag)
	if err != nil {
		return err
	}

	store, err := storage.Open(ctx, storage.Config{Kind: cfg.DatabaseKind, DSN: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	archiver, err := newArchiver(cfg, log)
	if err != nil {
		return err
	}
	notifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}
	defer notifier.Close()

	opts := []pipeline.Option{
		pipeline.WithClearExisting(cfg.LoadClearExisting),
		pipeline.WithNotifier(notifier),
	}
	if cfg.SnapshotDir != "" {
		opts = append(opts, pipeline.WithSnapshot(snapshot.NewWriter(cfg.SnapshotDir, log)))
	}
	if cfg.DatadogEnabled {
		opts = append(opts, pipeline.WithReporter(datadog.NewReporter(cfg.DatadogMetricPrefix, "service:biking-pipeline")))
	}
	runner := pipeline.NewRunner(store, archiver, cfg.DataDir, log, opts...)

	if checkOnly {
		if !runner.ValidateConnection(ctx) {
			return fmt.Errorf("%w: database connection check failed", domain.ErrUpstreamUnavailable)
		}
		log.Info("database connection ok")
		return nil
	}

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if interval <= 0 {
		_, err := runner.RunKind(ctx, kind)
		return err
	}

	go serveMetrics(ctx, cfg.MetricsAddress, log)
	log.WithFields(logrus.Fields{"interval": interval.String(), "kind": kind}).Info("pipeline scheduler started")
	return runner.Loop(ctx, kind, pipeline.Schedule{
		Interval:   interval,
		Retries:    cfg.PipelineRetries,
		RetryDelay: cfg.PipelineRetryDelay,
	})
}

func newArchiver(cfg config.Config, log logrus.FieldLogger) (archive.Archiver, error) {
	if cfg.ArchiveS3Bucket == "" {
		return archive.NewLocal(cfg.ProcessedDir, log), nil
	}
	s3, err := archive.NewS3(cfg.AWSRegion, cfg.ArchiveS3Bucket, cfg.ArchiveS3Prefix, log)
	if err != nil {
		return nil, fmt.Errorf("create s3 archiver: %w", err)
	}
	return s3, nil
}

func newNotifier(cfg config.Config) (notify.Notifier, error) {
	switch cfg.NotifyKind {
	case "", "none":
		return notify.Noop{}, nil
	case "kafka":
		return notify.NewKafka(cfg.KafkaBrokers, cfg.NotifyKafkaTopic), nil
	case "amqp":
		return notify.NewAMQP(cfg.AMQPURL, cfg.NotifyAMQPQueue)
	default:
		return nil, fmt.Errorf("%w: unknown NOTIFY_KIND %q (want none|kafka|amqp)", domain.ErrValidation, cfg.NotifyKind)
	}
}

func serveMetrics(ctx context.Context, addr string, log logrus.FieldLogger) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	serverCfg := httptransport.DefaultServerConfig(addr)
	if err := httptransport.Serve(ctx, httptransport.NewServer(serverCfg, mux), serverCfg.ShutdownTimeout, log); err != nil {
		logging.LogError(log, "metrics server error", err)
	}
}
