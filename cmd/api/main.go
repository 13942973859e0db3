package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weitweety/biking-data-analyzer/internal/airflow"
	"github.com/weitweety/biking-data-analyzer/internal/api"
	"github.com/weitweety/biking-data-analyzer/internal/auth"
	"github.com/weitweety/biking-data-analyzer/internal/config"
	"github.com/weitweety/biking-data-analyzer/internal/domain"
	"github.com/weitweety/biking-data-analyzer/internal/logging"
	"github.com/weitweety/biking-data-analyzer/internal/storage"
	_ "github.com/weitweety/biking-data-analyzer/internal/storage/all"
	httptransport "github.com/weitweety/biking-data-analyzer/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.LogFatal(logging.New("info", "text"), "failed to load configuration", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, storage.Config{Kind: cfg.DatabaseKind, DSN: cfg.DatabaseURL})
	if err != nil {
		logging.LogFatal(log, "failed to open database", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logging.LogFatal(log, "failed to create schema", err)
	}

	service := domain.NewService(store, domain.WithTopOrder(domain.ParseSortOrder(cfg.TopOrder)))
	scheduler := airflow.NewClient(airflow.Config{
		BaseURL:        cfg.AirflowURL,
		Username:       cfg.AirflowUsername,
		Password:       cfg.AirflowPassword,
		DAGID:          cfg.AirflowDAGID,
		TriggerTimeout: cfg.AirflowTriggerTimeout,
		HealthTimeout:  cfg.AirflowHealthTimeout,
	})

	handler := api.NewHandler(service, scheduler, auth.Config{Secret: cfg.RefreshJWTSecret, Issuer: cfg.RefreshJWTIssuer}, log)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	serverCfg := httptransport.DefaultServerConfig(cfg.HTTPAddress)
	server := httptransport.NewServer(serverCfg, api.RequestLogger(log, api.CORS(cfg.CORSOrigin, mux)))

	log.WithField("database", cfg.DatabaseKind).Info("biking data analyzer API starting")
	if err := httptransport.Serve(ctx, server, serverCfg.ShutdownTimeout, log); err != nil {
		logging.LogFatal(log, "server error", err)
	}
	log.Info("server stopped")
}
