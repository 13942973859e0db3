// Package api exposes the trip statistics and pipeline trigger endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/weitweety/biking-data-analyzer/internal/airflow"
	"github.com/weitweety/biking-data-analyzer/internal/auth"
	"github.com/weitweety/biking-data-analyzer/internal/domain"
	"github.com/weitweety/biking-data-analyzer/internal/logging"
)

// Scheduler triggers and probes the external workflow scheduler.
type Scheduler interface {
	TriggerDAG(ctx context.Context) (airflow.TriggerResult, error)
	Health(ctx context.Context) airflow.Health
}

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service   *domain.Service
	scheduler Scheduler
	auth      auth.Config
	log       logrus.FieldLogger
}

// NewHandler builds a Handler. An empty auth config leaves /refresh open.
func NewHandler(service *domain.Service, scheduler Scheduler, authCfg auth.Config, log logrus.FieldLogger) *Handler {
	return &Handler{service: service, scheduler: scheduler, auth: authCfg, log: log}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ping", ping)
	mux.HandleFunc("GET /summary", h.summary)
	mux.HandleFunc("GET /hour-range-stats", h.hourRangeStats)
	mux.HandleFunc("GET /trip-duration-stats", h.tripDurationStats)
	mux.HandleFunc("GET /top/{n}", h.topN)
	mux.HandleFunc("GET /records", h.records)
	mux.HandleFunc("GET /data-records/summary", h.recordSummary)
	mux.Handle("POST /refresh", auth.RequireScope(h.auth, auth.ScopePipelineTrigger, http.HandlerFunc(h.refresh)))
	mux.HandleFunc("GET /health/airflow", h.airflowHealth)
}

func ping(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "biking data analyzer API is running",
	})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.TotalTrips(r.Context())
	if err != nil {
		h.fail(w, err, "failed to get summary statistics")
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{TotalRecords: total})
}

func (h *Handler) hourRangeStats(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.service.HourOverlap(r.Context())
	if err != nil {
		h.fail(w, err, "failed to get trip hour range statistics")
		return
	}
	resp := HourRangeStatsResponse{
		HourBucket: make([]int, 0, len(buckets)),
		Count:      make([]int64, 0, len(buckets)),
	}
	for _, b := range buckets {
		resp.HourBucket = append(resp.HourBucket, b.Hour)
		resp.Count = append(resp.Count, b.Count)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) tripDurationStats(w http.ResponseWriter, r *http.Request) {
	hist, err := h.service.DurationHistogram(r.Context())
	if err != nil {
		h.fail(w, err, "failed to get trip duration statistics")
		return
	}
	writeJSON(w, http.StatusOK, DurationStatsResponse{Hours: hist.Labels, Count: hist.Counts})
}

func (h *Handler) topN(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "N must be a positive integer")
		return
	}
	trips, err := h.service.TopTrips(r.Context(), n)
	if err != nil {
		h.fail(w, err, "failed to get top records")
		return
	}
	writeJSON(w, http.StatusOK, TopNResponse{Records: toTripViews(trips), Count: len(trips)})
}

func (h *Handler) records(w http.ResponseWriter, r *http.Request) {
	skip, err := intParam(r, "skip", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "skip must be an integer")
		return
	}
	limit, err := intParam(r, "limit", domain.DefaultListLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "limit must be an integer")
		return
	}
	trips, err := h.service.ListTrips(r.Context(), skip, limit)
	if err != nil {
		h.fail(w, err, "failed to get records")
		return
	}
	writeJSON(w, http.StatusOK, toTripViews(trips))
}

func (h *Handler) recordSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.RecordSummary(r.Context())
	if err != nil {
		h.fail(w, err, "failed to get data record summary")
		return
	}
	categories := summary.Categories
	if categories == nil {
		categories = map[string]int64{}
	}
	writeJSON(w, http.StatusOK, RecordSummaryResponse{
		TotalRecords: summary.TotalRecords,
		Categories:   categories,
		AverageValue: summary.AverageValue,
	})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.scheduler.TriggerDAG(r.Context())
	if err != nil {
		logging.LogError(h.log, "failed to trigger ETL pipeline", err)
		writeError(w, http.StatusBadGateway, "upstream_error", "failed to trigger ETL pipeline")
		return
	}
	fields := logrus.Fields{"dag_run_id": result.DAGRunID}
	if claims, ok := auth.FromContext(r.Context()); ok {
		fields["subject"] = claims.Subject
	}
	h.log.WithFields(fields).Info("triggered ETL pipeline")
	writeJSON(w, http.StatusOK, RefreshResponse{
		Status:   "success",
		Message:  "ETL pipeline triggered successfully",
		DAGRunID: result.DAGRunID,
	})
}

func (h *Handler) airflowHealth(w http.ResponseWriter, r *http.Request) {
	health := h.scheduler.Health(r.Context())
	resp := AirflowHealthResponse{
		Status:     "unhealthy",
		AirflowURL: health.URL,
		Details:    health.Details,
		Error:      health.Error,
		Code:       health.Code,
	}
	if health.Healthy {
		resp.Status = "healthy"
		resp.Code = 0
	}
	writeJSON(w, http.StatusOK, resp)
}

// fail maps caller mistakes to 400 and everything else to a generic 500.
func (h *Handler) fail(w http.ResponseWriter, err error, detail string) {
	if errors.Is(err, domain.ErrInvalidArgument) {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	logging.LogError(h.log, detail, err)
	writeError(w, http.StatusInternalServerError, "server_error", detail)
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
