package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "biking_data_analyzer"

var (
	tripsPersistedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "last_trips_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent trip batch committed to the database.",
	})
	tripsPersistedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "trips_persisted_total",
		Help:      "Number of trips committed to the database.",
	})

	pipelineRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Pipeline runs labelled by record kind and outcome.",
	}, []string{"kind", "outcome"})

	stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Time spent in each pipeline stage.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"stage"})

	stageRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "rows_total",
		Help:      "Rows leaving each pipeline stage.",
	}, []string{"stage"})

	droppedRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "rows_dropped_total",
		Help:      "Rows dropped during transform, labelled by reason.",
	}, []string{"reason"})

	lastSuccessGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful pipeline run.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests labelled by route pattern and status code.",
	}, []string{"route", "code"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)

func init() {
	prometheus.MustRegister(
		tripsPersistedGauge, tripsPersistedCounter,
		pipelineRuns, stageDuration, stageRows, droppedRows, lastSuccessGauge,
		httpRequests, httpDuration,
	)
}

// RecordTripsPersisted updates the persistence watermark and counter.
func RecordTripsPersisted(ts time.Time, n int64) {
	if ts.IsZero() {
		return
	}
	tripsPersistedGauge.Set(float64(ts.Unix()))
	if n > 0 {
		tripsPersistedCounter.Add(float64(n))
	}
}

// ObserveStage records one stage execution.
func ObserveStage(stage string, elapsed time.Duration, rows int) {
	stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	if rows > 0 {
		stageRows.WithLabelValues(stage).Add(float64(rows))
	}
}

// RecordDropped counts rows rejected during transform.
func RecordDropped(reason string, n int) {
	if n > 0 {
		droppedRows.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordRun counts a finished run and moves the success watermark for
// non-failed outcomes.
func RecordRun(kind, outcome string, finished time.Time) {
	pipelineRuns.WithLabelValues(kind, outcome).Inc()
	if outcome != "failed" && !finished.IsZero() {
		lastSuccessGauge.Set(float64(finished.Unix()))
	}
}

// ObserveRequest records one HTTP request.
func ObserveRequest(route string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
