// Package pipeline runs extract, transform, load and archive as one batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/weitweety/biking-data-analyzer/internal/archive"
	"github.com/weitweety/biking-data-analyzer/internal/domain"
	"github.com/weitweety/biking-data-analyzer/internal/extract"
	"github.com/weitweety/biking-data-analyzer/internal/logging"
	"github.com/weitweety/biking-data-analyzer/internal/metrics/datadog"
	"github.com/weitweety/biking-data-analyzer/internal/notify"
	"github.com/weitweety/biking-data-analyzer/internal/observability"
	"github.com/weitweety/biking-data-analyzer/internal/transform"
)

// Outcome classifies a finished run.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeNoData  Outcome = "no_data"
	OutcomeFailed  Outcome = "failed"
)

// Stage names used in errors, logs and metrics.
const (
	StageValidate  = "validate"
	StageExtract   = "extract"
	StageTransform = "transform"
	StageLoad      = "load"
	StageSnapshot  = "snapshot"
	StageArchive   = "archive"
)

// Store is the persistence surface the pipeline writes to.
type Store interface {
	Ping(ctx context.Context) error
	InsertTrips(ctx context.Context, trips []domain.Trip, clearExisting bool) (int64, error)
	InsertRecords(ctx context.Context, records []domain.DataRecord, clearExisting bool) (int64, error)
}

// Snapshotter exports loaded trips.
type Snapshotter interface {
	WriteTrips(runID string, trips []domain.Trip) (string, error)
}

// Reporter receives a summary of every finished run.
type Reporter interface {
	Report(ctx context.Context, run datadog.Run) error
}

// StageError names the stage that failed a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// RunResult summarises one run.
type RunResult struct {
	RunID      string
	Kind       domain.Kind
	Outcome    Outcome
	StartedAt  time.Time
	FinishedAt time.Time
	Files      []string
	Extracted  int
	Dropped    map[string]int
	Loaded     int64
	Snapshot   string
	Archived   []string
}

// DroppedTotal sums drops across reasons.
func (r RunResult) DroppedTotal() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}

// Runner holds the collaborators shared by every run.
type Runner struct {
	store         Store
	extractor     *extract.Extractor
	archiver      archive.Archiver
	snapshot      Snapshotter
	notifier      notify.Notifier
	reporter      Reporter
	log           logrus.FieldLogger
	dataDir       string
	clearExisting bool
	now           func() time.Time
	newID         func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithSnapshot exports each loaded trip batch.
func WithSnapshot(s Snapshotter) Option {
	return func(r *Runner) { r.snapshot = s }
}

// WithNotifier publishes an event after each run.
func WithNotifier(n notify.Notifier) Option {
	return func(r *Runner) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithReporter submits run summaries to an external metrics backend.
func WithReporter(rep Reporter) Option {
	return func(r *Runner) { r.reporter = rep }
}

// WithClearExisting replaces the table contents on every load.
func WithClearExisting(clear bool) Option {
	return func(r *Runner) { r.clearExisting = clear }
}

// NewRunner builds a Runner reading from dataDir.
func NewRunner(store Store, archiver archive.Archiver, dataDir string, log logrus.FieldLogger, opts ...Option) *Runner {
	r := &Runner{
		store:     store,
		extractor: extract.New(log),
		archiver:  archiver,
		notifier:  notify.Noop{},
		log:       log,
		dataDir:   dataDir,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ValidateConnection reports whether the store answers a trivial query.
func (r *Runner) ValidateConnection(ctx context.Context) bool {
	if err := r.store.Ping(ctx); err != nil {
		logging.LogError(r.log, "database connection validation failed", err)
		return false
	}
	r.log.Debug("database connection validated")
	return true
}

// RunKind runs the pipeline for one input kind.
func (r *Runner) RunKind(ctx context.Context, kind domain.Kind) (RunResult, error) {
	switch kind {
	case domain.KindTrip:
		spec := Spec[domain.Trip]{
			Kind:      kind,
			Transform: transform.Trips,
			Load:      r.store.InsertTrips,
		}
		if r.snapshot != nil {
			spec.Snapshot = r.snapshot.WriteTrips
		}
		return Run(ctx, r, spec)
	case domain.KindDataRecord:
		return Run(ctx, r, Spec[domain.DataRecord]{
			Kind:      kind,
			Transform: transform.Records,
			Load:      r.store.InsertRecords,
		})
	default:
		return RunResult{Kind: kind, Outcome: OutcomeFailed}, &StageError{
			Stage: StageValidate,
			Err:   fmt.Errorf("%w: unknown pipeline kind %q", domain.ErrValidation, kind),
		}
	}
}

func (r *Runner) finish(ctx context.Context, res *RunResult, runErr error, log logrus.FieldLogger) {
	res.FinishedAt = r.now()
	if runErr != nil {
		res.Outcome = OutcomeFailed
	}
	observability.RecordRun(string(res.Kind), string(res.Outcome), res.FinishedAt)

	fields := logrus.Fields{
		"outcome":   res.Outcome,
		"files":     len(res.Files),
		"extracted": res.Extracted,
		"dropped":   res.DroppedTotal(),
		"loaded":    res.Loaded,
		"archived":  len(res.Archived),
		"elapsed":   res.FinishedAt.Sub(res.StartedAt).String(),
	}
	if runErr != nil {
		log.WithFields(fields).WithError(runErr).Error("pipeline run failed")
	} else {
		log.WithFields(fields).Info("pipeline run finished")
	}

	event := notify.RunEvent{
		RunID:      res.RunID,
		Kind:       string(res.Kind),
		Outcome:    string(res.Outcome),
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Files:      len(res.Files),
		Extracted:  res.Extracted,
		Loaded:     res.Loaded,
		Dropped:    res.Dropped,
		Archived:   len(res.Archived),
	}
	if runErr != nil {
		event.Error = runErr.Error()
	}
	if err := r.notifier.Notify(ctx, event); err != nil {
		logging.LogWarn(log.WithError(err), "run notification failed")
	}

	if r.reporter != nil {
		err := r.reporter.Report(ctx, datadog.Run{
			Kind:      event.Kind,
			Outcome:   event.Outcome,
			Duration:  res.FinishedAt.Sub(res.StartedAt),
			Files:     event.Files,
			Extracted: event.Extracted,
			Loaded:    event.Loaded,
			Dropped:   res.DroppedTotal(),
			Archived:  event.Archived,
		})
		if err != nil {
			logging.LogWarn(log.WithError(err), "run metrics submission failed")
		}
	}
}

// Retryable reports whether a failed run may succeed if repeated.
func Retryable(err error) bool {
	return err != nil && !errors.Is(err, domain.ErrValidation) && !errors.Is(err, context.Canceled)
}
