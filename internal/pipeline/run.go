package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/weitweety/biking-data-analyzer/internal/domain"
	"github.com/weitweety/biking-data-analyzer/internal/extract"
	"github.com/weitweety/biking-data-analyzer/internal/observability"
	"github.com/weitweety/biking-data-analyzer/internal/transform"
)

// Spec binds the kind-specific stages of a run.
type Spec[T any] struct {
	Kind      domain.Kind
	Transform func(extract.Table, logrus.FieldLogger) (transform.Result[T], error)
	Load      func(ctx context.Context, items []T, clearExisting bool) (int64, error)
	// Snapshot is optional. Its failure is logged and does not fail the run.
	Snapshot func(runID string, items []T) (string, error)
}

// Run executes validate, extract, transform, load, snapshot and archive in order.
// An empty input ends the run early with OutcomeNoData; the files read, if any,
// are still archived.
func Run[T any](ctx context.Context, r *Runner, spec Spec[T]) (res RunResult, err error) {
	res = RunResult{
		RunID:     r.newID(),
		Kind:      spec.Kind,
		Outcome:   OutcomeSuccess,
		StartedAt: r.now(),
		Dropped:   map[string]int{},
	}
	log := r.log.WithFields(logrus.Fields{"run_id": res.RunID, "kind": spec.Kind})
	log.Info("pipeline run started")
	defer func() { r.finish(ctx, &res, err, log) }()

	started := time.Now()
	if !r.ValidateConnection(ctx) {
		return res, &StageError{Stage: StageValidate, Err: fmt.Errorf("%w: database ping failed", domain.ErrUpstreamUnavailable)}
	}
	observability.ObserveStage(StageValidate, time.Since(started), 0)

	started = time.Now()
	if err := os.MkdirAll(r.dataDir, 0o755); err != nil {
		return res, &StageError{Stage: StageExtract, Err: fmt.Errorf("create data dir: %w", err)}
	}
	batch, err := r.extractor.Dir(ctx, r.dataDir)
	if errors.Is(err, domain.ErrNoData) {
		log.Info("no data extracted")
		res.Outcome = OutcomeNoData
		return res, r.archive(ctx, &res, nil, log)
	}
	if err != nil {
		return res, &StageError{Stage: StageExtract, Err: err}
	}
	res.Files = batch.Files
	res.Extracted = batch.Table.Len()
	observability.ObserveStage(StageExtract, time.Since(started), res.Extracted)
	if res.Extracted == 0 {
		log.Info("no data to transform")
		res.Outcome = OutcomeNoData
		return res, r.archive(ctx, &res, batch.Files, log)
	}

	started = time.Now()
	transformed, err := spec.Transform(batch.Table, log.WithField("stage", StageTransform))
	if err != nil {
		return res, &StageError{Stage: StageTransform, Err: err}
	}
	for reason, n := range transformed.Dropped {
		res.Dropped[reason] = n
		observability.RecordDropped(reason, n)
	}
	observability.ObserveStage(StageTransform, time.Since(started), len(transformed.Items))
	if len(transformed.Items) == 0 {
		log.Info("no rows survived transform")
		res.Outcome = OutcomeNoData
		return res, r.archive(ctx, &res, batch.Files, log)
	}

	started = time.Now()
	loaded, err := spec.Load(ctx, transformed.Items, r.clearExisting)
	if err != nil {
		return res, &StageError{Stage: StageLoad, Err: err}
	}
	res.Loaded = loaded
	observability.ObserveStage(StageLoad, time.Since(started), int(loaded))
	log.WithFields(logrus.Fields{"rows": loaded, "clear_existing": r.clearExisting}).Info("loaded rows")

	if spec.Snapshot != nil {
		started = time.Now()
		path, err := spec.Snapshot(res.RunID, transformed.Items)
		if err != nil {
			log.WithError(err).Warn("snapshot export failed")
		} else {
			res.Snapshot = path
			observability.ObserveStage(StageSnapshot, time.Since(started), len(transformed.Items))
			log.WithField("path", path).Info("wrote snapshot")
		}
	}

	return res, r.archive(ctx, &res, batch.Files, log)
}

func (r *Runner) archive(ctx context.Context, res *RunResult, files []string, log logrus.FieldLogger) error {
	started := time.Now()
	archived, err := r.archiver.Archive(ctx, files)
	res.Archived = archived.Destinations
	if err != nil {
		return &StageError{Stage: StageArchive, Err: err}
	}
	observability.ObserveStage(StageArchive, time.Since(started), len(archived.Destinations))
	log.WithField("files", len(archived.Destinations)).Debug("archive stage complete")
	return nil
}
