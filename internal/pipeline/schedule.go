package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/weitweety/biking-data-analyzer/internal/domain"
)

// Schedule configures repeated runs.
type Schedule struct {
	Interval   time.Duration
	Retries    int
	RetryDelay time.Duration
}

// RunWithRetries repeats a failed run up to retries more times, pausing
// between attempts. Validation failures and cancellation are not retried.
func (r *Runner) RunWithRetries(ctx context.Context, kind domain.Kind, retries int, delay time.Duration) (RunResult, error) {
	var (
		res RunResult
		err error
	)
	for attempt := 0; ; attempt++ {
		res, err = r.RunKind(ctx, kind)
		if err == nil || !Retryable(err) || attempt >= retries {
			return res, err
		}
		r.log.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"delay":   delay.String(),
		}).WithError(err).Warn("pipeline run failed, retrying")
		if !sleep(ctx, delay) {
			return res, ctx.Err()
		}
	}
}

// Loop runs immediately and then once per interval until ctx is cancelled.
// Failed runs are logged; only cancellation ends the loop.
func (r *Runner) Loop(ctx context.Context, kind domain.Kind, sched Schedule) error {
	ticker := time.NewTicker(sched.Interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunWithRetries(ctx, kind, sched.Retries, sched.RetryDelay); err != nil && ctx.Err() == nil {
			r.log.WithError(err).Error("scheduled pipeline run failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
