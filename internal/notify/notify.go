// Package notify publishes a small event when a pipeline run finishes.
package notify

import (
	"context"
	"encoding/json"
	"time"
)

// RunEvent describes a finished pipeline run.
type RunEvent struct {
	RunID      string         `json:"run_id"`
	Kind       string         `json:"kind"`
	Outcome    string         `json:"outcome"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Files      int            `json:"files"`
	Extracted  int            `json:"extracted_rows"`
	Loaded     int64          `json:"loaded_rows"`
	Dropped    map[string]int `json:"dropped_rows,omitempty"`
	Archived   int            `json:"archived_files"`
	Error      string         `json:"error,omitempty"`
}

// Encode renders the event as JSON.
func (e RunEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Notifier delivers run events.
type Notifier interface {
	Notify(ctx context.Context, event RunEvent) error
	Close() error
}

// Noop discards events.
type Noop struct{}

// Notify performs no action.
func (Noop) Notify(context.Context, RunEvent) error { return nil }

// Close performs no action.
func (Noop) Close() error { return nil }
