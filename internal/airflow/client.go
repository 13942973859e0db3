// Package airflow talks to the scheduler's stable REST API to trigger the
// pipeline DAG and probe scheduler health.
package airflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/weitweety/biking-data-analyzer/internal/domain"
)

const (
	// DefaultBaseURL is used when no scheduler URL is configured.
	DefaultBaseURL = "http://localhost:8080"
	// DefaultDAGID names the pipeline DAG.
	DefaultDAGID = "etl_pipeline"
)

// Config configures a Client.
type Config struct {
	BaseURL        string
	Username       string
	Password       string
	DAGID          string
	TriggerTimeout time.Duration
	HealthTimeout  time.Duration
}

// Client issues trigger and health requests. Calls are never retried.
type Client struct {
	baseURL  string
	username string
	password string
	dagID    string

	triggerClient *http.Client
	healthClient  *http.Client

	now   func() time.Time
	newID func() string
}

// NewClient constructs a Client, filling defaults for empty fields.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	dagID := cfg.DAGID
	if dagID == "" {
		dagID = DefaultDAGID
	}
	triggerTimeout := cfg.TriggerTimeout
	if triggerTimeout <= 0 {
		triggerTimeout = 10 * time.Second
	}
	healthTimeout := cfg.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = 5 * time.Second
	}
	return &Client{
		baseURL:       base,
		username:      cfg.Username,
		password:      cfg.Password,
		dagID:         dagID,
		triggerClient: &http.Client{Timeout: triggerTimeout},
		healthClient:  &http.Client{Timeout: healthTimeout},
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// BaseURL returns the normalised scheduler URL.
func (c *Client) BaseURL() string { return c.baseURL }

// TriggerResult describes an accepted DAG run.
type TriggerResult struct {
	DAGRunID string
	Response map[string]any
}

// StatusError is returned when the scheduler answers with an unexpected status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return "airflow responded with status " + strconv.Itoa(e.Code)
}

// Unwrap classifies every scheduler rejection as upstream unavailability.
func (e *StatusError) Unwrap() error { return domain.ErrUpstreamUnavailable }

// RunID builds a unique manual run identifier.
func (c *Client) RunID() string {
	suffix := strings.ReplaceAll(c.newID(), "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("manual_trigger_%d_%s", c.now().Unix(), suffix)
}

// TriggerDAG requests a new run of the pipeline DAG.
func (c *Client) TriggerDAG(ctx context.Context) (TriggerResult, error) {
	runID := c.RunID()
	body, err := json.Marshal(map[string]any{
		"conf":       map[string]any{},
		"dag_run_id": runID,
	})
	if err != nil {
		return TriggerResult{}, err
	}

	url := fmt.Sprintf("%s/api/v1/dags/%s/dagRuns", c.baseURL, c.dagID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return TriggerResult{}, err
	}
	c.decorate(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.triggerClient.Do(req)
	if err != nil {
		return TriggerResult{}, fmt.Errorf("%w: trigger dag %s: %v", domain.ErrUpstreamUnavailable, c.dagID, err)
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return TriggerResult{}, &StatusError{Code: resp.StatusCode, Body: string(payload)}
	}

	result := TriggerResult{DAGRunID: runID}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &result.Response); err != nil {
			return TriggerResult{}, fmt.Errorf("decode trigger response: %w", err)
		}
	}
	if id, ok := result.Response["dag_run_id"].(string); ok && id != "" {
		result.DAGRunID = id
	}
	return result, nil
}

// Health is the scheduler health verdict. Code is set when the scheduler
// answered with a non-200 status.
type Health struct {
	Healthy bool
	URL     string
	Details map[string]any
	Error   string
	Code    int
}

// Health probes GET /api/v1/health. It never returns an error; failures are
// reported as an unhealthy verdict.
func (c *Client) Health(ctx context.Context) Health {
	health := Health{URL: c.baseURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/health", nil)
	if err != nil {
		health.Error = err.Error()
		return health
	}
	c.decorate(req)

	resp, err := c.healthClient.Do(req)
	if err != nil {
		health.Error = err.Error()
		return health
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		health.Error = "HTTP " + strconv.Itoa(resp.StatusCode)
		health.Code = resp.StatusCode
		return health
	}

	if err := json.NewDecoder(resp.Body).Decode(&health.Details); err != nil {
		health.Error = "invalid health payload: " + err.Error()
		return health
	}
	health.Healthy = true
	return health
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.username != "" && c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
}
