// Package datadog submits a summary of each pipeline run to Datadog.
//
// The pipeline is a short batch job, so the reporter does not buffer: one
// payload is submitted when a run finishes. Credentials are read by the
// Datadog client from DD_API_KEY and DD_SITE.
package datadog

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
)

// Run is the subset of a run summary that is reported.
type Run struct {
	Kind      string
	Outcome   string
	Duration  time.Duration
	Files     int
	Extracted int
	Loaded    int64
	Dropped   int
	Archived  int
}

type metricsSubmitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

// Reporter turns run summaries into gauge and count series.
type Reporter struct {
	api    metricsSubmitter
	prefix string
	tags   []string
	now    func() time.Time
}

// NewReporter builds a reporter backed by the official client.
func NewReporter(prefix string, tags ...string) *Reporter {
	client := dd.NewAPIClient(dd.NewConfiguration())
	return newReporter(datadogV2.NewMetricsApi(client), prefix, tags)
}

func newReporter(api metricsSubmitter, prefix string, tags []string) *Reporter {
	if prefix == "" {
		prefix = "biking_etl"
	}
	base := make([]string, 0, len(tags)+1)
	base = append(base, resolveEnvTag())
	base = append(base, tags...)
	return &Reporter{api: api, prefix: prefix, tags: base, now: time.Now}
}

func resolveEnvTag() string {
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		return "env:" + v
	}
	if v := strings.TrimSpace(os.Getenv("DD_ENV")); v != "" {
		return "env:" + v
	}
	return "env:unknown"
}

// Report submits one payload for run.
func (r *Reporter) Report(ctx context.Context, run Run) error {
	ts := r.now().Unix()
	tags := append(append([]string{}, r.tags...), "kind:"+run.Kind, "outcome:"+run.Outcome)

	series := []datadogV2.MetricSeries{
		r.series("run.count", datadogV2.METRICINTAKETYPE_COUNT, 1, tags, ts),
		r.series("run.duration_seconds", datadogV2.METRICINTAKETYPE_GAUGE, run.Duration.Seconds(), tags, ts),
		r.series("run.files", datadogV2.METRICINTAKETYPE_GAUGE, float64(run.Files), tags, ts),
		r.series("rows.extracted", datadogV2.METRICINTAKETYPE_COUNT, float64(run.Extracted), tags, ts),
		r.series("rows.loaded", datadogV2.METRICINTAKETYPE_COUNT, float64(run.Loaded), tags, ts),
		r.series("rows.dropped", datadogV2.METRICINTAKETYPE_COUNT, float64(run.Dropped), tags, ts),
		r.series("files.archived", datadogV2.METRICINTAKETYPE_COUNT, float64(run.Archived), tags, ts),
	}

	_, _, err := r.api.SubmitMetrics(dd.NewDefaultContext(ctx), datadogV2.MetricPayload{Series: series}, *datadogV2.NewSubmitMetricsOptionalParameters())
	return err
}

func (r *Reporter) series(name string, kind datadogV2.MetricIntakeType, value float64, tags []string, ts int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: r.prefix + "." + name,
		Type:   kind.Ptr(),
		Points: []datadogV2.MetricPoint{
			{Timestamp: dd.PtrInt64(ts), Value: dd.PtrFloat64(value)},
		},
		Tags: tags,
	}
}
