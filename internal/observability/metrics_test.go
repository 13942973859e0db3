package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestRecordTripsPersisted(t *testing.T) {
	before := testutil.ToFloat64(tripsPersistedCounter)
	ts := time.Unix(1_700_000_000, 0)

	RecordTripsPersisted(ts, 5)
	RecordTripsPersisted(time.Time{}, 100)

	var m dto.Metric
	require.NoError(t, tripsPersistedGauge.Write(&m))
	require.Equal(t, float64(ts.Unix()), m.GetGauge().GetValue())
	require.Equal(t, before+5, testutil.ToFloat64(tripsPersistedCounter))
}

func TestRecordRunOnlyMovesWatermarkOnSuccess(t *testing.T) {
	ok := time.Unix(1_700_000_100, 0)
	RecordRun("trip", "success", ok)
	RecordRun("trip", "failed", ok.Add(time.Hour))

	require.Equal(t, float64(ok.Unix()), testutil.ToFloat64(lastSuccessGauge))
	require.GreaterOrEqual(t, testutil.ToFloat64(pipelineRuns.WithLabelValues("trip", "failed")), 1.0)
}

func TestObserveStageAndDropped(t *testing.T) {
	before := testutil.ToFloat64(stageRows.WithLabelValues("extract"))
	ObserveStage("extract", 20*time.Millisecond, 7)
	require.Equal(t, before+7, testutil.ToFloat64(stageRows.WithLabelValues("extract")))

	droppedBefore := testutil.ToFloat64(droppedRows.WithLabelValues("missing_essential"))
	RecordDropped("missing_essential", 0)
	RecordDropped("missing_essential", 2)
	require.Equal(t, droppedBefore+2, testutil.ToFloat64(droppedRows.WithLabelValues("missing_essential")))
}
