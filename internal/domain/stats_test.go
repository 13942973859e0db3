package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBinIndexBoundaries(t *testing.T) {
	cases := []struct {
		seconds int64
		label   string
	}{
		{0, "<0.5h"},
		{1799, "<0.5h"},
		{1800, "0.5-1h"},
		{3599, "0.5-1h"},
		{7200, "2-3h"},
		{21599, "5-6h"},
		{21600, "6-12h"},
		{86400, "24-48h"},
		{259199, "48-72h"},
		{259200, ">=72h"},
		{10_000_000, ">=72h"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.label, DurationLabels[BinIndex(tc.seconds)], "seconds=%d", tc.seconds)
	}
	require.Len(t, DurationLabels, len(DurationEdges)+1)
}

func TestOverlapHoursAcrossMidnight(t *testing.T) {
	start := time.Date(2024, time.March, 1, 23, 40, 0, 0, time.UTC)
	stop := time.Date(2024, time.March, 2, 0, 20, 0, 0, time.UTC)

	require.Equal(t, []int{23, 0}, OverlapHours(start, stop))
}

func TestOverlapHoursStopOnHourBoundary(t *testing.T) {
	start := time.Date(2024, time.March, 1, 8, 15, 0, 0, time.UTC)
	stop := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

	require.Equal(t, []int{8, 9}, OverlapHours(start, stop))
}

func TestOverlapHoursDegenerateTrips(t *testing.T) {
	at := time.Date(2024, time.March, 1, 8, 15, 0, 0, time.UTC)

	require.Empty(t, OverlapHours(at, at))
	require.Empty(t, OverlapHours(at, at.Add(-time.Minute)))
}

func TestOverlapHoursCapsAtOneDay(t *testing.T) {
	start := time.Date(2024, time.March, 1, 5, 30, 0, 0, time.UTC)
	stop := start.Add(72 * time.Hour)

	hours := OverlapHours(start, stop)
	require.Len(t, hours, 24)
	require.Equal(t, 5, hours[0])
	require.Equal(t, 4, hours[23])
}

func TestCountHourOverlapOrdersBuckets(t *testing.T) {
	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	trips := []Trip{
		{StartTime: day.Add(23*time.Hour + 40*time.Minute), StopTime: day.Add(24*time.Hour + 20*time.Minute)},
		{StartTime: day.Add(23*time.Hour + 5*time.Minute), StopTime: day.Add(23*time.Hour + 10*time.Minute)},
		{StartTime: day.Add(2 * time.Hour), StopTime: day.Add(time.Hour)},
	}

	buckets := CountHourOverlap(trips)
	require.Equal(t, []HourBucket{{Hour: 0, Count: 1}, {Hour: 23, Count: 2}}, buckets)
}
