package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	lastSkip, lastLimit int
	lastTopN            int
	lastOrder           SortOrder
	durationCounts      []int64
}

func (s *stubRepo) ListTrips(_ context.Context, skip, limit int) ([]Trip, error) {
	s.lastSkip, s.lastLimit = skip, limit
	return nil, nil
}

func (s *stubRepo) TopTrips(_ context.Context, n int, order SortOrder) ([]Trip, error) {
	s.lastTopN, s.lastOrder = n, order
	return make([]Trip, n), nil
}

func (s *stubRepo) CountTrips(context.Context) (int64, error) { return 3, nil }

func (s *stubRepo) DurationCounts(context.Context) ([]int64, error) { return s.durationCounts, nil }

func (s *stubRepo) HourOverlap(context.Context) ([]HourBucket, error) { return nil, nil }

func (s *stubRepo) RecordSummary(context.Context) (RecordSummary, error) { return RecordSummary{}, nil }

func TestListTripsClampsLimit(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	_, err := svc.ListTrips(context.Background(), 0, 5000)
	require.NoError(t, err)
	require.Equal(t, MaxListLimit, repo.lastLimit)

	_, err = svc.ListTrips(context.Background(), 10, 20)
	require.NoError(t, err)
	require.Equal(t, 10, repo.lastSkip)
	require.Equal(t, 20, repo.lastLimit)
}

func TestListTripsRejectsNegativeArguments(t *testing.T) {
	svc := NewService(&stubRepo{})

	_, err := svc.ListTrips(context.Background(), -1, 10)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.ListTrips(context.Background(), 0, -10)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTopTripsBounds(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, WithTopOrder(SortAsc))

	for _, n := range []int{0, -3, MaxTopN + 1} {
		_, err := svc.TopTrips(context.Background(), n)
		var argErr *ArgumentError
		require.True(t, errors.As(err, &argErr), "n=%d", n)
		require.ErrorIs(t, err, ErrInvalidArgument)
	}

	trips, err := svc.TopTrips(context.Background(), MaxTopN)
	require.NoError(t, err)
	require.Len(t, trips, MaxTopN)
	require.Equal(t, SortAsc, repo.lastOrder)
}

func TestDurationHistogramKeepsEveryLabel(t *testing.T) {
	counts := make([]int64, len(DurationLabels))
	counts[0] = 4
	svc := NewService(&stubRepo{durationCounts: counts})

	hist, err := svc.DurationHistogram(context.Background())
	require.NoError(t, err)
	require.Equal(t, DurationLabels, hist.Labels)
	require.Equal(t, counts, hist.Counts)
}

func TestDurationHistogramRejectsShortResult(t *testing.T) {
	svc := NewService(&stubRepo{durationCounts: []int64{1, 2}})

	_, err := svc.DurationHistogram(context.Background())
	require.Error(t, err)
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("")
	require.NoError(t, err)
	require.Equal(t, KindTrip, kind)

	kind, err = ParseKind(" Data_Record ")
	require.NoError(t, err)
	require.Equal(t, KindDataRecord, kind)

	_, err = ParseKind("weather")
	require.ErrorIs(t, err, ErrValidation)
}
