package domain

import (
	"context"
	"fmt"
)

const (
	// DefaultListLimit applies when the caller does not pass a limit.
	DefaultListLimit = 100
	// MaxListLimit caps page sizes silently.
	MaxListLimit = 1000
	// MaxTopN bounds top-N requests.
	MaxTopN = 1000
)

// TripRepository is the read side the query service needs from storage.
type TripRepository interface {
	ListTrips(ctx context.Context, skip, limit int) ([]Trip, error)
	TopTrips(ctx context.Context, n int, order SortOrder) ([]Trip, error)
	CountTrips(ctx context.Context) (int64, error)
	DurationCounts(ctx context.Context) ([]int64, error)
	HourOverlap(ctx context.Context) ([]HourBucket, error)
	RecordSummary(ctx context.Context) (RecordSummary, error)
}

// Service answers the statistics queries exposed over HTTP.
type Service struct {
	repo     TripRepository
	topOrder SortOrder
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithTopOrder sets the start_time direction used by TopTrips.
func WithTopOrder(order SortOrder) ServiceOption {
	return func(s *Service) {
		s.topOrder = order
	}
}

// NewService constructs a Service.
func NewService(repo TripRepository, opts ...ServiceOption) *Service {
	s := &Service{repo: repo, topOrder: SortDesc}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListTrips returns one page of trips. Limits above MaxListLimit are clamped.
func (s *Service) ListTrips(ctx context.Context, skip, limit int) ([]Trip, error) {
	if skip < 0 {
		return nil, &ArgumentError{Detail: "skip must be a non-negative integer"}
	}
	if limit < 0 {
		return nil, &ArgumentError{Detail: "limit must be a non-negative integer"}
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.ListTrips(ctx, skip, limit)
}

// TopTrips returns the first n trips ordered by start time.
func (s *Service) TopTrips(ctx context.Context, n int) ([]Trip, error) {
	if n <= 0 {
		return nil, &ArgumentError{Detail: "N must be a positive integer"}
	}
	if n > MaxTopN {
		return nil, &ArgumentError{Detail: fmt.Sprintf("N cannot exceed %d", MaxTopN)}
	}
	return s.repo.TopTrips(ctx, n, s.topOrder)
}

// TotalTrips counts stored trips.
func (s *Service) TotalTrips(ctx context.Context) (int64, error) {
	return s.repo.CountTrips(ctx)
}

// DurationHistogram returns every duration bin, including empty ones.
func (s *Service) DurationHistogram(ctx context.Context) (DurationHistogram, error) {
	counts, err := s.repo.DurationCounts(ctx)
	if err != nil {
		return DurationHistogram{}, err
	}
	if len(counts) != len(DurationLabels) {
		return DurationHistogram{}, fmt.Errorf("duration histogram: got %d bins, want %d", len(counts), len(DurationLabels))
	}
	labels := make([]string, len(DurationLabels))
	copy(labels, DurationLabels)
	return DurationHistogram{Labels: labels, Counts: counts}, nil
}

// HourOverlap returns the non-empty hour buckets ordered by hour.
func (s *Service) HourOverlap(ctx context.Context) ([]HourBucket, error) {
	return s.repo.HourOverlap(ctx)
}

// RecordSummary summarises the generic data records table.
func (s *Service) RecordSummary(ctx context.Context) (RecordSummary, error) {
	return s.repo.RecordSummary(ctx)
}
