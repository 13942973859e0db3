package domain

import (
	"fmt"
	"strings"
	"time"
)

// Trip is one normalized bike trip as stored in bike_trips.
type Trip struct {
	ID                    int64
	TripDuration          int64
	StartTime             time.Time
	StopTime              time.Time
	StartStationID        *int64
	StartStationName      *string
	StartStationLatitude  *float64
	StartStationLongitude *float64
	EndStationID          *int64
	EndStationName        *string
	EndStationLatitude    *float64
	EndStationLongitude   *float64
	BikeID                *int64
	UserType              *string
	BirthYear             *int64
	Gender                *int64
	CreatedAt             time.Time
	UpdatedAt             *time.Time
}

// DataRecord is the generic name/category/value record kept for older datasets.
type DataRecord struct {
	ID          int64
	Name        string
	Category    string
	Value       float64
	Description *string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// RecordSummary aggregates stored data records.
type RecordSummary struct {
	TotalRecords int64
	Categories   map[string]int64
	AverageValue float64
}

// Kind selects which record type a pipeline run processes.
type Kind string

const (
	KindTrip       Kind = "trip"
	KindDataRecord Kind = "data_record"
)

// ParseKind maps a configuration string onto a Kind.
func ParseKind(value string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case "", KindTrip:
		return KindTrip, nil
	case KindDataRecord:
		return KindDataRecord, nil
	default:
		return "", fmt.Errorf("%w: unknown record kind %q", ErrValidation, value)
	}
}

// SortOrder controls the direction of start_time ordering for top-N queries.
type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

// ParseSortOrder defaults to SortDesc for anything other than "asc".
func ParseSortOrder(value string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(value), string(SortAsc)) {
		return SortAsc
	}
	return SortDesc
}
