package api

import (
	"time"

	"github.com/weitweety/biking-data-analyzer/internal/domain"
)

// TripView is the JSON shape of one stored trip.
type TripView struct {
	ID                    int64      `json:"id"`
	TripDuration          int64      `json:"tripduration"`
	StartTime             time.Time  `json:"start_time"`
	StopTime              time.Time  `json:"stop_time"`
	StartStationID        *int64     `json:"start_station_id"`
	StartStationName      *string    `json:"start_station_name"`
	StartStationLatitude  *float64   `json:"start_station_latitude"`
	StartStationLongitude *float64   `json:"start_station_longitude"`
	EndStationID          *int64     `json:"end_station_id"`
	EndStationName        *string    `json:"end_station_name"`
	EndStationLatitude    *float64   `json:"end_station_latitude"`
	EndStationLongitude   *float64   `json:"end_station_longitude"`
	BikeID                *int64     `json:"bike_id"`
	UserType              *string    `json:"user_type"`
	BirthYear             *int64     `json:"birth_year"`
	Gender                *int64     `json:"gender"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             *time.Time `json:"updated_at"`
}

// SummaryResponse is returned by GET /summary.
type SummaryResponse struct {
	TotalRecords int64 `json:"total_records"`
}

// HourRangeStatsResponse pairs hour buckets with trip counts.
type HourRangeStatsResponse struct {
	HourBucket []int   `json:"hour_bucket"`
	Count      []int64 `json:"count"`
}

// DurationStatsResponse pairs duration bin labels with trip counts.
type DurationStatsResponse struct {
	Hours []string `json:"hours"`
	Count []int64  `json:"count"`
}

// TopNResponse is returned by GET /top/{n}.
type TopNResponse struct {
	Records []TripView `json:"records"`
	Count   int        `json:"count"`
}

// RecordSummaryResponse is returned by GET /data-records/summary.
type RecordSummaryResponse struct {
	TotalRecords int64            `json:"total_records"`
	Categories   map[string]int64 `json:"categories"`
	AverageValue float64          `json:"average_value"`
}

// RefreshResponse acknowledges a triggered DAG run.
type RefreshResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	DAGRunID string `json:"dag_run_id"`
}

// AirflowHealthResponse reports scheduler reachability.
type AirflowHealthResponse struct {
	Status     string         `json:"status"`
	AirflowURL string         `json:"airflow_url"`
	Details    map[string]any `json:"details,omitempty"`
	Error      string         `json:"error,omitempty"`
	Code       int            `json:"code,omitempty"`
}

func toTripView(t domain.Trip) TripView {
	return TripView{
		ID:                    t.ID,
		TripDuration:          t.TripDuration,
		StartTime:             t.StartTime,
		StopTime:              t.StopTime,
		StartStationID:        t.StartStationID,
		StartStationName:      t.StartStationName,
		StartStationLatitude:  t.StartStationLatitude,
		StartStationLongitude: t.StartStationLongitude,
		EndStationID:          t.EndStationID,
		EndStationName:        t.EndStationName,
		EndStationLatitude:    t.EndStationLatitude,
		EndStationLongitude:   t.EndStationLongitude,
		BikeID:                t.BikeID,
		UserType:              t.UserType,
		BirthYear:             t.BirthYear,
		Gender:                t.Gender,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
}

func toTripViews(trips []domain.Trip) []TripView {
	views := make([]TripView, 0, len(trips))
	for _, t := range trips {
		views = append(views, toTripView(t))
	}
	return views
}
