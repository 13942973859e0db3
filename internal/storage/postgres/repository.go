// Package postgres registers the "postgres" storage backend on a pgx pool.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weitweety/biking-data-analyzer/internal/domain"
	"github.com/weitweety/biking-data-analyzer/internal/observability"
	"github.com/weitweety/biking-data-analyzer/internal/storage"
)

func init() {
	storage.Register("postgres", Open)
}

const schema = `
CREATE TABLE IF NOT EXISTS bike_trips (
    id BIGSERIAL PRIMARY KEY,
    tripduration BIGINT NOT NULL,
    start_time TIMESTAMP NOT NULL,
    stop_time TIMESTAMP NOT NULL,
    start_station_id BIGINT,
    start_station_name VARCHAR(255),
    start_station_latitude DOUBLE PRECISION,
    start_station_longitude DOUBLE PRECISION,
    end_station_id BIGINT,
    end_station_name VARCHAR(255),
    end_station_latitude DOUBLE PRECISION,
    end_station_longitude DOUBLE PRECISION,
    bike_id BIGINT,
    user_type VARCHAR(50),
    birth_year BIGINT,
    gender BIGINT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_bike_trips_start_time ON bike_trips (start_time);
CREATE TABLE IF NOT EXISTS data_records (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    category VARCHAR(100) NOT NULL,
    value DOUBLE PRECISION NOT NULL,
    description TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ
);`

const tripColumns = `id, tripduration, start_time, stop_time,
        start_station_id, start_station_name, start_station_latitude, start_station_longitude,
        end_station_id, end_station_name, end_station_latitude, end_station_longitude,
        bike_id, user_type, birth_year, gender, created_at, updated_at`

var tripCopyColumns = []string{
	"tripduration", "start_time", "stop_time",
	"start_station_id", "start_station_name", "start_station_latitude", "start_station_longitude",
	"end_station_id", "end_station_name", "end_station_latitude", "end_station_longitude",
	"bike_id", "user_type", "birth_year", "gender",
}

// hourOverlapQuery counts, per hour of day, the trips whose [start, stop) range
// intersects one of the 24 one-hour windows anchored on the trip's start hour.
const hourOverlapQuery = `
SELECT mod(extract(hour FROM t.start_time)::int + g.offs, 24) AS bucket, COUNT(*) AS count
FROM bike_trips t
CROSS JOIN generate_series(0, 23) AS g(offs)
WHERE t.stop_time > t.start_time
  AND tsrange(date_trunc('hour', t.start_time) + g.offs * interval '1 hour',
              date_trunc('hour', t.start_time) + (g.offs + 1) * interval '1 hour', '[)')
      && tsrange(t.start_time, t.stop_time, '[)')
GROUP BY bucket
ORDER BY bucket`

// Repository provides Postgres-backed persistence for trips and data records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Open creates a pool for cfg.DSN and verifies connectivity.
func Open(ctx context.Context, cfg storage.Config) (storage.Store, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", domain.ErrUpstreamUnavailable, err)
	}
	return NewRepository(pool), nil
}

// Close releases the pool.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// Ping runs SELECT 1.
func (r *Repository) Ping(ctx context.Context) error {
	var one int
	if err := r.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}

// EnsureSchema creates tables and indexes when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres schema: %w", err)
	}
	return nil
}

// InsertTrips copies trips into bike_trips inside a single transaction.
func (r *Repository) InsertTrips(ctx context.Context, trips []domain.Trip, clearExisting bool) (int64, error) {
	rows := make([][]any, len(trips))
	for i, t := range trips {
		rows[i] = []any{
			t.TripDuration, t.StartTime.UTC(), t.StopTime.UTC(),
			t.StartStationID, t.StartStationName, t.StartStationLatitude, t.StartStationLongitude,
			t.EndStationID, t.EndStationName, t.EndStationLatitude, t.EndStationLongitude,
			t.BikeID, t.UserType, t.BirthYear, t.Gender,
		}
	}
	n, err := r.copyIn(ctx, "bike_trips", tripCopyColumns, rows, clearExisting)
	if err != nil {
		return 0, err
	}
	observability.RecordTripsPersisted(time.Now(), n)
	return n, nil
}

// InsertRecords copies data records inside a single transaction.
func (r *Repository) InsertRecords(ctx context.Context, records []domain.DataRecord, clearExisting bool) (int64, error) {
	rows := make([][]any, len(records))
	for i, rec := range records {
		rows[i] = []any{rec.Name, rec.Category, rec.Value, rec.Description}
	}
	return r.copyIn(ctx, "data_records", []string{"name", "category", "value", "description"}, rows, clearExisting)
}

func (r *Repository) copyIn(ctx context.Context, table string, columns []string, rows [][]any, clearExisting bool) (n int64, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %v", domain.ErrTransaction, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
			err = fmt.Errorf("%w: %s: %w", domain.ErrTransaction, table, err)
		}
	}()

	if clearExisting {
		if _, err = tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return 0, err
		}
	}

	if len(rows) > 0 {
		if n, err = tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows)); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteAllTrips removes every trip.
func (r *Repository) DeleteAllTrips(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM bike_trips")
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListTrips returns trips ordered by id.
func (r *Repository) ListTrips(ctx context.Context, skip, limit int) ([]domain.Trip, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+tripColumns+" FROM bike_trips ORDER BY id LIMIT $1 OFFSET $2", limit, skip)
	if err != nil {
		return nil, err
	}
	return collectTrips(rows)
}

// TopTrips returns the first n trips by start_time, tie-broken by id.
func (r *Repository) TopTrips(ctx context.Context, n int, order domain.SortOrder) ([]domain.Trip, error) {
	query := "SELECT " + tripColumns + " FROM bike_trips ORDER BY start_time DESC, id DESC LIMIT $1"
	if order == domain.SortAsc {
		query = "SELECT " + tripColumns + " FROM bike_trips ORDER BY start_time ASC, id ASC LIMIT $1"
	}
	rows, err := r.pool.Query(ctx, query, n)
	if err != nil {
		return nil, err
	}
	return collectTrips(rows)
}

// CountTrips counts stored trips.
func (r *Repository) CountTrips(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM bike_trips").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// DurationCounts buckets trips by duration in SQL.
func (r *Repository) DurationCounts(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, storage.DurationCountsQuery("bike_trips"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pairs := map[int]int64{}
	for rows.Next() {
		var bin int
		var n int64
		if err := rows.Scan(&bin, &n); err != nil {
			return nil, err
		}
		pairs[bin] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return storage.BinCounts(pairs), nil
}

// HourOverlap computes hour-of-day overlap counts in SQL.
func (r *Repository) HourOverlap(ctx context.Context) ([]domain.HourBucket, error) {
	rows, err := r.pool.Query(ctx, hourOverlapQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := []domain.HourBucket{}
	for rows.Next() {
		var b domain.HourBucket
		if err := rows.Scan(&b.Hour, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// RecordSummary summarises data_records.
func (r *Repository) RecordSummary(ctx context.Context) (domain.RecordSummary, error) {
	summary := domain.RecordSummary{Categories: map[string]int64{}}
	var avg *float64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*), AVG(value) FROM data_records").Scan(&summary.TotalRecords, &avg); err != nil {
		return domain.RecordSummary{}, err
	}
	if avg != nil {
		summary.AverageValue = *avg
	}

	rows, err := r.pool.Query(ctx, "SELECT category, COUNT(*) FROM data_records GROUP BY category")
	if err != nil {
		return domain.RecordSummary{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var n int64
		if err := rows.Scan(&category, &n); err != nil {
			return domain.RecordSummary{}, err
		}
		summary.Categories[category] = n
	}
	return summary, rows.Err()
}

func collectTrips(rows pgx.Rows) ([]domain.Trip, error) {
	defer rows.Close()
	trips := []domain.Trip{}
	for rows.Next() {
		var t domain.Trip
		if err := rows.Scan(
			&t.ID, &t.TripDuration, &t.StartTime, &t.StopTime,
			&t.StartStationID, &t.StartStationName, &t.StartStationLatitude, &t.StartStationLongitude,
			&t.EndStationID, &t.EndStationName, &t.EndStationLatitude, &t.EndStationLongitude,
			&t.BikeID, &t.UserType, &t.BirthYear, &t.Gender, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}
