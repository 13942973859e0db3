package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/weitweety/biking-data-analyzer/internal/domain"
	"github.com/weitweety/biking-data-analyzer/internal/observability"
	"github.com/weitweety/biking-data-analyzer/internal/storage"
)

const tripSelectColumns = `id, tripduration, start_time, stop_time,
	start_station_id, start_station_name, start_station_latitude, start_station_longitude,
	end_station_id, end_station_name, end_station_latitude, end_station_longitude,
	bike_id, user_type, birth_year, gender, created_at, updated_at`

var tripInsertColumns = []string{
	"tripduration", "start_time", "stop_time",
	"start_station_id", "start_station_name", "start_station_latitude", "start_station_longitude",
	"end_station_id", "end_station_name", "end_station_latitude", "end_station_longitude",
	"bike_id", "user_type", "birth_year", "gender", "created_at",
}

var recordInsertColumns = []string{"name", "category", "value", "description", "created_at"}

// Store is a database/sql backed storage.Store.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// New wraps an open database handle.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect, now: time.Now}
}

// DB exposes the underlying handle for tests and maintenance tasks.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the handle.
func (s *Store) Close() error { return s.db.Close() }

// Ping runs SELECT 1.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}

// EnsureSchema runs the dialect DDL.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s schema: %w", s.dialect.Name, err)
		}
	}
	return nil
}

// InsertTrips implements storage.Store.
func (s *Store) InsertTrips(ctx context.Context, trips []domain.Trip, clearExisting bool) (int64, error) {
	created := s.dialect.EncodeTime(s.now())
	rows := make([][]any, len(trips))
	for i, t := range trips {
		rows[i] = []any{
			t.TripDuration, s.dialect.EncodeTime(t.StartTime), s.dialect.EncodeTime(t.StopTime),
			nullable(t.StartStationID), nullable(t.StartStationName), nullable(t.StartStationLatitude), nullable(t.StartStationLongitude),
			nullable(t.EndStationID), nullable(t.EndStationName), nullable(t.EndStationLatitude), nullable(t.EndStationLongitude),
			nullable(t.BikeID), nullable(t.UserType), nullable(t.BirthYear), nullable(t.Gender), created,
		}
	}
	n, err := s.insert(ctx, "bike_trips", tripInsertColumns, rows, clearExisting)
	if err != nil {
		return 0, err
	}
	observability.RecordTripsPersisted(s.now(), n)
	return n, nil
}

// InsertRecords implements storage.Store.
func (s *Store) InsertRecords(ctx context.Context, records []domain.DataRecord, clearExisting bool) (int64, error) {
	created := s.dialect.EncodeTime(s.now())
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{r.Name, r.Category, r.Value, nullable(r.Description), created}
	}
	return s.insert(ctx, "data_records", recordInsertColumns, rows, clearExisting)
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func (s *Store) insert(ctx context.Context, table string, columns []string, rows [][]any, clearExisting bool) (inserted int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %v", domain.ErrTransaction, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("%w: %s: %w", domain.ErrTransaction, table, err)
		}
	}()

	if clearExisting {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return 0, err
		}
	}

	for _, window := range storage.Chunks(len(rows), s.dialect.ChunkRows) {
		chunk := rows[window[0]:window[1]]
		query, args := s.insertStatement(table, columns, chunk)
		var res sql.Result
		if res, err = tx.ExecContext(ctx, query, args...); err != nil {
			return 0, err
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *Store) insertStatement(table string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j, value := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			args = append(args, value)
			b.WriteString(s.dialect.Placeholder(len(args)))
		}
		b.WriteString(")")
	}
	return b.String(), args
}

// DeleteAllTrips implements storage.Store.
func (s *Store) DeleteAllTrips(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM bike_trips")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListTrips returns trips ordered by id.
func (s *Store) ListTrips(ctx context.Context, skip, limit int) ([]domain.Trip, error) {
	if limit == 0 {
		return []domain.Trip{}, nil
	}
	query := "SELECT " + tripSelectColumns + " FROM bike_trips ORDER BY id" + s.dialect.Page(skip, limit)
	return s.queryTrips(ctx, query)
}

// TopTrips returns the first n trips by start_time, tie-broken by id.
func (s *Store) TopTrips(ctx context.Context, n int, order domain.SortOrder) ([]domain.Trip, error) {
	dir := "DESC"
	if order == domain.SortAsc {
		dir = "ASC"
	}
	query := "SELECT " + tripSelectColumns + " FROM bike_trips ORDER BY start_time " + dir + ", id " + dir + s.dialect.Page(0, n)
	return s.queryTrips(ctx, query)
}

// CountTrips implements domain.TripRepository.
func (s *Store) CountTrips(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bike_trips").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// DurationCounts implements domain.TripRepository.
func (s *Store) DurationCounts(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, storage.DurationCountsQuery("bike_trips"))
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

// HourOverlap streams trip windows and counts them with domain.HourCounter.
func (s *Store) HourOverlap(ctx context.Context) ([]domain.HourBucket, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT start_time, stop_time FROM bike_trips WHERE stop_time > start_time")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counter domain.HourCounter
	for rows.Next() {
		var start, stop time.Time
		if err := rows.Scan(&timeScanner{dst: &start}, &timeScanner{dst: &stop}); err != nil {
			return nil, err
		}
		counter.Add(start, stop)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counter.Buckets(), nil
}

// RecordSummary implements domain.TripRepository.
func (s *Store) RecordSummary(ctx context.Context) (domain.RecordSummary, error) {
	summary := domain.RecordSummary{Categories: map[string]int64{}}
	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*), AVG(value) FROM data_records").Scan(&summary.TotalRecords, &avg); err != nil {
		return domain.RecordSummary{}, err
	}
	summary.AverageValue = avg.Float64

	rows, err := s.db.QueryContext(ctx, "SELECT category, COUNT(*) FROM data_records GROUP BY category")
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

func (s *Store) queryTrips(ctx context.Context, query string) ([]domain.Trip, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		var t domain.Trip
		var updated nullTimeScanner
		err := rows.Scan(
			&t.ID, &t.TripDuration, &timeScanner{dst: &t.StartTime}, &timeScanner{dst: &t.StopTime},
			&t.StartStationID, &t.StartStationName, &t.StartStationLatitude, &t.StartStationLongitude,
			&t.EndStationID, &t.EndStationName, &t.EndStationLatitude, &t.EndStationLongitude,
			&t.BikeID, &t.UserType, &t.BirthYear, &t.Gender,
			&timeScanner{dst: &t.CreatedAt}, &updated,
		)
		if err != nil {
			return nil, err
		}
		t.UpdatedAt = updated.value
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// timeScanner accepts native timestamps and the text encodings SQLite returns.
type timeScanner struct {
	dst *time.Time
}

func (ts *timeScanner) Scan(src any) error {
	if src == nil {
		return errors.New("unexpected NULL timestamp")
	}
	t, err := decodeTime(src)
	if err != nil {
		return err
	}
	*ts.dst = t
	return nil
}

type nullTimeScanner struct {
	value *time.Time
}

func (ns *nullTimeScanner) Scan(src any) error {
	if src == nil {
		ns.value = nil
		return nil
	}
	t, err := decodeTime(src)
	if err != nil {
		return err
	}
	ns.value = &t
	return nil
}

var textTimeLayouts = []string{
	SQLiteTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func decodeTime(src any) (time.Time, error) {
	var text string
	switch v := src.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", src)
	}
	for _, layout := range textTimeLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", text)
}
