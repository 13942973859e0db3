// Package storage defines the trip store contract and the registry that maps a
// configured database kind onto a backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/weitweety/biking-data-analyzer/internal/domain"
)

// InsertChunkSize bounds the rows sent per INSERT statement.
const InsertChunkSize = 500

// Config selects and addresses a backend.
type Config struct {
	Kind string
	DSN  string
}

// Store is implemented by every backend.
type Store interface {
	domain.TripRepository

	// Ping runs a trivial read-only query.
	Ping(ctx context.Context) error
	// EnsureSchema creates bike_trips and data_records when missing.
	EnsureSchema(ctx context.Context) error
	// InsertTrips bulk-inserts trips in one transaction. With clearExisting the
	// delete runs in the same transaction, so a failure restores prior rows.
	InsertTrips(ctx context.Context, trips []domain.Trip, clearExisting bool) (int64, error)
	// DeleteAllTrips removes every trip.
	DeleteAllTrips(ctx context.Context) (int64, error)
	// InsertRecords is InsertTrips for data_records.
	InsertRecords(ctx context.Context, records []domain.DataRecord, clearExisting bool) (int64, error)
	Close() error
}

// Factory opens a backend.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. It panics on an empty kind, a
// nil factory or a duplicate registration.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// Open constructs the backend registered for cfg.Kind.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("storage: unsupported kind=%s (registered: %s)", cfg.Kind, strings.Join(Kinds(), ", "))
	}
	return f(ctx, cfg)
}

// Kinds lists registered backends in name order.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for kind := range factories {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}

// DurationBinExpr renders a CASE expression assigning each row its duration bin
// index, matching domain.BinIndex.
func DurationBinExpr(column string) string {
	var b strings.Builder
	b.WriteString("CASE")
	for i, edge := range domain.DurationEdges {
		b.WriteString(" WHEN ")
		b.WriteString(column)
		b.WriteString(" < ")
		b.WriteString(strconv.FormatInt(edge, 10))
		b.WriteString(" THEN ")
		b.WriteString(strconv.Itoa(i))
	}
	b.WriteString(" ELSE ")
	b.WriteString(strconv.Itoa(len(domain.DurationEdges)))
	b.WriteString(" END")
	return b.String()
}

// DurationCountsQuery counts trips per bin for the given table.
func DurationCountsQuery(table string) string {
	return "SELECT bin, COUNT(*) FROM (SELECT " + DurationBinExpr("tripduration") + " AS bin FROM " + table + ") binned GROUP BY bin"
}

// BinCounts places (bin, count) pairs into a slice covering every label.
func BinCounts(pairs map[int]int64) []int64 {
	counts := make([]int64, len(domain.DurationLabels))
	for bin, n := range pairs {
		if bin >= 0 && bin < len(counts) {
			counts[bin] = n
		}
	}
	return counts
}

// Chunks splits n items into [start, end) windows of at most size.
func Chunks(n, size int) [][2]int {
	if size <= 0 {
		size = InsertChunkSize
	}
	out := make([][2]int, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}
