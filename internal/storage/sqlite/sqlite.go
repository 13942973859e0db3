// Package sqlite registers the "sqlite" storage backend (modernc.org/sqlite,
// pure Go). Timestamps are stored as fixed-width UTC text.
package sqlite

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/weitweety/biking-data-analyzer/internal/storage"
	"github.com/weitweety/biking-data-analyzer/internal/storage/sqlstore"
)

func init() {
	storage.Register("sqlite", Open)
}

// Open connects to the database file named by cfg.DSN.
func Open(ctx context.Context, cfg storage.Config) (storage.Store, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	// one writer at a time; concurrent writers otherwise hit SQLITE_BUSY
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sqlstore.New(db, sqlstore.SQLite), nil
}
