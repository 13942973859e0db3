// Package mssql registers the "mssql" storage backend on go-mssqldb.
package mssql

import (
	"context"
	"database/sql"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/weitweety/biking-data-analyzer/internal/storage"
	"github.com/weitweety/biking-data-analyzer/internal/storage/sqlstore"
)

func init() {
	storage.Register("mssql", Open)
}

// Open connects with a sqlserver:// DSN.
func Open(ctx context.Context, cfg storage.Config) (storage.Store, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sqlstore.New(db, sqlstore.SQLServer), nil
}
