// Package sqlstore implements storage.Store on database/sql for the SQLite and
// SQL Server backends. Dialect captures the SQL that differs between them.
package sqlstore

import (
	"fmt"
	"strconv"
	"time"
)

// Dialect describes the engine-specific parts of the shared SQL.
type Dialect struct {
	Name string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// Page renders the clause following ORDER BY for skip/limit paging.
	Page func(skip, limit int) string
	// EncodeTime converts a timestamp into a driver argument.
	EncodeTime func(time.Time) any
	// Schema lists idempotent DDL statements.
	Schema []string
	// ChunkRows bounds rows per multi-row INSERT.
	ChunkRows int
}

// SQLiteTimeLayout is fixed-width so stored timestamps sort as text.
const SQLiteTimeLayout = "2006-01-02 15:04:05.000000000"

// SQLite is the dialect for modernc.org/sqlite.
var SQLite = Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
	Page: func(skip, limit int) string {
		return " LIMIT " + strconv.Itoa(limit) + " OFFSET " + strconv.Itoa(skip)
	},
	EncodeTime: func(t time.Time) any { return t.UTC().Format(SQLiteTimeLayout) },
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS bike_trips (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tripduration INTEGER NOT NULL,
			start_time TEXT NOT NULL,
			stop_time TEXT NOT NULL,
			start_station_id INTEGER,
			start_station_name TEXT,
			start_station_latitude REAL,
			start_station_longitude REAL,
			end_station_id INTEGER,
			end_station_name TEXT,
			end_station_latitude REAL,
			end_station_longitude REAL,
			bike_id INTEGER,
			user_type TEXT,
			birth_year INTEGER,
			gender INTEGER,
			created_at TEXT NOT NULL,
			updated_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bike_trips_start_time ON bike_trips (start_time)`,
		`CREATE TABLE IF NOT EXISTS data_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			value REAL NOT NULL,
			description TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT
		)`,
	},
	ChunkRows: 500,
}

// SQLServer is the dialect for github.com/microsoft/go-mssqldb.
var SQLServer = Dialect{
	Name:        "mssql",
	Placeholder: func(n int) string { return "@p" + strconv.Itoa(n) },
	Page: func(skip, limit int) string {
		return fmt.Sprintf(" OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", skip, limit)
	},
	EncodeTime: func(t time.Time) any { return t.UTC() },
	Schema: []string{
		`IF OBJECT_ID(N'dbo.bike_trips', N'U') IS NULL
		CREATE TABLE dbo.bike_trips (
			id BIGINT IDENTITY(1,1) PRIMARY KEY,
			tripduration BIGINT NOT NULL,
			start_time DATETIME2 NOT NULL,
			stop_time DATETIME2 NOT NULL,
			start_station_id BIGINT NULL,
			start_station_name NVARCHAR(255) NULL,
			start_station_latitude FLOAT NULL,
			start_station_longitude FLOAT NULL,
			end_station_id BIGINT NULL,
			end_station_name NVARCHAR(255) NULL,
			end_station_latitude FLOAT NULL,
			end_station_longitude FLOAT NULL,
			bike_id BIGINT NULL,
			user_type NVARCHAR(50) NULL,
			birth_year BIGINT NULL,
			gender BIGINT NULL,
			created_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME(),
			updated_at DATETIME2 NULL
		)`,
		`IF OBJECT_ID(N'dbo.data_records', N'U') IS NULL
		CREATE TABLE dbo.data_records (
			id BIGINT IDENTITY(1,1) PRIMARY KEY,
			name NVARCHAR(255) NOT NULL,
			category NVARCHAR(100) NOT NULL,
			value FLOAT NOT NULL,
			description NVARCHAR(MAX) NULL,
			created_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME(),
			updated_at DATETIME2 NULL
		)`,
	},
	// 16 parameters per trip row stays below the 2100 parameter cap.
	ChunkRows: 100,
}
