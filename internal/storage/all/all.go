// Package all links every storage backend into a binary.
package all

import (
	_ "github.com/weitweety/biking-data-analyzer/internal/storage/mssql"
	_ "github.com/weitweety/biking-data-analyzer/internal/storage/postgres"
	_ "github.com/weitweety/biking-data-analyzer/internal/storage/sqlite"
)
