// Package extract reads raw CSV trip logs into an in-memory table.
package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/weitweety/biking-data-analyzer/internal/domain"
)

// Table is a column-labelled set of raw string cells. Empty cells mean missing.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Len returns the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// Index returns the position of a column, or -1.
func (t Table) Index(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// ReadCSV parses a header row followed by data rows.
// Short rows are padded; an empty input yields an empty table.
func ReadCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, nil
	}
	if err != nil {
		return Table{}, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		columns[i] = strings.TrimSpace(name)
	}

	table := Table{Columns: columns}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read row %d: %w", table.Len()+1, err)
		}
		row := make([]string, len(columns))
		copy(row, record)
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// Concat stacks tables by column name. Columns appear in first-seen order and
// cells a source table lacks are left empty.
func Concat(tables ...Table) Table {
	var out Table
	positions := map[string]int{}
	for _, t := range tables {
		for _, col := range t.Columns {
			if _, ok := positions[col]; !ok {
				positions[col] = len(out.Columns)
				out.Columns = append(out.Columns, col)
			}
		}
	}
	for _, t := range tables {
		for _, src := range t.Rows {
			row := make([]string, len(out.Columns))
			for i, col := range t.Columns {
				if i < len(src) {
					row[positions[col]] = src[i]
				}
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Validate checks that the table is non-empty and carries every required column.
func Validate(t Table, required ...string) error {
	if t.Len() == 0 {
		return fmt.Errorf("%w: table is empty", domain.ErrValidation)
	}
	var missing []string
	for _, col := range required {
		if t.Index(col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required columns %s", domain.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}
