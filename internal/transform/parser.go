// Package transform normalises raw extracted tables into typed records.
package transform

import (
	"errors"
	"fmt"
)

// Parser converts one raw row into a typed record. Implementations are bound to a
// table's column layout when constructed.
type Parser[T any] interface {
	Parse(row []string) (T, error)
}

// DropError rejects a single row without failing the batch.
type DropError struct {
	Reason string
}

func (e *DropError) Error() string { return "row dropped: " + e.Reason }

// Result is the typed output of a transform along with drop accounting.
type Result[T any] struct {
	Items   []T
	Input   int
	Dropped map[string]int
}

// DroppedTotal sums every drop reason.
func (r Result[T]) DroppedTotal() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}

// Apply runs parser over rows in order. Rows rejected with *DropError are counted
// by reason; any other error aborts the batch.
func Apply[T any](rows [][]string, parser Parser[T]) (Result[T], error) {
	result := Result[T]{
		Items:   make([]T, 0, len(rows)),
		Input:   len(rows),
		Dropped: map[string]int{},
	}
	for i, row := range rows {
		item, err := parser.Parse(row)
		if err != nil {
			var drop *DropError
			if errors.As(err, &drop) {
				result.Dropped[drop.Reason]++
				continue
			}
			return Result[T]{}, fmt.Errorf("row %d: %w", i+1, err)
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}
