package transform

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are tried in order. Fractional seconds are accepted by every
// layout that carries seconds.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"2006-01-02",
}

func parseTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// parseInt accepts plain integers and integral floats such as "12.0".
func parseInt(value string) (int64, bool) {
	if value == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func parseFloat(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// cleanText trims and collapses internal whitespace runs to one space.
func cleanText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// aliasIndex maps a normalised column name to every source position that
// carries it.
type aliasIndex map[string][]int

// get returns the first non-empty trimmed cell among the positions and whether
// the column exists at all.
func (c aliasIndex) get(row []string, name string) (string, bool) {
	positions, ok := c[name]
	if !ok {
		return "", false
	}
	for _, i := range positions {
		if i < len(row) {
			if value := strings.TrimSpace(row[i]); value != "" {
				return value, true
			}
		}
	}
	return "", true
}
