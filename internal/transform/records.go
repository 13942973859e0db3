package transform

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/weitweety/biking-data-analyzer/internal/domain"
	"github.com/weitweety/biking-data-analyzer/internal/extract"
)

const (
	// DropDuplicate is the drop reason for repeated (name, category) pairs.
	DropDuplicate = "duplicate"

	maxRecordValue = 1e10
)

var categoryNames = map[string]string{
	"tech":       "Technology",
	"techology":  "Technology",
	"technology": "Technology",
	"it":         "Technology",
	"fin":        "Financial",
	"finance":    "Financial",
	"financial":  "Financial",
	"health":     "Healthcare",
	"healthcare": "Healthcare",
	"edu":        "Education",
	"education":  "Education",
	"ecommerce":  "E-commerce",
	"e-commerce": "E-commerce",
	"retail":     "Retail",
}

// RecordParser converts raw rows into generic data records.
type RecordParser struct {
	cols  aliasIndex
	title cases.Caser
}

// NewRecordParser binds a parser to the header. Column names are matched
// case-insensitively.
func NewRecordParser(columns []string) *RecordParser {
	cols := aliasIndex{}
	for i, name := range columns {
		key := strings.ToLower(strings.TrimSpace(name))
		cols[key] = append(cols[key], i)
	}
	return &RecordParser{cols: cols, title: cases.Title(language.Und)}
}

// Parse implements Parser. It never drops rows; de-duplication happens after.
func (p *RecordParser) Parse(row []string) (domain.DataRecord, error) {
	name, _ := p.cols.get(row, "name")
	record := domain.DataRecord{
		Name:     cleanText(name),
		Category: p.category(row),
		Value:    p.value(row),
	}
	if description, present := p.cols.get(row, "description"); present {
		cleaned := cleanText(description)
		record.Description = &cleaned
	}
	return record, nil
}

func (p *RecordParser) category(row []string) string {
	raw, present := p.cols.get(row, "category")
	if !present {
		return "General"
	}
	key := strings.ToLower(cleanText(raw))
	if key == "" {
		return "Unknown"
	}
	if mapped, ok := categoryNames[key]; ok {
		return mapped
	}
	return p.title.String(key)
}

func (p *RecordParser) value(row []string) float64 {
	raw, present := p.cols.get(row, "value")
	if !present {
		return 1.0
	}
	return recordValue(raw)
}

// recordValue maps unparseable, NaN or negative input to 0 and clamps large
// values, overflow and +Inf included, to maxRecordValue.
func recordValue(raw string) float64 {
	f, err := strconv.ParseFloat(raw, 64)
	if math.IsInf(f, 1) {
		return maxRecordValue
	}
	if err != nil || math.IsNaN(f) || f < 0 {
		return 0
	}
	return math.Min(f, maxRecordValue)
}

// Records normalises an extracted table into data records, removes duplicate
// (name, category) pairs keeping the first, and orders by value descending.
func Records(table extract.Table, log logrus.FieldLogger) (Result[domain.DataRecord], error) {
	result, err := Apply[domain.DataRecord](table.Rows, NewRecordParser(table.Columns))
	if err != nil {
		return Result[domain.DataRecord]{}, err
	}

	type key struct{ name, category string }
	seen := make(map[key]struct{}, len(result.Items))
	unique := result.Items[:0]
	for _, record := range result.Items {
		k := key{record.Name, record.Category}
		if _, dup := seen[k]; dup {
			result.Dropped[DropDuplicate]++
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, record)
	}
	sort.SliceStable(unique, func(i, j int) bool { return unique[i].Value > unique[j].Value })
	result.Items = unique

	stats := Aggregate(result.Items)
	log.WithFields(logrus.Fields{
		"input":      result.Input,
		"output":     stats.Total,
		"duplicates": result.Dropped[DropDuplicate],
		"categories": len(stats.Categories),
		"avg_value":  stats.AverageValue,
	}).Info("transformed data records")
	return result, nil
}

// Stats summarises a batch of data records.
type Stats struct {
	Total        int
	Categories   map[string]int
	AverageValue float64
	MinValue     float64
	MaxValue     float64
	TotalValue   float64
}

// Aggregate computes batch statistics. An empty batch yields zero values.
func Aggregate(records []domain.DataRecord) Stats {
	stats := Stats{Total: len(records), Categories: map[string]int{}}
	if len(records) == 0 {
		return stats
	}
	stats.MinValue = records[0].Value
	stats.MaxValue = records[0].Value
	for _, record := range records {
		stats.Categories[record.Category]++
		stats.TotalValue += record.Value
		stats.MinValue = math.Min(stats.MinValue, record.Value)
		stats.MaxValue = math.Max(stats.MaxValue, record.Value)
	}
	stats.AverageValue = stats.TotalValue / float64(len(records))
	return stats
}
