package transform

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/weitweety/biking-data-analyzer/internal/domain"
	"github.com/weitweety/biking-data-analyzer/internal/extract"
)

// DropMissingEssential is the drop reason for rows without duration or timestamps.
const DropMissingEssential = "missing_essential"

// TripColumns lists the canonical bike_trips input columns.
var TripColumns = []string{
	"tripduration",
	"start_time",
	"stop_time",
	"start_station_id",
	"start_station_name",
	"start_station_latitude",
	"start_station_longitude",
	"end_station_id",
	"end_station_name",
	"end_station_latitude",
	"end_station_longitude",
	"bike_id",
	"user_type",
	"birth_year",
	"gender",
}

var tripAliases = map[string]string{
	"trip duration":           "tripduration",
	"trip_duration":           "tripduration",
	"starttime":               "start_time",
	"stoptime":                "stop_time",
	"start station id":        "start_station_id",
	"start station name":      "start_station_name",
	"start station latitude":  "start_station_latitude",
	"start station longitude": "start_station_longitude",
	"end station id":          "end_station_id",
	"end station name":        "end_station_name",
	"end station latitude":    "end_station_latitude",
	"end station longitude":   "end_station_longitude",
	"bikeid":                  "bike_id",
	"usertype":                "user_type",
	"birth year":              "birth_year",
}

var canonicalTrip = func() map[string]struct{} {
	set := make(map[string]struct{}, len(TripColumns))
	for _, col := range TripColumns {
		set[col] = struct{}{}
	}
	return set
}()

// CanonicalTripColumn maps a source header onto a bike_trips column name.
// It returns false for columns the trip schema does not know.
func CanonicalTripColumn(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := tripAliases[name]; ok {
		return canonical, true
	}
	if _, ok := canonicalTrip[name]; ok {
		return name, true
	}
	underscored := strings.Join(strings.Fields(name), "_")
	if _, ok := canonicalTrip[underscored]; ok {
		return underscored, true
	}
	return "", false
}

// TripParser converts raw trip rows into domain.Trip values.
type TripParser struct {
	cols aliasIndex
}

// NewTripParser binds a parser to the given header. Unknown columns are ignored.
// Several source columns may map to the same name, as happens when exports with
// differently spelled headers are concatenated; the first non-empty cell wins.
func NewTripParser(columns []string) *TripParser {
	cols := aliasIndex{}
	for i, name := range columns {
		if canonical, ok := CanonicalTripColumn(name); ok {
			cols[canonical] = append(cols[canonical], i)
		}
	}
	return &TripParser{cols: cols}
}

// Parse implements Parser. Unparseable values become missing; rows missing the
// duration or either timestamp are dropped.
func (p *TripParser) Parse(row []string) (domain.Trip, error) {
	var trip domain.Trip

	duration, okDuration := p.requiredInt("tripduration", row)
	start, okStart := p.timestamp("start_time", row)
	stop, okStop := p.timestamp("stop_time", row)
	if !okDuration || !okStart || !okStop {
		return domain.Trip{}, &DropError{Reason: DropMissingEssential}
	}
	trip.TripDuration = duration
	trip.StartTime = start
	trip.StopTime = stop

	trip.StartStationID = p.optionalInt("start_station_id", row)
	trip.StartStationName = p.text("start_station_name", row)
	trip.StartStationLatitude = p.optionalFloat("start_station_latitude", row)
	trip.StartStationLongitude = p.optionalFloat("start_station_longitude", row)
	trip.EndStationID = p.optionalInt("end_station_id", row)
	trip.EndStationName = p.text("end_station_name", row)
	trip.EndStationLatitude = p.optionalFloat("end_station_latitude", row)
	trip.EndStationLongitude = p.optionalFloat("end_station_longitude", row)
	trip.BikeID = p.optionalInt("bike_id", row)
	trip.UserType = p.text("user_type", row)
	trip.BirthYear = p.optionalInt("birth_year", row)
	trip.Gender = p.optionalInt("gender", row)
	return trip, nil
}

func (p *TripParser) requiredInt(name string, row []string) (int64, bool) {
	value, _ := p.cols.get(row, name)
	return parseInt(value)
}

func (p *TripParser) timestamp(name string, row []string) (time.Time, bool) {
	value, _ := p.cols.get(row, name)
	return parseTime(value)
}

func (p *TripParser) optionalInt(name string, row []string) *int64 {
	value, _ := p.cols.get(row, name)
	n, ok := parseInt(value)
	if !ok {
		return nil
	}
	return &n
}

func (p *TripParser) optionalFloat(name string, row []string) *float64 {
	value, _ := p.cols.get(row, name)
	f, ok := parseFloat(value)
	if !ok {
		return nil
	}
	return &f
}

// text returns nil only when the column is absent from the input.
func (p *TripParser) text(name string, row []string) *string {
	value, present := p.cols.get(row, name)
	if !present {
		return nil
	}
	cleaned := cleanText(value)
	return &cleaned
}

// Trips normalises an extracted table into trips and logs the drop count.
func Trips(table extract.Table, log logrus.FieldLogger) (Result[domain.Trip], error) {
	result, err := Apply[domain.Trip](table.Rows, NewTripParser(table.Columns))
	if err != nil {
		return Result[domain.Trip]{}, err
	}
	if dropped := result.Dropped[DropMissingEssential]; dropped > 0 {
		log.WithFields(logrus.Fields{
			"dropped": dropped,
			"reason":  DropMissingEssential,
		}).Warn("dropped trips missing duration or timestamps")
	}
	log.WithFields(logrus.Fields{"input": result.Input, "output": len(result.Items)}).Info("transformed trips")
	return result, nil
}
