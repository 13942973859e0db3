// Package tripgen writes synthetic Citi Bike style trip CSVs for local runs.
package tripgen

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// Header is the Citi Bike export header.
var Header = []string{
	"tripduration", "starttime", "stoptime",
	"start station id", "start station name", "start station latitude", "start station longitude",
	"end station id", "end station name", "end station latitude", "end station longitude",
	"bikeid", "usertype", "birth year", "gender",
}

const timeLayout = "2006-01-02 15:04:05.0000"

type station struct {
	id       int
	name     string
	lat, lon float64
}

// Generator produces reproducible rows for a given seed. A zero seed is random.
type Generator struct {
	faker    *gofakeit.Faker
	stations []station
	from     time.Time
	to       time.Time
}

// New builds a Generator with a pool of stations and a one-month time window.
func New(seed int64) *Generator {
	faker := gofakeit.New(seed)
	stations := make([]station, 40)
	for i := range stations {
		stations[i] = station{
			id:   3000 + i,
			name: faker.Street(),
			lat:  faker.Float64Range(40.68, 40.78),
			lon:  faker.Float64Range(-74.08, -74.02),
		}
	}
	from := time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)
	return &Generator{faker: faker, stations: stations, from: from, to: from.AddDate(0, 1, 0)}
}

// Row returns one CSV record.
func (g *Generator) Row() []string {
	start := g.faker.DateRange(g.from, g.to).Truncate(time.Second)
	// mostly short rides with a long tail into multi-day rentals
	seconds := g.faker.Number(60, 3600)
	if g.faker.Number(1, 20) == 1 {
		seconds = g.faker.Number(3600, 4*86400)
	}
	stop := start.Add(time.Duration(seconds) * time.Second)
	from := g.stations[g.faker.Number(0, len(g.stations)-1)]
	to := g.stations[g.faker.Number(0, len(g.stations)-1)]

	return []string{
		strconv.Itoa(seconds),
		start.Format(timeLayout),
		stop.Format(timeLayout),
		strconv.Itoa(from.id),
		from.name,
		strconv.FormatFloat(from.lat, 'f', 6, 64),
		strconv.FormatFloat(from.lon, 'f', 6, 64),
		strconv.Itoa(to.id),
		to.name,
		strconv.FormatFloat(to.lat, 'f', 6, 64),
		strconv.FormatFloat(to.lon, 'f', 6, 64),
		strconv.Itoa(g.faker.Number(14000, 40000)),
		g.faker.RandomString([]string{"Subscriber", "Subscriber", "Subscriber", "Customer"}),
		strconv.Itoa(g.faker.Number(1940, 2003)),
		strconv.Itoa(g.faker.Number(0, 2)),
	}
}

// Write emits the header followed by rows records.
func (g *Generator) Write(w io.Writer, rows int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < rows; i++ {
		if err := cw.Write(g.Row()); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
