package transform

import (
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/weitweety/biking-data-analyzer/internal/domain"
	"github.com/weitweety/biking-data-analyzer/internal/extract"
	"github.com/weitweety/biking-data-analyzer/internal/logging"
)

func citiBikeTable() extract.Table {
	return extract.Table{
		Columns: []string{
			"tripduration", "starttime", "stoptime",
			"start station id", "Start Station Name", "start station latitude", "start station longitude",
			"end station id", "end station name", "end station latitude", "end station longitude",
			"bikeid", "usertype", "birth year", "gender", "rideable_type",
		},
		Rows: [][]string{
			{"634", "2019-01-01 00:01:47.4010", "2019-01-01 00:12:22.4380", "3183", "  Exchange   Place ", "40.7162", "-74.0334",
				"3277", "Communipaw & Berry Lane", "40.7143", "-74.0436", "29670", "Subscriber", "1989", "1", "classic"},
			{"", "2019-01-01 00:05:00", "2019-01-01 00:10:00", "1", "A", "", "", "2", "B", "", "", "1", "Customer", "", "0", "x"},
			{"300", "not a date", "2019-01-01 00:10:00", "1", "A", "", "", "2", "B", "", "", "1", "Customer", "", "0", "x"},
			{"12.0", "2019-01-01T08:00:00Z", "1/1/2019 08:30", "abc", "", "NaN", "-74", "", "", "", "", "7.5", "", "1990.0", "", "x"},
		},
	}
}

func TestTripsNormalisesCitiBikeExport(t *testing.T) {
	result, err := Trips(citiBikeTable(), logging.Discard())
	require.NoError(t, err)

	require.Equal(t, 4, result.Input)
	require.Equal(t, 2, result.Dropped[DropMissingEssential])
	require.Len(t, result.Items, 2)

	first := result.Items[0]
	require.Equal(t, int64(634), first.TripDuration)
	require.Equal(t, time.Date(2019, time.January, 1, 0, 1, 47, 401_000_000, time.UTC), first.StartTime)
	require.Equal(t, int64(3183), *first.StartStationID)
	require.Equal(t, "Exchange Place", *first.StartStationName)
	require.InDelta(t, 40.7162, *first.StartStationLatitude, 1e-9)
	require.Equal(t, int64(29670), *first.BikeID)
	require.Equal(t, "Subscriber", *first.UserType)
	require.Equal(t, int64(1989), *first.BirthYear)
	require.Equal(t, int64(1), *first.Gender)

	second := result.Items[1]
	require.Equal(t, int64(12), second.TripDuration)
	require.Equal(t, time.Date(2019, time.January, 1, 8, 30, 0, 0, time.UTC), second.StopTime)
	require.Nil(t, second.StartStationID, "invalid integers become missing")
	require.Nil(t, second.StartStationLatitude, "NaN becomes missing")
	require.InDelta(t, -74.0, *second.StartStationLongitude, 1e-9)
	require.Nil(t, second.BikeID, "non-integral floats are rejected")
	require.Equal(t, int64(1990), *second.BirthYear)
	require.Nil(t, second.Gender)
	require.NotNil(t, second.UserType)
	require.Equal(t, "", *second.UserType, "present but empty text becomes empty string")
}

func TestTripsLogsDroppedCount(t *testing.T) {
	log, hook := logtest.NewNullLogger()

	result, err := Trips(citiBikeTable(), log)
	require.NoError(t, err)

	var dropped *logrus.Entry
	for _, entry := range hook.AllEntries() {
		if _, ok := entry.Data["dropped"]; ok {
			dropped = entry
		}
	}
	require.NotNil(t, dropped)
	require.Equal(t, logrus.WarnLevel, dropped.Level)
	require.Equal(t, result.Input-len(result.Items), dropped.Data["dropped"])
	require.Equal(t, DropMissingEssential, dropped.Data["reason"])

	last := hook.LastEntry()
	require.Equal(t, 4, last.Data["input"])
	require.Equal(t, 2, last.Data["output"])
}

func TestTripsAcrossExportHeaderSpellings(t *testing.T) {
	older, err := extract.ReadCSV(strings.NewReader(
		"tripduration,starttime,stoptime,usertype\n600,2019-01-01 00:00:00,2019-01-01 00:10:00,Subscriber\n"))
	require.NoError(t, err)
	newer, err := extract.ReadCSV(strings.NewReader(
		"Trip Duration,Start Time,Stop Time,User Type\n700,2020-01-01 00:00:00,2020-01-01 00:11:40,Customer\n"))
	require.NoError(t, err)

	table := extract.Concat(older, newer)
	require.Len(t, table.Columns, 8, "raw headers are kept side by side")

	result, err := Trips(table, logging.Discard())
	require.NoError(t, err)
	require.Equal(t, 2, result.Input)
	require.Zero(t, result.DroppedTotal())
	require.Len(t, result.Items, 2)

	second := result.Items[1]
	require.Equal(t, int64(700), second.TripDuration)
	require.Equal(t, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), second.StartTime)
	require.Equal(t, time.Date(2020, time.January, 1, 0, 11, 40, 0, time.UTC), second.StopTime)
	require.Equal(t, "Customer", *second.UserType)
	require.Equal(t, "Subscriber", *result.Items[0].UserType)
}

func TestTripsAbsentTextColumnStaysNil(t *testing.T) {
	table := extract.Table{
		Columns: []string{"tripduration", "start_time", "stop_time"},
		Rows:    [][]string{{"60", "2020-05-01 10:00:00", "2020-05-01 10:01:00"}},
	}

	result, err := Trips(table, logging.Discard())
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Nil(t, result.Items[0].StartStationName)
	require.Nil(t, result.Items[0].UserType)
}

func TestTripsPreservesOrder(t *testing.T) {
	table := extract.Table{Columns: []string{"tripduration", "starttime", "stoptime"}}
	for _, d := range []string{"3", "", "1", "2"} {
		table.Rows = append(table.Rows, []string{d, "2020-05-01 10:00:00", "2020-05-01 10:01:00"})
	}

	result, err := Trips(table, logging.Discard())
	require.NoError(t, err)
	var got []int64
	for _, trip := range result.Items {
		got = append(got, trip.TripDuration)
	}
	require.Equal(t, []int64{3, 1, 2}, got)
	require.Equal(t, 1, result.DroppedTotal())
}

func TestCanonicalTripColumn(t *testing.T) {
	cases := map[string]string{
		"StartTime":          "start_time",
		" birth year ":       "birth_year",
		"start_station_name": "start_station_name",
		"End  Station  Name": "end_station_name",
		"user_type":          "user_type",
	}
	for in, want := range cases {
		got, ok := CanonicalTripColumn(in)
		require.True(t, ok, in)
		require.Equal(t, want, got, in)
	}
	_, ok := CanonicalTripColumn("rideable_type")
	require.False(t, ok)
}

func TestRecordsRules(t *testing.T) {
	table := extract.Table{
		Columns: []string{"Name", "Category", "Value", "Description"},
		Rows: [][]string{
			{" Alpha  Co ", "tech", "10", "  first  "},
			{"Beta", "techology", "-5", ""},
			{"Gamma", "", "NaN", "x"},
			{"Delta", "space travel", "5e12", "y"},
			{"Alpha Co", "IT", "99", "dup of first"},
			{"Eps", "finance", "abc", "z"},
		},
	}

	result, err := Records(table, logging.Discard())
	require.NoError(t, err)
	require.Equal(t, 1, result.Dropped[DropDuplicate])

	var names, categories []string
	var values []float64
	for _, r := range result.Items {
		names = append(names, r.Name)
		categories = append(categories, r.Category)
		values = append(values, r.Value)
	}
	require.Equal(t, []string{"Delta", "Alpha Co", "Beta", "Gamma", "Eps"}, names)
	require.Equal(t, []string{"Space Travel", "Technology", "Technology", "Unknown", "Financial"}, categories)
	require.Equal(t, []float64{1e10, 10, 0, 0, 0}, values)
	require.Equal(t, "first", *result.Items[1].Description)
	require.NotNil(t, result.Items[2].Description)
	require.Equal(t, "", *result.Items[2].Description, "present but empty description becomes empty string")
}

func TestRecordValue(t *testing.T) {
	cases := map[string]float64{
		"12.5":      12.5,
		"1e400":     1e10,
		"inf":       1e10,
		"+Infinity": 1e10,
		"-inf":      0,
		"-1e400":    0,
		"NaN":       0,
		"":          0,
	}
	for in, want := range cases {
		require.Equal(t, want, recordValue(in), in)
	}
}

func TestRecordsAcrossHeaderCasing(t *testing.T) {
	older, err := extract.ReadCSV(strings.NewReader("name,category,value\nAcme,tech,3\n"))
	require.NoError(t, err)
	newer, err := extract.ReadCSV(strings.NewReader("Name,Category,Value\nBolt,finance,7\n"))
	require.NoError(t, err)

	result, err := Records(extract.Concat(older, newer), logging.Discard())
	require.NoError(t, err)
	require.Equal(t, []domain.DataRecord{
		{Name: "Bolt", Category: "Financial", Value: 7},
		{Name: "Acme", Category: "Technology", Value: 3},
	}, result.Items)
}

func TestRecordsAbsentColumns(t *testing.T) {
	table := extract.Table{Columns: []string{"name"}, Rows: [][]string{{"solo"}}}

	result, err := Records(table, logging.Discard())
	require.NoError(t, err)
	require.Equal(t, []domain.DataRecord{{Name: "solo", Category: "General", Value: 1.0}}, result.Items)
}

func TestAggregate(t *testing.T) {
	stats := Aggregate([]domain.DataRecord{
		{Category: "A", Value: 2},
		{Category: "A", Value: 4},
		{Category: "B", Value: 9},
	})
	require.Equal(t, 3, stats.Total)
	require.Equal(t, map[string]int{"A": 2, "B": 1}, stats.Categories)
	require.InDelta(t, 5.0, stats.AverageValue, 1e-9)
	require.Equal(t, 2.0, stats.MinValue)
	require.Equal(t, 9.0, stats.MaxValue)
	require.Equal(t, 15.0, stats.TotalValue)

	require.Zero(t, Aggregate(nil).Total)
}
