// Package snapshot exports normalised trip batches as Parquet files.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/weitweety/biking-data-analyzer/internal/domain"
)

// TripRow is the Parquet layout of a trip. Optional trip fields map to
// OPTIONAL columns.
type TripRow struct {
	TripDuration          int64    `parquet:"name=tripduration, type=INT64"`
	StartTime             int64    `parquet:"name=start_time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	StopTime              int64    `parquet:"name=stop_time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	StartStationID        *int64   `parquet:"name=start_station_id, type=INT64, repetitiontype=OPTIONAL"`
	StartStationName      *string  `parquet:"name=start_station_name, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	StartStationLatitude  *float64 `parquet:"name=start_station_latitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	StartStationLongitude *float64 `parquet:"name=start_station_longitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	EndStationID          *int64   `parquet:"name=end_station_id, type=INT64, repetitiontype=OPTIONAL"`
	EndStationName        *string  `parquet:"name=end_station_name, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	EndStationLatitude    *float64 `parquet:"name=end_station_latitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	EndStationLongitude   *float64 `parquet:"name=end_station_longitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	BikeID                *int64   `parquet:"name=bike_id, type=INT64, repetitiontype=OPTIONAL"`
	UserType              *string  `parquet:"name=user_type, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	BirthYear             *int64   `parquet:"name=birth_year, type=INT64, repetitiontype=OPTIONAL"`
	Gender                *int64   `parquet:"name=gender, type=INT64, repetitiontype=OPTIONAL"`
}

// NewTripRow converts a trip.
func NewTripRow(t domain.Trip) TripRow {
	return TripRow{
		TripDuration:          t.TripDuration,
		StartTime:             t.StartTime.UnixMilli(),
		StopTime:              t.StopTime.UnixMilli(),
		StartStationID:        t.StartStationID,
		StartStationName:      t.StartStationName,
		StartStationLatitude:  t.StartStationLatitude,
		StartStationLongitude: t.StartStationLongitude,
		EndStationID:          t.EndStationID,
		EndStationName:        t.EndStationName,
		EndStationLatitude:    t.EndStationLatitude,
		EndStationLongitude:   t.EndStationLongitude,
		BikeID:                t.BikeID,
		UserType:              t.UserType,
		BirthYear:             t.BirthYear,
		Gender:                t.Gender,
	}
}

// Writer writes trips_<run id>.parquet files into a directory.
type Writer struct {
	dir string
	log logrus.FieldLogger
}

// NewWriter builds a Writer.
func NewWriter(dir string, log logrus.FieldLogger) *Writer {
	return &Writer{dir: dir, log: log}
}

// WriteTrips writes one snapshot and returns its path. A partial file is
// removed on failure.
func (w *Writer) WriteTrips(runID string, trips []domain.Trip) (_ string, err error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	path := filepath.Join(w.dir, "trips_"+runID+".parquet")

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return "", fmt.Errorf("create snapshot file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(path)
		}
	}()

	pw, err := writer.NewParquetWriter(fw, new(TripRow), 4)
	if err != nil {
		fw.Close()
		return "", fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, trip := range trips {
		if err = pw.Write(NewTripRow(trip)); err != nil {
			fw.Close()
			return "", fmt.Errorf("write row %d: %w", i, err)
		}
	}
	if err = pw.WriteStop(); err != nil {
		fw.Close()
		return "", fmt.Errorf("finalise parquet: %w", err)
	}
	if err = fw.Close(); err != nil {
		return "", fmt.Errorf("close snapshot file: %w", err)
	}

	w.log.WithFields(logrus.Fields{"path": path, "rows": len(trips)}).Info("wrote trip snapshot")
	return path, nil
}
