package domain

import "time"

// DurationEdges are the upper bounds, in seconds, of every duration bin but the last.
var DurationEdges = []int64{
	1800, 3600, 5400, 7200,
	10800, 14400, 18000, 21600,
	43200, 64800, 86400,
	172800, 259200,
}

// DurationLabels name the bins delimited by DurationEdges, in order.
var DurationLabels = []string{
	"<0.5h", "0.5-1h", "1-1.5h", "1.5-2h",
	"2-3h", "3-4h", "4-5h", "5-6h",
	"6-12h", "12-18h", "18-24h",
	"24-48h", "48-72h", ">=72h",
}

// BinIndex returns the duration bin for a trip length in seconds.
// Lower bounds are inclusive and upper bounds exclusive.
func BinIndex(seconds int64) int {
	for i, edge := range DurationEdges {
		if seconds < edge {
			return i
		}
	}
	return len(DurationEdges)
}

// DurationHistogram pairs every bin label with its trip count.
type DurationHistogram struct {
	Labels []string
	Counts []int64
}

// HourBucket counts trips overlapping one hour of the day.
type HourBucket struct {
	Hour  int
	Count int64
}

// OverlapHours lists the hour-of-day buckets a trip touches.
//
// Windows are anchored on the start hour and advance one hour at a time for at
// most 24 steps; a window counts when it intersects [start, stop). Trips whose
// stop is not after their start touch nothing.
func OverlapHours(start, stop time.Time) []int {
	if !stop.After(start) {
		return nil
	}
	base := time.Date(start.Year(), start.Month(), start.Day(), start.Hour(), 0, 0, 0, start.Location())
	hours := make([]int, 0, 2)
	for offset := 0; offset < 24; offset++ {
		windowStart := base.Add(time.Duration(offset) * time.Hour)
		if !windowStart.Before(stop) {
			break
		}
		windowEnd := windowStart.Add(time.Hour)
		if windowEnd.After(start) {
			hours = append(hours, (start.Hour()+offset)%24)
		}
	}
	return hours
}

// HourCounter accumulates hour-overlap counts trip by trip.
type HourCounter struct {
	counts [24]int64
}

// Add records one trip.
func (c *HourCounter) Add(start, stop time.Time) {
	for _, hour := range OverlapHours(start, stop) {
		c.counts[hour]++
	}
}

// Buckets returns the non-empty buckets ordered by hour.
func (c *HourCounter) Buckets() []HourBucket {
	buckets := make([]HourBucket, 0, 24)
	for hour, count := range c.counts {
		if count > 0 {
			buckets = append(buckets, HourBucket{Hour: hour, Count: count})
		}
	}
	return buckets
}

// CountHourOverlap folds OverlapHours over trips.
func CountHourOverlap(trips []Trip) []HourBucket {
	var counter HourCounter
	for _, trip := range trips {
		counter.Add(trip.StartTime, trip.StopTime)
	}
	return counter.Buckets()
}
