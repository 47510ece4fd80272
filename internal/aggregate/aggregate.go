// Package aggregate turns reading sequences from either the store or the fallback
// generator into the windowed series shapes the dashboard consumes.
package aggregate

import (
	"sort"
	"time"

	"aquatech-monitor/internal/models"
)

// LabelLayout is the chart label format.
const LabelLayout = "15:04"

// WindowStart returns the inclusive lower bound of a trailing window of hours ending at now.
func WindowStart(now time.Time, hours int) time.Time {
	return now.Add(-time.Duration(hours) * time.Hour)
}

// InWindow reports whether ts belongs to the trailing window. There is no upper bound:
// readings are never stamped after their insertion time.
func InWindow(ts, now time.Time, hours int) bool {
	return !ts.Before(WindowStart(now, hours))
}

// Chronological returns a copy of readings sorted by timestamp. Equal timestamps keep
// their input order.
func Chronological(readings []models.SensorReading) []models.SensorReading {
	out := make([]models.SensorReading, len(readings))
	copy(out, readings)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Points reduces readings to the fields shown in historical tables.
func Points(readings []models.SensorReading) []models.SeriesPoint {
	sorted := Chronological(readings)
	points := make([]models.SeriesPoint, 0, len(sorted))
	for _, r := range sorted {
		points = append(points, models.SeriesPoint{
			Timestamp:       r.Timestamp,
			Time:            r.Timestamp.Format(LabelLayout),
			PH:              r.PH,
			Temperature:     r.Temperature,
			DissolvedOxygen: r.DissolvedOxygen,
		})
	}
	return points
}

// BuildChartSeries converts persisted readings into parallel chart arrays.
//
// ok is false when fewer than pointCount readings are available; the caller is then
// expected to chart a fallback series of exactly pointCount points instead. The
// returned series is never padded.
func BuildChartSeries(readings []models.SensorReading, pointCount int) (series models.ChartSeries, ok bool) {
	return ChartFromSeries(Points(readings)), len(readings) >= pointCount
}

// ChartFromSeries converts already reduced points, such as a fallback series, into
// chart arrays.
func ChartFromSeries(points []models.SeriesPoint) models.ChartSeries {
	sorted := make([]models.SeriesPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	series := models.ChartSeries{
		Labels:          make([]string, 0, len(sorted)),
		PH:              make([]float64, 0, len(sorted)),
		Temperature:     make([]float64, 0, len(sorted)),
		DissolvedOxygen: make([]float64, 0, len(sorted)),
	}
	for _, p := range sorted {
		label := p.Time
		if label == "" {
			label = p.Timestamp.Format(LabelLayout)
		}
		series.Labels = append(series.Labels, label)
		series.PH = append(series.PH, p.PH)
		series.Temperature = append(series.Temperature, p.Temperature)
		series.DissolvedOxygen = append(series.DissolvedOxygen, p.DissolvedOxygen)
	}
	return series
}
