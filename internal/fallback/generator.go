// Package fallback produces synthetic readings, schedules and alerts that have the same
// shape as persisted data. It is used whenever the store is degraded or returns nothing.
//
// Everything here is a pure function of its arguments plus the process random source,
// so it is safe to call from any number of goroutines.
package fallback

import (
	"math"
	"math/rand"
	"time"

	"aquatech-monitor/internal/models"
)

const (
	defaultTank   = "Tank A"
	defaultSensor = "SENSOR_001"
)

// Reading returns a reading with every field drawn uniformly from its domain range.
// The result has no id, sensor or location.
func Reading(now time.Time) models.SensorReading {
	return models.SensorReading{
		Timestamp:       now,
		PH:              uniform(models.PHRange, 2),
		Temperature:     uniform(models.TemperatureRange, 1),
		DissolvedOxygen: uniform(models.DissolvedOxygenRange, 2),
		Turbidity:       uniform(models.TurbidityRange, 1),
		Salinity:        uniform(models.SalinityRange, 2),
		Ammonia:         uniform(models.AmmoniaRange, 3),
	}
}

// HistoricalSeries returns exactly hours points spaced one hour apart, oldest first,
// the last one stamped at now. A non-positive hours yields an empty series.
func HistoricalSeries(now time.Time, hours int) []models.SeriesPoint {
	if hours <= 0 {
		return []models.SeriesPoint{}
	}
	points := make([]models.SeriesPoint, 0, hours)
	for i := hours - 1; i >= 0; i-- {
		ts := now.Add(-time.Duration(i) * time.Hour)
		points = append(points, models.SeriesPoint{
			Timestamp:       ts,
			Time:            ts.Format("15:04"),
			PH:              uniform(models.PHRange, 2),
			Temperature:     uniform(models.TemperatureRange, 1),
			DissolvedOxygen: uniform(models.DissolvedOxygenRange, 2),
		})
	}
	return points
}

// FeedingSchedule returns the canonical five-entry schedule for now's date.
// It is not randomized so dashboards show stable demo content.
func FeedingSchedule(now time.Time) []models.FeedingEvent {
	today := models.DateOf(now)
	at := func(hour, minute int) *time.Time {
		t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		return &t
	}
	return []models.FeedingEvent{
		{Date: today, Time: "06:00", AmountKg: 2.5, Status: models.FeedingCompleted, CompletedAt: at(6, 5), Tank: defaultTank},
		{Date: today, Time: "10:00", AmountKg: 3.0, Status: models.FeedingCompleted, CompletedAt: at(10, 2), Tank: defaultTank},
		{Date: today, Time: "14:00", AmountKg: 2.8, Status: models.FeedingPending, Tank: defaultTank},
		{Date: today, Time: "18:00", AmountKg: 2.5, Status: models.FeedingScheduled, Tank: defaultTank},
		{Date: today, Time: "22:00", AmountKg: 1.8, Status: models.FeedingScheduled, Tank: defaultTank},
	}
}

// Alerts returns the canonical three alerts, newest first.
func Alerts(now time.Time) []models.Alert {
	return []models.Alert{
		{
			Timestamp: now.Add(-10 * time.Minute),
			Message:   "pH level approaching lower threshold",
			Payload:   models.WarningPayload{SensorID: defaultSensor, Value: 6.4, Threshold: 6.5},
		},
		{
			Timestamp:    now.Add(-2 * time.Hour),
			Message:      "Feeding completed successfully",
			Acknowledged: true,
			Payload:      models.InfoPayload{FeedingID: "FEED_001", Amount: 3.0},
		},
		{
			Timestamp:    now.Add(-4 * time.Hour),
			Message:      "Water quality parameters optimal",
			Acknowledged: true,
			Payload:      models.SuccessPayload{SensorID: defaultSensor},
		},
	}
}

// AlertViews returns the canonical alerts with their labels already rendered.
func AlertViews() []models.AlertView {
	return []models.AlertView{
		{Type: models.AlertWarning, Message: "pH level approaching lower threshold", Time: "10 min ago"},
		{Type: models.AlertInfo, Message: "Feeding completed successfully", Time: "2 hours ago"},
		{Type: models.AlertSuccess, Message: "Water quality parameters optimal", Time: "4 hours ago"},
	}
}

// Settings returns the default site configuration.
func Settings(now time.Time) models.SystemSettings {
	return models.SystemSettings{
		Tanks: map[string]models.TankSettings{
			"tank_a": {
				Name:             "Tank A - Main Production",
				CapacityLiters:   10000,
				FishSpecies:      "Atlantic Salmon",
				FishCount:        500,
				OptimalPHRange:   [2]float64{6.5, 8.5},
				OptimalTempRange: [2]float64{18, 24},
				OptimalDORange:   [2]float64{6, 12},
			},
		},
		AlertThresholds: models.AlertThresholds{
			PHMin:        6.5,
			PHMax:        8.5,
			TempMin:      18,
			TempMax:      30,
			DOMin:        4,
			TurbidityMax: 40,
			AmmoniaMax:   1.0,
		},
		Feeding: models.FeedingSettings{
			AutoFeedEnabled:     true,
			FeedType:            "Premium Salmon Feed",
			DailyFeedPercentage: 2.5,
			FeedingTimes:        []string{"06:00", "10:00", "14:00", "18:00", "22:00"},
		},
		SystemInfo: models.SystemInfo{
			InstallationDate: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
			LastMaintenance:  now.AddDate(0, 0, -3),
			NextMaintenance:  now.AddDate(0, 0, 27),
			FirmwareVersion:  "v2.1.3",
		},
	}
}

// uniform draws from r and rounds to the given number of decimals.
// Rounding can land exactly on a bound, which the inclusive range allows.
func uniform(r models.Range, decimals int) float64 {
	v := r.Min + rand.Float64()*(r.Max-r.Min)
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
