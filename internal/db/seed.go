package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aquatech-monitor/internal/fallback"
	"aquatech-monitor/internal/models"
)

const (
	seedDays        = 7
	seedLocation    = "Tank A"
	seedSensorID    = "SENSOR_001"
	settingsDocID   = "singleton"
	seedHoursPerDay = 24
)

// SeedReport lists how many records were written per collection. A collection that
// already held data is reported as zero.
type SeedReport struct {
	Readings int64
	Feedings int64
	Alerts   int64
	Settings int64
}

// Total returns the number of records written.
func (r SeedReport) Total() int64 {
	return r.Readings + r.Feedings + r.Alerts + r.Settings
}

// SeedIfEmpty fills every empty collection with sample content and leaves non-empty
// ones alone, so calling it again is harmless. Failures are logged and returned but
// never change the health state; a failed collection may be left partially seeded.
func (db *Database) SeedIfEmpty(ctx context.Context) (SeedReport, error) {
	var report SeedReport

	conn, d := db.handle()
	if conn == nil {
		return report, db.unavailable()
	}

	seeders := []struct {
		table string
		count *int64
		fill  func(context.Context, *sql.DB, dialect) (int64, error)
	}{
		{CollectionReadings, &report.Readings, db.seedReadings},
		{CollectionFeedings, &report.Feedings, db.seedFeedings},
		{CollectionAlerts, &report.Alerts, db.seedAlerts},
		{CollectionSettings, &report.Settings, db.seedSettings},
	}

	var errs []error
	for _, s := range seeders {
		n, err := countRows(ctx, conn, s.table)
		if err != nil {
			db.logger.Warn("seed count failed", "collection", s.table, "error", err)
			errs = append(errs, fmt.Errorf("count %s: %w", s.table, err))
			continue
		}
		if n > 0 {
			continue
		}

		written, err := s.fill(ctx, conn, d)
		if err != nil {
			db.logger.Warn("seed failed", "collection", s.table, "error", err)
			errs = append(errs, fmt.Errorf("seed %s: %w", s.table, err))
			continue
		}
		*s.count = written
		db.logger.Info("seeded collection", "collection", s.table, "records", written)
	}

	return report, errors.Join(errs...)
}

// seedReadings writes one reading per hour for the past seven days.
func (db *Database) seedReadings(ctx context.Context, conn *sql.DB, d dialect) (int64, error) {
	now := db.now()
	readings := make([]models.SensorReading, 0, seedDays*seedHoursPerDay)
	for day := 0; day < seedDays; day++ {
		for hour := 0; hour < seedHoursPerDay; hour++ {
			r := fallback.Reading(now.Add(-time.Duration(day*seedHoursPerDay+hour) * time.Hour))
			r.Location = seedLocation
			r.SensorID = seedSensorID
			readings = append(readings, r)
		}
	}
	return db.insertReadingsTx(ctx, conn, d, readings)
}

func (db *Database) seedFeedings(ctx context.Context, conn *sql.DB, d dialect) (int64, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var count int64
	for _, e := range fallback.FeedingSchedule(db.now().In(db.loc)) {
		if err := e.Validate(); err != nil {
			return 0, err
		}
		var completedAt any
		if e.CompletedAt != nil {
			completedAt = e.CompletedAt.UTC()
		}
		if _, err := tx.ExecContext(ctx, d.rebind(`
			INSERT INTO feeding_schedules (id, date, time, amount_kg, status, completed_at, tank)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`), models.NewFeedingID().String(), e.Date, e.Time, e.AmountKg, string(e.Status), completedAt, e.Tank); err != nil {
			return 0, fmt.Errorf("insert feeding %s: %w", e.Time, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit feedings: %w", err)
	}
	return count, nil
}

func (db *Database) seedAlerts(ctx context.Context, conn *sql.DB, d dialect) (int64, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var count int64
	for _, a := range fallback.Alerts(db.now()) {
		if _, err := tx.ExecContext(ctx, d.rebind(insertAlertSQL), alertArgs(models.NewAlertID(), a)...); err != nil {
			return 0, fmt.Errorf("insert alert: %w", err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit alerts: %w", err)
	}
	return count, nil
}

func (db *Database) seedSettings(ctx context.Context, conn *sql.DB, d dialect) (int64, error) {
	now := db.now()
	doc, err := json.Marshal(fallback.Settings(now))
	if err != nil {
		return 0, fmt.Errorf("encode settings: %w", err)
	}
	if _, err := conn.ExecContext(ctx, d.rebind(`
		INSERT INTO system_settings (id, document, updated_at) VALUES (?, ?, ?)
	`), settingsDocID, string(doc), now.UTC()); err != nil {
		return 0, fmt.Errorf("insert settings: %w", err)
	}
	return 1, nil
}

const insertAlertSQL = `
	INSERT INTO alerts (id, timestamp, type, message, sensor_id, value, threshold, feeding_id, amount, acknowledged)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// alertArgs flattens the tagged payload into the nullable alert columns.
func alertArgs(id models.AlertID, a models.Alert) []any {
	var sensorID, value, threshold, feedingID, amount any
	switch p := a.Payload.(type) {
	case models.WarningPayload:
		sensorID, value, threshold = p.SensorID, p.Value, p.Threshold
	case models.InfoPayload:
		feedingID, amount = p.FeedingID, p.Amount
	case models.SuccessPayload:
		sensorID = p.SensorID
	}
	return []any{
		id.String(), a.Timestamp.UTC(), string(a.Type()), a.Message,
		sensorID, value, threshold, feedingID, amount, a.Acknowledged,
	}
}

func countRows(ctx context.Context, conn *sql.DB, table string) (int64, error) {
	var n int64
	// table is always one of the Collection constants.
	err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	return n, err
}
