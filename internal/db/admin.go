package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aquatech-monitor/internal/metrics"
	"aquatech-monitor/internal/models"
)

// Counts holds per-collection record counts.
type Counts struct {
	Readings int64 `json:"sensor_data"`
	Feedings int64 `json:"feeding_schedules"`
	Alerts   int64 `json:"alerts"`
	Settings int64 `json:"system_settings"`
}

// Counts reports how many records each collection holds. ok is false when the store
// is unavailable or a count fails.
func (db *Database) Counts(ctx context.Context) (Counts, bool) {
	const op = "counts"
	start := time.Now()

	conn, _ := db.handle()
	if conn == nil {
		observe(op, start, metrics.ResultEmpty)
		return Counts{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout)
	defer cancel()

	var c Counts
	for _, t := range []struct {
		table string
		dst   *int64
	}{
		{CollectionReadings, &c.Readings},
		{CollectionFeedings, &c.Feedings},
		{CollectionAlerts, &c.Alerts},
		{CollectionSettings, &c.Settings},
	} {
		n, err := countRows(ctx, conn, t.table)
		if err != nil {
			db.fail(ctx, conn, op, err)
			observe(op, start, metrics.ResultError)
			return Counts{}, false
		}
		*t.dst = n
	}

	observe(op, start, metrics.ResultOK)
	return c, true
}

// Settings loads the singleton settings document.
func (db *Database) Settings(ctx context.Context) (models.SystemSettings, bool) {
	const op = "settings"
	start := time.Now()

	conn, d := db.handle()
	if conn == nil {
		observe(op, start, metrics.ResultEmpty)
		return models.SystemSettings{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout)
	defer cancel()

	var doc string
	err := conn.QueryRowContext(ctx, d.rebind(`SELECT document FROM system_settings WHERE id = ?`), settingsDocID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		observe(op, start, metrics.ResultEmpty)
		return models.SystemSettings{}, false
	}
	if err != nil {
		db.fail(ctx, conn, op, err)
		observe(op, start, metrics.ResultError)
		return models.SystemSettings{}, false
	}

	var s models.SystemSettings
	if err := json.Unmarshal([]byte(doc), &s); err != nil {
		db.logger.Warn("settings document unreadable", "error", err)
		observe(op, start, metrics.ResultError)
		return models.SystemSettings{}, false
	}
	observe(op, start, metrics.ResultOK)
	return s, true
}

// AcknowledgeAlert marks an alert as acknowledged. Acknowledging twice is not an error.
func (db *Database) AcknowledgeAlert(ctx context.Context, id models.AlertID) error {
	const op = "acknowledge_alert"
	start := time.Now()

	conn, d := db.handle()
	if conn == nil {
		observe(op, start, metrics.ResultError)
		return db.unavailable()
	}

	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout)
	defer cancel()

	res, err := conn.ExecContext(ctx, d.rebind(`UPDATE alerts SET acknowledged = ? WHERE id = ?`), true, id.String())
	if err != nil {
		db.fail(ctx, conn, op, err)
		observe(op, start, metrics.ResultError)
		return fmt.Errorf("acknowledge alert: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		observe(op, start, metrics.ResultEmpty)
		return fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	observe(op, start, metrics.ResultOK)
	return nil
}

// AdvanceFeeding moves a feeding event forward to next. completed_at is stamped when
// next is completed and cleared otherwise.
func (db *Database) AdvanceFeeding(ctx context.Context, id models.FeedingID, next models.FeedingStatus) error {
	const op = "advance_feeding"
	start := time.Now()

	conn, d := db.handle()
	if conn == nil {
		observe(op, start, metrics.ResultError)
		return db.unavailable()
	}

	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout)
	defer cancel()

	err := db.advanceFeedingTx(ctx, conn, d, id, next)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidTransition):
		observe(op, start, metrics.ResultEmpty)
		return err
	case err != nil:
		db.fail(ctx, conn, op, err)
		observe(op, start, metrics.ResultError)
		return err
	}
	observe(op, start, metrics.ResultOK)
	return nil
}

func (db *Database) advanceFeedingTx(ctx context.Context, conn *sql.DB, d dialect, id models.FeedingID, next models.FeedingStatus) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, d.rebind(`SELECT status FROM feeding_schedules WHERE id = ?`), id.String()).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("feeding %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load feeding: %w", err)
	}

	status, err := models.ParseFeedingStatus(current)
	if err != nil {
		return fmt.Errorf("feeding %s: %w", id, err)
	}
	if !status.CanAdvanceTo(next) {
		return fmt.Errorf("feeding %s %s -> %s: %w", id, status, next, ErrInvalidTransition)
	}

	var completedAt any
	if next == models.FeedingCompleted {
		completedAt = db.now().UTC()
	}
	if _, err := tx.ExecContext(ctx, d.rebind(`UPDATE feeding_schedules SET status = ?, completed_at = ? WHERE id = ?`),
		string(next), completedAt, id.String()); err != nil {
		return fmt.Errorf("update feeding: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit feeding: %w", err)
	}
	return nil
}
