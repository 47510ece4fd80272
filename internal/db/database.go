// Package db is the store gateway: it owns the connection to the persisted store,
// exposes typed reads and writes, and tracks whether the store is usable.
//
// Reads never return errors. A failed or unavailable store yields empty or absent
// results, and Health tells callers when to substitute synthetic data instead.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"aquatech-monitor/internal/logging"
	"aquatech-monitor/internal/metrics"
	"aquatech-monitor/internal/models"
)

// Collection names.
const (
	CollectionReadings = "sensor_data"
	CollectionFeedings = "feeding_schedules"
	CollectionAlerts   = "alerts"
	CollectionSettings = "system_settings"
)

var (
	ErrDegraded          = errors.New("store degraded")
	ErrClosed            = errors.New("store closed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid feeding status transition")
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sensor_data (
		id TEXT PRIMARY KEY,
		timestamp TIMESTAMP NOT NULL,
		ph DOUBLE PRECISION NOT NULL,
		temperature DOUBLE PRECISION NOT NULL,
		dissolved_oxygen DOUBLE PRECISION NOT NULL,
		turbidity DOUBLE PRECISION NOT NULL,
		salinity DOUBLE PRECISION NOT NULL,
		ammonia DOUBLE PRECISION NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		sensor_id TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_data_timestamp ON sensor_data (timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS feeding_schedules (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		amount_kg DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL,
		completed_at TIMESTAMP NULL,
		tank TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feeding_schedules_time_date ON feeding_schedules (time, date)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_feeding_schedules_slot ON feeding_schedules (date, time, tank)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		timestamp TIMESTAMP NOT NULL,
		type TEXT NOT NULL,
		message TEXT NOT NULL,
		sensor_id TEXT NULL,
		value DOUBLE PRECISION NULL,
		threshold DOUBLE PRECISION NULL,
		feeding_id TEXT NULL,
		amount DOUBLE PRECISION NULL,
		acknowledged BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_timestamp ON alerts (timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS system_settings (
		id TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}

// Database wraps the pooled store handle and its health flag.
//
// Database is safe for concurrent use.
type Database struct {
	mu      sync.RWMutex
	conn    *sql.DB
	dialect dialect
	closed  bool
	health  atomic.Int32

	logger         *slog.Logger
	now            func() time.Time
	loc            *time.Location
	connectTimeout time.Duration
	queryTimeout   time.Duration
}

// Option configures a Database.
type Option func(*Database)

// WithLogger overrides the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(db *Database) {
		if l != nil {
			db.logger = l
		}
	}
}

// WithClock overrides the time source used for windows, "today" and default timestamps.
func WithClock(now func() time.Time) Option {
	return func(db *Database) {
		if now != nil {
			db.now = now
		}
	}
}

// WithLocation sets the zone returned timestamps and calendar dates are expressed in.
func WithLocation(loc *time.Location) Option {
	return func(db *Database) {
		if loc != nil {
			db.loc = loc
		}
	}
}

// WithConnectTimeout bounds the liveness check made by Connect.
func WithConnectTimeout(d time.Duration) Option {
	return func(db *Database) {
		if d > 0 {
			db.connectTimeout = d
		}
	}
}

// WithQueryTimeout bounds every individual store operation.
func WithQueryTimeout(d time.Duration) Option {
	return func(db *Database) {
		if d > 0 {
			db.queryTimeout = d
		}
	}
}

// New returns a gateway in the Degraded state. Call Connect to attach a store.
func New(opts ...Option) *Database {
	db := &Database{
		logger:         logging.Component("store"),
		now:            time.Now,
		loc:            time.Local,
		connectTimeout: 5 * time.Second,
		queryTimeout:   3 * time.Second,
	}
	for _, opt := range opts {
		opt(db)
	}
	db.setHealth(models.Degraded)
	return db
}

// Connect opens the store named by uri, checks it is alive and ensures the schema and
// indexes exist. Any failure leaves the gateway Degraded; it is logged, never fatal.
func (db *Database) Connect(ctx context.Context, uri string) models.HealthState {
	d, err := parseStoreURI(uri)
	if err != nil {
		db.logger.Error("store connection failed", "error", err)
		db.setHealth(models.Degraded)
		return models.Degraded
	}

	conn, err := sql.Open(d.driver, d.dsn)
	if err != nil {
		db.logger.Error("store connection failed", "driver", d.driver, "error", err)
		db.setHealth(models.Degraded)
		return models.Degraded
	}
	conn.SetMaxOpenConns(d.maxConns)
	conn.SetMaxIdleConns(d.maxConns)
	conn.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, db.connectTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		db.logger.Error("store connection failed", "driver", d.driver, "error", err)
		db.setHealth(models.Degraded)
		return models.Degraded
	}

	for _, stmt := range schema {
		if _, err := conn.ExecContext(pingCtx, stmt); err != nil {
			conn.Close()
			db.logger.Error("store schema setup failed", "driver", d.driver, "error", err)
			db.setHealth(models.Degraded)
			return models.Degraded
		}
	}

	db.mu.Lock()
	old := db.conn
	db.conn = conn
	db.dialect = d
	db.closed = false
	db.mu.Unlock()
	if old != nil {
		old.Close()
	}

	db.setHealth(models.Connected)
	db.logger.Info("connected to store", "driver", d.driver)
	return models.Connected
}

// Health reports the current connectivity state.
func (db *Database) Health() models.HealthState {
	return models.HealthState(db.health.Load())
}

// Close releases the connection. It is safe to call repeatedly and on a gateway that
// never connected.
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.health.Store(int32(models.Degraded))
	metrics.SetStoreHealth(models.Degraded)
	if db.closed || db.conn == nil {
		db.closed = true
		return nil
	}
	db.closed = true
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	db.logger.Info("store connection closed")
	return nil
}

func (db *Database) setHealth(state models.HealthState) {
	prev := models.HealthState(db.health.Swap(int32(state)))
	metrics.SetStoreHealth(state)
	if prev == models.Connected && state == models.Degraded && db.logger != nil {
		db.logger.Warn("store degraded")
	}
}

// handle returns the live connection, or nil when the gateway is degraded or closed.
func (db *Database) handle() (*sql.DB, dialect) {
	if db.Health() != models.Connected {
		return nil, dialect{}
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return nil, dialect{}
	}
	return db.conn, db.dialect
}

// fail logs a query error and marks the gateway degraded when the store no longer
// answers a ping. Malformed queries leave the health state alone.
func (db *Database) fail(ctx context.Context, conn *sql.DB, op string, err error) {
	db.logger.Warn("store operation failed", "op", op, "error", err)

	pingCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), db.connectTimeout)
	defer cancel()
	if perr := conn.PingContext(pingCtx); perr != nil {
		db.logger.Error("store unreachable", "op", op, "error", perr)
		db.setHealth(models.Degraded)
	}
}

func (db *Database) today() string {
	return models.DateOf(db.now().In(db.loc))
}

func observe(op string, start time.Time, result string) {
	metrics.ObserveStoreQuery(op, result, time.Since(start))
}

// LatestReading returns the reading with the greatest timestamp.
func (db *Database) LatestReading(ctx context.Context) (models.SensorReading, bool) {
	const op = "latest_reading"
	start := time.Now()

	conn, d := db.handle()
	if conn == nil {
		observe(op, start, metrics.ResultEmpty)
		return models.SensorReading{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout)
	defer cancel()

	row := conn.QueryRowContext(ctx, d.rebind(`
		SELECT id, timestamp, ph, temperature, dissolved_oxygen, turbidity, salinity, ammonia, location, sensor_id
		FROM sensor_data
		ORDER BY timestamp DESC
		LIMIT 1
	`))
	r, err := db.scanReading(row)
	if errors.Is(err, sql.ErrNoRows) {
		observe(op, start, metrics.ResultEmpty)
		return models.SensorReading{}, false
	}
	if err != nil {
		db.fail(ctx, conn, op, err)
		observe(op, start, metrics.ResultError)
		return models.SensorReading{}, false
	}
	observe(op, start, metrics.ResultOK)
	return r, true
}

// HistoricalReadings returns readings stamped at or after now minus hours, oldest first.
func (db *Database) HistoricalReadings(ctx context.Context, hours int) []models.SensorReading {
	const op = "historical_readings"
	start := time.Now()

	conn, d := db.handle()
	if conn == nil {
		observe(op, start, metrics.ResultEmpty)
		return []models.SensorReading{}
	}

	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout)
	defer cancel()

	since := db.now().Add(-time.Duration(hours) * time.Hour).UTC()
	rows, err := conn.QueryContext(ctx, d.rebind(`
		SELECT id, timestamp, ph, temperature, dissolved_oxygen, turbidity, salinity, ammonia, location, sensor_id
		FROM sensor_data
		WHERE timestamp >= ?
		ORDER BY timestamp ASC
	`), since)
	if err != nil {
		db.fail(ctx, conn, op, err)
		observe(op, start, metrics.ResultError)
		return []models.SensorReading{}
	}
	defer rows.Close()

	readings := []models.SensorReading{}
	for rows.Next() {
		r, err := db.scanReading(rows)
		if err != nil {
			// Release the pooled connection before fail pings.
			rows.Close()
			db.fail(ctx, conn, op, err)
			observe(op, start, metrics.ResultError)
			return []models.SensorReading{}
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		db.fail(ctx, conn, op, err)
		observe(op, start, metrics.ResultError)
		return []models.SensorReading{}
	}

	observe(op, start, resultFor(len(readings)))
	return readings
}

// TodaysFeedingSchedule returns today's feeding events ordered by time of day.
func (db *Database) TodaysFeedingSchedule(ctx context.Context) []models.FeedingEvent {
	const op = "todays_feeding_schedule"
	start := time.Now()

	conn, d := db.handle()
	if conn == nil {
		observe(op, start, metrics.ResultEmpty)
		return []models.FeedingEvent{}
	}

	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout)
	defer cancel()

	rows, err := conn.QueryContext(ctx, d.rebind(`
		SELECT id, date, time, amount_kg, status, completed_at, tank
		FROM feeding_schedules
		WHERE date = ?
		ORDER BY time ASC
	`), db.today())
	if err != nil {
		db.fail(ctx, conn, op, err)
		observe(op, start, metrics.ResultError)
		return []models.FeedingEvent{}
	}
	defer rows.Close()

	events := []models.FeedingEvent{}
	for rows.Next() {
		var (
			e           models.FeedingEvent
			id          string
			status      string
			completedAt sql.NullTime
		)
		if err := rows.Scan(&id, &e.Date, &e.Time, &e.AmountKg, &status, &completedAt, &e.Tank); err != nil {
			rows.Close()
			db.fail(ctx, conn, op, err)
			observe(op, start, metrics.ResultError)
			return []models.FeedingEvent{}
		}
		if e.ID, err = models.ParseFeedingID(id); err != nil {
			db.logger.Warn("skipping feeding event", "id", id, "error", err)
			continue
		}
		if e.Status, err = models.ParseFeedingStatus(status); err != nil {
			db.logger.Warn("skipping feeding event", "id", id, "error", err)
			continue
		}
		if completedAt.Valid {
			t := completedAt.Time.In(db.loc)
			e.CompletedAt = &t
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		db.fail(ctx, conn, op, err)
		observe(op, start, metrics.ResultError)
		return []models.FeedingEvent{}
	}

	observe(op, start, resultFor(len(events)))
	return events
}

// RecentAlerts returns at most limit alerts, newest first.
func (db *Database) RecentAlerts(ctx context.Context, limit int) []models.Alert {
	const op = "recent_alerts"
	start := time.Now()

	conn, d := db.handle()
	if conn == nil || limit <= 0 {
		observe(op, start, metrics.ResultEmpty)
		return []models.Alert{}
	}

	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout)
	defer cancel()

	rows, err := conn.QueryContext(ctx, d.rebind(`
		SELECT id, timestamp, type, message, sensor_id, value, threshold, feeding_id, amount, acknowledged
		FROM alerts
		ORDER BY timestamp DESC
		LIMIT ?
	`), limit)
	if err != nil {
		db.fail(ctx, conn, op, err)
		observe(op, start, metrics.ResultError)
		return []models.Alert{}
	}
	defer rows.Close()

	alerts := []models.Alert{}
	for rows.Next() {
		var (
			a         models.Alert
			id, typ   string
			sensorID  sql.NullString
			feedingID sql.NullString
			value     sql.NullFloat64
			threshold sql.NullFloat64
			amount    sql.NullFloat64
		)
		if err := rows.Scan(&id, &a.Timestamp, &typ, &a.Message, &sensorID, &value, &threshold, &feedingID, &amount, &a.Acknowledged); err != nil {
			rows.Close()
			db.fail(ctx, conn, op, err)
			observe(op, start, metrics.ResultError)
			return []models.Alert{}
		}
		if a.ID, err = models.ParseAlertID(id); err != nil {
			db.logger.Warn("skipping alert", "id", id, "error", err)
			continue
		}
		a.Timestamp = a.Timestamp.In(db.loc)

		switch models.AlertType(typ) {
		case models.AlertWarning:
			a.Payload = models.WarningPayload{SensorID: sensorID.String, Value: value.Float64, Threshold: threshold.Float64}
		case models.AlertInfo:
			a.Payload = models.InfoPayload{FeedingID: feedingID.String, Amount: amount.Float64}
		case models.AlertSuccess:
			a.Payload = models.SuccessPayload{SensorID: sensorID.String}
		default:
			db.logger.Warn("skipping alert", "id", id, "type", typ)
			continue
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		db.fail(ctx, conn, op, err)
		observe(op, start, metrics.ResultError)
		return []models.Alert{}
	}

	observe(op, start, resultFor(len(alerts)))
	return alerts
}

// InsertReading persists r, stamping it with the current time when it has none, and
// returns the identity assigned to it.
func (db *Database) InsertReading(ctx context.Context, r models.SensorReading) (models.ReadingID, error) {
	const op = "insert_reading"
	start := time.Now()

	conn, d := db.handle()
	if conn == nil {
		observe(op, start, metrics.ResultError)
		return models.ReadingID{}, db.unavailable()
	}

	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout)
	defer cancel()

	if r.Timestamp.IsZero() {
		r.Timestamp = db.now()
	}
	r.ID = models.NewReadingID()

	if _, err := conn.ExecContext(ctx, d.rebind(insertReadingSQL), readingArgs(r)...); err != nil {
		db.fail(ctx, conn, op, err)
		observe(op, start, metrics.ResultError)
		return models.ReadingID{}, fmt.Errorf("insert reading: %w", err)
	}

	observe(op, start, metrics.ResultOK)
	return r.ID, nil
}

// InsertReadings persists a batch in one transaction and returns how many were written.
func (db *Database) InsertReadings(ctx context.Context, readings []models.SensorReading) (int64, error) {
	const op = "insert_readings"
	start := time.Now()

	conn, d := db.handle()
	if conn == nil {
		observe(op, start, metrics.ResultError)
		return 0, db.unavailable()
	}

	n, err := db.insertReadingsTx(ctx, conn, d, readings)
	if err != nil {
		db.fail(ctx, conn, op, err)
		observe(op, start, metrics.ResultError)
		return 0, err
	}
	observe(op, start, metrics.ResultOK)
	return n, nil
}

const insertReadingSQL = `
	INSERT INTO sensor_data
	(id, timestamp, ph, temperature, dissolved_oxygen, turbidity, salinity, ammonia, location, sensor_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func readingArgs(r models.SensorReading) []any {
	return []any{
		r.ID.String(), r.Timestamp.UTC(), r.PH, r.Temperature, r.DissolvedOxygen,
		r.Turbidity, r.Salinity, r.Ammonia, r.Location, r.SensorID,
	}
}

func (db *Database) insertReadingsTx(ctx context.Context, conn *sql.DB, d dialect, readings []models.SensorReading) (int64, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, d.rebind(insertReadingSQL))
	if err != nil {
		return 0, fmt.Errorf("prepare insert reading: %w", err)
	}
	defer stmt.Close()

	now := db.now()
	var count int64
	for _, r := range readings {
		if r.Timestamp.IsZero() {
			r.Timestamp = now
		}
		r.ID = models.NewReadingID()
		if _, err := stmt.ExecContext(ctx, readingArgs(r)...); err != nil {
			return 0, fmt.Errorf("insert reading %d: %w", count, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit readings: %w", err)
	}
	return count, nil
}

func (db *Database) unavailable() error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return ErrClosed
	}
	return ErrDegraded
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (db *Database) scanReading(row rowScanner) (models.SensorReading, error) {
	var (
		r  models.SensorReading
		id string
	)
	if err := row.Scan(&id, &r.Timestamp, &r.PH, &r.Temperature, &r.DissolvedOxygen,
		&r.Turbidity, &r.Salinity, &r.Ammonia, &r.Location, &r.SensorID); err != nil {
		return models.SensorReading{}, err
	}
	rid, err := models.ParseReadingID(id)
	if err != nil {
		return models.SensorReading{}, fmt.Errorf("reading id %q: %w", id, err)
	}
	r.ID = rid
	r.Timestamp = r.Timestamp.In(db.loc)
	return r, nil
}

func resultFor(n int) string {
	if n == 0 {
		return metrics.ResultEmpty
	}
	return metrics.ResultOK
}
