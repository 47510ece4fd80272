// Package dashboard answers presentation-layer requests. It asks the store first and
// substitutes synthetic data whenever the store is degraded or has nothing to return,
// so callers always get something to render along with the source it came from.
package dashboard

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"aquatech-monitor/internal/aggregate"
	"aquatech-monitor/internal/alertfmt"
	"aquatech-monitor/internal/fallback"
	"aquatech-monitor/internal/logging"
	"aquatech-monitor/internal/metrics"
	"aquatech-monitor/internal/models"
)

// Store is the slice of the store gateway the dashboard reads from.
type Store interface {
	Health() models.HealthState
	LatestReading(ctx context.Context) (models.SensorReading, bool)
	HistoricalReadings(ctx context.Context, hours int) []models.SensorReading
	TodaysFeedingSchedule(ctx context.Context) []models.FeedingEvent
	RecentAlerts(ctx context.Context, limit int) []models.Alert
	Settings(ctx context.Context) (models.SystemSettings, bool)
	InsertReading(ctx context.Context, r models.SensorReading) (models.ReadingID, error)
}

// Options tunes window sizes.
type Options struct {
	HistoryHours int
	ChartPoints  int
	AlertLimit   int
}

// Service composes the store, the fallback generator, the aggregator and the alert
// formatter.
type Service struct {
	store  Store
	opts   Options
	now    func() time.Time
	logger *slog.Logger
}

// New builds a service. Zero options fall back to a 24 hour history, 12 chart points
// and 3 alerts.
func New(store Store, opts Options) *Service {
	if opts.HistoryHours <= 0 {
		opts.HistoryHours = 24
	}
	if opts.ChartPoints <= 0 {
		opts.ChartPoints = 12
	}
	if opts.AlertLimit <= 0 {
		opts.AlertLimit = 3
	}
	return &Service{
		store:  store,
		opts:   opts,
		now:    time.Now,
		logger: logging.Component("dashboard"),
	}
}

// WithClock replaces the time source; it returns s for chaining in tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Options returns the effective window sizes.
func (s *Service) Options() Options {
	return s.opts
}

// Health exposes the store health state.
func (s *Service) Health() models.HealthState {
	return s.store.Health()
}

// Current is the latest reading.
type Current struct {
	Reading models.SensorReading
	Source  models.Source
}

// History is a reduced historical series.
type History struct {
	Points []models.SeriesPoint
	Source models.Source
}

// Chart is a chart-ready series.
type Chart struct {
	Series models.ChartSeries
	Source models.Source
}

// Schedule is today's feeding plan.
type Schedule struct {
	Events []models.FeedingEvent
	Source models.Source
}

// Alerts are display-ready alerts.
type Alerts struct {
	Views  []models.AlertView
	Source models.Source
}

// Settings is the site configuration.
type Settings struct {
	Settings models.SystemSettings
	Source   models.Source
}

// Snapshot bundles everything the dashboard page shows.
type Snapshot struct {
	Health   models.HealthState
	Current  Current
	Chart    Chart
	Schedule Schedule
	Alerts   Alerts
}

func (s *Service) connected() bool {
	return s.store.Health() == models.Connected
}

func (s *Service) substitute(kind string) {
	reason := "empty"
	if !s.connected() {
		reason = "degraded"
	}
	metrics.FallbackUsed(kind, reason)
	s.logger.Debug("serving fallback data", "kind", kind, "reason", reason)
}

// CurrentReading returns the newest stored reading or a synthetic one.
func (s *Service) CurrentReading(ctx context.Context) Current {
	if s.connected() {
		if r, ok := s.store.LatestReading(ctx); ok {
			return Current{Reading: r, Source: models.SourceStore}
		}
	}
	s.substitute("reading")
	return Current{Reading: fallback.Reading(s.now()), Source: models.SourceFallback}
}

// History returns the trailing window of hours as a reduced series. When the store has
// no readings for the window a synthetic series of the same length is returned.
func (s *Service) History(ctx context.Context, hours int) History {
	if hours <= 0 {
		hours = s.opts.HistoryHours
	}
	if s.connected() {
		if readings := s.store.HistoricalReadings(ctx, hours); len(readings) > 0 {
			return History{Points: aggregate.Points(readings), Source: models.SourceStore}
		}
	}
	s.substitute("history")
	return History{Points: fallback.HistoricalSeries(s.now(), hours), Source: models.SourceFallback}
}

// Chart returns the last points hours as chart arrays. Fewer stored readings than
// points means a synthetic series of exactly points entries is charted instead.
func (s *Service) Chart(ctx context.Context, points int) Chart {
	if points <= 0 {
		points = s.opts.ChartPoints
	}
	if s.connected() {
		readings := s.store.HistoricalReadings(ctx, points)
		if series, ok := aggregate.BuildChartSeries(readings, points); ok {
			return Chart{Series: series, Source: models.SourceStore}
		}
	}
	s.substitute("chart")
	return Chart{
		Series: aggregate.ChartFromSeries(fallback.HistoricalSeries(s.now(), points)),
		Source: models.SourceFallback,
	}
}

// FeedingSchedule returns today's feedings or the canonical demo schedule.
func (s *Service) FeedingSchedule(ctx context.Context) Schedule {
	if s.connected() {
		if events := s.store.TodaysFeedingSchedule(ctx); len(events) > 0 {
			return Schedule{Events: events, Source: models.SourceStore}
		}
	}
	s.substitute("feeding")
	return Schedule{Events: fallback.FeedingSchedule(s.now()), Source: models.SourceFallback}
}

// RecentAlerts returns up to limit alerts with relative-age labels.
func (s *Service) RecentAlerts(ctx context.Context, limit int) Alerts {
	if limit <= 0 {
		limit = s.opts.AlertLimit
	}
	if s.connected() {
		if alerts := s.store.RecentAlerts(ctx, limit); len(alerts) > 0 {
			return Alerts{Views: alertfmt.Views(s.now(), alerts), Source: models.SourceStore}
		}
	}
	s.substitute("alerts")
	views := fallback.AlertViews()
	if limit < len(views) {
		views = views[:limit]
	}
	return Alerts{Views: views, Source: models.SourceFallback}
}

// Settings returns the stored settings document or the defaults.
func (s *Service) Settings(ctx context.Context) Settings {
	if s.connected() {
		if st, ok := s.store.Settings(ctx); ok {
			return Settings{Settings: st, Source: models.SourceStore}
		}
	}
	s.substitute("settings")
	return Settings{Settings: fallback.Settings(s.now()), Source: models.SourceFallback}
}

// Snapshot gathers the dashboard page data concurrently. It never fails.
func (s *Service) Snapshot(ctx context.Context) Snapshot {
	snap := Snapshot{Health: s.store.Health()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.Current = s.CurrentReading(gctx)
		return nil
	})
	g.Go(func() error {
		snap.Chart = s.Chart(gctx, s.opts.ChartPoints)
		return nil
	})
	g.Go(func() error {
		snap.Schedule = s.FeedingSchedule(gctx)
		return nil
	})
	g.Go(func() error {
		snap.Alerts = s.RecentAlerts(gctx, s.opts.AlertLimit)
		return nil
	})
	_ = g.Wait()

	return snap
}

// RecordReading stores r. The error reports degraded or failed stores; nothing is
// substituted for writes.
func (s *Service) RecordReading(ctx context.Context, r models.SensorReading) (models.ReadingID, error) {
	return s.store.InsertReading(ctx, r)
}
