package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"aquatech-monitor/internal/fallback"
	"aquatech-monitor/internal/models"
)

var now = time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)

// stubStore is an in-memory Store.
type stubStore struct {
	mu       sync.Mutex
	health   models.HealthState
	readings []models.SensorReading
	feedings []models.FeedingEvent
	alerts   []models.Alert
	settings *models.SystemSettings

	historyHours []int
	inserted     []models.SensorReading
}

func (s *stubStore) Health() models.HealthState { return s.health }

func (s *stubStore) LatestReading(ctx context.Context) (models.SensorReading, bool) {
	if len(s.readings) == 0 {
		return models.SensorReading{}, false
	}
	return s.readings[len(s.readings)-1], true
}

func (s *stubStore) HistoricalReadings(ctx context.Context, hours int) []models.SensorReading {
	s.mu.Lock()
	s.historyHours = append(s.historyHours, hours)
	s.mu.Unlock()
	var out []models.SensorReading
	for _, r := range s.readings {
		if !r.Timestamp.Before(now.Add(-time.Duration(hours) * time.Hour)) {
			out = append(out, r)
		}
	}
	return out
}

func (s *stubStore) TodaysFeedingSchedule(ctx context.Context) []models.FeedingEvent {
	return s.feedings
}

func (s *stubStore) RecentAlerts(ctx context.Context, limit int) []models.Alert {
	if len(s.alerts) > limit {
		return s.alerts[:limit]
	}
	return s.alerts
}

func (s *stubStore) Settings(ctx context.Context) (models.SystemSettings, bool) {
	if s.settings == nil {
		return models.SystemSettings{}, false
	}
	return *s.settings, true
}

func (s *stubStore) InsertReading(ctx context.Context, r models.SensorReading) (models.ReadingID, error) {
	if s.health != models.Connected {
		return models.ReadingID{}, errors.New("store degraded")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = models.NewReadingID()
	s.inserted = append(s.inserted, r)
	return r.ID, nil
}

func hourly(n int) []models.SensorReading {
	var out []models.SensorReading
	for i := n - 1; i >= 0; i-- {
		out = append(out, models.SensorReading{
			ID:              models.NewReadingID(),
			Timestamp:       now.Add(-time.Duration(i) * time.Hour),
			PH:              7.0,
			Temperature:     25.0,
			DissolvedOxygen: 8.0,
		})
	}
	return out
}

func newTestService(store Store) *Service {
	return New(store, Options{}).WithClock(func() time.Time { return now })
}

func TestOptionsDefaults(t *testing.T) {
	opts := New(&stubStore{}, Options{}).Options()
	if opts.HistoryHours != 24 || opts.ChartPoints != 12 || opts.AlertLimit != 3 {
		t.Fatalf("defaults = %+v", opts)
	}
	opts = New(&stubStore{}, Options{HistoryHours: 48, ChartPoints: 6, AlertLimit: 5}).Options()
	if opts.HistoryHours != 48 || opts.ChartPoints != 6 || opts.AlertLimit != 5 {
		t.Fatalf("explicit options = %+v", opts)
	}
}

func TestCurrentReadingFromStore(t *testing.T) {
	store := &stubStore{health: models.Connected, readings: hourly(3)}
	cur := newTestService(store).CurrentReading(context.Background())
	if cur.Source != models.SourceStore {
		t.Fatalf("source = %s", cur.Source)
	}
	if cur.Reading.ID != store.readings[2].ID {
		t.Fatal("did not return the latest stored reading")
	}
}

func TestCurrentReadingFallback(t *testing.T) {
	tests := []struct {
		name  string
		store *stubStore
	}{
		{"degraded", &stubStore{health: models.Degraded, readings: hourly(3)}},
		{"empty", &stubStore{health: models.Connected}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := newTestService(tt.store).CurrentReading(context.Background())
			if cur.Source != models.SourceFallback {
				t.Fatalf("source = %s", cur.Source)
			}
			if !cur.Reading.ID.IsZero() {
				t.Fatal("fallback reading has an id")
			}
			if !models.PHRange.Contains(cur.Reading.PH) {
				t.Fatalf("fallback ph %v out of range", cur.Reading.PH)
			}
			if !cur.Reading.Timestamp.Equal(now) {
				t.Fatalf("fallback timestamp = %v", cur.Reading.Timestamp)
			}
		})
	}
}

func TestHistory(t *testing.T) {
	store := &stubStore{health: models.Connected, readings: hourly(30)}
	svc := newTestService(store)

	h := svc.History(context.Background(), 0)
	if h.Source != models.SourceStore {
		t.Fatalf("source = %s", h.Source)
	}
	if len(h.Points) != 25 {
		t.Fatalf("expected 25 points in a 24h window, got %d", len(h.Points))
	}
	if store.historyHours[0] != 24 {
		t.Fatalf("queried %d hours, want default 24", store.historyHours[0])
	}

	// Sparse store data is still served as-is.
	sparse := &stubStore{health: models.Connected, readings: hourly(2)}
	if h := newTestService(sparse).History(context.Background(), 24); h.Source != models.SourceStore || len(h.Points) != 2 {
		t.Fatalf("sparse history = %s with %d points", h.Source, len(h.Points))
	}
}

func TestHistoryFallback(t *testing.T) {
	h := newTestService(&stubStore{health: models.Degraded}).History(context.Background(), 6)
	if h.Source != models.SourceFallback || len(h.Points) != 6 {
		t.Fatalf("history = %s with %d points", h.Source, len(h.Points))
	}
	if !h.Points[5].Timestamp.Equal(now) {
		t.Fatalf("last point at %v", h.Points[5].Timestamp)
	}
}

func TestChart(t *testing.T) {
	store := &stubStore{health: models.Connected, readings: hourly(12)}
	c := newTestService(store).Chart(context.Background(), 0)
	if c.Source != models.SourceStore {
		t.Fatalf("source = %s", c.Source)
	}
	if c.Series.Len() != 12 || store.historyHours[0] != 12 {
		t.Fatalf("series len %d, queried %v", c.Series.Len(), store.historyHours)
	}
	if c.Series.Labels[11] != "14:30" {
		t.Fatalf("last label = %s", c.Series.Labels[11])
	}
}

func TestChartTooFewReadingsFallsBack(t *testing.T) {
	store := &stubStore{health: models.Connected, readings: hourly(4)}
	c := newTestService(store).Chart(context.Background(), 12)
	if c.Source != models.SourceFallback {
		t.Fatalf("source = %s", c.Source)
	}
	if c.Series.Len() != 12 || len(c.Series.PH) != 12 {
		t.Fatalf("fallback series len = %d", c.Series.Len())
	}
}

func TestFeedingSchedule(t *testing.T) {
	stored := []models.FeedingEvent{{ID: models.NewFeedingID(), Date: "2024-05-10", Time: "08:00", AmountKg: 1, Status: models.FeedingScheduled, Tank: "Tank B"}}
	s := newTestService(&stubStore{health: models.Connected, feedings: stored}).FeedingSchedule(context.Background())
	if s.Source != models.SourceStore || len(s.Events) != 1 || s.Events[0].Tank != "Tank B" {
		t.Fatalf("schedule = %+v", s)
	}

	s = newTestService(&stubStore{health: models.Connected}).FeedingSchedule(context.Background())
	if s.Source != models.SourceFallback || len(s.Events) != 5 {
		t.Fatalf("fallback schedule = %s with %d events", s.Source, len(s.Events))
	}
}

func TestRecentAlerts(t *testing.T) {
	store := &stubStore{health: models.Connected, alerts: fallback.Alerts(now)}
	a := newTestService(store).RecentAlerts(context.Background(), 0)
	if a.Source != models.SourceStore || len(a.Views) != 3 {
		t.Fatalf("alerts = %s with %d views", a.Source, len(a.Views))
	}
	if a.Views[0].Time != "10 min ago" || a.Views[1].Time != "2 hours ago" {
		t.Fatalf("labels = %q %q", a.Views[0].Time, a.Views[1].Time)
	}

	a = newTestService(&stubStore{health: models.Degraded}).RecentAlerts(context.Background(), 2)
	if a.Source != models.SourceFallback || len(a.Views) != 2 {
		t.Fatalf("fallback alerts = %s with %d views", a.Source, len(a.Views))
	}
}

func TestSettings(t *testing.T) {
	st := fallback.Settings(now)
	st.SystemInfo.FirmwareVersion = "v9.9.9"
	got := newTestService(&stubStore{health: models.Connected, settings: &st}).Settings(context.Background())
	if got.Source != models.SourceStore || got.Settings.SystemInfo.FirmwareVersion != "v9.9.9" {
		t.Fatalf("settings = %+v", got)
	}

	got = newTestService(&stubStore{health: models.Degraded}).Settings(context.Background())
	if got.Source != models.SourceFallback || got.Settings.SystemInfo.FirmwareVersion != "v2.1.3" {
		t.Fatalf("fallback settings = %+v", got)
	}
}

func TestSnapshot(t *testing.T) {
	store := &stubStore{health: models.Connected, readings: hourly(24), alerts: fallback.Alerts(now)}
	snap := newTestService(store).Snapshot(context.Background())

	if snap.Health != models.Connected {
		t.Fatalf("health = %s", snap.Health)
	}
	if snap.Current.Source != models.SourceStore || snap.Chart.Source != models.SourceStore || snap.Alerts.Source != models.SourceStore {
		t.Fatalf("sources = %s %s %s", snap.Current.Source, snap.Chart.Source, snap.Alerts.Source)
	}
	if snap.Schedule.Source != models.SourceFallback || len(snap.Schedule.Events) != 5 {
		t.Fatalf("schedule = %s with %d events", snap.Schedule.Source, len(snap.Schedule.Events))
	}
}

func TestSnapshotDegraded(t *testing.T) {
	snap := newTestService(&stubStore{health: models.Degraded}).Snapshot(context.Background())
	if snap.Health != models.Degraded {
		t.Fatalf("health = %s", snap.Health)
	}
	if snap.Chart.Series.Len() != 12 || len(snap.Alerts.Views) != 3 {
		t.Fatalf("chart %d points, %d alerts", snap.Chart.Series.Len(), len(snap.Alerts.Views))
	}
}

func TestRecordReading(t *testing.T) {
	store := &stubStore{health: models.Connected}
	id, err := newTestService(store).RecordReading(context.Background(), models.SensorReading{PH: 7.1})
	if err != nil {
		t.Fatalf("RecordReading: %v", err)
	}
	if id.IsZero() || len(store.inserted) != 1 {
		t.Fatalf("id %s, %d inserted", id, len(store.inserted))
	}

	if _, err := newTestService(&stubStore{health: models.Degraded}).RecordReading(context.Background(), models.SensorReading{}); err == nil {
		t.Fatal("expected an error from a degraded store")
	}
}
