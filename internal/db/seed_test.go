package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"aquatech-monitor/internal/models"
)

func TestSeedIfEmpty(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	report, err := db.SeedIfEmpty(ctx)
	if err != nil {
		t.Fatalf("SeedIfEmpty: %v", err)
	}
	want := SeedReport{Readings: 7 * 24, Feedings: 5, Alerts: 3, Settings: 1}
	if report != want {
		t.Fatalf("report = %+v, want %+v", report, want)
	}
	if report.Total() != 177 {
		t.Fatalf("total = %d", report.Total())
	}

	counts, ok := db.Counts(ctx)
	if !ok {
		t.Fatal("Counts failed")
	}
	if counts.Readings != 168 || counts.Feedings != 5 || counts.Alerts != 3 || counts.Settings != 1 {
		t.Fatalf("counts = %+v", counts)
	}
}

func TestSeedIdempotent(t *testing.T) {
	db := openSeededDB(t)
	ctx := context.Background()

	report, err := db.SeedIfEmpty(ctx)
	if err != nil {
		t.Fatalf("second SeedIfEmpty: %v", err)
	}
	if report.Total() != 0 {
		t.Fatalf("second seed wrote %+v", report)
	}

	counts, _ := db.Counts(ctx)
	if counts.Readings != 168 || counts.Feedings != 5 || counts.Alerts != 3 || counts.Settings != 1 {
		t.Fatalf("counts changed: %+v", counts)
	}
}

func TestSeedSkipsNonEmptyCollections(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.InsertReading(ctx, models.SensorReading{PH: 7}); err != nil {
		t.Fatalf("InsertReading: %v", err)
	}
	report, err := db.SeedIfEmpty(ctx)
	if err != nil {
		t.Fatalf("SeedIfEmpty: %v", err)
	}
	if report.Readings != 0 || report.Feedings != 5 {
		t.Fatalf("report = %+v", report)
	}
	counts, _ := db.Counts(ctx)
	if counts.Readings != 1 {
		t.Fatalf("readings = %d, want 1", counts.Readings)
	}
}

func TestSeededFeedingSchedule(t *testing.T) {
	db := openSeededDB(t)

	events := db.TodaysFeedingSchedule(context.Background())
	if len(events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(events))
	}

	want := []struct {
		time   string
		status models.FeedingStatus
	}{
		{"06:00", models.FeedingCompleted},
		{"10:00", models.FeedingCompleted},
		{"14:00", models.FeedingPending},
		{"18:00", models.FeedingScheduled},
		{"22:00", models.FeedingScheduled},
	}
	for i, w := range want {
		e := events[i]
		if e.Time != w.time || e.Status != w.status {
			t.Fatalf("event %d = %s %s, want %s %s", i, e.Time, e.Status, w.time, w.status)
		}
		if e.Date != "2024-05-10" {
			t.Fatalf("event %d date = %s", i, e.Date)
		}
		if (e.CompletedAt != nil) != (e.Status == models.FeedingCompleted) {
			t.Fatalf("event %d completed_at = %v with status %s", i, e.CompletedAt, e.Status)
		}
	}

	wantDone := time.Date(2024, 5, 10, 6, 5, 0, 0, time.UTC)
	if !events[0].CompletedAt.Equal(wantDone) {
		t.Fatalf("first completion = %v, want %v", events[0].CompletedAt, wantDone)
	}
}

func TestSeededReadingsWindow(t *testing.T) {
	db := openSeededDB(t)

	got := db.HistoricalReadings(context.Background(), 24)
	// Hourly readings from now back to exactly now-24h.
	if len(got) != 25 {
		t.Fatalf("expected 25 readings, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Timestamp.After(got[i-1].Timestamp) {
			t.Fatalf("readings not ascending at %d", i)
		}
	}
	for _, r := range got {
		if r.SensorID != "SENSOR_001" || r.Location != "Tank A" {
			t.Fatalf("seeded reading identity = %q %q", r.SensorID, r.Location)
		}
		if !models.PHRange.Contains(r.PH) {
			t.Fatalf("seeded ph %v out of range", r.PH)
		}
	}
}

func TestRecentAlerts(t *testing.T) {
	db := openSeededDB(t)
	ctx := context.Background()

	all := db.RecentAlerts(ctx, 10)
	if len(all) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Timestamp.After(all[i-1].Timestamp) {
			t.Fatalf("alerts not newest first at %d", i)
		}
	}

	w, ok := all[0].Payload.(models.WarningPayload)
	if !ok {
		t.Fatalf("newest alert payload is %T", all[0].Payload)
	}
	if w.SensorID != "SENSOR_001" || w.Value != 6.4 || w.Threshold != 6.5 {
		t.Fatalf("warning payload = %+v", w)
	}
	if info, ok := all[1].Payload.(models.InfoPayload); !ok || info.FeedingID != "FEED_001" || info.Amount != 3.0 {
		t.Fatalf("info payload = %#v", all[1].Payload)
	}
	if _, ok := all[2].Payload.(models.SuccessPayload); !ok {
		t.Fatalf("success payload = %#v", all[2].Payload)
	}
	if !all[0].Timestamp.Equal(testNow.Add(-10 * time.Minute)) {
		t.Fatalf("newest alert at %v", all[0].Timestamp)
	}

	if got := db.RecentAlerts(ctx, 2); len(got) != 2 || got[0].ID != all[0].ID {
		t.Fatalf("limit 2 returned %d alerts", len(got))
	}
	if got := db.RecentAlerts(ctx, 0); len(got) != 0 {
		t.Fatalf("limit 0 returned %d alerts", len(got))
	}
}

func TestSettingsDocument(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, ok := db.Settings(ctx); ok {
		t.Fatal("settings found before seeding")
	}
	if _, err := db.SeedIfEmpty(ctx); err != nil {
		t.Fatalf("SeedIfEmpty: %v", err)
	}

	s, ok := db.Settings(ctx)
	if !ok {
		t.Fatal("settings missing after seeding")
	}
	if s.SystemInfo.FirmwareVersion != "v2.1.3" {
		t.Fatalf("firmware = %q", s.SystemInfo.FirmwareVersion)
	}
	if tank, ok := s.Tanks["tank_a"]; !ok || tank.FishCount != 500 {
		t.Fatalf("tank_a = %+v", tank)
	}
	if !s.SystemInfo.LastMaintenance.Equal(testNow.AddDate(0, 0, -3)) {
		t.Fatalf("last maintenance = %v", s.SystemInfo.LastMaintenance)
	}
}

func TestAlertArgsFlattensPayload(t *testing.T) {
	id := models.NewAlertID()
	args := alertArgs(id, models.Alert{
		Timestamp: testNow,
		Message:   "fed",
		Payload:   models.InfoPayload{FeedingID: "F1", Amount: 2.5},
	})
	if len(args) != 10 {
		t.Fatalf("expected 10 args, got %d", len(args))
	}
	if args[2] != "info" || args[4] != nil || args[7] != "F1" || args[8] != 2.5 {
		t.Fatalf("args = %v", args)
	}
}

func TestSeedAfterCloseFails(t *testing.T) {
	db := openTestDB(t)
	db.Close()
	if _, err := db.SeedIfEmpty(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}
