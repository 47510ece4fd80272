package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFeedingStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to FeedingStatus
		want     bool
	}{
		{FeedingScheduled, FeedingPending, true},
		{FeedingScheduled, FeedingCompleted, true},
		{FeedingPending, FeedingCompleted, true},
		{FeedingPending, FeedingScheduled, false},
		{FeedingCompleted, FeedingPending, false},
		{FeedingCompleted, FeedingCompleted, false},
		{FeedingScheduled, "cancelled", false},
		{"cancelled", FeedingCompleted, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanAdvanceTo(tt.to); got != tt.want {
			t.Fatalf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestParseFeedingStatus(t *testing.T) {
	if s, err := ParseFeedingStatus("pending"); err != nil || s != FeedingPending {
		t.Fatalf("ParseFeedingStatus(pending) = %q, %v", s, err)
	}
	if _, err := ParseFeedingStatus("done"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestFeedingEventValidate(t *testing.T) {
	done := time.Date(2024, 5, 10, 6, 5, 0, 0, time.UTC)
	base := FeedingEvent{Date: "2024-05-10", Time: "06:00", AmountKg: 2.5, Status: FeedingScheduled, Tank: "Tank A"}

	tests := []struct {
		name    string
		modify  func(*FeedingEvent)
		wantErr bool
	}{
		{"scheduled", func(e *FeedingEvent) {}, false},
		{"completed with time", func(e *FeedingEvent) { e.Status = FeedingCompleted; e.CompletedAt = &done }, false},
		{"completed without time", func(e *FeedingEvent) { e.Status = FeedingCompleted }, true},
		{"pending with time", func(e *FeedingEvent) { e.Status = FeedingPending; e.CompletedAt = &done }, true},
		{"bad date", func(e *FeedingEvent) { e.Date = "10/05/2024" }, true},
		{"bad time", func(e *FeedingEvent) { e.Time = "6am" }, true},
		{"bad status", func(e *FeedingEvent) { e.Status = "skipped" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := base
			tt.modify(&e)
			if err := e.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAmountLabel(t *testing.T) {
	if got := (FeedingEvent{AmountKg: 3}).AmountLabel(); got != "3.0 kg" {
		t.Fatalf("AmountLabel = %q", got)
	}
}

func TestIDsRoundTrip(t *testing.T) {
	rid := NewReadingID()
	parsed, err := ParseReadingID(rid.String())
	if err != nil || parsed != rid {
		t.Fatalf("reading id round trip: %v %v", parsed, err)
	}
	if rid.IsZero() || !(ReadingID{}).IsZero() {
		t.Fatal("IsZero mismatch")
	}

	aid := NewAlertID()
	if got, err := ParseAlertID(aid.String()); err != nil || got != aid {
		t.Fatalf("alert id round trip: %v %v", got, err)
	}

	if _, err := ParseFeedingID("not-a-uuid"); err == nil {
		t.Fatal("expected error for malformed feeding id")
	}
}

func TestAlertType(t *testing.T) {
	tests := []struct {
		payload AlertPayload
		want    AlertType
	}{
		{WarningPayload{SensorID: "S1", Value: 6.4, Threshold: 6.5}, AlertWarning},
		{InfoPayload{FeedingID: "F1", Amount: 3}, AlertInfo},
		{SuccessPayload{SensorID: "S1"}, AlertSuccess},
	}
	for _, tt := range tests {
		if got := (Alert{Payload: tt.payload}).Type(); got != tt.want {
			t.Fatalf("Type() = %s, want %s", got, tt.want)
		}
	}
}

func TestHealthStateString(t *testing.T) {
	if Connected.String() != "connected" || Degraded.String() != "degraded" {
		t.Fatalf("strings = %s %s", Connected, Degraded)
	}
}

func TestChartSeriesJSON(t *testing.T) {
	data, err := json.Marshal(ChartSeries{Labels: []string{"12:00"}, PH: []float64{7}, Temperature: []float64{25}, DissolvedOxygen: []float64{8}})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"labels":["12:00"],"ph_data":[7],"temp_data":[25],"do_data":[8]}`
	if string(data) != want {
		t.Fatalf("json = %s, want %s", data, want)
	}
}
