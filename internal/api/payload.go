package api

import (
	"fmt"

	"aquatech-monitor/internal/models"
	"aquatech-monitor/internal/parser"
)

// TimestampLayout is the fixed textual timestamp format of every JSON reading.
const TimestampLayout = "2006-01-02 15:04:05"

// ReadingPayload is the serialized reading. Identities become strings only here.
type ReadingPayload struct {
	ID              string  `json:"id,omitempty"`
	PH              float64 `json:"ph"`
	Temperature     float64 `json:"temperature"`
	DissolvedOxygen float64 `json:"dissolved_oxygen"`
	Turbidity       float64 `json:"turbidity"`
	Salinity        float64 `json:"salinity"`
	Ammonia         float64 `json:"ammonia"`
	Timestamp       string  `json:"timestamp"`
	Location        string  `json:"location,omitempty"`
	SensorID        string  `json:"sensor_id,omitempty"`
}

// NewReadingPayload serializes r.
func NewReadingPayload(r models.SensorReading) ReadingPayload {
	p := ReadingPayload{
		PH:              r.PH,
		Temperature:     r.Temperature,
		DissolvedOxygen: r.DissolvedOxygen,
		Turbidity:       r.Turbidity,
		Salinity:        r.Salinity,
		Ammonia:         r.Ammonia,
		Timestamp:       r.Timestamp.Format(TimestampLayout),
		Location:        r.Location,
		SensorID:        r.SensorID,
	}
	if !r.ID.IsZero() {
		p.ID = r.ID.String()
	}
	return p
}

// ToModel converts an incoming payload. Any id is ignored; the store assigns one.
func (p ReadingPayload) ToModel() (models.SensorReading, error) {
	r := models.SensorReading{
		PH:              p.PH,
		Temperature:     p.Temperature,
		DissolvedOxygen: p.DissolvedOxygen,
		Turbidity:       p.Turbidity,
		Salinity:        p.Salinity,
		Ammonia:         p.Ammonia,
		Location:        p.Location,
		SensorID:        p.SensorID,
	}
	if p.Timestamp != "" {
		t, err := parser.ParseTimestamp(p.Timestamp)
		if err != nil {
			return r, fmt.Errorf("invalid timestamp: %w", err)
		}
		r.Timestamp = t
	}
	return r, nil
}

// FeedingPayload is the serialized feeding event.
type FeedingPayload struct {
	ID          string  `json:"id,omitempty"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	AmountKg    float64 `json:"amount_kg"`
	Amount      string  `json:"amount"`
	Status      string  `json:"status"`
	CompletedAt string  `json:"completed_at,omitempty"`
	Tank        string  `json:"tank"`
}

// NewFeedingPayload serializes e.
func NewFeedingPayload(e models.FeedingEvent) FeedingPayload {
	p := FeedingPayload{
		Date:     e.Date,
		Time:     e.Time,
		AmountKg: e.AmountKg,
		Amount:   e.AmountLabel(),
		Status:   string(e.Status),
		Tank:     e.Tank,
	}
	if e.ID != (models.FeedingID{}) {
		p.ID = e.ID.String()
	}
	if e.CompletedAt != nil {
		p.CompletedAt = e.CompletedAt.Format(TimestampLayout)
	}
	return p
}
