package models

import (
	"time"

	"github.com/google/uuid"
)

// ReadingID identifies a persisted sensor reading. Synthetic readings have the zero ID.
type ReadingID uuid.UUID

// NewReadingID returns a fresh random identity.
func NewReadingID() ReadingID {
	return ReadingID(uuid.New())
}

// ParseReadingID parses the textual form produced by String.
func ParseReadingID(s string) (ReadingID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ReadingID{}, err
	}
	return ReadingID(id), nil
}

// IsZero reports whether the id was never assigned.
func (id ReadingID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id ReadingID) String() string {
	return uuid.UUID(id).String()
}

// SensorReading is one timestamped set of water-quality measurements.
type SensorReading struct {
	ID              ReadingID
	Timestamp       time.Time
	PH              float64
	Temperature     float64 // Celsius
	DissolvedOxygen float64 // mg/L
	Turbidity       float64 // NTU
	Salinity        float64 // ppt
	Ammonia         float64 // mg/L
	Location        string
	SensorID        string
}

// Range is an inclusive value interval.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the interval, bounds included.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Domain ranges for generated and seeded readings.
var (
	PHRange              = Range{Min: 6.5, Max: 8.5}
	TemperatureRange     = Range{Min: 20, Max: 30}
	DissolvedOxygenRange = Range{Min: 4, Max: 12}
	TurbidityRange       = Range{Min: 0, Max: 50}
	SalinityRange        = Range{Min: 15, Max: 35}
	AmmoniaRange         = Range{Min: 0, Max: 5}

	// PHScale is the logical pH scale accepted from real sensors.
	PHScale = Range{Min: 0, Max: 14}
)

// SeriesPoint is the reduced reading used for historical tables and charts.
type SeriesPoint struct {
	Timestamp       time.Time `json:"-"`
	Time            string    `json:"time"`
	PH              float64   `json:"ph"`
	Temperature     float64   `json:"temperature"`
	DissolvedOxygen float64   `json:"dissolved_oxygen"`
}

// ChartSeries holds parallel arrays ready for a chart consumer.
type ChartSeries struct {
	Labels          []string  `json:"labels"`
	PH              []float64 `json:"ph_data"`
	Temperature     []float64 `json:"temp_data"`
	DissolvedOxygen []float64 `json:"do_data"`
}

// Len returns the number of points in the series.
func (c ChartSeries) Len() int {
	return len(c.Labels)
}
