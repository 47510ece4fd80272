package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"aquatech-monitor/internal/logging"
	"aquatech-monitor/internal/models"
)

// Parser reads water-quality reading files for offline import.
type Parser struct {
	format string
	logger *slog.Logger
}

// NewParser creates a parser for csv, json or jsonl input.
func NewParser(format string) *Parser {
	return &Parser{format: format, logger: logging.Component("parser")}
}

// ParseFile parses a reading file.
func (p *Parser) ParseFile(filename string) ([]models.SensorReading, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return p.Parse(file)
}

// Parse parses readings from r in the parser's format.
func (p *Parser) Parse(r io.Reader) ([]models.SensorReading, error) {
	switch strings.ToLower(p.format) {
	case "csv":
		return p.parseCSV(r)
	case "json":
		return p.parseJSON(r)
	case "jsonl":
		return p.parseJSONLines(r)
	default:
		return nil, fmt.Errorf("unsupported format: %s", p.format)
	}
}

// parseCSV expects a header row naming the columns.
func (p *Parser) parseCSV(r io.Reader) ([]models.SensorReading, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	indices := make(map[string]int)
	for i, h := range header {
		indices[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var results []models.SensorReading
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return results, fmt.Errorf("error at line %d: %w", lineNum, err)
		}
		lineNum++

		reading, err := recordToReading(record, indices)
		if err != nil {
			p.logger.Warn("skipping line", "line", lineNum, "error", err)
			continue
		}
		results = append(results, reading)
	}

	return results, nil
}

func recordToReading(record []string, indices map[string]int) (models.SensorReading, error) {
	var r models.SensorReading

	getValue := func(key string) string {
		if idx, ok := indices[key]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}

	if ts := getValue("timestamp"); ts != "" {
		t, err := ParseTimestamp(ts)
		if err != nil {
			return r, fmt.Errorf("invalid timestamp: %w", err)
		}
		r.Timestamp = t
	}

	fields := []struct {
		key string
		dst *float64
	}{
		{"ph", &r.PH},
		{"temperature", &r.Temperature},
		{"dissolved_oxygen", &r.DissolvedOxygen},
		{"turbidity", &r.Turbidity},
		{"salinity", &r.Salinity},
		{"ammonia", &r.Ammonia},
	}
	for _, f := range fields {
		v := getValue(f.key)
		if v == "" {
			return r, fmt.Errorf("missing %s", f.key)
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return r, fmt.Errorf("invalid %s: %w", f.key, err)
		}
		*f.dst = n
	}

	r.Location = getValue("location")
	r.SensorID = getValue("sensor_id")
	return r, nil
}

// jsonReading mirrors the serialized reading shape, timestamp as text.
type jsonReading struct {
	Timestamp       string  `json:"timestamp"`
	PH              float64 `json:"ph"`
	Temperature     float64 `json:"temperature"`
	DissolvedOxygen float64 `json:"dissolved_oxygen"`
	Turbidity       float64 `json:"turbidity"`
	Salinity        float64 `json:"salinity"`
	Ammonia         float64 `json:"ammonia"`
	Location        string  `json:"location"`
	SensorID        string  `json:"sensor_id"`
}

func (j jsonReading) toModel() (models.SensorReading, error) {
	r := models.SensorReading{
		PH:              j.PH,
		Temperature:     j.Temperature,
		DissolvedOxygen: j.DissolvedOxygen,
		Turbidity:       j.Turbidity,
		Salinity:        j.Salinity,
		Ammonia:         j.Ammonia,
		Location:        j.Location,
		SensorID:        j.SensorID,
	}
	if j.Timestamp != "" {
		t, err := ParseTimestamp(j.Timestamp)
		if err != nil {
			return r, fmt.Errorf("invalid timestamp: %w", err)
		}
		r.Timestamp = t
	}
	return r, nil
}

// parseJSON accepts a JSON array, falling back to newline-delimited objects.
func (p *Parser) parseJSON(r io.Reader) ([]models.SensorReading, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var raw []jsonReading
	if err := json.Unmarshal(data, &raw); err != nil {
		return p.parseJSONLines(bytes.NewReader(data))
	}

	results := make([]models.SensorReading, 0, len(raw))
	for i, j := range raw {
		reading, err := j.toModel()
		if err != nil {
			p.logger.Warn("skipping element", "index", i, "error", err)
			continue
		}
		results = append(results, reading)
	}
	return results, nil
}

func (p *Parser) parseJSONLines(r io.Reader) ([]models.SensorReading, error) {
	var results []models.SensorReading
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "[" || line == "]" {
			continue
		}
		line = strings.TrimSuffix(line, ",")

		var j jsonReading
		if err := json.Unmarshal([]byte(line), &j); err != nil {
			p.logger.Warn("skipping line", "line", lineNum, "error", err)
			continue
		}
		reading, err := j.toModel()
		if err != nil {
			p.logger.Warn("skipping line", "line", lineNum, "error", err)
			continue
		}
		results = append(results, reading)
	}

	return results, scanner.Err()
}

// ParseTimestamp accepts the serialized layout, RFC 3339 variants and unix seconds.
// Layouts without a zone are read as local time.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}

	local := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
	}
	for _, layout := range local {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}

	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(ts, 0), nil
	}

	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", s)
}

// ValidateReading checks physical plausibility. Values outside the usual farm ranges
// are accepted because they are exactly what alerts exist for.
func ValidateReading(r *models.SensorReading) []string {
	var errors []string

	values := map[string]float64{
		"ph":               r.PH,
		"temperature":      r.Temperature,
		"dissolved_oxygen": r.DissolvedOxygen,
		"turbidity":        r.Turbidity,
		"salinity":         r.Salinity,
		"ammonia":          r.Ammonia,
	}
	for _, name := range []string{"ph", "temperature", "dissolved_oxygen", "turbidity", "salinity", "ammonia"} {
		if v := values[name]; math.IsNaN(v) || math.IsInf(v, 0) {
			errors = append(errors, name+" must be a finite number")
		}
	}

	if !models.PHScale.Contains(r.PH) {
		errors = append(errors, "ph must be between 0 and 14")
	}
	if r.Temperature < -5 || r.Temperature > 50 {
		errors = append(errors, "temperature must be between -5 and 50")
	}
	if r.DissolvedOxygen < 0 {
		errors = append(errors, "dissolved_oxygen cannot be negative")
	}
	if r.Turbidity < 0 {
		errors = append(errors, "turbidity cannot be negative")
	}
	if r.Salinity < 0 {
		errors = append(errors, "salinity cannot be negative")
	}
	if r.Ammonia < 0 {
		errors = append(errors, "ammonia cannot be negative")
	}
	if !r.Timestamp.IsZero() && r.Timestamp.After(time.Now().Add(time.Minute)) {
		errors = append(errors, "timestamp cannot be in the future")
	}

	return errors
}
