package models

import "time"

// SystemSettings is the singleton configuration document for the site.
type SystemSettings struct {
	Tanks           map[string]TankSettings `json:"tank_settings"`
	AlertThresholds AlertThresholds         `json:"alert_thresholds"`
	Feeding         FeedingSettings         `json:"feeding_settings"`
	SystemInfo      SystemInfo              `json:"system_info"`
}

// TankSettings describes one tank and its optimal water ranges.
type TankSettings struct {
	Name             string     `json:"name"`
	CapacityLiters   int        `json:"capacity_liters"`
	FishSpecies      string     `json:"fish_species"`
	FishCount        int        `json:"fish_count"`
	OptimalPHRange   [2]float64 `json:"optimal_ph_range"`
	OptimalTempRange [2]float64 `json:"optimal_temp_range"`
	OptimalDORange   [2]float64 `json:"optimal_do_range"`
}

// AlertThresholds are the min/max limits that raise warnings.
type AlertThresholds struct {
	PHMin        float64 `json:"ph_min"`
	PHMax        float64 `json:"ph_max"`
	TempMin      float64 `json:"temp_min"`
	TempMax      float64 `json:"temp_max"`
	DOMin        float64 `json:"do_min"`
	TurbidityMax float64 `json:"turbidity_max"`
	AmmoniaMax   float64 `json:"ammonia_max"`
}

// FeedingSettings configures automatic feeding.
type FeedingSettings struct {
	AutoFeedEnabled     bool     `json:"auto_feed_enabled"`
	FeedType            string   `json:"feed_type"`
	DailyFeedPercentage float64  `json:"daily_feed_percentage"`
	FeedingTimes        []string `json:"feeding_times"`
}

// SystemInfo holds installation and maintenance metadata.
type SystemInfo struct {
	InstallationDate time.Time `json:"installation_date"`
	LastMaintenance  time.Time `json:"last_maintenance"`
	NextMaintenance  time.Time `json:"next_maintenance"`
	FirmwareVersion  string    `json:"firmware_version"`
}
