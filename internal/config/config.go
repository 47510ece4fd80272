package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config lists the tunable parameters for the monitor.
type Config struct {
	StoreURI       string        `yaml:"store_uri"`
	HTTPAddr       string        `yaml:"http_addr"`
	LogLevel       string        `yaml:"log_level"`
	LogJSON        bool          `yaml:"log_json"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	QueryTimeout   time.Duration `yaml:"query_timeout"`
	SeedOnStart    bool          `yaml:"seed_on_start"`
	HistoryHours   int           `yaml:"history_hours"`
	ChartPoints    int           `yaml:"chart_points"`
	AlertLimit     int           `yaml:"alert_limit"`
}

const (
	// DefaultStoreURI points at a local SQLite file. Use postgres://... for PostgreSQL.
	DefaultStoreURI       = "sqlite://data/aquatech.db"
	defaultHTTPAddr       = ":5000"
	defaultLogLevel       = "info"
	defaultConnectTimeout = 5 * time.Second
	defaultQueryTimeout   = 3 * time.Second
	defaultHistoryHours   = 24
	defaultChartPoints    = 12
	defaultAlertLimit     = 3
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		StoreURI:       DefaultStoreURI,
		HTTPAddr:       defaultHTTPAddr,
		LogLevel:       defaultLogLevel,
		ConnectTimeout: defaultConnectTimeout,
		QueryTimeout:   defaultQueryTimeout,
		SeedOnStart:    true,
		HistoryHours:   defaultHistoryHours,
		ChartPoints:    defaultChartPoints,
		AlertLimit:     defaultAlertLimit,
	}
}

// Load builds the configuration from defaults, then the YAML file at path (skipped when
// path is empty), then AQUATECH_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("AQUATECH_STORE_URI"); v != "" {
		cfg.StoreURI = v
	}
	if v := os.Getenv("AQUATECH_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("AQUATECH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("AQUATECH_LOG_FORMAT"); v != "" {
		cfg.LogJSON = v == "json"
	}

	var err error
	if cfg.ConnectTimeout, err = envDuration("AQUATECH_CONNECT_TIMEOUT", cfg.ConnectTimeout); err != nil {
		return err
	}
	if cfg.QueryTimeout, err = envDuration("AQUATECH_QUERY_TIMEOUT", cfg.QueryTimeout); err != nil {
		return err
	}
	if cfg.SeedOnStart, err = envBool("AQUATECH_SEED_ON_START", cfg.SeedOnStart); err != nil {
		return err
	}
	if cfg.HistoryHours, err = envInt("AQUATECH_HISTORY_HOURS", cfg.HistoryHours); err != nil {
		return err
	}
	if cfg.ChartPoints, err = envInt("AQUATECH_CHART_POINTS", cfg.ChartPoints); err != nil {
		return err
	}
	if cfg.AlertLimit, err = envInt("AQUATECH_ALERT_LIMIT", cfg.AlertLimit); err != nil {
		return err
	}
	return nil
}

// Validate rejects values the services cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.StoreURI == "" {
		errs = append(errs, errors.New("store_uri is required"))
	}
	if c.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("connect_timeout must be positive"))
	}
	if c.QueryTimeout <= 0 {
		errs = append(errs, errors.New("query_timeout must be positive"))
	}
	if c.HistoryHours <= 0 {
		errs = append(errs, errors.New("history_hours must be positive"))
	}
	if c.ChartPoints <= 0 {
		errs = append(errs, errors.New("chart_points must be positive"))
	}
	if c.AlertLimit <= 0 {
		errs = append(errs, errors.New("alert_limit must be positive"))
	}
	return errors.Join(errs...)
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
