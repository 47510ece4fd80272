package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"aquatech-monitor/internal/api"
	"aquatech-monitor/internal/config"
	"aquatech-monitor/internal/dashboard"
	"aquatech-monitor/internal/db"
	"aquatech-monitor/internal/logging"
	"aquatech-monitor/internal/models"
	"aquatech-monitor/internal/parser"
)

var (
	configPath string
	storeURI   string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aquatech",
		Short: "AquaTech Monitor - water-quality data access with degraded-mode fallback",
		Long: `A CLI and HTTP service for aquaculture water-quality monitoring.
Readings, feeding schedules, alerts and settings are served from a SQLite or
PostgreSQL store, with synthetic data substituted whenever the store is
unreachable or empty.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&storeURI, "store", "", "Store URI (overrides AQUATECH_STORE_URI)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(latestCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(chartCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(alertsCmd())
	rootCmd.AddCommand(insertCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(generateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the configuration and installs the logger. CLI output goes to
// stdout, so logs go to stderr.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if storeURI != "" {
		cfg.StoreURI = storeURI
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logging.InitWriter(os.Stderr, logging.ParseLevel(cfg.LogLevel), cfg.LogJSON)
	return cfg, nil
}

// openStore builds the gateway and attempts one connection. The gateway is returned
// even when Degraded.
func openStore(ctx context.Context, cfg config.Config) *db.Database {
	store := db.New(
		db.WithConnectTimeout(cfg.ConnectTimeout),
		db.WithQueryTimeout(cfg.QueryTimeout),
	)
	store.Connect(ctx, cfg.StoreURI)
	return store
}

func newService(store *db.Database, cfg config.Config) *dashboard.Service {
	return dashboard.New(store, dashboard.Options{
		HistoryHours: cfg.HistoryHours,
		ChartPoints:  cfg.ChartPoints,
		AlertLimit:   cfg.AlertLimit,
	})
}

func printJSON(v interface{}) error {
	return writeJSON(os.Stdout, v)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// seedCmd fills empty collections with sample content
func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed empty collections with sample data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := openStore(cmd.Context(), cfg)
			defer store.Close()

			if store.Health() != models.Connected {
				return fmt.Errorf("store unavailable: %w", db.ErrDegraded)
			}

			start := time.Now()
			report, err := store.SeedIfEmpty(cmd.Context())
			fmt.Printf("Seeded %d records in %v\n", report.Total(), time.Since(start))
			fmt.Printf("  sensor_data:        %d\n", report.Readings)
			fmt.Printf("  feeding_schedules:  %d\n", report.Feedings)
			fmt.Printf("  alerts:             %d\n", report.Alerts)
			fmt.Printf("  system_settings:    %d\n", report.Settings)
			if report.Total() == 0 && err == nil {
				fmt.Println("All collections already hold data.")
			}
			return err
		},
	}
}

// statusCmd tests the store connection and shows record counts
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store health and record counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := openStore(cmd.Context(), cfg)
			defer store.Close()

			fmt.Println("AquaTech Monitor Status")
			fmt.Println("=======================")
			fmt.Printf("  Store:              %s\n", cfg.StoreURI)
			fmt.Printf("  Health:             %s\n", store.Health())

			counts, ok := store.Counts(cmd.Context())
			if !ok {
				fmt.Println("  Counts:             unavailable")
				return nil
			}
			fmt.Printf("  sensor_data:        %d\n", counts.Readings)
			fmt.Printf("  feeding_schedules:  %d\n", counts.Feedings)
			fmt.Printf("  alerts:             %d\n", counts.Alerts)
			fmt.Printf("  system_settings:    %d\n", counts.Settings)
			return nil
		},
	}
}

// latestCmd prints the current reading
func latestCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the most recent reading",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := openStore(cmd.Context(), cfg)
			defer store.Close()

			cur := newService(store, cfg).CurrentReading(cmd.Context())
			if outputFormat == "json" {
				return printJSON(api.NewReadingPayload(cur.Reading))
			}

			r := cur.Reading
			fmt.Printf("[%s] source=%s\n", r.Timestamp.Format(api.TimestampLayout), cur.Source)
			fmt.Printf("  pH: %.2f | Temp: %.1f C | DO: %.2f mg/L\n", r.PH, r.Temperature, r.DissolvedOxygen)
			fmt.Printf("  Turbidity: %.1f NTU | Salinity: %.2f ppt | Ammonia: %.3f mg/L\n", r.Turbidity, r.Salinity, r.Ammonia)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json)")
	return cmd
}

// historyCmd prints the trailing window of readings
func historyCmd() *cobra.Command {
	var hours int
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show readings for the trailing window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := openStore(cmd.Context(), cfg)
			defer store.Close()

			h := newService(store, cfg).History(cmd.Context(), hours)
			if outputFormat == "json" {
				return printJSON(h.Points)
			}

			fmt.Printf("%d points (source: %s)\n\n", len(h.Points), h.Source)
			fmt.Printf("%-6s %6s %6s %6s\n", "Time", "pH", "Temp", "DO")
			for _, p := range h.Points {
				fmt.Printf("%-6s %6.2f %6.1f %6.2f\n", p.Time, p.PH, p.Temperature, p.DissolvedOxygen)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 0, "Window size in hours (default from config)")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json)")
	return cmd
}

// chartCmd prints chart arrays as JSON
func chartCmd() *cobra.Command {
	var points int

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Print chart series as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := openStore(cmd.Context(), cfg)
			defer store.Close()

			c := newService(store, cfg).Chart(cmd.Context(), points)
			return printJSON(map[string]interface{}{
				"source": c.Source,
				"chart":  c.Series,
			})
		},
	}

	cmd.Flags().IntVarP(&points, "points", "n", 0, "Number of hourly points (default from config)")
	return cmd
}

// scheduleCmd shows and updates today's feeding schedule
func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show today's feeding schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := openStore(cmd.Context(), cfg)
			defer store.Close()

			sched := newService(store, cfg).FeedingSchedule(cmd.Context())
			fmt.Printf("Feeding schedule (source: %s)\n\n", sched.Source)
			fmt.Printf("%-6s %-8s %-10s %-8s %s\n", "Time", "Amount", "Status", "Tank", "ID")
			for _, e := range sched.Events {
				id := "-"
				if e.ID != (models.FeedingID{}) {
					id = e.ID.String()
				}
				fmt.Printf("%-6s %-8s %-10s %-8s %s\n", e.Time, e.AmountLabel(), e.Status, e.Tank, id)
			}
			return nil
		},
	}

	advanceCmd := &cobra.Command{
		Use:   "advance [feeding_id] [status]",
		Short: "Move a feeding event to pending or completed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := models.ParseFeedingID(args[0])
			if err != nil {
				return err
			}
			next, err := models.ParseFeedingStatus(args[1])
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := openStore(cmd.Context(), cfg)
			defer store.Close()

			if err := store.AdvanceFeeding(cmd.Context(), id, next); err != nil {
				return err
			}
			fmt.Printf("Feeding %s is now %s\n", id, next)
			return nil
		},
	}

	cmd.AddCommand(advanceCmd)
	return cmd
}

// alertsCmd lists and acknowledges alerts
func alertsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show recent alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := openStore(cmd.Context(), cfg)
			defer store.Close()

			a := newService(store, cfg).RecentAlerts(cmd.Context(), limit)
			fmt.Printf("Recent alerts (source: %s)\n\n", a.Source)
			for _, v := range a.Views {
				fmt.Printf("  [%-7s] %-14s %s\n", v.Type, v.Time, v.Message)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum alerts to show (default from config)")

	ackCmd := &cobra.Command{
		Use:   "ack [alert_id]",
		Short: "Acknowledge an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := models.ParseAlertID(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := openStore(cmd.Context(), cfg)
			defer store.Close()

			if err := store.AcknowledgeAlert(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("Alert %s acknowledged\n", id)
			return nil
		},
	}

	cmd.AddCommand(ackCmd)
	return cmd
}

// insertCmd stores a single reading
func insertCmd() *cobra.Command {
	var r models.SensorReading
	var timestamp string

	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert one reading",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := api.ReadingPayload{
				PH:              r.PH,
				Temperature:     r.Temperature,
				DissolvedOxygen: r.DissolvedOxygen,
				Turbidity:       r.Turbidity,
				Salinity:        r.Salinity,
				Ammonia:         r.Ammonia,
				Timestamp:       timestamp,
				Location:        r.Location,
				SensorID:        r.SensorID,
			}
			reading, err := payload.ToModel()
			if err != nil {
				return err
			}
			if errs := parser.ValidateReading(&reading); len(errs) > 0 {
				return fmt.Errorf("invalid reading: %v", errs)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := openStore(cmd.Context(), cfg)
			defer store.Close()

			id, err := store.InsertReading(cmd.Context(), reading)
			if err != nil {
				return err
			}
			fmt.Printf("Inserted reading %s\n", id)
			return nil
		},
	}

	cmd.Flags().Float64Var(&r.PH, "ph", 7.0, "pH")
	cmd.Flags().Float64Var(&r.Temperature, "temperature", 25.0, "Temperature (C)")
	cmd.Flags().Float64Var(&r.DissolvedOxygen, "do", 8.0, "Dissolved oxygen (mg/L)")
	cmd.Flags().Float64Var(&r.Turbidity, "turbidity", 10.0, "Turbidity (NTU)")
	cmd.Flags().Float64Var(&r.Salinity, "salinity", 25.0, "Salinity (ppt)")
	cmd.Flags().Float64Var(&r.Ammonia, "ammonia", 0.5, "Ammonia (mg/L)")
	cmd.Flags().StringVar(&r.Location, "location", "Tank A", "Location")
	cmd.Flags().StringVar(&r.SensorID, "sensor", "SENSOR_001", "Sensor ID")
	cmd.Flags().StringVar(&timestamp, "timestamp", "", "Timestamp (default now)")
	return cmd
}
