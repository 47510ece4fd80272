package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"aquatech-monitor/internal/api"
	"aquatech-monitor/internal/fallback"
	"aquatech-monitor/internal/models"
	"aquatech-monitor/internal/parser"
)

// ingestCmd imports readings from files
func ingestCmd() *cobra.Command {
	var format string
	var validate bool

	cmd := &cobra.Command{
		Use:   "ingest [file...]",
		Short: "Ingest readings from CSV or JSON files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := openStore(cmd.Context(), cfg)
			defer store.Close()

			if store.Health() != models.Connected {
				return fmt.Errorf("store unavailable, nothing ingested")
			}

			p := parser.NewParser(format)
			totalRecords := 0
			totalErrors := 0

			for _, file := range args {
				fmt.Printf("Processing %s...\n", file)
				start := time.Now()

				records, err := p.ParseFile(file)
				if err != nil {
					fmt.Printf("  Error: %v\n", err)
					totalErrors++
					continue
				}

				if validate {
					valid := records[:0]
					for i := range records {
						if errs := parser.ValidateReading(&records[i]); len(errs) == 0 {
							valid = append(valid, records[i])
						} else {
							totalErrors++
						}
					}
					records = valid
				}

				count, err := store.InsertReadings(cmd.Context(), records)
				if err != nil {
					fmt.Printf("  Store error: %v\n", err)
					totalErrors++
					continue
				}

				elapsed := time.Since(start)
				fmt.Printf("  Inserted %d readings in %v (%.0f readings/sec)\n",
					count, elapsed, float64(count)/elapsed.Seconds())
				totalRecords += int(count)
			}

			fmt.Printf("\nTotal: %d readings ingested", totalRecords)
			if totalErrors > 0 {
				fmt.Printf(", %d errors", totalErrors)
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "File format (csv, json, jsonl)")
	cmd.Flags().BoolVarP(&validate, "validate", "v", true, "Validate readings before inserting")
	return cmd
}

// generateCmd prints synthetic data without touching the store
func generateCmd() *cobra.Command {
	var kind string
	var hours int
	var output string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print synthetic fallback data as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}
			now := time.Now()

			var data interface{}
			switch kind {
			case "reading":
				data = api.NewReadingPayload(fallback.Reading(now))
			case "history":
				data = fallback.HistoricalSeries(now, hours)
			case "schedule":
				events := fallback.FeedingSchedule(now)
				out := make([]api.FeedingPayload, 0, len(events))
				for _, e := range events {
					out = append(out, api.NewFeedingPayload(e))
				}
				data = out
			case "alerts":
				data = fallback.AlertViews()
			case "settings":
				data = fallback.Settings(now)
			default:
				return fmt.Errorf("unknown kind %q (reading, history, schedule, alerts, settings)", kind)
			}

			if output == "" {
				return printJSON(data)
			}

			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("error creating output file: %w", err)
			}
			defer file.Close()
			if err := writeJSON(file, data); err != nil {
				return err
			}
			fmt.Printf("Data exported to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "reading", "What to generate (reading, history, schedule, alerts, settings)")
	cmd.Flags().IntVar(&hours, "hours", 24, "Series length for --kind history")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}
