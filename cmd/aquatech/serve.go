package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"aquatech-monitor/internal/api"
	"aquatech-monitor/internal/logging"
	"aquatech-monitor/internal/metrics"
	"aquatech-monitor/internal/models"
)

// serveCmd starts the REST API server
func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			log := logging.Component("serve")
			metrics.Init()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store := openStore(ctx, cfg)
			defer store.Close()

			if cfg.SeedOnStart && store.Health() == models.Connected {
				if report, err := store.SeedIfEmpty(ctx); err != nil {
					log.Warn("seeding incomplete", "error", err)
				} else if report.Total() > 0 {
					log.Info("seeded sample data", "records", report.Total())
				}
			}

			server := api.NewServer(newService(store, cfg))
			httpServer := &http.Server{
				Addr:              cfg.HTTPAddr,
				Handler:           server.Router(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("http server listening", "addr", cfg.HTTPAddr, "store", store.Health().String())
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				log.Error("http shutdown failed", "error", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config, :5000)")
	return cmd
}
