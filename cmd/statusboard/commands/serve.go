package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/statusboard/internal/api"
	"github.com/wonny/statusboard/internal/api/handlers"
	"github.com/wonny/statusboard/internal/realtime"
	"github.com/wonny/statusboard/internal/scheduler"
	"github.com/wonny/statusboard/internal/scheduler/jobs"
	"github.com/wonny/statusboard/internal/source"
	"github.com/wonny/statusboard/internal/store"
	"github.com/wonny/statusboard/pkg/config"
	"github.com/wonny/statusboard/pkg/httputil"
	"github.com/wonny/statusboard/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Starts the dashboard HTTP server and the periodic refresh scheduler.

Endpoints:
  GET  /                - HTML dashboard
  GET  /health          - Health check
  GET  /api/dashboard   - Tallies and detail rows (JSON)
  GET  /api/states      - State list for the filter
  GET  /api/export      - CSV download of the (filtered) detail rows
  POST /api/refresh     - Force a cache refresh
  GET  /ws              - Refresh notifications (websocket)

Example:
  go run ./cmd/statusboard serve
  go run ./cmd/statusboard serve --port 8080`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "server port (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if servePort != "" {
		cfg.Port = servePort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port":  cfg.Port,
		"env":   cfg.Env,
		"sheet": cfg.Source.SheetURL,
	}).Info("Initializing dashboard server")

	// 3. Wire the fetch-clean-serve pipeline
	httpClient := httputil.New(cfg, log).WithRateLimit(cfg.Source.RatePerSec)
	sheet := source.NewClient(httpClient, log, cfg.Source.SheetURL)
	snapshots := store.New(sheet, log, cfg.CacheTTL)
	hub := realtime.NewHub(log)

	// 4. Warm the cache before accepting traffic; a failure here is not
	// fatal since the first request retries the fetch
	warmCtx, cancelWarm := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := snapshots.GetOrFetch(warmCtx); err != nil {
		log.WithError(err).Warn("Initial fetch failed, dashboard will retry on demand")
	}
	cancelWarm()

	// 5. Schedule periodic refreshes
	sched := scheduler.New(log)
	refreshJob := jobs.NewRefreshJob(snapshots, hub, cfg.RefreshSchedule, log)
	if err := sched.AddJob(refreshJob); err != nil {
		return fmt.Errorf("schedule refresh job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// 6. Create handler, router, server
	dashboard := handlers.NewDashboardHandler(snapshots, hub, log)
	router := api.NewRouter(dashboard, hub, cfg.CORSAllowedOrigins, log)
	server := api.New(cfg, log, router)

	// 7. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Infof("Dashboard running on http://localhost:%s", cfg.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Close()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
