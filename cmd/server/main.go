/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Warp Attendance Engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load the YAML config file
  2. Initialize the storage backend (jsonfile or sqlite)
  3. Load the settings blob and build the schedule holder
  4. Wire ledger, directory, leave workflow, analytics, and warnings
  5. Start the background monitor and the HTTP server
  6. On shutdown, stop the monitor and drain the server

COMMAND-LINE FLAGS:
  -config  Path to the YAML config file (default: config.yaml;
           a missing file falls back to built-in defaults)
  -addr    Override the listen address from the config

CONFIG FILE:
  server:
    listen_addr: ":8080"
    shutdown_timeout: "10s"
  storage:
    backend: "jsonfile"     # or "sqlite"
    dir: "data"             # jsonfile data directory
    path: "attendance.db"   # sqlite database file
  monitor:
    absence_interval: "5m"
    sweep_interval: "1h"

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the background monitor
  2. Stop accepting new connections
  3. Wait for active requests to complete (config timeout)
  4. Close the store
  5. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/monitor.go: Background polls
  - config/config.go: YAML configuration
*/
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/attendance-engine/analytics"
	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/identity"
	"github.com/warp/attendance-engine/leave"
	"github.com/warp/attendance-engine/schedule"
	"github.com/warp/attendance-engine/store/jsonfile"
	"github.com/warp/attendance-engine/store/sqlite"
)

// engineStore is the full persistence surface the server needs. Both backends
// satisfy it.
type engineStore interface {
	attendance.Store
	identity.Store
	leave.Store
	schedule.Store
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config file")
	addr := flag.String("addr", "", "listen address override")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.ListenAddr = *addr
	}

	// Storage backend
	var store engineStore
	switch cfg.Storage.Backend {
	case "sqlite":
		s, err := sqlite.New(cfg.Storage.Path)
		if err != nil {
			log.Error("failed to open sqlite store", "path", cfg.Storage.Path, "error", err)
			os.Exit(1)
		}
		defer s.Close()
		store = s
		log.Info("storage backend ready", "backend", "sqlite", "path", cfg.Storage.Path)
	default:
		s, err := jsonfile.New(cfg.Storage.Dir)
		if err != nil {
			log.Error("failed to open jsonfile store", "dir", cfg.Storage.Dir, "error", err)
			os.Exit(1)
		}
		store = s
		log.Info("storage backend ready", "backend", "jsonfile", "dir", cfg.Storage.Dir)
	}

	// Settings and schedule
	settings, err := store.LoadSettings(context.Background())
	if err != nil {
		log.Error("failed to load settings", "error", err)
		os.Exit(1)
	}
	holder := schedule.NewHolder(settings)
	log.Info("schedule loaded",
		"start", settings.WorkingHours.Start,
		"end", settings.WorkingHours.End,
		"grace", settings.GracePeriodMinutes,
		"timezone", settings.Timezone)

	// Domain services
	ledger := attendance.NewLedger(store, func() string { return holder.Current().Timezone })
	directory := identity.NewDirectory(store, holder.Now)
	workflow := leave.NewWorkflow(store, holder.Now)
	aggregator := analytics.NewAggregator(store, workflow, directory)
	warnings := analytics.NewEngine(store, directory, workflow)

	// HTTP surface
	metrics := api.NewMetrics()
	handler := api.NewHandler(ledger, directory, workflow, aggregator, warnings, holder, store, metrics, log)
	router := api.NewRouter(handler)

	// Background polls
	monitor := api.NewMonitor(warnings, holder, metrics, log)
	monitor.AbsenceInterval = cfg.Monitor.AbsenceInterval
	monitor.SweepInterval = cfg.Monitor.SweepInterval
	monitor.Start()
	defer monitor.Stop()

	server := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", cfg.Server.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
