/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the OPEX calendar alert server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Load YAML config with environment overrides
  3. Initialize SQLite store
  4. Create API handler and cron alert scheduler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config       YAML config path (default: config.yaml; missing is fine)
  -no-scheduler Disable the cron alert jobs (API only)

ENVIRONMENT:
  OPEX_LISTEN, OPEX_DB, OPEX_TIMEZONE, OPEX_TIER, OPEX_WEBHOOK_URL
  override the config file. A .env file in the working directory is
  loaded first.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler and wait for running jobs
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with defaults (synthesized calendars for unknown years)
  ./server

  # Run with a webhook target
  OPEX_WEBHOOK_URL=https://hooks.example.com/opex ./server -config=/etc/opex/config.yaml

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Cron alert jobs
  - config/config.go: Configuration model
*/
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/opex-engine/api"
	"github.com/warp/opex-engine/config"
	"github.com/warp/opex-engine/notify"
	"github.com/warp/opex-engine/store/sqlite"
)

func main() {
	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	// Flags
	configPath := flag.String("config", "config.yaml", "YAML config path")
	noScheduler := flag.Bool("no-scheduler", false, "disable the cron alert jobs")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler and router
	handler := api.NewHandler(store)
	router := api.NewRouter(handler)

	// Notification target: webhook when configured, process log otherwise.
	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.WebhookURL)
	} else {
		log.Println("No webhook URL configured; alerts go to the process log")
	}

	// Alert scheduler
	if !*noScheduler {
		scheduler, err := api.NewAlertScheduler(cfg, store, handler.Loader, notifier)
		if err != nil {
			log.Fatalf("Failed to build scheduler: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Create server
	server := &http.Server{
		Addr:         cfg.Listen,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://%s", cfg.Listen)
		log.Printf("📊 API available at http://%s/api", cfg.Listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
