/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the academic calendar server: calendar editing
  API, import/export, replication and holiday feed sync.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load configuration (YAML file, then CALENDAR_* environment)
  3. Initialize SQLite store
  4. Create API handler and feed scheduler
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config path (default: config.yaml, created on first run)
           Use "" to skip the file
  -port    HTTP server port, overrides config
  -db      SQLite database path, overrides config
           Use ":memory:" for in-memory database

ENVIRONMENT:
  CALENDAR_PORT, CALENDAR_DB_PATH, CALENDAR_ALLOWED_ORIGINS,
  CALENDAR_FEED_SCHEDULE override the config file.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the feed scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  ./server -db="./data/calendars.db"
  ./server -config="" -db=":memory:" -port=3000

SEE ALSO:
  - config/config.go: Configuration model
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
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

	"github.com/itrascastro/itrascastro.github.io-sub001/api"
	"github.com/itrascastro/itrascastro.github.io-sub001/calendar"
	"github.com/itrascastro/itrascastro.github.io-sub001/config"
	"github.com/itrascastro/itrascastro.github.io-sub001/ics"
	"github.com/itrascastro/itrascastro.github.io-sub001/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "config.yaml", "YAML config path")
	port := flag.String("port", "", "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler and feeds
	handler := api.NewHandler(store)
	scheduler := api.NewFeedScheduler(store, ics.NewFetcher(0), feedsFromConfig(cfg.Feeds), cfg.FeedSchedule)
	handler.Feeds = scheduler
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start feed scheduler: %v", err)
	}

	router := api.NewRouter(handler, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%s", cfg.Port)
		log.Printf("API available at http://localhost:%s/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func feedsFromConfig(in []config.FeedConfig) []api.Feed {
	feeds := make([]api.Feed, len(in))
	for i, f := range in {
		feeds[i] = api.Feed{
			CalendarID: calendar.CalendarID(f.CalendarID),
			URL:        f.URL,
			CategoryID: calendar.CategoryID(f.CategoryID),
			Name:       f.Name,
		}
	}
	return feeds
}
