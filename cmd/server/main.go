// Package main is the entry point for the Parking Spot Keeper server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parking-spot-keeper/backend/internal/api"
	"github.com/parking-spot-keeper/backend/internal/api/handlers"
	"github.com/parking-spot-keeper/backend/internal/config"
	"github.com/parking-spot-keeper/backend/internal/reminder"
	"github.com/parking-spot-keeper/backend/internal/storage"
	"github.com/parking-spot-keeper/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// The VERSION environment variable takes precedence when set.
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Flags override the environment
	addr := flag.String("addr", cfg.Addr, "HTTP server address")
	dataDir := flag.String("data", cfg.DataDir, "Data directory for SQLite database")
	staticDir := flag.String("static", cfg.StaticDir, "Directory for static frontend files")
	backend := flag.String("storage", cfg.Storage, "Storage backend: sqlite or memory")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(*addr); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		os.Exit(0)
	}

	cfg.Addr, cfg.DataDir, cfg.StaticDir = *addr, *dataDir, *staticDir
	if cfg.Storage, err = config.ParseStorage(*backend); err != nil {
		log.Fatalf("Invalid -storage flag: %v", err)
	}
	if os.Getenv("VERSION") == "" {
		cfg.Version = version
	}

	log.Printf("Starting Parking Spot Keeper (version: %s, storage: %s)...", cfg.Version, cfg.Storage)

	stores, err := openStores(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer stores.close()

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// The daily reminder is delivered to connected clients
	scheduler := reminder.NewScheduler(websocket.NewEventBroadcaster(hub), cfg.ReminderLocation)
	reminders := reminder.NewService(stores.reminders, scheduler)
	if err := reminders.Initialize(context.Background()); err != nil {
		log.Printf("Warning: Failed to initialize reminder: %v", err)
	}
	scheduler.Start()

	router := api.NewRouter(api.Services{
		Locations: stores.locations,
		Health:    stores.health,
		Reminders: reminders,
		Hub:       hub,
		Info:      handlers.StatusInfo{Version: cfg.Version, Storage: cfg.Storage},
		StaticDir: cfg.StaticDir,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Server listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	scheduler.Stop()
	hub.Stop()

	log.Println("Server stopped")
}

// stores bundles the selected storage backend.
type stores struct {
	locations storage.LocationStore
	reminders storage.ReminderStore
	health    storage.Pinger
	close     func()
}

// openStores opens the configured backend, running migrations for SQLite.
func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	if cfg.Storage == config.StorageMemory {
		locations := storage.NewMemoryLocationStore(nil)
		return &stores{
			locations: locations,
			reminders: storage.NewMemoryReminderStore(),
			health:    locations,
			close:     func() {},
		}, nil
	}

	db, err := storage.NewDB(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	if err := storage.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Printf("Database migrations complete (%s)", db.Path())

	return &stores{
		locations: storage.NewLocationRepository(db),
		reminders: storage.NewReminderRepository(db),
		health:    db,
		close: func() {
			if err := db.Close(); err != nil {
				log.Printf("Error closing database: %v", err)
			}
		},
	}, nil
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://localhost" + addr + "/api/health"
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
