// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config holds the server configuration.
type Config struct {
	// Addr is the HTTP listen address
	Addr string

	// DataDir holds the SQLite database file
	DataDir string

	// StaticDir holds the frontend build served at /
	StaticDir string

	// Storage selects the location/reminder backend: "sqlite" or "memory"
	Storage string

	// ReminderLocation is the time zone reminder times are interpreted in
	ReminderLocation *time.Location

	// Version is reported in the startup log
	Version string
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg := Config{
		Addr:      getEnv("PARKING_ADDR", ":8099"),
		DataDir:   getEnv("PARKING_DATA_DIR", "/data"),
		StaticDir: getEnv("PARKING_STATIC_DIR", "./static"),
		Version:   getEnv("VERSION", "dev"),
	}

	storage, err := ParseStorage(getEnv("PARKING_STORAGE", StorageSQLite))
	if err != nil {
		return Config{}, fmt.Errorf("PARKING_STORAGE: %w", err)
	}
	cfg.Storage = storage

	loc, err := time.LoadLocation(getEnv("PARKING_REMINDER_TZ", "Local"))
	if err != nil {
		return Config{}, fmt.Errorf("PARKING_REMINDER_TZ: %w", err)
	}
	cfg.ReminderLocation = loc

	return cfg, nil
}

// ParseStorage returns the canonical name of a storage backend, ignoring case.
func ParseStorage(name string) (string, error) {
	switch normalized := strings.ToLower(strings.TrimSpace(name)); normalized {
	case StorageSQLite, StorageMemory:
		return normalized, nil
	default:
		return "", fmt.Errorf("unknown storage backend %q (want %q or %q)", name, StorageSQLite, StorageMemory)
	}
}

// DatabasePath returns the SQLite file location inside DataDir.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "parking-spot-keeper.db")
}

// getEnv returns an environment variable value or a default if not set.
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
