package storage

import (
	"context"
	"errors"
	"time"

	"github.com/parking-spot-keeper/backend/internal/storage/models"
)

// ErrNotFound is returned when the targeted record does not exist.
var ErrNotFound = errors.New("record not found")

// LocationStore holds the active parking location and its history.
//
// At most one location is active at any time. Records are never deleted;
// replacing or clearing the active location only marks it inactive.
type LocationStore interface {
	// Create deactivates the current location, if any, and stores a new
	// active one stamped with the current time.
	Create(ctx context.Context, floor, spot int, userID *int64) (*models.ParkingLocation, error)

	// Get returns the location with the given id, or nil if there is none.
	Get(ctx context.Context, id int64) (*models.ParkingLocation, error)

	// GetCurrent returns the active location, or nil if there is none.
	GetCurrent(ctx context.Context) (*models.ParkingLocation, error)

	// Clear deactivates the active location and returns it.
	// It returns ErrNotFound when nothing is active.
	Clear(ctx context.Context) (*models.ParkingLocation, error)

	// GetHistory returns up to limit locations, newest first.
	GetHistory(ctx context.Context, limit int) ([]models.ParkingLocation, error)

	// Update patches the location with the given id.
	// It returns ErrNotFound for an unknown id.
	Update(ctx context.Context, id int64, patch models.LocationPatch) (*models.ParkingLocation, error)
}

// ReminderStore holds the single reminder settings value.
type ReminderStore interface {
	// Get returns the saved settings, or nil if none were saved yet.
	Get(ctx context.Context) (*models.ReminderSettings, error)

	// Save creates the settings on first call and overwrites them afterwards.
	Save(ctx context.Context, settings models.ReminderSettings) (*models.ReminderSettings, error)
}

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BaseRepository provides common functionality for the SQLite repositories.
type BaseRepository struct {
	db  *DB
	now func() time.Time
}

// NewBaseRepository creates a new base repository with the given database connection.
func NewBaseRepository(db *DB) BaseRepository {
	return BaseRepository{db: db, now: time.Now}
}

// DB returns the underlying database connection.
func (r *BaseRepository) DB() *DB {
	return r.db
}

// Now returns the current time in UTC for database timestamps.
func (r *BaseRepository) Now() time.Time {
	return r.now().UTC()
}

// SetClock replaces the time source. Intended for tests.
func (r *BaseRepository) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	r.now = now
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return models.DefaultHistoryLimit
	}
	return limit
}
