package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/parking-spot-keeper/backend/internal/storage/models"
)

// MemoryLocationStore keeps locations in an insertion-ordered map.
// Contents live as long as the process.
type MemoryLocationStore struct {
	mu        sync.RWMutex
	locations map[int64]models.ParkingLocation
	order     []int64
	nextID    int64
	now       func() time.Time
}

// NewMemoryLocationStore creates an empty in-memory location store.
// A nil clock uses time.Now.
func NewMemoryLocationStore(now func() time.Time) *MemoryLocationStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryLocationStore{
		locations: make(map[int64]models.ParkingLocation),
		nextID:    1,
		now:       now,
	}
}

// Create deactivates the active location and stores a new active one.
func (s *MemoryLocationStore) Create(_ context.Context, floor, spot int, userID *int64) (*models.ParkingLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deactivateLocked()

	loc := models.ParkingLocation{
		ID:        s.nextID,
		Floor:     floor,
		Spot:      spot,
		Timestamp: s.now().UTC(),
		Active:    true,
		UserID:    copyID(userID),
	}
	s.nextID++

	s.locations[loc.ID] = loc
	s.order = append(s.order, loc.ID)

	return detach(loc), nil
}

// Get returns the location with the given id.
func (s *MemoryLocationStore) Get(_ context.Context, id int64) (*models.ParkingLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, ok := s.locations[id]
	if !ok {
		return nil, nil
	}
	return detach(loc), nil
}

// GetCurrent returns the active location.
func (s *MemoryLocationStore) GetCurrent(_ context.Context) (*models.ParkingLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if loc, ok := s.currentLocked(); ok {
		return detach(loc), nil
	}
	return nil, nil
}

// Clear deactivates the active location.
func (s *MemoryLocationStore) Clear(_ context.Context) (*models.ParkingLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, ok := s.deactivateLocked()
	if !ok {
		return nil, ErrNotFound
	}
	return detach(loc), nil
}

// GetHistory lists locations newest first.
func (s *MemoryLocationStore) GetHistory(_ context.Context, limit int) ([]models.ParkingLocation, error) {
	s.mu.RLock()
	history := make([]models.ParkingLocation, 0, len(s.order))
	for _, id := range s.order {
		history = append(history, *detach(s.locations[id]))
	}
	s.mu.RUnlock()

	sort.SliceStable(history, func(i, j int) bool {
		if !history[i].Timestamp.Equal(history[j].Timestamp) {
			return history[i].Timestamp.After(history[j].Timestamp)
		}
		return history[i].ID > history[j].ID
	})

	if limit = normalizeLimit(limit); len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

// Update patches a location. Activating a location deactivates any other.
func (s *MemoryLocationStore) Update(_ context.Context, id int64, patch models.LocationPatch) (*models.ParkingLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, ok := s.locations[id]
	if !ok {
		return nil, fmt.Errorf("parking location %d: %w", id, ErrNotFound)
	}

	next := patch.Apply(loc)
	if next.Active && !loc.Active {
		s.deactivateLocked()
	}
	s.locations[id] = next

	return detach(next), nil
}

// Ping always succeeds.
func (s *MemoryLocationStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryLocationStore) currentLocked() (models.ParkingLocation, bool) {
	for _, id := range s.order {
		if loc := s.locations[id]; loc.Active {
			return loc, true
		}
	}
	return models.ParkingLocation{}, false
}

// deactivateLocked marks the active location inactive and returns it.
func (s *MemoryLocationStore) deactivateLocked() (models.ParkingLocation, bool) {
	loc, ok := s.currentLocked()
	if !ok {
		return models.ParkingLocation{}, false
	}
	loc.Active = false
	s.locations[loc.ID] = loc
	return loc, true
}

// MemoryReminderStore keeps the reminder settings in memory.
type MemoryReminderStore struct {
	mu       sync.RWMutex
	settings *models.ReminderSettings
}

// NewMemoryReminderStore creates an empty in-memory reminder store.
func NewMemoryReminderStore() *MemoryReminderStore {
	return &MemoryReminderStore{}
}

// Get returns the saved settings, or nil.
func (s *MemoryReminderStore) Get(_ context.Context) (*models.ReminderSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, nil
	}
	settings := *s.settings
	settings.UserID = copyID(settings.UserID)
	return &settings, nil
}

// Save stores the settings.
func (s *MemoryReminderStore) Save(_ context.Context, settings models.ReminderSettings) (*models.ReminderSettings, error) {
	settings.ID = models.ReminderSettingsID
	settings.UserID = copyID(settings.UserID)

	s.mu.Lock()
	stored := settings
	stored.UserID = copyID(settings.UserID)
	s.settings = &stored
	s.mu.Unlock()

	return &settings, nil
}

// detach returns a copy of loc that shares no memory with the store.
func detach(loc models.ParkingLocation) *models.ParkingLocation {
	loc.UserID = copyID(loc.UserID)
	return &loc
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
