package reminder

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/parking-spot-keeper/backend/internal/storage"
	"github.com/parking-spot-keeper/backend/internal/storage/models"
)

// Service reads and updates the reminder settings and keeps the scheduler
// in step with them.
type Service struct {
	store     storage.ReminderStore
	scheduler *Scheduler

	// mu serializes writers so the armed trigger matches the saved settings.
	mu sync.Mutex
}

// NewService creates a reminder service.
func NewService(store storage.ReminderStore, scheduler *Scheduler) *Service {
	return &Service{store: store, scheduler: scheduler}
}

// Scheduler returns the scheduler driven by the service.
func (s *Service) Scheduler() *Scheduler {
	return s.scheduler
}

// Get returns the saved settings, or the defaults when none are saved.
// Defaults are not persisted.
func (s *Service) Get(ctx context.Context) (models.ReminderSettings, error) {
	saved, err := s.store.Get(ctx)
	if err != nil {
		return models.ReminderSettings{}, fmt.Errorf("getting reminder settings: %w", err)
	}
	if saved == nil {
		return models.DefaultReminderSettings(), nil
	}
	return *saved, nil
}

// Update merges patch into the settings, creating them on first use, and
// re-arms the scheduler. A malformed time returns ErrInvalidTime and leaves
// both the settings and the scheduler unchanged.
func (s *Service) Update(ctx context.Context, patch models.ReminderPatch) (models.ReminderSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.Time != nil {
		if _, err := ParseTimeOfDay(*patch.Time); err != nil {
			return models.ReminderSettings{}, err
		}
	}

	current, err := s.Get(ctx)
	if err != nil {
		return models.ReminderSettings{}, err
	}

	next := patch.Apply(current)
	at, err := ParseTimeOfDay(next.Time)
	if err != nil {
		return models.ReminderSettings{}, err
	}

	saved, err := s.store.Save(ctx, next)
	if err != nil {
		return models.ReminderSettings{}, fmt.Errorf("saving reminder settings: %w", err)
	}

	if err := s.scheduler.Arm(saved.Enabled, at); err != nil {
		return models.ReminderSettings{}, fmt.Errorf("scheduling reminder: %w", err)
	}

	return *saved, nil
}

// Initialize arms the scheduler from the saved settings, or the defaults.
func (s *Service) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.Get(ctx)
	if err != nil {
		return err
	}

	at, err := ParseTimeOfDay(settings.Time)
	if err != nil {
		log.Printf("Stored reminder time %q is invalid, using %s", settings.Time, models.DefaultReminderTime)
		at, _ = ParseTimeOfDay(models.DefaultReminderTime)
	}

	return s.scheduler.Arm(settings.Enabled, at)
}
