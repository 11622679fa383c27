package reminder

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/parking-spot-keeper/backend/internal/storage/models"
)

// Notifier delivers the reminder when it fires.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n models.Notification) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n models.Notification) error {
	return f(ctx, n)
}

// Scheduler owns the single daily reminder trigger.
type Scheduler struct {
	cron     *cron.Cron
	notifier Notifier
	location *time.Location

	// At most one armed entry at a time.
	mu      sync.Mutex
	entryID cron.EntryID
	armed   bool
	at      TimeOfDay
}

// NewScheduler creates a reminder scheduler firing in loc. A nil notifier
// only logs fires; a nil loc means time.Local.
func NewScheduler(notifier Notifier, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}

	logger := cron.PrintfLogger(log.Default())

	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(logger)),
		),
		notifier: notifier,
		location: loc,
	}
}

// Start begins running armed triggers.
func (s *Scheduler) Start() {
	log.Println("Starting reminder scheduler...")
	s.cron.Start()
}

// Stop shuts the scheduler down, waiting for a running fire to finish.
func (s *Scheduler) Stop() {
	log.Println("Stopping reminder scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Reminder scheduler stopped")
}

// Arm replaces the current trigger. When enabled is false no trigger is
// left armed; otherwise one trigger fires every day at t.
func (s *Scheduler) Arm(enabled bool, t TimeOfDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disarmLocked()

	if !enabled {
		log.Println("Reminder disabled")
		return nil
	}

	id, err := s.cron.AddFunc(t.CronSpec(), func() {
		s.fire(t)
	})
	if err != nil {
		return err
	}

	s.entryID = id
	s.armed = true
	s.at = t
	log.Printf("Reminder scheduled for %s daily", t)

	return nil
}

// Disarm removes the current trigger, if any.
func (s *Scheduler) Disarm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked()
}

func (s *Scheduler) disarmLocked() {
	if !s.armed {
		return
	}
	s.cron.Remove(s.entryID)
	s.armed = false
	s.entryID = 0
}

// Armed reports whether a trigger is armed.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

// ArmedTime returns the time of day the armed trigger fires at.
func (s *Scheduler) ArmedTime() (TimeOfDay, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.at, s.armed
}

// NextRun returns when the armed trigger fires next, or nil when unarmed.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.armed {
		return nil
	}

	entry := s.cron.Entry(s.entryID)
	next := entry.Next
	if next.IsZero() && entry.Schedule != nil {
		// Not started yet; cron only fills Next once running.
		next = entry.Schedule.Next(time.Now().In(s.location))
	}
	if next.IsZero() {
		return nil
	}
	return &next
}

// fire runs the reminder hook. Failures are logged, never retried.
func (s *Scheduler) fire(t TimeOfDay) {
	log.Printf("Executing daily reminder at %s", t)

	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(context.Background(), models.ReminderNotification()); err != nil {
		log.Printf("Reminder notification failed: %v", err)
	}
}
