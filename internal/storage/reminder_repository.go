package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/parking-spot-keeper/backend/internal/storage/models"
)

// ReminderRepository is the SQLite ReminderStore. The table holds at most
// one row, id 1.
type ReminderRepository struct {
	BaseRepository
}

// NewReminderRepository creates a new reminder settings repository.
func NewReminderRepository(db *DB) *ReminderRepository {
	return &ReminderRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Get retrieves the saved reminder settings.
func (r *ReminderRepository) Get(ctx context.Context) (*models.ReminderSettings, error) {
	var s models.ReminderSettings
	var userID sql.NullInt64

	err := r.DB().QueryRowContext(ctx, `
		SELECT id, enabled, time, user_id FROM reminder_settings WHERE id = ?
	`, models.ReminderSettingsID).Scan(&s.ID, &s.Enabled, &s.Time, &userID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying reminder settings: %w", err)
	}

	if userID.Valid {
		id := userID.Int64
		s.UserID = &id
	}

	return &s, nil
}

// Save upserts the reminder settings.
func (r *ReminderRepository) Save(ctx context.Context, settings models.ReminderSettings) (*models.ReminderSettings, error) {
	settings.ID = models.ReminderSettingsID

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO reminder_settings (id, enabled, time, user_id, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			enabled = excluded.enabled,
			time = excluded.time,
			user_id = excluded.user_id,
			updated_at = excluded.updated_at
	`, settings.ID, settings.Enabled, settings.Time, nullableID(settings.UserID), r.Now())
	if err != nil {
		return nil, fmt.Errorf("saving reminder settings: %w", err)
	}

	return &settings, nil
}
