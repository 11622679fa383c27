package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/parking-spot-keeper/backend/internal/storage/models"
)

// LocationRepository is the SQLite LocationStore.
type LocationRepository struct {
	BaseRepository
}

// NewLocationRepository creates a new parking location repository.
func NewLocationRepository(db *DB) *LocationRepository {
	return &LocationRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const locationColumns = "id, floor, spot, timestamp, active, user_id"

// Create deactivates the active location and inserts a new active one.
func (r *LocationRepository) Create(ctx context.Context, floor, spot int, userID *int64) (*models.ParkingLocation, error) {
	loc := &models.ParkingLocation{
		Floor:     floor,
		Spot:      spot,
		Timestamp: r.Now(),
		Active:    true,
		UserID:    userID,
	}

	err := r.DB().Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE parking_locations SET active = 0 WHERE active = 1"); err != nil {
			return fmt.Errorf("deactivating current location: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO parking_locations (floor, spot, timestamp, active, user_id)
			VALUES (?, ?, ?, 1, ?)
		`, loc.Floor, loc.Spot, loc.Timestamp, nullableID(userID))
		if err != nil {
			return fmt.Errorf("inserting location: %w", err)
		}

		loc.ID, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}

	return loc, nil
}

// Get retrieves a location by its ID.
func (r *LocationRepository) Get(ctx context.Context, id int64) (*models.ParkingLocation, error) {
	row := r.DB().QueryRowContext(ctx, "SELECT "+locationColumns+" FROM parking_locations WHERE id = ?", id)
	loc, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying location: %w", err)
	}
	return loc, nil
}

// GetCurrent retrieves the active location.
func (r *LocationRepository) GetCurrent(ctx context.Context) (*models.ParkingLocation, error) {
	row := r.DB().QueryRowContext(ctx, "SELECT "+locationColumns+" FROM parking_locations WHERE active = 1")
	loc, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying current location: %w", err)
	}
	return loc, nil
}

// Clear deactivates the active location.
func (r *LocationRepository) Clear(ctx context.Context) (*models.ParkingLocation, error) {
	var cleared *models.ParkingLocation

	err := r.DB().Transaction(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT "+locationColumns+" FROM parking_locations WHERE active = 1")
		loc, err := scanLocation(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("querying current location: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "UPDATE parking_locations SET active = 0 WHERE id = ?", loc.ID); err != nil {
			return fmt.Errorf("deactivating location: %w", err)
		}

		loc.Active = false
		cleared = loc
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cleared, nil
}

// GetHistory lists locations newest first.
func (r *LocationRepository) GetHistory(ctx context.Context, limit int) ([]models.ParkingLocation, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+locationColumns+`
		FROM parking_locations
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	history := []models.ParkingLocation{}
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		history = append(history, *loc)
	}

	return history, rows.Err()
}

// Update patches a location. Activating a location deactivates any other.
func (r *LocationRepository) Update(ctx context.Context, id int64, patch models.LocationPatch) (*models.ParkingLocation, error) {
	var updated *models.ParkingLocation

	err := r.DB().Transaction(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT "+locationColumns+" FROM parking_locations WHERE id = ?", id)
		loc, err := scanLocation(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("parking location %d: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("querying location: %w", err)
		}

		next := patch.Apply(*loc)
		if next.Active && !loc.Active {
			if _, err := tx.ExecContext(ctx, "UPDATE parking_locations SET active = 0 WHERE active = 1"); err != nil {
				return fmt.Errorf("deactivating current location: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, "UPDATE parking_locations SET active = ? WHERE id = ?", next.Active, id); err != nil {
			return fmt.Errorf("updating location: %w", err)
		}

		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocation(row rowScanner) (*models.ParkingLocation, error) {
	var loc models.ParkingLocation
	var userID sql.NullInt64

	if err := row.Scan(&loc.ID, &loc.Floor, &loc.Spot, &loc.Timestamp, &loc.Active, &userID); err != nil {
		return nil, err
	}
	if userID.Valid {
		id := userID.Int64
		loc.UserID = &id
	}
	loc.Timestamp = loc.Timestamp.UTC()

	return &loc, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
