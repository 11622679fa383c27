// Package models contains the domain models for the application.
package models

import (
	"time"
)

// ParkingLocation records where the vehicle was left.
// At most one location is active at a time; the rest form the history.
type ParkingLocation struct {
	ID        int64     `json:"id"`
	Floor     int       `json:"floor"`
	Spot      int       `json:"spot"`
	Timestamp time.Time `json:"timestamp"`
	Active    bool      `json:"active"`
	UserID    *int64    `json:"userId"`
}

// LocationPatch holds the mutable fields of a parking location.
type LocationPatch struct {
	Active *bool `json:"active,omitempty"`
}

// Apply returns a copy of loc with the patch applied.
func (p LocationPatch) Apply(loc ParkingLocation) ParkingLocation {
	if p.Active != nil {
		loc.Active = *p.Active
	}
	return loc
}

// DefaultHistoryLimit is the number of locations returned by history queries
// when no limit is given.
const DefaultHistoryLimit = 10
