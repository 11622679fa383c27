package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/parking-spot-keeper/backend/internal/api/middleware"
	"github.com/parking-spot-keeper/backend/internal/storage"
	"github.com/parking-spot-keeper/backend/internal/storage/models"
	"github.com/parking-spot-keeper/backend/internal/websocket"
)

// maxHistoryLimit bounds the limit query parameter of the history endpoint.
const maxHistoryLimit = 100

// SuccessResponse is returned by endpoints that have nothing else to report.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ListFloors returns the static floor layout.
func ListFloors() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, models.FloorConfigs())
	}
}

// GetCurrentParking returns the active location, or null when there is none.
func GetCurrentParking(store storage.LocationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc, err := store.GetCurrent(r.Context())
		if err != nil {
			log.Printf("Error getting current parking location: %v", err)
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to get current parking location")
			return
		}

		middleware.WriteJSON(w, http.StatusOK, loc)
	}
}

// SaveParking stores a new active location, replacing the previous one.
func SaveParking(store storage.LocationStore, events *websocket.EventBroadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := decodeObject(r)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		var errs fieldErrors
		floor := requiredInt(fields, "floor", &errs)
		spot := requiredInt(fields, "spot", &errs)
		userID := optionalID(fields, "userId", &errs)
		if len(errs) > 0 {
			errs.write(w)
			return
		}

		loc, err := store.Create(r.Context(), floor, spot, userID)
		if err != nil {
			log.Printf("Error saving parking location: %v", err)
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to save parking location")
			return
		}

		log.Printf("Parking location saved: floor %d, spot %d", loc.Floor, loc.Spot)
		events.BroadcastParkingSaved(*loc)

		middleware.WriteJSON(w, http.StatusCreated, loc)
	}
}

// ClearParking deactivates the active location.
func ClearParking(store storage.LocationStore, events *websocket.EventBroadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc, err := store.Clear(r.Context())
		if errors.Is(err, storage.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "No active parking location")
			return
		}
		if err != nil {
			log.Printf("Error clearing parking location: %v", err)
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to clear parking location")
			return
		}

		events.BroadcastParkingCleared(*loc)

		middleware.WriteJSON(w, http.StatusOK, SuccessResponse{Success: true})
	}
}

// GetParkingHistory returns past locations, newest first.
func GetParkingHistory(store storage.LocationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := models.DefaultHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > maxHistoryLimit {
				middleware.WriteErrorWithDetails(w, http.StatusBadRequest, middleware.ErrValidation,
					`Validation error: Expected integer between 1 and 100 at "limit"`,
					[]FieldError{{Field: "limit", Message: "Expected integer between 1 and 100"}})
				return
			}
			limit = n
		}

		history, err := store.GetHistory(r.Context(), limit)
		if err != nil {
			log.Printf("Error getting parking history: %v", err)
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to get parking history")
			return
		}

		middleware.WriteJSON(w, http.StatusOK, history)
	}
}
