package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/parking-spot-keeper/backend/internal/api/middleware"
	"github.com/parking-spot-keeper/backend/internal/reminder"
	"github.com/parking-spot-keeper/backend/internal/storage/models"
	"github.com/parking-spot-keeper/backend/internal/websocket"
)

// GetReminder returns the reminder settings, or the defaults when unset.
func GetReminder(svc *reminder.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := svc.Get(r.Context())
		if err != nil {
			log.Printf("Error getting reminder settings: %v", err)
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to get reminder settings")
			return
		}

		middleware.WriteJSON(w, http.StatusOK, settings)
	}
}

// UpdateReminder saves the reminder settings and re-arms the daily reminder.
func UpdateReminder(svc *reminder.Service, events *websocket.EventBroadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := decodeObject(r)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		var errs fieldErrors
		patch := models.ReminderPatch{
			Enabled: optionalBool(fields, "enabled", &errs),
			Time:    optionalString(fields, "time", &errs),
		}
		if len(errs) > 0 {
			errs.write(w)
			return
		}

		settings, err := svc.Update(r.Context(), patch)
		if errors.Is(err, reminder.ErrInvalidTime) {
			fieldErrors{{Field: "time", Message: "Expected time in HH:MM format"}}.write(w)
			return
		}
		if err != nil {
			log.Printf("Error updating reminder settings: %v", err)
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update reminder settings")
			return
		}

		events.BroadcastReminderUpdated(settings, svc.Scheduler().NextRun())

		middleware.WriteJSON(w, http.StatusOK, settings)
	}
}

// TestNotification returns the payload the daily reminder sends.
func TestNotification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, models.ReminderNotification())
	}
}
