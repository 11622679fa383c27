// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/parking-spot-keeper/backend/internal/api/middleware"
	"github.com/parking-spot-keeper/backend/internal/reminder"
	"github.com/parking-spot-keeper/backend/internal/storage"
	"github.com/parking-spot-keeper/backend/internal/storage/models"
	"github.com/parking-spot-keeper/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db storage.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.Ping(r.Context()) == nil

		status := "healthy"
		code := http.StatusOK
		if !dbConnected {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		middleware.WriteJSON(w, code, HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
		})
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	Version          string                  `json:"version"`
	Storage          string                  `json:"storage"`
	ReminderArmed    bool                    `json:"reminder_armed"`
	ReminderTime     string                  `json:"reminder_time,omitempty"`
	NextReminderAt   *time.Time              `json:"next_reminder_at,omitempty"`
	ActiveLocation   *models.ParkingLocation `json:"active_location"`
	WebSocketClients int                     `json:"websocket_clients"`
}

// StatusInfo names the running build for the status endpoint.
type StatusInfo struct {
	Version string
	Storage string
}

// Status returns a handler that provides system status information.
func Status(info StatusInfo, store storage.LocationStore, scheduler *reminder.Scheduler, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, err := store.GetCurrent(r.Context())
		if err != nil {
			log.Printf("Error getting current parking location: %v", err)
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to get status")
			return
		}

		response := StatusResponse{
			Version:          info.Version,
			Storage:          info.Storage,
			NextReminderAt:   scheduler.NextRun(),
			ActiveLocation:   current,
			WebSocketClients: hub.ClientCount(),
		}
		if at, armed := scheduler.ArmedTime(); armed {
			response.ReminderArmed = true
			response.ReminderTime = at.String()
		}

		middleware.WriteJSON(w, http.StatusOK, response)
	}
}
