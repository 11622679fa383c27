// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/parking-spot-keeper/backend/internal/api/handlers"
	"github.com/parking-spot-keeper/backend/internal/api/middleware"
	"github.com/parking-spot-keeper/backend/internal/reminder"
	"github.com/parking-spot-keeper/backend/internal/storage"
	"github.com/parking-spot-keeper/backend/internal/websocket"
)

// Services holds everything the handlers depend on.
type Services struct {
	Locations storage.LocationStore
	Health    storage.Pinger
	Reminders *reminder.Service
	Hub       *websocket.Hub
	Info      handlers.StatusInfo

	// StaticDir is served at the root when non-empty.
	StaticDir string
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(s Services) *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	events := websocket.NewEventBroadcaster(s.Hub)

	// API subrouter
	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(s.Health)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(s.Info, s.Locations, s.Reminders.Scheduler(), s.Hub)).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(s.Hub)).Methods("GET")

	// Floor layout
	api.HandleFunc("/floors", handlers.ListFloors()).Methods("GET")

	// Parking endpoints
	api.HandleFunc("/parking/current", handlers.GetCurrentParking(s.Locations)).Methods("GET")
	api.HandleFunc("/parking", handlers.SaveParking(s.Locations, events)).Methods("POST")
	api.HandleFunc("/parking/clear", handlers.ClearParking(s.Locations, events)).Methods("POST")
	api.HandleFunc("/parking/history", handlers.GetParkingHistory(s.Locations)).Methods("GET")

	// Reminder endpoints
	api.HandleFunc("/reminder", handlers.GetReminder(s.Reminders)).Methods("GET")
	api.HandleFunc("/reminder", handlers.UpdateReminder(s.Reminders, events)).Methods("POST")
	api.HandleFunc("/notification/test", handlers.TestNotification()).Methods("GET")

	// Serve static frontend files
	if s.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.StaticDir)))
	}

	return r
}
