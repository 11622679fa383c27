package websocket

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/parking-spot-keeper/backend/internal/storage/models"
)

// EventBroadcaster handles broadcasting WebSocket events.
// A broadcaster without a hub drops every event.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastParkingSaved sends a parking.saved event.
func (b *EventBroadcaster) BroadcastParkingSaved(loc models.ParkingLocation) {
	b.broadcast(NewMessage(TypeParkingSaved, loc))
}

// BroadcastParkingCleared sends a parking.cleared event.
func (b *EventBroadcaster) BroadcastParkingCleared(loc models.ParkingLocation) {
	b.broadcast(NewMessage(TypeParkingCleared, loc))
}

// BroadcastReminderUpdated sends a reminder.updated event.
func (b *EventBroadcaster) BroadcastReminderUpdated(settings models.ReminderSettings, nextRun *time.Time) {
	b.broadcast(NewMessage(TypeReminderUpdated, ReminderPayload{
		Enabled:   settings.Enabled,
		Time:      settings.Time,
		NextRunAt: nextRun,
	}))
}

// Notify sends a notification event to every connected client.
func (b *EventBroadcaster) Notify(_ context.Context, n models.Notification) error {
	if b == nil || b.hub == nil {
		return nil
	}

	data, err := NewMessage(TypeNotification, n).JSON()
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}
	b.hub.Broadcast(data)
	return nil
}

// broadcast sends a message to all connected clients.
func (b *EventBroadcaster) broadcast(msg Message) {
	if b == nil || b.hub == nil {
		return
	}

	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}

	b.hub.Broadcast(data)
}
