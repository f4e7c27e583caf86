package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType names the dashboard invalidation events published to Redis.
type EventType string

const (
	CalendarEventCreated  EventType = "calendar.event.created"
	CalendarEventUpdated  EventType = "calendar.event.updated"
	CalendarEventDeleted  EventType = "calendar.event.deleted"
	CalendarEventImported EventType = "calendar.event.imported"
	ReminderDispatched    EventType = "calendar.reminder.dispatched"
)

// DashboardEvent invalidates a user's cached dashboard views. Consumers
// only need the owning user; EntityID is informational.
type DashboardEvent struct {
	Type       EventType `json:"type"`
	UserID     uuid.UUID `json:"user_id"`
	EntityID   uuid.UUID `json:"entity_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewDashboardEvent(t EventType, userID, entityID uuid.UUID) DashboardEvent {
	return DashboardEvent{
		Type:       t,
		UserID:     userID,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
}
