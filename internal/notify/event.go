// Package notify delivers task events to users connected over websockets.
package notify

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTaskCreated       EventType = "task_created"
	EventTaskAssigned      EventType = "task_assigned"
	EventTaskStatusChanged EventType = "task_status_changed"
	EventTaskDeleted       EventType = "task_deleted"
)

// Event is the envelope pushed to clients.
type Event struct {
	Type       EventType `json:"type"`
	TaskID     uuid.UUID `json:"task_id"`
	TeamID     uuid.UUID `json:"team_id"`
	ActorID    uuid.UUID `json:"actor_id"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notification is one event addressed to a set of users.
type Notification struct {
	Recipients []uuid.UUID `json:"recipients"`
	Event      Event       `json:"event"`
}

// Payload encodes the event as it goes over the wire.
func (e Event) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// Dedup returns ids without duplicates and without uuid.Nil, keeping order.
func Dedup(ids ...uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
