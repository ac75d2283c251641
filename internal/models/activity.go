package models

import (
	"time"

	"github.com/google/uuid"
)

// FieldChange is one field-level diff. From is absent on create, To on delete.
type FieldChange struct {
	Field string  `json:"field"`
	From  *string `json:"from,omitempty"`
	To    *string `json:"to,omitempty"`
}

// ActivityLogEntry is an immutable audit record against a tracked entity.
type ActivityLogEntry struct {
	ID          uuid.UUID     `json:"id"`
	ActorID     uuid.UUID     `json:"actor_id"`
	ActorEmail  string        `json:"actor_email,omitempty"`
	Action      string        `json:"action"`
	EntityType  string        `json:"entity_type"`
	EntityID    string        `json:"entity_id"`
	EntityTitle string        `json:"entity_title"`
	Detail      string        `json:"detail,omitempty"`
	Changes     []FieldChange `json:"changes,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Notification is an in-app message for one principal.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Title     string    `json:"title"`
	Message   string    `json:"message,omitempty"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
