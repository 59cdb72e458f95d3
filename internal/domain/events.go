package domain

import (
	"time"

	"github.com/google/uuid"
)

// Form lifecycle event names consumed by the notification and analytics
// modules downstream.
const (
	EventFormCreated       = "form_created"
	EventFormPublished     = "form_published"
	EventSubmissionStarted = "submission_started"
	EventFormSubmitted     = "form_submitted"
)

// FormEvent is the wire payload published on every lifecycle transition.
type FormEvent struct {
	EventName string               `json:"event_name"`
	TenantID  uuid.UUID            `json:"tenant_id"`
	EntityIDs map[string]uuid.UUID `json:"entity_ids"`
	Timestamp time.Time            `json:"timestamp"`
}
