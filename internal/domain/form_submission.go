package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubmissionStatus is the lifecycle state of a form submission.
type SubmissionStatus string

const (
	SubmissionStatusDraft      SubmissionStatus = "draft"
	SubmissionStatusSubmitted  SubmissionStatus = "submitted"
	SubmissionStatusProcessing SubmissionStatus = "processing"
	SubmissionStatusCompleted  SubmissionStatus = "completed"
	SubmissionStatusError      SubmissionStatus = "error"
)

// FieldResponse is one captured value, keyed by field id. DisplayValue is a
// cached human-readable rendering (option label, formatted date) recomputed
// on every save.
type FieldResponse struct {
	FieldID      string    `json:"field_id"`
	Value        any       `json:"value"`
	DisplayValue string    `json:"display_value,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ValidationState is the persisted result of the last validation pass.
type ValidationState struct {
	Valid            bool                `json:"valid"`
	FieldErrors      map[string][]string `json:"field_errors,omitempty"`
	CrossFieldErrors []string            `json:"cross_field_errors,omitempty"`
	ValidatedAt      time.Time           `json:"validated_at"`
}

// FormSubmission is one family's in-progress or completed response set.
//
// FormVersion pins the exact configuration version the submission started
// against; it never changes, so later form edits cannot invalidate work in
// flight. A submission is mutable only while draft and is mapped into the
// canonical enrollment record exactly once, on submit.
type FormSubmission struct {
	ID            uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"tenant_id"`
	FormConfigID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"form_config_id"`
	FormVersion   int              `gorm:"column:form_version;not null" json:"form_version"`
	ApplicationID *uuid.UUID       `gorm:"type:uuid;index" json:"application_id,omitempty"`
	SubmittedBy   uuid.UUID        `gorm:"type:uuid;not null;index" json:"submitted_by"`
	Status        SubmissionStatus `gorm:"column:status;not null;default:draft;index" json:"status"`
	Responses     []FieldResponse  `gorm:"column:responses;type:jsonb;serializer:json" json:"responses"`
	CustomData    datatypes.JSON   `gorm:"column:custom_data;type:jsonb" json:"custom_data,omitempty"`
	Validation    *ValidationState `gorm:"column:validation;type:jsonb;serializer:json" json:"validation,omitempty"`
	Progress      int              `gorm:"column:progress;not null;default:0" json:"progress"`
	SubmittedAt   *time.Time       `json:"submitted_at,omitempty"`
	CreatedAt     time.Time        `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"deleted_at,omitempty"`
}

func (FormSubmission) TableName() string { return "form_submission" }

// Response returns the stored response for a field id, or nil.
func (s *FormSubmission) Response(fieldID string) *FieldResponse {
	for i := range s.Responses {
		if s.Responses[i].FieldID == fieldID {
			return &s.Responses[i]
		}
	}
	return nil
}

// ResponseValues flattens responses into a fieldID→value map, the context
// shape every evaluator consumes.
func (s *FormSubmission) ResponseValues() map[string]any {
	out := make(map[string]any, len(s.Responses))
	for _, r := range s.Responses {
		out[r.FieldID] = r.Value
	}
	return out
}
