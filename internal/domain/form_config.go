package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FormStatus is the lifecycle state of a form configuration.
type FormStatus string

const (
	FormStatusDraft    FormStatus = "draft"
	FormStatusActive   FormStatus = "active"
	FormStatusArchived FormStatus = "archived"
)

// RuleSeverity grades a cross-field rule violation.
type RuleSeverity string

const (
	SeverityError   RuleSeverity = "error"
	SeverityWarning RuleSeverity = "warning"
)

// FormSection groups fields, optionally behind a show condition. A
// repeatable section is instantiated per subject (one per guardian, one per
// prior school) and its responses are index-encoded.
type FormSection struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description,omitempty"`
	Order         int                  `json:"order"`
	Fields        []FormField          `json:"fields"`
	ShowCondition *ConditionExpression `json:"show_condition,omitempty"`
	Repeatable    bool                 `json:"repeatable"`
	MinInstances  int                  `json:"min_instances,omitempty"`
	MaxInstances  int                  `json:"max_instances,omitempty"`
}

// CrossFieldValidationRule validates a relationship between fields using a
// restricted textual expression. The rule passes when the expression
// evaluates true.
type CrossFieldValidationRule struct {
	ID             string       `json:"id"`
	Expression     string       `json:"expression"`
	ErrorMessage   string       `json:"error_message"`
	AffectedFields []string     `json:"affected_fields"`
	Severity       RuleSeverity `json:"severity"`
}

// SubmissionSettings controls intake behavior for an active form.
type SubmissionSettings struct {
	MaxSubmissions      int    `json:"max_submissions,omitempty"` // 0 = unlimited
	AllowDraftSaving    bool   `json:"allow_draft_saving"`
	ConfirmationMessage string `json:"confirmation_message,omitempty"`
	NotifyEmail         string `json:"notify_email,omitempty"`
}

// FormConfig is one version of a tenant-designed enrollment form. Versions
// form a singly linked chain through PreviousVersionID; at most one version
// per (tenant, year level, enrollment type) scope is active at a time.
//
// A config is mutable only while draft. Publishing freezes its structure;
// any later edit forks a new draft version instead of touching it, so
// in-flight submissions pinned to this version are never affected.
type FormConfig struct {
	ID                uuid.UUID                  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID          uuid.UUID                  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name              string                     `gorm:"column:name;not null" json:"name"`
	Description       string                     `gorm:"column:description" json:"description"`
	Version           int                        `gorm:"column:version;not null;default:1" json:"version"`
	Status            FormStatus                 `gorm:"column:status;not null;default:draft;index" json:"status"`
	YearLevel         string                     `gorm:"column:year_level;index" json:"year_level"`
	EnrollmentType    string                     `gorm:"column:enrollment_type;index" json:"enrollment_type"`
	Sections          []FormSection              `gorm:"column:sections;type:jsonb;serializer:json" json:"sections"`
	CrossFieldRules   []CrossFieldValidationRule `gorm:"column:cross_field_rules;type:jsonb;serializer:json" json:"cross_field_rules"`
	Settings          SubmissionSettings         `gorm:"column:settings;type:jsonb;serializer:json" json:"settings"`
	PreviousVersionID *uuid.UUID                 `gorm:"type:uuid;index" json:"previous_version_id,omitempty"`
	Metadata          datatypes.JSON             `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedBy         uuid.UUID                  `gorm:"type:uuid" json:"created_by"`
	PublishedBy       *uuid.UUID                 `gorm:"type:uuid" json:"published_by,omitempty"`
	PublishedAt       *time.Time                 `json:"published_at,omitempty"`
	CreatedAt         time.Time                  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time                  `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt         gorm.DeletedAt             `gorm:"index" json:"deleted_at,omitempty"`
}

func (FormConfig) TableName() string { return "form_config" }

// Field looks a field up by id across all sections.
func (fc *FormConfig) Field(fieldID string) (*FormField, *FormSection) {
	for si := range fc.Sections {
		section := &fc.Sections[si]
		for fi := range section.Fields {
			if section.Fields[fi].ID == fieldID {
				return &section.Fields[fi], section
			}
		}
	}
	return nil, nil
}

// AllFields flattens every field of every section in section order.
func (fc *FormConfig) AllFields() []FormField {
	var out []FormField
	for _, section := range fc.Sections {
		out = append(out, section.Fields...)
	}
	return out
}
