package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FormTemplate is a reusable starting point for new form configurations.
// Templates are tenant-agnostic when TenantID is nil (platform-provided).
type FormTemplate struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID    *uuid.UUID     `gorm:"type:uuid;index" json:"tenant_id,omitempty"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Description string         `gorm:"column:description" json:"description"`
	Category    string         `gorm:"column:category;index" json:"category"`
	Sections    []FormSection  `gorm:"column:sections;type:jsonb;serializer:json" json:"sections"`
	UsageCount  int            `gorm:"column:usage_count;not null;default:0" json:"usage_count"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (FormTemplate) TableName() string { return "form_template" }
