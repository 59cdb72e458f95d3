package repos

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightpath/enrolform-backend/internal/domain"
	"github.com/brightpath/enrolform-backend/internal/pkg/apperr"
	"github.com/brightpath/enrolform-backend/internal/pkg/dbctx"
	"github.com/brightpath/enrolform-backend/internal/pkg/logger"
)

type FormConfigRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.FormConfig, error)
	GetByTenant(dbc dbctx.Context, tenantID uuid.UUID) ([]*domain.FormConfig, error)
	GetActiveForScope(dbc dbctx.Context, tenantID uuid.UUID, yearLevel, enrollmentType string) (*domain.FormConfig, error)
	GetVersionHistory(dbc dbctx.Context, id uuid.UUID) ([]*domain.FormConfig, error)
	Create(dbc dbctx.Context, config *domain.FormConfig) error
	Update(dbc dbctx.Context, config *domain.FormConfig) error
	ArchiveActiveForScope(dbc dbctx.Context, tenantID uuid.UUID, yearLevel, enrollmentType string, exceptID uuid.UUID) error
}

type formConfigRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFormConfigRepo(db *gorm.DB, baseLog *logger.Logger) FormConfigRepo {
	return &formConfigRepo{db: db, log: baseLog.With("repo", "FormConfigRepo")}
}

func (r *formConfigRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *formConfigRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.FormConfig, error) {
	var config domain.FormConfig
	if err := r.handle(dbc).Where("id = ?", id).First(&config).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("form configuration", id.String())
		}
		return nil, err
	}
	return &config, nil
}

func (r *formConfigRepo) GetByTenant(dbc dbctx.Context, tenantID uuid.UUID) ([]*domain.FormConfig, error) {
	var results []*domain.FormConfig
	if err := r.handle(dbc).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *formConfigRepo) GetActiveForScope(dbc dbctx.Context, tenantID uuid.UUID, yearLevel, enrollmentType string) (*domain.FormConfig, error) {
	var config domain.FormConfig
	err := r.handle(dbc).
		Where("tenant_id = ? AND status = ? AND year_level = ? AND enrollment_type = ?",
			tenantID, domain.FormStatusActive, yearLevel, enrollmentType).
		First(&config).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &config, nil
}

// GetVersionHistory walks the previous-version chain from the given config
// back to the first version, newest first.
func (r *formConfigRepo) GetVersionHistory(dbc dbctx.Context, id uuid.UUID) ([]*domain.FormConfig, error) {
	var history []*domain.FormConfig
	current := id
	for {
		config, err := r.GetByID(dbc, current)
		if err != nil {
			return nil, err
		}
		history = append(history, config)
		if config.PreviousVersionID == nil {
			return history, nil
		}
		current = *config.PreviousVersionID
	}
}

func (r *formConfigRepo) Create(dbc dbctx.Context, config *domain.FormConfig) error {
	if config.ID == uuid.Nil {
		config.ID = uuid.New()
	}
	return r.handle(dbc).Create(config).Error
}

func (r *formConfigRepo) Update(dbc dbctx.Context, config *domain.FormConfig) error {
	config.UpdatedAt = time.Now()
	return r.handle(dbc).Save(config).Error
}

// ArchiveActiveForScope is the conditional write the publish transaction
// relies on: every active config for the scope other than exceptID flips
// to archived in one statement.
func (r *formConfigRepo) ArchiveActiveForScope(dbc dbctx.Context, tenantID uuid.UUID, yearLevel, enrollmentType string, exceptID uuid.UUID) error {
	return r.handle(dbc).
		Model(&domain.FormConfig{}).
		Where("tenant_id = ? AND status = ? AND year_level = ? AND enrollment_type = ? AND id <> ?",
			tenantID, domain.FormStatusActive, yearLevel, enrollmentType, exceptID).
		Updates(map[string]any{"status": domain.FormStatusArchived, "updated_at": time.Now()}).Error
}
