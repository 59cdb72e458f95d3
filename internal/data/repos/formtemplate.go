package repos

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightpath/enrolform-backend/internal/domain"
	"github.com/brightpath/enrolform-backend/internal/pkg/apperr"
	"github.com/brightpath/enrolform-backend/internal/pkg/dbctx"
	"github.com/brightpath/enrolform-backend/internal/pkg/logger"
)

type FormTemplateRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.FormTemplate, error)
	GetAll(dbc dbctx.Context, tenantID uuid.UUID, category string) ([]*domain.FormTemplate, error)
	GetPopular(dbc dbctx.Context, limit int) ([]*domain.FormTemplate, error)
	Create(dbc dbctx.Context, template *domain.FormTemplate) error
	IncrementUsage(dbc dbctx.Context, id uuid.UUID) error
}

type formTemplateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFormTemplateRepo(db *gorm.DB, baseLog *logger.Logger) FormTemplateRepo {
	return &formTemplateRepo{db: db, log: baseLog.With("repo", "FormTemplateRepo")}
}

func (r *formTemplateRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *formTemplateRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.FormTemplate, error) {
	var template domain.FormTemplate
	if err := r.handle(dbc).Where("id = ?", id).First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("form template", id.String())
		}
		return nil, err
	}
	return &template, nil
}

// GetAll returns platform templates plus the tenant's own, optionally
// filtered by category.
func (r *formTemplateRepo) GetAll(dbc dbctx.Context, tenantID uuid.UUID, category string) ([]*domain.FormTemplate, error) {
	query := r.handle(dbc).Where("tenant_id IS NULL OR tenant_id = ?", tenantID)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var results []*domain.FormTemplate
	if err := query.Order("name ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *formTemplateRepo) GetPopular(dbc dbctx.Context, limit int) ([]*domain.FormTemplate, error) {
	if limit <= 0 {
		limit = 10
	}
	var results []*domain.FormTemplate
	if err := r.handle(dbc).
		Order("usage_count DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *formTemplateRepo) Create(dbc dbctx.Context, template *domain.FormTemplate) error {
	if template.ID == uuid.Nil {
		template.ID = uuid.New()
	}
	return r.handle(dbc).Create(template).Error
}

func (r *formTemplateRepo) IncrementUsage(dbc dbctx.Context, id uuid.UUID) error {
	return r.handle(dbc).
		Model(&domain.FormTemplate{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}
