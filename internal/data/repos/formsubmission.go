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

type FormSubmissionRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.FormSubmission, error)
	GetByApplication(dbc dbctx.Context, applicationID uuid.UUID) ([]*domain.FormSubmission, error)
	GetByForm(dbc dbctx.Context, formConfigID uuid.UUID, status domain.SubmissionStatus) ([]*domain.FormSubmission, error)
	GetDraftsByUser(dbc dbctx.Context, userID uuid.UUID) ([]*domain.FormSubmission, error)
	CountByFormAndStatus(dbc dbctx.Context, formConfigID uuid.UUID, status domain.SubmissionStatus) (int64, error)
	Create(dbc dbctx.Context, submission *domain.FormSubmission) error
	Update(dbc dbctx.Context, submission *domain.FormSubmission) error
}

type formSubmissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFormSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) FormSubmissionRepo {
	return &formSubmissionRepo{db: db, log: baseLog.With("repo", "FormSubmissionRepo")}
}

func (r *formSubmissionRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *formSubmissionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.FormSubmission, error) {
	var submission domain.FormSubmission
	if err := r.handle(dbc).Where("id = ?", id).First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("submission", id.String())
		}
		return nil, err
	}
	return &submission, nil
}

func (r *formSubmissionRepo) GetByApplication(dbc dbctx.Context, applicationID uuid.UUID) ([]*domain.FormSubmission, error) {
	var results []*domain.FormSubmission
	if err := r.handle(dbc).
		Where("application_id = ?", applicationID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *formSubmissionRepo) GetByForm(dbc dbctx.Context, formConfigID uuid.UUID, status domain.SubmissionStatus) ([]*domain.FormSubmission, error) {
	query := r.handle(dbc).Where("form_config_id = ?", formConfigID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var results []*domain.FormSubmission
	if err := query.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *formSubmissionRepo) GetDraftsByUser(dbc dbctx.Context, userID uuid.UUID) ([]*domain.FormSubmission, error) {
	var results []*domain.FormSubmission
	if err := r.handle(dbc).
		Where("submitted_by = ? AND status = ?", userID, domain.SubmissionStatusDraft).
		Order("updated_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *formSubmissionRepo) CountByFormAndStatus(dbc dbctx.Context, formConfigID uuid.UUID, status domain.SubmissionStatus) (int64, error) {
	var count int64
	if err := r.handle(dbc).
		Model(&domain.FormSubmission{}).
		Where("form_config_id = ? AND status = ?", formConfigID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *formSubmissionRepo) Create(dbc dbctx.Context, submission *domain.FormSubmission) error {
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	return r.handle(dbc).Create(submission).Error
}

func (r *formSubmissionRepo) Update(dbc dbctx.Context, submission *domain.FormSubmission) error {
	submission.UpdatedAt = time.Now()
	return r.handle(dbc).Save(submission).Error
}
