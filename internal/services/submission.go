package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brightpath/enrolform-backend/internal/data/repos"
	"github.com/brightpath/enrolform-backend/internal/domain"
	"github.com/brightpath/enrolform-backend/internal/events"
	"github.com/brightpath/enrolform-backend/internal/forms"
	"github.com/brightpath/enrolform-backend/internal/pkg/apperr"
	"github.com/brightpath/enrolform-backend/internal/pkg/dbctx"
	"github.com/brightpath/enrolform-backend/internal/pkg/logger"
	"github.com/brightpath/enrolform-backend/internal/requestdata"
)

// SubmitResult is returned once a submission passes final validation: the
// canonical partial record for the caller to persist into the enrollment
// application, plus the custom data bag.
type SubmitResult struct {
	Submission *domain.FormSubmission  `json:"submission"`
	Canonical  *domain.CanonicalRecord `json:"canonical"`
}

type SubmissionService interface {
	Start(ctx context.Context, formConfigID uuid.UUID, applicationID *uuid.UUID) (*domain.FormSubmission, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.FormSubmission, error)
	Drafts(ctx context.Context) ([]*domain.FormSubmission, error)
	SaveResponses(ctx context.Context, id uuid.UUID, values map[string]any) (*domain.FormSubmission, error)
	Submit(ctx context.Context, id uuid.UUID) (*SubmitResult, error)
}

type submissionService struct {
	db             *gorm.DB
	log            *logger.Logger
	configRepo     repos.FormConfigRepo
	submissionRepo repos.FormSubmissionRepo
	publisher      events.Publisher
}

func NewSubmissionService(db *gorm.DB, baseLog *logger.Logger, configRepo repos.FormConfigRepo, submissionRepo repos.FormSubmissionRepo, publisher events.Publisher) SubmissionService {
	return &submissionService{
		db:             db,
		log:            baseLog.With("service", "SubmissionService"),
		configRepo:     configRepo,
		submissionRepo: submissionRepo,
		publisher:      publisher,
	}
}

func (s *submissionService) identity(ctx context.Context) (*requestdata.RequestData, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.TenantID == uuid.Nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("identity not set in request context")
	}
	return rd, nil
}

// Start opens a draft submission against an active form version. The
// version is pinned here and never changes afterwards.
func (s *submissionService) Start(ctx context.Context, formConfigID uuid.UUID, applicationID *uuid.UUID) (*domain.FormSubmission, error) {
	rd, err := s.identity(ctx)
	if err != nil {
		return nil, err
	}
	config, err := s.configRepo.GetByID(dbctx.New(ctx), formConfigID)
	if err != nil {
		return nil, err
	}
	if config.TenantID != rd.TenantID {
		return nil, apperr.NewNotFound("form configuration", formConfigID.String())
	}
	if config.Status != domain.FormStatusActive {
		return nil, apperr.NewValidation("form_not_active", "%s is not open for submissions", config.Name)
	}

	if limit := config.Settings.MaxSubmissions; limit > 0 {
		completed, err := s.submissionRepo.CountByFormAndStatus(dbctx.New(ctx), config.ID, domain.SubmissionStatusCompleted)
		if err != nil {
			return nil, err
		}
		if completed >= int64(limit) {
			return nil, apperr.NewValidation("submission_capacity_reached",
				"%s has reached its capacity of %d submissions", config.Name, limit)
		}
	}

	submission := &domain.FormSubmission{
		ID:            uuid.New(),
		TenantID:      rd.TenantID,
		FormConfigID:  config.ID,
		FormVersion:   config.Version,
		ApplicationID: applicationID,
		SubmittedBy:   rd.UserID,
		Status:        domain.SubmissionStatusDraft,
		Responses:     []domain.FieldResponse{},
	}
	if err := s.submissionRepo.Create(dbctx.New(ctx), submission); err != nil {
		return nil, err
	}

	s.emit(ctx, domain.EventSubmissionStarted, rd.TenantID, map[string]uuid.UUID{
		"form_config_id": config.ID,
		"submission_id":  submission.ID,
	})
	return submission, nil
}

func (s *submissionService) Get(ctx context.Context, id uuid.UUID) (*domain.FormSubmission, error) {
	rd, err := s.identity(ctx)
	if err != nil {
		return nil, err
	}
	submission, err := s.submissionRepo.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	if submission.TenantID != rd.TenantID {
		return nil, apperr.NewNotFound("submission", id.String())
	}
	return submission, nil
}

func (s *submissionService) Drafts(ctx context.Context) ([]*domain.FormSubmission, error) {
	rd, err := s.identity(ctx)
	if err != nil {
		return nil, err
	}
	return s.submissionRepo.GetDraftsByUser(dbctx.New(ctx), rd.UserID)
}

// SaveResponses merges incoming values into the response set keyed by
// field id: one entry per field, replaced on re-save, so calling twice
// with the same input is a no-op. Display values, the custom data bag,
// draft-mode validation state and progress are all recomputed from the
// merged set.
func (s *submissionService) SaveResponses(ctx context.Context, id uuid.UUID, values map[string]any) (*domain.FormSubmission, error) {
	submission, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if submission.Status != domain.SubmissionStatusDraft {
		return nil, apperr.NewValidation("submission_not_draft", "submission has already been submitted")
	}
	config, err := s.configRepo.GetByID(dbctx.New(ctx), submission.FormConfigID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for fieldID, value := range values {
		display := ""
		if field := resolveField(config, fieldID); field != nil {
			display = forms.DisplayValue(field, value)
		}
		merged := false
		for i := range submission.Responses {
			if submission.Responses[i].FieldID == fieldID {
				submission.Responses[i].Value = value
				submission.Responses[i].DisplayValue = display
				submission.Responses[i].UpdatedAt = now
				merged = true
				break
			}
		}
		if !merged {
			submission.Responses = append(submission.Responses, domain.FieldResponse{
				FieldID:      fieldID,
				Value:        value,
				DisplayValue: display,
				UpdatedAt:    now,
			})
		}
	}

	responseValues := submission.ResponseValues()

	custom := forms.ExtractCustomData(config, responseValues)
	rawCustom, err := json.Marshal(custom)
	if err != nil {
		return nil, fmt.Errorf("encode custom data: %w", err)
	}
	submission.CustomData = datatypes.JSON(rawCustom)

	result := forms.Validate(config, responseValues, false)
	submission.Validation = &domain.ValidationState{
		Valid:            result.Valid,
		FieldErrors:      result.FieldErrors,
		CrossFieldErrors: result.CrossFieldErrors,
		ValidatedAt:      now,
	}
	submission.Progress = forms.Progress(config, responseValues)

	if err := s.submissionRepo.Update(dbctx.New(ctx), submission); err != nil {
		return nil, err
	}
	return submission, nil
}

// resolveField finds the field definition for a response id, handling the
// index-encoded ids of repeatable-section instances.
func resolveField(config *domain.FormConfig, responseID string) *domain.FormField {
	if field, _ := config.Field(responseID); field != nil {
		return field
	}
	base, _, ok := forms.SplitRepeatResponseID(responseID)
	if !ok {
		return nil
	}
	field, section := config.Field(base)
	if field == nil || section == nil || !section.Repeatable {
		return nil
	}
	return field
}

// Submit re-runs validation in final mode. Any violation aborts with the
// aggregated result and leaves the submission draft; success freezes the
// submission and returns the mapped canonical record for the caller to
// persist downstream.
func (s *submissionService) Submit(ctx context.Context, id uuid.UUID) (*SubmitResult, error) {
	submission, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if submission.Status != domain.SubmissionStatusDraft {
		return nil, apperr.NewValidation("submission_not_draft", "submission has already been submitted")
	}
	config, err := s.configRepo.GetByID(dbctx.New(ctx), submission.FormConfigID)
	if err != nil {
		return nil, err
	}

	responseValues := submission.ResponseValues()
	now := time.Now()

	result := forms.Validate(config, responseValues, true)
	submission.Validation = &domain.ValidationState{
		Valid:            result.Valid,
		FieldErrors:      result.FieldErrors,
		CrossFieldErrors: result.CrossFieldErrors,
		ValidatedAt:      now,
	}
	if !result.Valid {
		if err := s.submissionRepo.Update(dbctx.New(ctx), submission); err != nil {
			s.log.Warn("failed to persist validation state", "submission_id", submission.ID, "error", err)
		}
		return nil, &apperr.ValidationError{
			Code:    "submission_invalid",
			Message: validationSummary(result),
			Fields:  result.FieldErrors,
		}
	}

	canonical := forms.MapResponses(config, responseValues)
	if canonical.CustomData != nil {
		if raw, err := json.Marshal(canonical.CustomData); err == nil {
			submission.CustomData = datatypes.JSON(raw)
		}
	}

	submission.Status = domain.SubmissionStatusSubmitted
	submission.SubmittedAt = &now
	submission.Progress = 100
	if err := s.submissionRepo.Update(dbctx.New(ctx), submission); err != nil {
		return nil, err
	}

	s.emit(ctx, domain.EventFormSubmitted, submission.TenantID, map[string]uuid.UUID{
		"form_config_id": submission.FormConfigID,
		"submission_id":  submission.ID,
	})
	return &SubmitResult{Submission: submission, Canonical: canonical}, nil
}

func validationSummary(result *forms.ValidationResult) string {
	total := len(result.CrossFieldErrors)
	for _, errs := range result.FieldErrors {
		total += len(errs)
	}
	first := ""
	for _, errs := range result.FieldErrors {
		if len(errs) > 0 {
			first = errs[0]
			break
		}
	}
	if first == "" && len(result.CrossFieldErrors) > 0 {
		first = result.CrossFieldErrors[0]
	}
	if total <= 1 {
		return first
	}
	return fmt.Sprintf("%s (and %d more problems)", first, total-1)
}

func (s *submissionService) emit(ctx context.Context, name string, tenantID uuid.UUID, entityIDs map[string]uuid.UUID) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(name, tenantID, entityIDs)); err != nil {
		s.log.Warn("failed to publish event", "event_name", name, "error", err)
	}
}
