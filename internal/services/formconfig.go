package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightpath/enrolform-backend/internal/data/repos"
	"github.com/brightpath/enrolform-backend/internal/domain"
	"github.com/brightpath/enrolform-backend/internal/events"
	"github.com/brightpath/enrolform-backend/internal/pkg/apperr"
	"github.com/brightpath/enrolform-backend/internal/pkg/dbctx"
	"github.com/brightpath/enrolform-backend/internal/pkg/logger"
	"github.com/brightpath/enrolform-backend/internal/requestdata"
)

// CreateFormInput names the scope a new draft applies to.
type CreateFormInput struct {
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	YearLevel      string     `json:"year_level"`
	EnrollmentType string     `json:"enrollment_type"`
	TemplateID     *uuid.UUID `json:"template_id,omitempty"`
}

// UpdateFormInput carries a structural edit. Nil slices leave the current
// value untouched.
type UpdateFormInput struct {
	Name            *string                           `json:"name,omitempty"`
	Description     *string                           `json:"description,omitempty"`
	Sections        []domain.FormSection              `json:"sections,omitempty"`
	CrossFieldRules []domain.CrossFieldValidationRule `json:"cross_field_rules,omitempty"`
	Settings        *domain.SubmissionSettings        `json:"settings,omitempty"`
}

type FormConfigService interface {
	Create(ctx context.Context, input CreateFormInput) (*domain.FormConfig, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.FormConfig, error)
	ActiveForScope(ctx context.Context, yearLevel, enrollmentType string) (*domain.FormConfig, error)
	ListByTenant(ctx context.Context) ([]*domain.FormConfig, error)
	VersionHistory(ctx context.Context, id uuid.UUID) ([]*domain.FormConfig, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateFormInput) (*domain.FormConfig, error)
	Publish(ctx context.Context, id uuid.UUID) (*domain.FormConfig, error)
	Archive(ctx context.Context, id uuid.UUID) (*domain.FormConfig, error)
	ListTemplates(ctx context.Context, category string) ([]*domain.FormTemplate, error)
	PopularTemplates(ctx context.Context, limit int) ([]*domain.FormTemplate, error)
	SaveAsTemplate(ctx context.Context, id uuid.UUID, input SaveTemplateInput) (*domain.FormTemplate, error)
}

// SaveTemplateInput names a reusable template derived from an existing
// form's structure.
type SaveTemplateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type formConfigService struct {
	db           *gorm.DB
	log          *logger.Logger
	configRepo   repos.FormConfigRepo
	templateRepo repos.FormTemplateRepo
	publisher    events.Publisher
}

func NewFormConfigService(db *gorm.DB, baseLog *logger.Logger, configRepo repos.FormConfigRepo, templateRepo repos.FormTemplateRepo, publisher events.Publisher) FormConfigService {
	return &formConfigService{
		db:           db,
		log:          baseLog.With("service", "FormConfigService"),
		configRepo:   configRepo,
		templateRepo: templateRepo,
		publisher:    publisher,
	}
}

// inTransaction wraps fn in a storage transaction. The transaction is what
// makes archive-then-activate atomic; a nil DB (in-memory test wiring)
// runs the steps directly.
func (s *formConfigService) inTransaction(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if s.db == nil {
		return fn(dbctx.New(ctx))
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.New(ctx).WithTx(tx))
	})
}

func (s *formConfigService) tenant(ctx context.Context) (*requestdata.RequestData, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.TenantID == uuid.Nil {
		return nil, fmt.Errorf("tenant not set in request context")
	}
	return rd, nil
}

func (s *formConfigService) Create(ctx context.Context, input CreateFormInput) (*domain.FormConfig, error) {
	rd, err := s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperr.NewValidation("form_name_required", "form name is required")
	}

	var sections []domain.FormSection
	if input.TemplateID != nil {
		template, err := s.templateRepo.GetByID(dbctx.New(ctx), *input.TemplateID)
		if err != nil {
			return nil, err
		}
		sections = template.Sections
		if err := s.templateRepo.IncrementUsage(dbctx.New(ctx), template.ID); err != nil {
			s.log.Warn("failed to bump template usage", "template_id", template.ID, "error", err)
		}
	} else {
		sections, err = defaultFormSections()
		if err != nil {
			return nil, err
		}
	}

	config := &domain.FormConfig{
		ID:             uuid.New(),
		TenantID:       rd.TenantID,
		Name:           strings.TrimSpace(input.Name),
		Description:    input.Description,
		Version:        1,
		Status:         domain.FormStatusDraft,
		YearLevel:      input.YearLevel,
		EnrollmentType: input.EnrollmentType,
		Sections:       sections,
		Settings:       domain.SubmissionSettings{AllowDraftSaving: true},
		CreatedBy:      rd.UserID,
	}
	if err := validateStructure(config); err != nil {
		return nil, err
	}
	if err := s.configRepo.Create(dbctx.New(ctx), config); err != nil {
		return nil, err
	}

	s.emit(ctx, domain.EventFormCreated, rd.TenantID, map[string]uuid.UUID{"form_config_id": config.ID})
	return config, nil
}

func (s *formConfigService) Get(ctx context.Context, id uuid.UUID) (*domain.FormConfig, error) {
	rd, err := s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	config, err := s.configRepo.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	if config.TenantID != rd.TenantID {
		return nil, apperr.NewNotFound("form configuration", id.String())
	}
	return config, nil
}

// ActiveForScope returns the configuration applicants are currently served
// for a year level and enrollment type. At most one exists per scope.
func (s *formConfigService) ActiveForScope(ctx context.Context, yearLevel, enrollmentType string) (*domain.FormConfig, error) {
	rd, err := s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	config, err := s.configRepo.GetActiveForScope(dbctx.New(ctx), rd.TenantID, yearLevel, enrollmentType)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, apperr.NewNotFound("active form configuration", fmt.Sprintf("%s/%s", yearLevel, enrollmentType))
	}
	return config, nil
}

func (s *formConfigService) ListByTenant(ctx context.Context) ([]*domain.FormConfig, error) {
	rd, err := s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	return s.configRepo.GetByTenant(dbctx.New(ctx), rd.TenantID)
}

func (s *formConfigService) VersionHistory(ctx context.Context, id uuid.UUID) ([]*domain.FormConfig, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.configRepo.GetVersionHistory(dbctx.New(ctx), id)
}

// Update edits a draft in place. Editing an active config never touches it:
// a fresh draft version N+1 is forked, linked through PreviousVersionID,
// and the edit lands there, so submissions pinned to the active version
// keep validating against the structure they started with.
func (s *formConfigService) Update(ctx context.Context, id uuid.UUID, input UpdateFormInput) (*domain.FormConfig, error) {
	config, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch config.Status {
	case domain.FormStatusDraft:
		applyUpdate(config, input)
		if err := validateStructure(config); err != nil {
			return nil, err
		}
		if err := s.configRepo.Update(dbctx.New(ctx), config); err != nil {
			return nil, err
		}
		return config, nil

	case domain.FormStatusActive:
		fork := forkDraft(config)
		applyUpdate(fork, input)
		if err := validateStructure(fork); err != nil {
			return nil, err
		}
		if err := s.configRepo.Create(dbctx.New(ctx), fork); err != nil {
			return nil, err
		}
		s.log.Info("forked new draft from active form", "form_config_id", config.ID, "fork_id", fork.ID, "version", fork.Version)
		return fork, nil

	default:
		return nil, apperr.NewValidation("form_archived", "archived forms cannot be edited")
	}
}

func forkDraft(config *domain.FormConfig) *domain.FormConfig {
	previous := config.ID
	fork := *config
	fork.ID = uuid.New()
	fork.Version = config.Version + 1
	fork.Status = domain.FormStatusDraft
	fork.PreviousVersionID = &previous
	fork.PublishedAt = nil
	fork.PublishedBy = nil
	fork.CreatedAt = time.Time{}
	fork.UpdatedAt = time.Time{}
	return &fork
}

func applyUpdate(config *domain.FormConfig, input UpdateFormInput) {
	if input.Name != nil {
		config.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		config.Description = *input.Description
	}
	if input.Sections != nil {
		config.Sections = input.Sections
	}
	if input.CrossFieldRules != nil {
		config.CrossFieldRules = input.CrossFieldRules
	}
	if input.Settings != nil {
		config.Settings = *input.Settings
	}
}

// validateStructure enforces the destination invariant: every
// value-capturing field has exactly one of mappedField or customDataKey;
// display-only fields have neither.
func validateStructure(config *domain.FormConfig) error {
	seen := map[string]bool{}
	for _, section := range config.Sections {
		for _, field := range section.Fields {
			if field.ID == "" {
				return apperr.NewValidation("field_id_required", "every field needs an id")
			}
			if seen[field.ID] {
				return apperr.NewValidation("field_id_duplicate", "field id %q appears more than once", field.ID)
			}
			seen[field.ID] = true

			if field.Type.DisplayOnly() {
				if field.HasDestination() {
					return apperr.NewValidation("field_destination_forbidden",
						"display field %q cannot have a data destination", field.ID)
				}
				continue
			}
			if field.MappedField != "" && field.CustomDataKey != "" {
				return apperr.NewValidation("field_destination_conflict",
					"field %q maps to both the enrollment record and custom data", field.ID)
			}
			if !field.HasDestination() {
				return apperr.NewValidation("field_destination_required",
					"field %q needs either a mapped field or a custom data key", field.ID)
			}
		}
	}
	return nil
}

var indexedSegment = regexp.MustCompile(`\[\d*\]`)

// normalizeMappedPath reduces concrete indexes to the wildcard form so
// "guardians[0].email" satisfies the "guardians[].email" checklist entry.
func normalizeMappedPath(path string) string {
	return indexedSegment.ReplaceAllString(path, "[]")
}

// Publish runs the completeness check and, inside one transaction,
// archives whatever is currently active for the same scope before
// activating this version. The storage transaction is what guarantees no
// window with two active configs.
func (s *formConfigService) Publish(ctx context.Context, id uuid.UUID) (*domain.FormConfig, error) {
	rd, err := s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	config, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if config.Status == domain.FormStatusActive {
		return nil, apperr.NewValidation("form_already_active", "form version %d is already published", config.Version)
	}
	if config.Status == domain.FormStatusArchived {
		return nil, apperr.NewValidation("form_archived", "archived forms cannot be published")
	}

	if missing := missingCanonicalPaths(config); len(missing) > 0 {
		return nil, &apperr.PublishIncompleteError{MissingPaths: missing}
	}

	now := time.Now()
	if err := s.inTransaction(ctx, func(dbc dbctx.Context) error {
		if err := s.configRepo.ArchiveActiveForScope(dbc, config.TenantID, config.YearLevel, config.EnrollmentType, config.ID); err != nil {
			return fmt.Errorf("archive previous active version: %w", err)
		}
		config.Status = domain.FormStatusActive
		config.PublishedAt = &now
		config.PublishedBy = &rd.UserID
		return s.configRepo.Update(dbc, config)
	}); err != nil {
		return nil, err
	}

	s.emit(ctx, domain.EventFormPublished, rd.TenantID, map[string]uuid.UUID{"form_config_id": config.ID})
	return config, nil
}

// missingCanonicalPaths checks every required canonical destination is
// reachable through some field's mapping and that a repeatable section
// feeds the guardian array. Returns the complete list of gaps, never just
// the first.
func missingCanonicalPaths(config *domain.FormConfig) []string {
	mapped := map[string]bool{}
	guardianArrayFromRepeatable := false
	for _, section := range config.Sections {
		for _, field := range section.Fields {
			if field.MappedField == "" {
				continue
			}
			normalized := normalizeMappedPath(field.MappedField)
			mapped[normalized] = true
			if section.Repeatable && strings.HasPrefix(normalized, "guardians[]") {
				guardianArrayFromRepeatable = true
			}
		}
	}

	var missing []string
	for _, path := range domain.RequiredCanonicalPaths {
		if !mapped[path] {
			missing = append(missing, path)
		}
	}
	if !guardianArrayFromRepeatable {
		missing = append(missing, "guardians[] (repeatable section)")
	}
	return missing
}

func (s *formConfigService) Archive(ctx context.Context, id uuid.UUID) (*domain.FormConfig, error) {
	config, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if config.Status == domain.FormStatusArchived {
		return config, nil
	}
	config.Status = domain.FormStatusArchived
	if err := s.configRepo.Update(dbctx.New(ctx), config); err != nil {
		return nil, err
	}
	return config, nil
}

func (s *formConfigService) ListTemplates(ctx context.Context, category string) ([]*domain.FormTemplate, error) {
	rd, err := s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	return s.templateRepo.GetAll(dbctx.New(ctx), rd.TenantID, category)
}

func (s *formConfigService) PopularTemplates(ctx context.Context, limit int) ([]*domain.FormTemplate, error) {
	if _, err := s.tenant(ctx); err != nil {
		return nil, err
	}
	return s.templateRepo.GetPopular(dbctx.New(ctx), limit)
}

// SaveAsTemplate snapshots a form's sections into a tenant-owned template.
// The copy is taken at save time; later edits to the form never change the
// template.
func (s *formConfigService) SaveAsTemplate(ctx context.Context, id uuid.UUID, input SaveTemplateInput) (*domain.FormTemplate, error) {
	rd, err := s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	config, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = config.Name
	}
	tenantID := rd.TenantID
	template := &domain.FormTemplate{
		TenantID:    &tenantID,
		Name:        name,
		Description: input.Description,
		Category:    input.Category,
		Sections:    config.Sections,
	}
	if err := s.templateRepo.Create(dbctx.New(ctx), template); err != nil {
		return nil, err
	}
	return template, nil
}

func (s *formConfigService) emit(ctx context.Context, name string, tenantID uuid.UUID, entityIDs map[string]uuid.UUID) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(name, tenantID, entityIDs)); err != nil {
		s.log.Warn("failed to publish event", "event_name", name, "error", err)
	}
}
