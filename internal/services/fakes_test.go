package services

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/brightpath/enrolform-backend/internal/domain"
	"github.com/brightpath/enrolform-backend/internal/pkg/apperr"
	"github.com/brightpath/enrolform-backend/internal/pkg/dbctx"
	"github.com/brightpath/enrolform-backend/internal/requestdata"
)

// In-memory repo fakes; deep-copy on the way in and out so tests observe
// only what the service persisted.

type fakeConfigRepo struct {
	mu      sync.Mutex
	configs map[uuid.UUID]domain.FormConfig
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{configs: map[uuid.UUID]domain.FormConfig{}}
}

func (r *fakeConfigRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*domain.FormConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.configs[id]
	if !ok {
		return nil, apperr.NewNotFound("form configuration", id.String())
	}
	out := c
	return &out, nil
}

func (r *fakeConfigRepo) GetByTenant(_ dbctx.Context, tenantID uuid.UUID) ([]*domain.FormConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.FormConfig
	for _, c := range r.configs {
		if c.TenantID == tenantID {
			copied := c
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (r *fakeConfigRepo) GetActiveForScope(_ dbctx.Context, tenantID uuid.UUID, yearLevel, enrollmentType string) (*domain.FormConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.configs {
		if c.TenantID == tenantID && c.Status == domain.FormStatusActive &&
			c.YearLevel == yearLevel && c.EnrollmentType == enrollmentType {
			copied := c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeConfigRepo) GetVersionHistory(dbc dbctx.Context, id uuid.UUID) ([]*domain.FormConfig, error) {
	var history []*domain.FormConfig
	current := id
	for {
		c, err := r.GetByID(dbc, current)
		if err != nil {
			return nil, err
		}
		history = append(history, c)
		if c.PreviousVersionID == nil {
			return history, nil
		}
		current = *c.PreviousVersionID
	}
}

func (r *fakeConfigRepo) Create(_ dbctx.Context, config *domain.FormConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if config.ID == uuid.Nil {
		config.ID = uuid.New()
	}
	r.configs[config.ID] = *config
	return nil
}

func (r *fakeConfigRepo) Update(_ dbctx.Context, config *domain.FormConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[config.ID] = *config
	return nil
}

func (r *fakeConfigRepo) ArchiveActiveForScope(_ dbctx.Context, tenantID uuid.UUID, yearLevel, enrollmentType string, exceptID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.configs {
		if id != exceptID && c.TenantID == tenantID && c.Status == domain.FormStatusActive &&
			c.YearLevel == yearLevel && c.EnrollmentType == enrollmentType {
			c.Status = domain.FormStatusArchived
			r.configs[id] = c
		}
	}
	return nil
}

type fakeSubmissionRepo struct {
	mu          sync.Mutex
	submissions map[uuid.UUID]domain.FormSubmission
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{submissions: map[uuid.UUID]domain.FormSubmission{}}
}

func (r *fakeSubmissionRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*domain.FormSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return nil, apperr.NewNotFound("submission", id.String())
	}
	out := s
	out.Responses = append([]domain.FieldResponse(nil), s.Responses...)
	return &out, nil
}

func (r *fakeSubmissionRepo) GetByApplication(_ dbctx.Context, applicationID uuid.UUID) ([]*domain.FormSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.FormSubmission
	for _, s := range r.submissions {
		if s.ApplicationID != nil && *s.ApplicationID == applicationID {
			copied := s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) GetByForm(_ dbctx.Context, formConfigID uuid.UUID, status domain.SubmissionStatus) ([]*domain.FormSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.FormSubmission
	for _, s := range r.submissions {
		if s.FormConfigID == formConfigID && (status == "" || s.Status == status) {
			copied := s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) GetDraftsByUser(_ dbctx.Context, userID uuid.UUID) ([]*domain.FormSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.FormSubmission
	for _, s := range r.submissions {
		if s.SubmittedBy == userID && s.Status == domain.SubmissionStatusDraft {
			copied := s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) CountByFormAndStatus(_ dbctx.Context, formConfigID uuid.UUID, status domain.SubmissionStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, s := range r.submissions {
		if s.FormConfigID == formConfigID && s.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *fakeSubmissionRepo) Create(_ dbctx.Context, submission *domain.FormSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	r.submissions[submission.ID] = *submission
	return nil
}

func (r *fakeSubmissionRepo) Update(_ dbctx.Context, submission *domain.FormSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submissions[submission.ID] = *submission
	return nil
}

type fakeTemplateRepo struct {
	mu        sync.Mutex
	templates map[uuid.UUID]domain.FormTemplate
	usage     map[uuid.UUID]int
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{templates: map[uuid.UUID]domain.FormTemplate{}, usage: map[uuid.UUID]int{}}
}

func (r *fakeTemplateRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*domain.FormTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok {
		return nil, apperr.NewNotFound("form template", id.String())
	}
	out := t
	return &out, nil
}

func (r *fakeTemplateRepo) GetAll(_ dbctx.Context, tenantID uuid.UUID, category string) ([]*domain.FormTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.FormTemplate
	for _, t := range r.templates {
		if t.TenantID != nil && *t.TenantID != tenantID {
			continue
		}
		if category != "" && t.Category != category {
			continue
		}
		copied := t
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeTemplateRepo) GetPopular(_ dbctx.Context, limit int) ([]*domain.FormTemplate, error) {
	all, _ := r.GetAll(dbctx.Context{}, uuid.Nil, "")
	sort.Slice(all, func(i, j int) bool { return all[i].UsageCount > all[j].UsageCount })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeTemplateRepo) Create(_ dbctx.Context, template *domain.FormTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if template.ID == uuid.Nil {
		template.ID = uuid.New()
	}
	r.templates[template.ID] = *template
	return nil
}

func (r *fakeTemplateRepo) IncrementUsage(_ dbctx.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usage[id]++
	return nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []domain.FormEvent
}

func (p *capturePublisher) Publish(_ context.Context, event domain.FormEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.EventName)
	}
	return out
}

func authedContext(tenantID, userID uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		TenantID: tenantID,
		UserID:   userID,
	})
}
