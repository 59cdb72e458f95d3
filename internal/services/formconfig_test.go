package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/enrolform-backend/internal/domain"
	"github.com/brightpath/enrolform-backend/internal/pkg/apperr"
	"github.com/brightpath/enrolform-backend/internal/pkg/dbctx"
	"github.com/brightpath/enrolform-backend/internal/pkg/logger"
)

type configFixture struct {
	configs   *fakeConfigRepo
	templates *fakeTemplateRepo
	publisher *capturePublisher
	service   FormConfigService
	tenantID  uuid.UUID
	userID    uuid.UUID
}

func newConfigFixture(t *testing.T) *configFixture {
	t.Helper()
	f := &configFixture{
		configs:   newFakeConfigRepo(),
		templates: newFakeTemplateRepo(),
		publisher: &capturePublisher{},
		tenantID:  uuid.New(),
		userID:    uuid.New(),
	}
	f.service = NewFormConfigService(nil, logger.NewNop(), f.configs, f.templates, f.publisher)
	return f
}

func TestCreateSeedsDefaultStructure(t *testing.T) {
	f := newConfigFixture(t)
	ctx := authedContext(f.tenantID, f.userID)

	config, err := f.service.Create(ctx, CreateFormInput{
		Name:           "2027 Kindergarten Enrollment",
		YearLevel:      "K",
		EnrollmentType: "standard",
	})
	require.NoError(t, err)
	require.Equal(t, domain.FormStatusDraft, config.Status)
	require.Equal(t, 1, config.Version)
	require.Equal(t, f.tenantID, config.TenantID)
	require.True(t, config.Settings.AllowDraftSaving)

	// seeded structure already satisfies the publish checklist
	require.Empty(t, missingCanonicalPaths(config))
	require.Equal(t, []string{domain.EventFormCreated}, f.publisher.names())
}

func TestCreateRejectsBlankName(t *testing.T) {
	f := newConfigFixture(t)
	ctx := authedContext(f.tenantID, f.userID)

	_, err := f.service.Create(ctx, CreateFormInput{Name: "   "})
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
	require.Empty(t, f.publisher.names())
}

func TestCreateFromTemplate(t *testing.T) {
	f := newConfigFixture(t)
	ctx := authedContext(f.tenantID, f.userID)

	template := &domain.FormTemplate{
		Name:     "Medical Intake",
		Category: "medical",
		Sections: []domain.FormSection{{
			ID: "medical", Title: "Medical", Order: 1,
			Fields: []domain.FormField{{
				ID: "allergies", Type: domain.FieldTypeTextarea, Label: "Allergies", CustomDataKey: "allergies",
			}},
		}},
	}
	require.NoError(t, f.templates.Create(dbctx.Context{}, template))

	config, err := f.service.Create(ctx, CreateFormInput{Name: "Medical Form", TemplateID: &template.ID})
	require.NoError(t, err)
	require.Len(t, config.Sections, 1)
	require.Equal(t, "medical", config.Sections[0].ID)
	require.Equal(t, 1, f.templates.usage[template.ID])
}

func TestCreateRejectsConflictingDestinations(t *testing.T) {
	f := newConfigFixture(t)
	ctx := authedContext(f.tenantID, f.userID)

	config, err := f.service.Create(ctx, CreateFormInput{Name: "Enrollment"})
	require.NoError(t, err)

	bad := config.Sections
	bad[0].Fields[0].CustomDataKey = "also_here"
	_, err = f.service.Update(ctx, config.ID, UpdateFormInput{Sections: bad})

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "field_destination_conflict", verr.Code)
}

func TestGetEnforcesTenantScope(t *testing.T) {
	f := newConfigFixture(t)
	config, err := f.service.Create(authedContext(f.tenantID, f.userID), CreateFormInput{Name: "Enrollment"})
	require.NoError(t, err)

	_, err = f.service.Get(authedContext(uuid.New(), uuid.New()), config.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateActiveFormForksNewDraft(t *testing.T) {
	f := newConfigFixture(t)
	ctx := authedContext(f.tenantID, f.userID)

	config, err := f.service.Create(ctx, CreateFormInput{Name: "Enrollment", YearLevel: "K", EnrollmentType: "standard"})
	require.NoError(t, err)
	_, err = f.service.Publish(ctx, config.ID)
	require.NoError(t, err)

	newName := "Enrollment (revised)"
	fork, err := f.service.Update(ctx, config.ID, UpdateFormInput{Name: &newName})
	require.NoError(t, err)
	require.NotEqual(t, config.ID, fork.ID)
	require.Equal(t, 2, fork.Version)
	require.Equal(t, domain.FormStatusDraft, fork.Status)
	require.NotNil(t, fork.PreviousVersionID)
	require.Equal(t, config.ID, *fork.PreviousVersionID)

	// the active version is untouched
	active, err := f.service.Get(ctx, config.ID)
	require.NoError(t, err)
	require.Equal(t, domain.FormStatusActive, active.Status)
	require.Equal(t, "Enrollment", active.Name)

	history, err := f.service.VersionHistory(ctx, fork.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, 2, history[0].Version)
	require.Equal(t, 1, history[1].Version)
}

func TestUpdateArchivedFormRejected(t *testing.T) {
	f := newConfigFixture(t)
	ctx := authedContext(f.tenantID, f.userID)

	config, err := f.service.Create(ctx, CreateFormInput{Name: "Enrollment"})
	require.NoError(t, err)
	_, err = f.service.Archive(ctx, config.ID)
	require.NoError(t, err)

	name := "Too late"
	_, err = f.service.Update(ctx, config.ID, UpdateFormInput{Name: &name})
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestPublishReportsMissingCanonicalPaths(t *testing.T) {
	f := newConfigFixture(t)
	ctx := authedContext(f.tenantID, f.userID)

	config, err := f.service.Create(ctx, CreateFormInput{Name: "Enrollment"})
	require.NoError(t, err)

	// drop the year-level mapping: the field stays but feeds custom data
	sections := config.Sections
	for si := range sections {
		for fi := range sections[si].Fields {
			if sections[si].Fields[fi].MappedField == domain.PathRequestedYearLevel {
				sections[si].Fields[fi].MappedField = ""
				sections[si].Fields[fi].CustomDataKey = "year_level"
			}
		}
	}
	_, err = f.service.Update(ctx, config.ID, UpdateFormInput{Sections: sections})
	require.NoError(t, err)

	_, err = f.service.Publish(ctx, config.ID)
	var incomplete *apperr.PublishIncompleteError
	require.ErrorAs(t, err, &incomplete)
	require.Equal(t, []string{domain.PathRequestedYearLevel}, incomplete.MissingPaths)
}

func TestPublishArchivesPreviousActiveVersion(t *testing.T) {
	f := newConfigFixture(t)
	ctx := authedContext(f.tenantID, f.userID)

	v1, err := f.service.Create(ctx, CreateFormInput{Name: "Enrollment", YearLevel: "K", EnrollmentType: "standard"})
	require.NoError(t, err)
	_, err = f.service.Publish(ctx, v1.ID)
	require.NoError(t, err)

	name := "Enrollment v2"
	v2, err := f.service.Update(ctx, v1.ID, UpdateFormInput{Name: &name})
	require.NoError(t, err)

	published, err := f.service.Publish(ctx, v2.ID)
	require.NoError(t, err)
	require.Equal(t, domain.FormStatusActive, published.Status)
	require.NotNil(t, published.PublishedAt)
	require.NotNil(t, published.PublishedBy)
	require.Equal(t, f.userID, *published.PublishedBy)

	old, err := f.service.Get(ctx, v1.ID)
	require.NoError(t, err)
	require.Equal(t, domain.FormStatusArchived, old.Status)

	// exactly one active config for the scope
	active, err := f.configs.GetActiveForScope(dbctx.Context{}, f.tenantID, "K", "standard")
	require.NoError(t, err)
	require.Equal(t, v2.ID, active.ID)
}

func TestPublishAlreadyActiveRejected(t *testing.T) {
	f := newConfigFixture(t)
	ctx := authedContext(f.tenantID, f.userID)

	config, err := f.service.Create(ctx, CreateFormInput{Name: "Enrollment"})
	require.NoError(t, err)
	_, err = f.service.Publish(ctx, config.ID)
	require.NoError(t, err)

	_, err = f.service.Publish(ctx, config.ID)
	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "form_already_active", verr.Code)
}

func TestActiveForScope(t *testing.T) {
	f := newConfigFixture(t)
	ctx := authedContext(f.tenantID, f.userID)

	config, err := f.service.Create(ctx, CreateFormInput{Name: "Enrollment", YearLevel: "K", EnrollmentType: "standard"})
	require.NoError(t, err)

	// nothing published yet
	_, err = f.service.ActiveForScope(ctx, "K", "standard")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.service.Publish(ctx, config.ID)
	require.NoError(t, err)

	active, err := f.service.ActiveForScope(ctx, "K", "standard")
	require.NoError(t, err)
	require.Equal(t, config.ID, active.ID)

	// other scopes and other tenants see nothing
	_, err = f.service.ActiveForScope(ctx, "7", "standard")
	require.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.service.ActiveForScope(authedContext(uuid.New(), uuid.New()), "K", "standard")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSaveAsTemplateRoundTrip(t *testing.T) {
	f := newConfigFixture(t)
	ctx := authedContext(f.tenantID, f.userID)

	config, err := f.service.Create(ctx, CreateFormInput{Name: "Enrollment"})
	require.NoError(t, err)

	template, err := f.service.SaveAsTemplate(ctx, config.ID, SaveTemplateInput{
		Name:     "Standard Enrollment",
		Category: "enrollment",
	})
	require.NoError(t, err)
	require.NotNil(t, template.TenantID)
	require.Equal(t, f.tenantID, *template.TenantID)
	require.Len(t, template.Sections, len(config.Sections))

	// a new form built from the template carries the same structure
	clone, err := f.service.Create(ctx, CreateFormInput{Name: "Enrollment Copy", TemplateID: &template.ID})
	require.NoError(t, err)
	require.Len(t, clone.Sections, len(config.Sections))
	require.Equal(t, 1, f.templates.usage[template.ID])
}

func TestTenantRequired(t *testing.T) {
	f := newConfigFixture(t)
	_, err := f.service.ListByTenant(authedContext(uuid.Nil, uuid.Nil))
	require.Error(t, err)
}
