package app

import (
	"gorm.io/gorm"

	"github.com/brightpath/enrolform-backend/internal/data/repos"
	"github.com/brightpath/enrolform-backend/internal/pkg/logger"
)

type Repos struct {
	FormConfig     repos.FormConfigRepo
	FormSubmission repos.FormSubmissionRepo
	FormTemplate   repos.FormTemplateRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		FormConfig:     repos.NewFormConfigRepo(db, log),
		FormSubmission: repos.NewFormSubmissionRepo(db, log),
		FormTemplate:   repos.NewFormTemplateRepo(db, log),
	}
}
