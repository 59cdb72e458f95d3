package app

import (
	"gorm.io/gorm"

	"github.com/brightpath/enrolform-backend/internal/events"
	"github.com/brightpath/enrolform-backend/internal/pkg/logger"
	"github.com/brightpath/enrolform-backend/internal/services"
)

type Services struct {
	FormConfig services.FormConfigService
	Submission services.SubmissionService
	Publisher  events.Publisher
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	var publisher events.Publisher
	if cfg.EventDriver == "redis" {
		redisPublisher, err := events.NewRedisPublisher(log)
		if err != nil {
			return Services{}, err
		}
		publisher = redisPublisher
	} else {
		publisher = events.NewLogPublisher(log)
	}

	return Services{
		FormConfig: services.NewFormConfigService(db, log, reposet.FormConfig, reposet.FormTemplate, publisher),
		Submission: services.NewSubmissionService(db, log, reposet.FormConfig, reposet.FormSubmission, publisher),
		Publisher:  publisher,
	}, nil
}
