package app

import (
	"github.com/brightpath/enrolform-backend/internal/handlers"
	"github.com/brightpath/enrolform-backend/internal/pkg/logger"
)

type Handlers struct {
	FormConfig *handlers.FormConfigHandler
	Template   *handlers.TemplateHandler
	Submission *handlers.SubmissionHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		FormConfig: handlers.NewFormConfigHandler(log, services.FormConfig),
		Template:   handlers.NewTemplateHandler(log, services.FormConfig),
		Submission: handlers.NewSubmissionHandler(log, services.Submission),
	}
}
