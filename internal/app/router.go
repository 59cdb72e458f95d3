package app

import (
	"github.com/gin-gonic/gin"

	"github.com/brightpath/enrolform-backend/internal/server"
)

func wireRouter(cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AllowOrigins:      cfg.AllowOrigins,
		AuthMiddleware:    middleware.Auth,
		FormConfigHandler: handlers.FormConfig,
		TemplateHandler:   handlers.Template,
		SubmissionHandler: handlers.Submission,
	})
}
