package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/brightpath/enrolform-backend/internal/handlers"
	"github.com/brightpath/enrolform-backend/internal/middleware"
)

type RouterConfig struct {
	AllowOrigins      []string
	AuthMiddleware    *middleware.AuthMiddleware
	FormConfigHandler *handlers.FormConfigHandler
	TemplateHandler   *handlers.TemplateHandler
	SubmissionHandler *handlers.SubmissionHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Form configuration (tenant administrators)
	api.POST("/forms", cfg.FormConfigHandler.Create)
	api.GET("/forms", cfg.FormConfigHandler.List)
	api.GET("/forms/active", cfg.FormConfigHandler.ActiveForScope)
	api.GET("/forms/:id", cfg.FormConfigHandler.Get)
	api.PUT("/forms/:id", cfg.FormConfigHandler.Update)
	api.GET("/forms/:id/versions", cfg.FormConfigHandler.VersionHistory)
	api.POST("/forms/:id/publish", cfg.FormConfigHandler.Publish)
	api.POST("/forms/:id/archive", cfg.FormConfigHandler.Archive)

	// Templates
	api.GET("/form-templates", cfg.TemplateHandler.List)
	api.GET("/form-templates/popular", cfg.TemplateHandler.Popular)
	api.POST("/forms/:id/save-as-template", cfg.TemplateHandler.SaveFromForm)

	// Submissions (applicants)
	api.POST("/submissions", cfg.SubmissionHandler.Start)
	api.GET("/submissions/drafts", cfg.SubmissionHandler.Drafts)
	api.GET("/submissions/:id", cfg.SubmissionHandler.Get)
	api.PUT("/submissions/:id/responses", cfg.SubmissionHandler.SaveResponses)
	api.POST("/submissions/:id/submit", cfg.SubmissionHandler.Submit)

	return router
}
