package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brightpath/enrolform-backend/internal/pkg/logger"
	"github.com/brightpath/enrolform-backend/internal/services"
)

type TemplateHandler struct {
	log           *logger.Logger
	configService services.FormConfigService
}

func NewTemplateHandler(log *logger.Logger, configService services.FormConfigService) *TemplateHandler {
	return &TemplateHandler{
		log:           log.With("handler", "TemplateHandler"),
		configService: configService,
	}
}

// GET /api/form-templates
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.configService.ListTemplates(c.Request.Context(), c.Query("category"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"templates": templates})
}

// GET /api/form-templates/popular
func (h *TemplateHandler) Popular(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		limit = parsed
	}
	templates, err := h.configService.PopularTemplates(c.Request.Context(), limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"templates": templates})
}

// POST /api/forms/:id/save-as-template
func (h *TemplateHandler) SaveFromForm(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var input services.SaveTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	template, err := h.configService.SaveAsTemplate(c.Request.Context(), id, input)
	if err != nil {
		h.log.Error("Save template failed", "error", err, "form_config_id", id)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"template": template})
}
