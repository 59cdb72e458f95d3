package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brightpath/enrolform-backend/internal/pkg/logger"
	"github.com/brightpath/enrolform-backend/internal/services"
)

type FormConfigHandler struct {
	log           *logger.Logger
	configService services.FormConfigService
}

func NewFormConfigHandler(log *logger.Logger, configService services.FormConfigService) *FormConfigHandler {
	return &FormConfigHandler{
		log:           log.With("handler", "FormConfigHandler"),
		configService: configService,
	}
}

// POST /api/forms
func (h *FormConfigHandler) Create(c *gin.Context) {
	var input services.CreateFormInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	config, err := h.configService.Create(c.Request.Context(), input)
	if err != nil {
		h.log.Error("Create form failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"form": config})
}

// GET /api/forms
func (h *FormConfigHandler) List(c *gin.Context) {
	configs, err := h.configService.ListByTenant(c.Request.Context())
	if err != nil {
		h.log.Error("List forms failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"forms": configs})
}

// GET /api/forms/active?year_level=&enrollment_type=
// The form an applicant should be served for the scope.
func (h *FormConfigHandler) ActiveForScope(c *gin.Context) {
	config, err := h.configService.ActiveForScope(c.Request.Context(), c.Query("year_level"), c.Query("enrollment_type"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"form": config})
}

// GET /api/forms/:id
func (h *FormConfigHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	config, err := h.configService.Get(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"form": config})
}

// GET /api/forms/:id/versions
func (h *FormConfigHandler) VersionHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	versions, err := h.configService.VersionHistory(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"versions": versions})
}

// PUT /api/forms/:id
// Editing an active form transparently returns the forked draft.
func (h *FormConfigHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var input services.UpdateFormInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	config, err := h.configService.Update(c.Request.Context(), id, input)
	if err != nil {
		h.log.Error("Update form failed", "error", err, "form_config_id", id)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"form": config})
}

// POST /api/forms/:id/publish
func (h *FormConfigHandler) Publish(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	config, err := h.configService.Publish(c.Request.Context(), id)
	if err != nil {
		h.log.Error("Publish form failed", "error", err, "form_config_id", id)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"form": config})
}

// POST /api/forms/:id/archive
func (h *FormConfigHandler) Archive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	config, err := h.configService.Archive(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"form": config})
}
