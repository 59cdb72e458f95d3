package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brightpath/enrolform-backend/internal/pkg/logger"
	"github.com/brightpath/enrolform-backend/internal/services"
)

type SubmissionHandler struct {
	log               *logger.Logger
	submissionService services.SubmissionService
}

func NewSubmissionHandler(log *logger.Logger, submissionService services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{
		log:               log.With("handler", "SubmissionHandler"),
		submissionService: submissionService,
	}
}

type startSubmissionRequest struct {
	FormConfigID  uuid.UUID  `json:"form_config_id" binding:"required"`
	ApplicationID *uuid.UUID `json:"application_id,omitempty"`
}

// POST /api/submissions
func (h *SubmissionHandler) Start(c *gin.Context) {
	var req startSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	submission, err := h.submissionService.Start(c.Request.Context(), req.FormConfigID, req.ApplicationID)
	if err != nil {
		h.log.Error("Start submission failed", "error", err, "form_config_id", req.FormConfigID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"submission": submission})
}

// GET /api/submissions/:id
func (h *SubmissionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	submission, err := h.submissionService.Get(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"submission": submission})
}

// GET /api/submissions/drafts
func (h *SubmissionHandler) Drafts(c *gin.Context) {
	drafts, err := h.submissionService.Drafts(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"drafts": drafts})
}

type saveResponsesRequest struct {
	Values map[string]any `json:"values" binding:"required"`
}

// PUT /api/submissions/:id/responses
// Partial save: only the supplied fields change, everything else stays.
func (h *SubmissionHandler) SaveResponses(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req saveResponsesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	submission, err := h.submissionService.SaveResponses(c.Request.Context(), id, req.Values)
	if err != nil {
		h.log.Error("Save responses failed", "error", err, "submission_id", id)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"submission": submission})
}

// POST /api/submissions/:id/submit
func (h *SubmissionHandler) Submit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	result, err := h.submissionService.Submit(c.Request.Context(), id)
	if err != nil {
		h.log.Error("Submit failed", "error", err, "submission_id", id)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}
