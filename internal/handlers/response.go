package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightpath/enrolform-backend/internal/pkg/apperr"
)

type APIError struct {
	Message      string              `json:"message"`
	Code         string              `json:"code,omitempty"`
	Fields       map[string][]string `json:"fields,omitempty"`
	MissingPaths []string            `json:"missing_paths,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps typed service errors onto HTTP statuses. The
// richer failures keep their structure in the envelope so the form builder
// UI can render field-level and path-level detail.
func RespondServiceError(c *gin.Context, err error) {
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, ErrorEnvelope{
			Error: APIError{
				Message: verr.Message,
				Code:    verr.Code,
				Fields:  verr.Fields,
			},
		})
		return
	}
	var incomplete *apperr.PublishIncompleteError
	if errors.As(err, &incomplete) {
		c.JSON(http.StatusUnprocessableEntity, ErrorEnvelope{
			Error: APIError{
				Message:      incomplete.Error(),
				Code:         "form_incomplete",
				MissingPaths: incomplete.MissingPaths,
			},
		})
		return
	}
	if errors.Is(err, apperr.ErrNotFound) {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	if errors.Is(err, apperr.ErrInvalidArgument) {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	RespondError(c, http.StatusInternalServerError, "internal_error", err)
}
