package api

import (
	"errors"
	"net/http"

	"condo-whatsapp/internal/middleware"
	"condo-whatsapp/internal/notify"

	"github.com/gin-gonic/gin"
)

// Error codes of the failure envelope.
const (
	CodeInvalidInput = "invalid_input"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeInternal     = "internal_error"
)

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func fail(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{
		Success:   false,
		Error:     msg,
		Code:      code,
		RequestID: middleware.RequestIDFrom(c),
	})
}

// failFromError maps service errors onto the envelope. Anything that is not
// a caller mistake becomes a 500 with the generic message.
func failFromError(c *gin.Context, err error) {
	msg := ""
	var se *notify.Error
	if errors.As(err, &se) {
		msg = se.Message
	}

	switch {
	case errors.Is(err, notify.ErrInvalidInput):
		fail(c, http.StatusBadRequest, CodeInvalidInput, orDefault(msg, "Requisição inválida"))
	case errors.Is(err, notify.ErrUnauthorized):
		fail(c, http.StatusUnauthorized, CodeUnauthorized, orDefault(msg, "Não autenticado"))
	case errors.Is(err, notify.ErrForbidden):
		fail(c, http.StatusForbidden, CodeForbidden, orDefault(msg, "Acesso negado"))
	case errors.Is(err, notify.ErrNotFound):
		fail(c, http.StatusNotFound, CodeNotFound, orDefault(msg, "Registro não encontrado"))
	default:
		_ = c.Error(err)
		middleware.LoggerFrom(c).Error().Err(err).Msg("request failed")
		fail(c, http.StatusInternalServerError, CodeInternal, middleware.InternalErrorMessage)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
