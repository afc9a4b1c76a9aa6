package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autosense/internal/errors"
)

// statusFor maps an AppError code onto an HTTP status.
func statusFor(code string) int {
	switch code {
	case errors.CodeEmptyDataset, errors.CodeInvalidInput, errors.CodeUnsupportedFormat, errors.CodeValidationError:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	code := errors.CodeInternalError
	if errors.IsAppError(err) {
		code = errors.GetCode(err)
	}
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("[API] %s %s: %v", c.Request.Method, c.FullPath(), err)
	} else {
		s.logger.Debug("[API] %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error":      err.Error(),
		"code":       code,
		"request_id": c.GetString(requestIDKey),
	})
}
