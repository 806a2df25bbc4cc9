package middleware

import (
	"errors"
	"net/http"

	"github.com/campuspulse/campuspulse/internal/app/models/dto"
	"github.com/campuspulse/campuspulse/internal/pkg/apperrors"
	"github.com/campuspulse/campuspulse/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

// errorStatus maps an error chain onto a status code and error code.
// Service failures are checked first: they may wrap a validation error
// raised against an upstream answer.
func errorStatus(err error) (int, dto.ErrorCode) {
	switch {
	case errors.Is(err, apperrors.ErrServiceUnavailable):
		return http.StatusInternalServerError, dto.ErrorCodeExternalServiceError
	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrInvalidID):
		return http.StatusBadRequest, dto.ErrorCodeValidationFailed
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.ErrorCodeBadRequest
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, dto.ErrorCodeResourceNotFound
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, dto.ErrorCodeConflict
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.ErrorCodeExpiredToken
	case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, apperrors.ErrTokenRevoked):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidToken
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.ErrorCodeForbidden
	default:
		return http.StatusInternalServerError, dto.ErrorCodeInternalServer
	}
}

// defaultMessages is used when the error carries no public message
var defaultMessages = map[dto.ErrorCode]string{
	dto.ErrorCodeValidationFailed:   "Validation failed",
	dto.ErrorCodeBadRequest:         "Bad request",
	dto.ErrorCodeResourceNotFound:   "Resource not found",
	dto.ErrorCodeConflict:           "Resource already exists",
	dto.ErrorCodeInvalidCredentials: "Invalid credentials",
	dto.ErrorCodeExpiredToken:       "Token has expired",
	dto.ErrorCodeInvalidToken:       "Invalid token",
	dto.ErrorCodeForbidden:          "Permission denied",
}

// HandleAPIError writes the error envelope for err. Server side failures are
// logged and answered with a generic message.
func HandleAPIError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	_ = c.Error(err)

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString(RequestIDKey)).
			Msg("Request failed")

		message := "Internal server error"
		if code == dto.ErrorCodeExternalServiceError {
			if msg := apperrors.PublicMessage(err); msg != "" {
				message = msg
			}
		}
		c.AbortWithStatusJSON(status, dto.NewErrorResponse(dto.NewErrorDetail(code, message)))
		return
	}

	message := apperrors.PublicMessage(err)
	if message == "" {
		message = defaultMessages[code]
	}
	detail := dto.NewErrorDetail(code, message)

	var ce *apperrors.CustomError
	if errors.As(err, &ce) && len(ce.Details) > 0 {
		detail = detail.WithDetails(ce.Details)
		if len(ce.Details) == 1 {
			for field := range ce.Details {
				detail = detail.WithField(field)
			}
		}
	}
	if status < http.StatusInternalServerError && code != dto.ErrorCodeValidationFailed {
		detail = detail.WithSeverity(dto.ErrorSeverityWarning)
	}

	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}
