package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/labsphere/internal/app/models/dto"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
	"github.com/yigit/labsphere/internal/pkg/logger"
)

// ErrorStatus maps an application error to its HTTP status, error code and
// the default client message used when the error carries none.
func ErrorStatus(err error) (int, dto.ErrorCode, string) {
	switch {
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"
	case errors.Is(err, apperrors.ErrResourceAlreadyExists):
		return http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, dto.ErrorCodeConflict, "Conflict"
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"
	case errors.Is(err, apperrors.ErrValidationFailed):
		return http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.ErrorCodeBadRequest, "Bad request"
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"
	case errors.Is(err, apperrors.ErrTokenInvalid):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"
	case errors.Is(err, apperrors.ErrTokenNotFound):
		return http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Token not found"
	case errors.Is(err, apperrors.ErrTokenRevoked):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Token revoked"
	case errors.Is(err, apperrors.ErrEmailNotVerified):
		return http.StatusForbidden, dto.ErrorCodeEmailNotVerified, "Email not verified"
	default:
		return http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error"
	}
}

// HandleAPIError writes the error response for err
func HandleAPIError(c *gin.Context, err error) {
	status, code, fallback := ErrorStatus(err)

	message := fallback
	if status != http.StatusInternalServerError {
		message = apperrors.ClientMessage(err, fallback)
	} else {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Unhandled error")
	}

	c.JSON(status, dto.NewErrorResponse(dto.NewErrorDetail(code, message)))
}
