package middleware

import (
	"errors"
	"net/http"

	"agentmart/internal/core/domain"
	apperrors "agentmart/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ToAppError maps domain errors onto their HTTP shape. Unknown errors
// become a 500 that does not echo the cause.
func ToAppError(err error) *apperrors.AppError {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		return appErr
	}
	switch {
	case errors.Is(err, domain.ErrAgentNotFound):
		return apperrors.WrapError(err, apperrors.ErrCodeNotFound, "agent not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrUserNotFound):
		return apperrors.WrapError(err, apperrors.ErrCodeNotFound, "user not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrPermissionDenied):
		return apperrors.WrapError(err, apperrors.ErrCodeForbidden, err.Error(), http.StatusForbidden)
	case errors.Is(err, domain.ErrInvalidCredentials):
		return apperrors.WrapError(err, apperrors.ErrCodeUnauthorized, "invalid email or password", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrMalformedSession), errors.Is(err, domain.ErrExpiredSession):
		return apperrors.WrapError(err, apperrors.ErrCodeUnauthorized, "session is not valid", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrEmailTaken):
		return apperrors.WrapError(err, apperrors.ErrCodeConflict, "email already registered", http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidRole), errors.Is(err, domain.ErrInvalidAgent):
		return apperrors.WrapError(err, apperrors.ErrCodeInvalidInput, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrBackingServiceUnavailable):
		return apperrors.WrapError(err, apperrors.ErrCodeServiceUnavailable, "storage temporarily unavailable", http.StatusServiceUnavailable)
	default:
		return apperrors.WrapError(err, apperrors.ErrCodeInternal, "Internal server error", http.StatusInternalServerError)
	}
}

// ErrorHandlerMiddleware renders the last error pushed with c.Error.
func ErrorHandlerMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		appErr := ToAppError(c.Errors.Last().Err)
		fields := []interface{}{
			"code", appErr.Code,
			"message", appErr.Message,
			"status", appErr.HTTPStatus,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"request_id", RequestIDFrom(c),
		}
		if appErr.Cause != nil {
			fields = append(fields, "cause", appErr.Cause.Error())
		}
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			logger.Errorw("request failed", fields...)
		} else {
			logger.Warnw("request rejected", fields...)
		}

		if c.Writer.Written() {
			return
		}
		body := gin.H{
			"error":   string(appErr.Code),
			"message": appErr.Message,
		}
		if len(appErr.Context) > 0 {
			body["details"] = appErr.Context
		}
		c.JSON(appErr.HTTPStatus, body)
	}
}

// RecoveryMiddleware recovers from panics and returns proper error responses
func RecoveryMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Errorw("panic recovered",
					"error", err,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"request_id", RequestIDFrom(c),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   string(apperrors.ErrCodeInternal),
					"message": "Internal server error",
				})
			}
		}()

		c.Next()
	}
}
