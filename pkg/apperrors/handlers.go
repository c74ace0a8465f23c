package apperrors

import (
	"ksocial_backend/internal/logger"
	"ksocial_backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// HandleError переводит error в единый ответ-конверт.
// Неизвестные ошибки оборачиваются в InternalError, 5xx дополнительно логируются.
func HandleError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}

	if appErr.HTTPCode >= 500 {
		logger.CtxWithError(c.Request.Context(), "server error", appErr,
			"domain", appErr.Domain,
			"path", c.Request.URL.Path,
		)
	}

	response.Send(c, appErr.HTTPCode, appErr.Message, appErr.Details)
}

// AsAppError - пытается преобразовать error в *AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
