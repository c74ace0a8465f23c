package handlers

import (
	"errors"
	"net/http"

	"ksocial_backend/internal/middleware"
	"ksocial_backend/internal/validator"
	"ksocial_backend/pkg/apperrors"
	"ksocial_backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// BaseHandler - общий каркас хендлеров: биндинг тела, валидация,
// извлечение аутентифицированного пользователя
type BaseHandler struct {
	validator *validator.Validator
}

func NewBaseHandler(v *validator.Validator) BaseHandler {
	return BaseHandler{validator: v}
}

// BindAndValidate парсит JSON-тело и прогоняет структурную валидацию.
// При ошибке сам отвечает 400 и возвращает false.
func (h *BaseHandler) BindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Send(c, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}

	if err := h.validator.Validate(req); err != nil {
		var vErr *validator.ValidationError
		if errors.As(err, &vErr) {
			apperrors.HandleError(c, apperrors.ValidationError(vErr.Errors))
		} else {
			apperrors.HandleError(c, err)
		}
		return false
	}
	return true
}

// AuthorizedUserID возвращает id текущего пользователя из контекста.
// Пустой id означает дыру в конфигурации роутов (ручка без AuthMiddleware) -
// отвечаем 401 и не пускаем дальше.
func (h *BaseHandler) AuthorizedUserID(c *gin.Context) (string, bool) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Send(c, http.StatusUnauthorized, "Authentication required. Please log in.", nil)
		return "", false
	}
	return userID, true
}
