package response

import (
	"github.com/gin-gonic/gin"
)

// Envelope - единый формат ответа API.
// Все REST-ручки отвечают именно этой структурой, и успех, и ошибка.
type Envelope struct {
	Status  string      `json:"status"` // "success" | "error"
	Code    int         `json:"code"`   // дублирует HTTP-статус
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Send отправляет ответ в едином формате.
// Статус "error" для кодов >= 400, data опциональна.
func Send(c *gin.Context, statusCode int, message string, data interface{}) {
	status := "success"
	if statusCode >= 400 {
		status = "error"
	}

	c.JSON(statusCode, Envelope{
		Status:  status,
		Code:    statusCode,
		Message: message,
		Data:    data,
	})
}

// Abort отправляет ответ-ошибку и прерывает цепочку middleware
func Abort(c *gin.Context, statusCode int, message string, data interface{}) {
	status := "error"
	if statusCode < 400 {
		status = "success"
	}

	c.AbortWithStatusJSON(statusCode, Envelope{
		Status:  status,
		Code:    statusCode,
		Message: message,
		Data:    data,
	})
}
