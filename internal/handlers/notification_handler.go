package handlers

import (
	"net/http"

	"ksocial_backend/internal/services"
	"ksocial_backend/internal/services/dto"
	"ksocial_backend/internal/validator"
	"ksocial_backend/pkg/apperrors"
	"ksocial_backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	BaseHandler
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService, v *validator.Validator) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         NewBaseHandler(v),
		notificationService: notificationService,
	}
}

// Create - POST /api/v1/notifications.
// Актор - всегда текущий пользователь; попытка уведомить самого себя
// тихо подавляется и отвечает 200 без данных.
func (h *NotificationHandler) Create(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	var req dto.CreateNotificationRequest
	if !h.BindAndValidate(c, &req) {
		return
	}

	notification, err := h.notificationService.Notify(c.Request.Context(), services.NotifyInput{
		UserID:     req.UserID,
		ActorID:    userID,
		Type:       req.Type,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Message:    req.Message,
		Data:       req.Data,
	})
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	if notification == nil {
		response.Send(c, http.StatusOK, "Notification suppressed", nil)
		return
	}
	response.Send(c, http.StatusCreated, "Notification created", notification)
}

// List - GET /api/v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	result, err := h.notificationService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	response.Send(c, http.StatusOK, "Notifications retrieved", result)
}

// UnreadCount - GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	response.Send(c, http.StatusOK, "Unread count retrieved", gin.H{"count": count})
}

// MarkRead - PATCH /api/v1/notifications/:notificationId/read.
// Идемпотентна: повторный вызов возвращает уведомление как есть.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	notification, err := h.notificationService.MarkAsRead(c.Request.Context(), userID, c.Param("notificationId"))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	response.Send(c, http.StatusOK, "Notification marked as read", notification)
}

// MarkAllRead - PATCH /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	count, err := h.notificationService.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	response.Send(c, http.StatusOK, "All notifications marked as read", gin.H{"updated": count})
}
