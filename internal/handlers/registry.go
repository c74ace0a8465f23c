package handlers

import (
	"ksocial_backend/internal/services"
	chatservice "ksocial_backend/internal/services/chat"
	"ksocial_backend/internal/validator"
)

// AppHandlers - контейнер всех хендлеров приложения
type AppHandlers struct {
	Auth         *AuthHandler
	Chat         *ChatHandler
	Notification *NotificationHandler
}

func NewAppHandlers(
	authService services.AuthService,
	chatService chatservice.Service,
	notificationService services.NotificationService,
	v *validator.Validator,
) *AppHandlers {
	return &AppHandlers{
		Auth:         NewAuthHandler(authService, v),
		Chat:         NewChatHandler(chatService, v),
		Notification: NewNotificationHandler(notificationService, v),
	}
}
