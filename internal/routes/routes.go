package routes

import (
	"net/http"

	"ksocial_backend/internal/handlers"
	"ksocial_backend/internal/middleware"
	"ksocial_backend/ws"

	"github.com/gin-gonic/gin"
)

// Setup регистрирует все маршруты приложения
func Setup(r *gin.Engine, h *handlers.AppHandlers, wsHandler *ws.Handler) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Realtime-шлюз; аутентификация внутри ServeWS, до апгрейда
	r.GET("/ws", wsHandler.ServeWS)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/logout", h.Auth.Logout)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())

	chatGroup := protected.Group("/chat")
	{
		chatGroup.POST("/conversations", h.Chat.CreateConversation)
		chatGroup.GET("/conversations", h.Chat.ListConversations)
		chatGroup.GET("/conversations/:conversationId/messages", h.Chat.GetMessages)
		chatGroup.POST("/messages/:conversationId", h.Chat.SendMessage)
	}

	notificationGroup := protected.Group("/notifications")
	{
		notificationGroup.GET("", h.Notification.List)
		notificationGroup.POST("", h.Notification.Create)
		notificationGroup.GET("/unread-count", h.Notification.UnreadCount)
		notificationGroup.PATCH("/read-all", h.Notification.MarkAllRead)
		notificationGroup.PATCH("/:notificationId/read", h.Notification.MarkRead)
	}
}
