package ws

import (
	"net/http"
	"strings"

	"ksocial_backend/internal/auth"
	"ksocial_backend/internal/config"
	"ksocial_backend/internal/logger"
	chatservice "ksocial_backend/internal/services/chat"
	"ksocial_backend/pkg/apperrors"
	"ksocial_backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Handler апгрейдит HTTP до websocket и заводит клиентские пампы
type Handler struct {
	manager  *Manager
	chat     chatservice.Service
	upgrader websocket.Upgrader
}

func NewHandler(manager *Manager, chat chatservice.Service) *Handler {
	frontend := config.GetConfig().Frontend.URL

	return &Handler{
		manager: manager,
		chat:    chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if frontend == "" {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || origin == frontend
			},
		},
	}
}

// ServeWS - GET /ws.
// Аутентификация до апгрейда: cookie, Bearer-заголовок или ?token=
// (браузерный WebSocket API не умеет ставить заголовки).
func (h *Handler) ServeWS(c *gin.Context) {
	// Шлюз собран без менеджера (например, урезанная тестовая сборка)
	if h.manager == nil {
		response.Abort(c, http.StatusServiceUnavailable, "Realtime gateway is not available", nil)
		return
	}

	token := extractToken(c)
	if token == "" {
		response.Abort(c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	claims, err := auth.ParseToken(token)
	if err != nil {
		response.Abort(c, http.StatusUnauthorized, "Invalid or expired token", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту при отказе
		logger.Warn("ws upgrade failed", "user_id", claims.UserID, "error", err)
		return
	}

	client := newClient(claims.UserID, conn, h.manager, h.chat)
	if !h.manager.Register(client) {
		// Сервер уже останавливается
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie("auth_token"); err == nil && cookie != "" {
		return cookie
	}
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

func asAppError(err error) (*apperrors.AppError, bool) {
	return apperrors.AsAppError(err)
}
