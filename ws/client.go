package ws

import (
	"context"
	"encoding/json"
	"time"

	"ksocial_backend/internal/logger"
	"ksocial_backend/internal/realtime"
	chatservice "ksocial_backend/internal/services/chat"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192

	// Буфер исходящих на соединение; переполнение - клиент не вычитывает
	sendBufferSize = 64
)

// Входящие события
const (
	eventDMJoinOrCreate = "dm:joinOrCreate"
	eventDMSend         = "dm:message"
	eventDMLeave        = "dm:leave"
)

// IncomingMessage - кадр от клиента
type IncomingMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinOrCreatePayload struct {
	PartnerID string `json:"partner_id"`
}

type sendMessagePayload struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
	TempID         string `json:"temp_id"`
}

type leavePayload struct {
	ConversationID string `json:"conversation_id"`
}

// Client - одно websocket-соединение аутентифицированного пользователя
type Client struct {
	userID  string
	conn    *websocket.Conn
	manager *Manager
	chat    chatservice.Service

	send chan []byte

	// Комнаты этого соединения; доступ под мьютексом менеджера
	rooms map[string]struct{}
}

func newClient(userID string, conn *websocket.Conn, manager *Manager, chat chatservice.Service) *Client {
	return &Client{
		userID:  userID,
		conn:    conn,
		manager: manager,
		chat:    chat,
		send:    make(chan []byte, sendBufferSize),
		rooms:   make(map[string]struct{}),
	}
}

// enqueue кладет кадр в очередь соединения; медленного клиента не ждем
func (c *Client) enqueue(frame []byte) {
	select {
	case c.send <- frame:
	default:
		logger.Warn("ws send buffer full, dropping frame", "user_id", c.userID)
	}
}

// readPump читает кадры клиента и диспатчит dm:* события.
// Завершение цикла снимает соединение с учета.
func (c *Client) readPump() {
	defer func() {
		c.manager.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws read error", "user_id", c.userID, "error", err)
			}
			return
		}

		var msg IncomingMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("Malformed frame")
			continue
		}
		c.dispatch(&msg)
	}
}

func (c *Client) dispatch(msg *IncomingMessage) {
	ctx := logger.WithUserID(context.Background(), c.userID)

	switch msg.Event {
	case eventDMJoinOrCreate:
		c.handleJoinOrCreate(ctx, msg.Data)
	case eventDMSend:
		c.handleSendMessage(ctx, msg.Data)
	case eventDMLeave:
		c.handleLeave(msg.Data)
	default:
		c.sendError("Unknown event: " + msg.Event)
	}
}

// handleJoinOrCreate открывает (или находит) диалог с партнером и
// подписывает соединение на его канал
func (c *Client) handleJoinOrCreate(ctx context.Context, data json.RawMessage) {
	var payload joinOrCreatePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.PartnerID == "" {
		c.sendError("partner_id is required")
		return
	}

	conv, _, err := c.chat.FindOrCreateConversation(ctx, c.userID, payload.PartnerID)
	if err != nil {
		c.sendServiceError(err)
		return
	}

	c.manager.JoinRoom(conv.ID, c)

	participants := make([]string, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		participants = append(participants, p.ID)
	}
	c.manager.sendToClient(c, realtime.EventDMJoined, realtime.ConversationJoinedEvent{
		ConversationID:  conv.ID,
		Participants:    participants,
		LastMessageText: conv.LastMessageText,
		LastMessageAt:   conv.LastMessageAt,
	})
}

// handleSendMessage отправляет сообщение; доставку в комнату делает сервис
// через publisher, сюда возвращаются только ошибки
func (c *Client) handleSendMessage(ctx context.Context, data json.RawMessage) {
	var payload sendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ConversationID == "" {
		c.sendError("conversation_id is required")
		return
	}

	_, err := c.chat.SendMessage(ctx, chatservice.SendMessageInput{
		ConversationID: payload.ConversationID,
		SenderID:       c.userID,
		Text:           payload.Text,
		TempID:         payload.TempID,
	})
	if err != nil {
		c.sendServiceError(err)
	}
}

func (c *Client) handleLeave(data json.RawMessage) {
	var payload leavePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ConversationID == "" {
		c.sendError("conversation_id is required")
		return
	}
	c.manager.LeaveRoom(payload.ConversationID, c)
}

// sendError шлет dm:error только этому соединению, никогда в комнату
func (c *Client) sendError(message string) {
	c.manager.sendToClient(c, realtime.EventDMError, realtime.ErrorEvent{Message: message})
}

// sendServiceError переводит ошибку сервиса в адресный dm:error,
// не раскрывая внутренних деталей
func (c *Client) sendServiceError(err error) {
	if appErr, ok := asAppError(err); ok && appErr.HTTPCode < 500 {
		c.sendError(appErr.Message)
		return
	}
	logger.Error("ws service error", "user_id", c.userID, "error", err)
	c.sendError("Internal server error")
}

// writePump пишет кадры из очереди и пингует соединение
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
