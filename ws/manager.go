package ws

import (
	"context"
	"encoding/json"
	"sync"

	"ksocial_backend/internal/logger"
)

// OutboundMessage - кадр, уходящий клиенту
type OutboundMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Manager ведет учет подключений и комнат и реализует realtime.Publisher.
//
// Персональный канал пользователя - это все его активные соединения
// (несколько вкладок/устройств получают события одновременно).
// Комната диалога - соединения, явно вошедшие через dm:joinOrCreate.
type Manager struct {
	mu    sync.RWMutex
	users map[string]map[*Client]struct{}
	rooms map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		users:      make(map[string]map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run обслуживает регистрацию и снятие клиентов до отмены контекста.
// После выхода закрывает done: Register/Unregister перестают блокироваться.
func (m *Manager) Run(ctx context.Context) {
	defer close(m.done)
	for {
		select {
		case client := <-m.register:
			m.addClient(client)
		case client := <-m.unregister:
			m.removeClient(client)
		case <-ctx.Done():
			return
		}
	}
}

// Register ставит соединение на учет.
// false - менеджер уже остановлен, соединение нужно закрыть.
func (m *Manager) Register(client *Client) bool {
	select {
	case m.register <- client:
		return true
	case <-m.done:
		return false
	}
}

// Unregister снимает соединение с учета; после остановки менеджера - no-op
func (m *Manager) Unregister(client *Client) {
	select {
	case m.unregister <- client:
	case <-m.done:
	}
}

func (m *Manager) addClient(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.users[client.userID] == nil {
		m.users[client.userID] = make(map[*Client]struct{})
	}
	m.users[client.userID][client] = struct{}{}

	logger.Debug("ws client connected", "user_id", client.userID)
}

func (m *Manager) removeClient(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if set, ok := m.users[client.userID]; ok {
		if _, ok := set[client]; ok {
			delete(set, client)
			close(client.send)
			if len(set) == 0 {
				delete(m.users, client.userID)
			}
		}
	}

	// Выходим из всех комнат этого соединения
	for room := range client.rooms {
		m.leaveRoomLocked(room, client)
	}

	logger.Debug("ws client disconnected", "user_id", client.userID)
}

// JoinRoom подписывает соединение на канал диалога.
// Проверка членства в диалоге - на вызывающей стороне.
func (m *Manager) JoinRoom(conversationID string, client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rooms[conversationID] == nil {
		m.rooms[conversationID] = make(map[*Client]struct{})
	}
	m.rooms[conversationID][client] = struct{}{}
	client.rooms[conversationID] = struct{}{}
}

// LeaveRoom снимает подписку соединения с канала диалога
func (m *Manager) LeaveRoom(conversationID string, client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveRoomLocked(conversationID, client)
}

func (m *Manager) leaveRoomLocked(conversationID string, client *Client) {
	if set, ok := m.rooms[conversationID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(m.rooms, conversationID)
		}
	}
	delete(client.rooms, conversationID)
}

// PublishToUser шлет событие во все соединения пользователя
func (m *Manager) PublishToUser(userID string, event string, payload interface{}) {
	frame, err := json.Marshal(OutboundMessage{Event: event, Data: payload})
	if err != nil {
		logger.Error("ws marshal failed", "event", event, "error", err)
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for client := range m.users[userID] {
		client.enqueue(frame)
	}
}

// PublishToConversation шлет событие всем подписчикам комнаты диалога
func (m *Manager) PublishToConversation(conversationID string, event string, payload interface{}) {
	frame, err := json.Marshal(OutboundMessage{Event: event, Data: payload})
	if err != nil {
		logger.Error("ws marshal failed", "event", event, "error", err)
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for client := range m.rooms[conversationID] {
		client.enqueue(frame)
	}
}

// sendToClient шлет событие одному соединению (адресные ошибки, подтверждения)
func (m *Manager) sendToClient(client *Client, event string, payload interface{}) {
	frame, err := json.Marshal(OutboundMessage{Event: event, Data: payload})
	if err != nil {
		logger.Error("ws marshal failed", "event", event, "error", err)
		return
	}
	client.enqueue(frame)
}
