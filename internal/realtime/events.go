package realtime

import "time"

// Типизированные проекции событий. Продюсер и потребитель делят явный
// контракт вместо ad hoc словарей.

// ActorProjection - минимальная проекция пользователя для ленты событий
type ActorProjection struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// MessageDeliveredEvent - доставка сообщения в канал диалога.
// TempID - клиентский корреляционный id, возвращается как пришел,
// чтобы фронт мог сопоставить оптимистично отрисованное сообщение.
type MessageDeliveredEvent struct {
	MessageID      string          `json:"message_id"`
	ConversationID string          `json:"conversation_id"`
	SenderID       string          `json:"sender_id"`
	Sender         ActorProjection `json:"sender"`
	Text           string          `json:"text"`
	ReadBy         []string        `json:"read_by"`
	CreatedAt      time.Time       `json:"created_at"`
	TempID         string          `json:"temp_id,omitempty"`
}

// ConversationJoinedEvent - подтверждение входа в канал диалога
type ConversationJoinedEvent struct {
	ConversationID  string     `json:"conversation_id"`
	Participants    []string   `json:"participants"`
	LastMessageText string     `json:"last_message"`
	LastMessageAt   *time.Time `json:"last_message_at,omitempty"`
}

// NotificationNewEvent - новое уведомление в персональный канал получателя
type NotificationNewEvent struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	EntityType string          `json:"entity_type,omitempty"`
	EntityID   string          `json:"entity_id,omitempty"`
	Message    string          `json:"message,omitempty"`
	IsRead     bool            `json:"is_read"`
	Actor      ActorProjection `json:"actor"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ErrorEvent - адресная ошибка инициатору действия (никогда не broadcast)
type ErrorEvent struct {
	Message string `json:"message"`
}
