package dto

import "time"

// CreateConversationRequest - body POST /chat/conversations
type CreateConversationRequest struct {
	PartnerID string `json:"partner_id" validate:"required"`
}

// SendMessageRequest - body POST /chat/messages/:conversationId.
// TempID - клиентский корреляционный id для оптимистичного UI, не хранится.
type SendMessageRequest struct {
	Text   string `json:"text" validate:"required"`
	TempID string `json:"temp_id"`
}

// ConversationResponse - диалог для списка/создания
type ConversationResponse struct {
	ID              string           `json:"id"`
	IsGroup         bool             `json:"is_group"`
	Participants    []UserProjection `json:"participants"`
	LastMessageText string           `json:"last_message"`
	LastMessageAt   *time.Time       `json:"last_message_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// MessageResponse - сообщение с резолвнутым отправителем
type MessageResponse struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	Sender         UserProjection `json:"sender"`
	Text           string         `json:"text"`
	ReadBy         []string       `json:"read_by"`
	CreatedAt      time.Time      `json:"created_at"`
	TempID         string         `json:"temp_id,omitempty"`
}
