package chat

import "time"

// ConversationParticipant - участник диалога
type ConversationParticipant struct {
	ConversationID string    `gorm:"primaryKey" json:"conversation_id"`
	UserID         string    `gorm:"primaryKey;index" json:"user_id"`
	JoinedAt       time.Time `json:"joined_at"`
}

func (ConversationParticipant) TableName() string {
	return "chat.conversation_participants"
}
