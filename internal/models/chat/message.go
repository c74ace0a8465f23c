package chat

import "time"

// Message - сообщение в диалоге. После создания не меняется:
// ни редактирования, ни удаления.
type Message struct {
	ID             string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ConversationID string    `gorm:"index:idx_messages_conversation_created;not null" json:"conversation_id"`
	SenderID       string    `gorm:"index;not null" json:"sender_id"`
	Text           string    `gorm:"type:text;not null" json:"text"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conversation_created" json:"created_at"`

	Reads []MessageRead `gorm:"foreignKey:MessageID" json:"-"`
}

func (Message) TableName() string {
	return "chat.messages"
}

// ReadBy возвращает id пользователей, прочитавших сообщение
func (m *Message) ReadBy() []string {
	readBy := make([]string, 0, len(m.Reads))
	for _, r := range m.Reads {
		readBy = append(readBy, r.UserID)
	}
	return readBy
}

// MessageRead - отметка "прочитано". Отправитель получает ее сразу при отправке.
type MessageRead struct {
	MessageID string    `gorm:"primaryKey" json:"message_id"`
	UserID    string    `gorm:"primaryKey" json:"user_id"`
	ReadAt    time.Time `json:"read_at"`
}

func (MessageRead) TableName() string {
	return "chat.message_reads"
}
