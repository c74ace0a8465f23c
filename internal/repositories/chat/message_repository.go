package chat

import (
	"time"

	"ksocial_backend/internal/models/chat"

	"gorm.io/gorm"
)

type MessageRepository interface {
	// Append вставляет сообщение, отметку "прочитано" отправителя и
	// обновляет last-message указатель диалога одной транзакцией
	Append(message *chat.Message) error
	// FindByConversation возвращает историю сообщениями вниз (новые первыми).
	// before - keyset-пагинация: строго старше указанного момента.
	FindByConversation(conversationID string, limit int, before *time.Time) ([]chat.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Append(message *chat.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Reads").Create(message).Error; err != nil {
			return err
		}

		read := chat.MessageRead{
			MessageID: message.ID,
			UserID:    message.SenderID,
			ReadAt:    message.CreatedAt,
		}
		if err := tx.Create(&read).Error; err != nil {
			return err
		}
		message.Reads = []chat.MessageRead{read}

		return tx.Model(&chat.Conversation{}).
			Where("id = ?", message.ConversationID).
			Updates(map[string]interface{}{
				"last_message_text": message.Text,
				"last_message_at":   message.CreatedAt,
			}).Error
	})
}

func (r *messageRepository) FindByConversation(conversationID string, limit int, before *time.Time) ([]chat.Message, error) {
	query := r.db.Preload("Reads").
		Where("conversation_id = ?", conversationID)

	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	var messages []chat.Message
	err := query.Order("created_at DESC").Limit(limit).Find(&messages).Error
	return messages, err
}
