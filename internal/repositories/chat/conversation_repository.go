package chat

import (
	"errors"
	"time"

	"ksocial_backend/internal/models/chat"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationRepository interface {
	FindByID(id string) (*chat.Conversation, error)
	// FindOrCreatePair атомарно находит или создает личный диалог пары.
	// Возвращает created=true, если диалог создан этим вызовом.
	FindOrCreatePair(userA, userB string) (conv *chat.Conversation, created bool, err error)
	FindAllByUser(userID string) ([]chat.Conversation, error)
	IsParticipant(conversationID, userID string) (bool, error)
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// FindByID возвращает диалог с участниками
func (r *conversationRepository) FindByID(id string) (*chat.Conversation, error) {
	var conv chat.Conversation
	err := r.db.Preload("Participants").First(&conv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindOrCreatePair: сначала ищем по pair_key, если нет - вставка с
// ON CONFLICT DO NOTHING по уникальному индексу. Проигравший гонку
// перечитывает диалог победителя, так что обе стороны получают один id.
func (r *conversationRepository) FindOrCreatePair(userA, userB string) (*chat.Conversation, bool, error) {
	pairKey := chat.PairKeyFor(userA, userB)

	var existing chat.Conversation
	err := r.db.Preload("Participants").First(&existing, "pair_key = ?", pairKey).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	now := time.Now()
	conv := chat.Conversation{
		ID:      uuid.New().String(),
		PairKey: pairKey,
		Participants: []chat.ConversationParticipant{
			{UserID: userA, JoinedAt: now},
			{UserID: userB, JoinedAt: now},
		},
	}

	created := false
	err = r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Omit("Participants").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_key"}},
			DoNothing: true,
		}).Create(&conv)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Вторая сторона успела первой
			return nil
		}

		for i := range conv.Participants {
			conv.Participants[i].ConversationID = conv.ID
		}
		if err := tx.Create(&conv.Participants).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if !created {
		var winner chat.Conversation
		if err := r.db.Preload("Participants").First(&winner, "pair_key = ?", pairKey).Error; err != nil {
			return nil, false, err
		}
		return &winner, false, nil
	}

	return &conv, true, nil
}

// FindAllByUser возвращает диалоги пользователя, свежие сверху
func (r *conversationRepository) FindAllByUser(userID string) ([]chat.Conversation, error) {
	var conversations []chat.Conversation
	err := r.db.
		Joins("JOIN chat.conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Preload("Participants").
		Order("last_message_at DESC NULLS LAST, conversations.updated_at DESC").
		Find(&conversations).Error
	return conversations, err
}

// IsParticipant проверяет членство - авторизационный гейт для истории и отправки
func (r *conversationRepository) IsParticipant(conversationID, userID string) (bool, error) {
	var count int64
	err := r.db.Model(&chat.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	return count > 0, err
}
