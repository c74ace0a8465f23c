package chat

import "time"

// Conversation - диалог (личная переписка; флаг IsGroup зарезервирован
// под групповые чаты, ни один путь создания его не выставляет).
//
// PairKey - отсортированная пара id участников вида "<a>:<b>".
// Уникальный индекс по нему гарантирует не больше одного личного диалога
// на пару пользователей даже при одновременном создании с обеих сторон.
type Conversation struct {
	ID      string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	IsGroup bool   `gorm:"default:false" json:"is_group"`
	PairKey string `gorm:"uniqueIndex" json:"-"`

	// Денормализация для списка диалогов
	LastMessageText string     `gorm:"default:''" json:"last_message"`
	LastMessageAt   *time.Time `json:"last_message_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID" json:"participants,omitempty"`
}

func (Conversation) TableName() string {
	return "chat.conversations"
}

// PairKeyFor строит детерминированный ключ пары независимо от порядка аргументов
func PairKeyFor(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}
