package models

import (
	"time"

	"gorm.io/datatypes"
)

// Словарь типов уведомлений
const (
	NotificationTypeLike    = "like"
	NotificationTypeComment = "comment"
	NotificationTypeFollow  = "follow"
	NotificationTypeRepost  = "repost"
	NotificationTypeMessage = "message"
	NotificationTypeStory   = "story"
	NotificationTypeSystem  = "system"
)

// Notification - уведомление: лайки, комментарии, подписки, сообщения, сторис.
// UserID - получатель, ActorID - кто совершил действие. Само-уведомления
// (UserID == ActorID) не сохраняются никогда.
type Notification struct {
	BaseModel
	UserID     string         `gorm:"not null;index:idx_notifications_user_read" json:"user_id"`
	ActorID    string         `gorm:"not null" json:"actor_id"`
	Type       string         `gorm:"not null" json:"type"`
	EntityType string         `json:"entity_type"` // "post" | "comment" | "user" | "conversation" | ...
	EntityID   string         `json:"entity_id"`
	Message    string         `json:"message"` // готовый текст (опционально)
	Data       datatypes.JSON `gorm:"type:jsonb" json:"data,omitempty"`
	IsRead     bool           `gorm:"default:false;index:idx_notifications_user_read" json:"is_read"`
	ReadAt     *time.Time     `json:"read_at,omitempty"`

	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}
