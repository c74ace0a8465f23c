package dto

import "time"

// CreateNotificationRequest - body POST /notifications.
// Актор - всегда текущий пользователь, подменить себя нельзя.
type CreateNotificationRequest struct {
	UserID     string                 `json:"user_id" validate:"required"` // получатель
	Type       string                 `json:"type" validate:"required,oneof=like comment follow repost message story system"`
	EntityType string                 `json:"entity_type" validate:"omitempty,oneof=post comment user conversation story"`
	EntityID   string                 `json:"entity_id"`
	Message    string                 `json:"message" validate:"max=500"`
	Data       map[string]interface{} `json:"data"`
}

// NotificationResponse - уведомление с проекцией актора
type NotificationResponse struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	EntityType string                 `json:"entity_type,omitempty"`
	EntityID   string                 `json:"entity_id,omitempty"`
	Message    string                 `json:"message,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	IsRead     bool                   `json:"is_read"`
	ReadAt     *time.Time             `json:"read_at,omitempty"`
	Actor      UserProjection         `json:"actor"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NotificationListResponse - список с количеством непрочитанных
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int64                  `json:"unread_count"`
}
