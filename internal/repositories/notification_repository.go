package repositories

import (
	"time"

	"ksocial_backend/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(notification *models.Notification) error
	// FindByUserAndID ищет уведомление в пределах владельца: чужие id
	// неотличимы от несуществующих (404, а не 403)
	FindByUserAndID(userID, notificationID string) (*models.Notification, error)
	FindByUser(userID string, limit int) ([]models.Notification, error)
	MarkAsRead(notificationID string, at time.Time) error
	MarkAllAsRead(userID string, at time.Time) (int64, error)
	CountUnread(userID string) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

func (r *notificationRepository) FindByUserAndID(userID, notificationID string) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.Preload("Actor").
		First(&notification, "id = ? AND user_id = ?", notificationID, userID).Error
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// FindByUser возвращает уведомления получателя, сначала новые
func (r *notificationRepository) FindByUser(userID string, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Preload("Actor").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) MarkAsRead(notificationID string, at time.Time) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ?", notificationID).
		Updates(map[string]interface{}{"is_read": true, "read_at": at}).Error
}

// MarkAllAsRead помечает все непрочитанные; повторный вызов затрагивает 0 строк
func (r *notificationRepository) MarkAllAsRead(userID string, at time.Time) (int64, error) {
	res := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) CountUnread(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Count(&count).Error
	return count, err
}
