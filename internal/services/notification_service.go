package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ksocial_backend/internal/logger"
	"ksocial_backend/internal/models"
	"ksocial_backend/internal/realtime"
	"ksocial_backend/internal/repositories"
	"ksocial_backend/internal/services/dto"
	"ksocial_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// Лента уведомлений отдает не больше стольких записей
const notificationListLimit = 100

// Допустимые типы уведомлений
var notificationTypes = map[string]struct{}{
	models.NotificationTypeLike:    {},
	models.NotificationTypeComment: {},
	models.NotificationTypeFollow:  {},
	models.NotificationTypeRepost:  {},
	models.NotificationTypeMessage: {},
	models.NotificationTypeStory:   {},
	models.NotificationTypeSystem:  {},
}

// NotifyInput - команда на создание уведомления. ActorID - инициатор
// действия, UserID - получатель.
type NotifyInput struct {
	UserID     string
	ActorID    string
	Type       string
	EntityType string
	EntityID   string
	Message    string
	Data       map[string]interface{}
}

type NotificationService interface {
	// Notify сохраняет уведомление и пушит его получателю в личный канал.
	// Само-уведомление (получатель == актор) молча подавляется: (nil, nil).
	Notify(ctx context.Context, input NotifyInput) (*dto.NotificationResponse, error)
	ListForUser(ctx context.Context, userID string) (*dto.NotificationListResponse, error)
	MarkAsRead(ctx context.Context, userID, notificationID string) (*dto.NotificationResponse, error)
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

type notificationService struct {
	repo      repositories.NotificationRepository
	userRepo  repositories.UserRepository
	publisher realtime.Publisher
}

func NewNotificationService(repo repositories.NotificationRepository, userRepo repositories.UserRepository, publisher realtime.Publisher) NotificationService {
	if publisher == nil {
		publisher = realtime.NoopPublisher{}
	}
	return &notificationService{
		repo:      repo,
		userRepo:  userRepo,
		publisher: publisher,
	}
}

func (s *notificationService) Notify(ctx context.Context, input NotifyInput) (*dto.NotificationResponse, error) {
	// Самому себе уведомления не создаем
	if input.UserID == input.ActorID {
		return nil, nil
	}

	if _, ok := notificationTypes[input.Type]; !ok {
		return nil, apperrors.ErrUnknownNotificationType
	}

	if _, err := s.userRepo.FindByID(input.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound(err, "notification", "Recipient not found")
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "notification", "Failed to look up recipient")
	}

	actor, err := s.userRepo.FindByID(input.ActorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound(err, "notification", "Actor not found")
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "notification", "Failed to look up actor")
	}

	notification := &models.Notification{
		UserID:     input.UserID,
		ActorID:    input.ActorID,
		Type:       input.Type,
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		Message:    input.Message,
	}
	if input.Data != nil {
		raw, err := json.Marshal(input.Data)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeValidationFailed, "notification", "Invalid data payload")
		}
		notification.Data = raw
	}

	if err := s.repo.Create(notification); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "notification", "Failed to save notification")
	}
	notification.Actor = actor

	resp := toNotificationResponse(notification)

	// Пуш best-effort: уведомление уже в БД, клиент доберет его по REST
	s.publisher.PublishToUser(input.UserID, realtime.EventNotificationNew, realtime.NotificationNewEvent{
		ID:         notification.ID,
		Type:       notification.Type,
		EntityType: notification.EntityType,
		EntityID:   notification.EntityID,
		Message:    notification.Message,
		IsRead:     false,
		Actor: realtime.ActorProjection{
			ID:             actor.ID,
			Username:       actor.Username,
			ProfilePicture: actor.ProfilePicture,
		},
		CreatedAt: notification.CreatedAt,
	})

	logger.CtxInfo(ctx, "notification created",
		"notification_id", notification.ID,
		"recipient_id", notification.UserID,
		"type", notification.Type,
	)

	return resp, nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID string) (*dto.NotificationListResponse, error) {
	notifications, err := s.repo.FindByUser(userID, notificationListLimit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "notification", "Failed to list notifications")
	}

	unread, err := s.repo.CountUnread(userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "notification", "Failed to count unread notifications")
	}

	out := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		out = append(out, *toNotificationResponse(&notifications[i]))
	}
	return &dto.NotificationListResponse{
		Notifications: out,
		UnreadCount:   unread,
	}, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID string) (*dto.NotificationResponse, error) {
	notification, err := s.repo.FindByUserAndID(userID, notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "notification", "Failed to look up notification")
	}

	// Повторное прочтение - no-op, ReadAt не сдвигаем
	if notification.IsRead {
		return toNotificationResponse(notification), nil
	}

	now := time.Now()
	if err := s.repo.MarkAsRead(notification.ID, now); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "notification", "Failed to mark notification as read")
	}
	notification.IsRead = true
	notification.ReadAt = &now
	return toNotificationResponse(notification), nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	count, err := s.repo.MarkAllAsRead(userID, time.Now())
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "notification", "Failed to mark notifications as read")
	}
	return count, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.repo.CountUnread(userID)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "notification", "Failed to count unread notifications")
	}
	return count, nil
}

func toNotificationResponse(n *models.Notification) *dto.NotificationResponse {
	resp := &dto.NotificationResponse{
		ID:         n.ID,
		Type:       n.Type,
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
		Message:    n.Message,
		IsRead:     n.IsRead,
		ReadAt:     n.ReadAt,
		Actor:      dto.ProjectUser(n.Actor),
		CreatedAt:  n.CreatedAt,
	}
	if len(n.Data) > 0 {
		var data map[string]interface{}
		if err := json.Unmarshal(n.Data, &data); err == nil {
			resp.Data = data
		}
	}
	return resp
}
