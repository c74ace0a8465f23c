package chat

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"ksocial_backend/internal/cache"
	"ksocial_backend/internal/logger"
	"ksocial_backend/internal/models"
	chatmodels "ksocial_backend/internal/models/chat"
	"ksocial_backend/internal/realtime"
	"ksocial_backend/internal/repositories"
	chatrepo "ksocial_backend/internal/repositories/chat"
	"ksocial_backend/internal/services"
	"ksocial_backend/internal/services/dto"
	"ksocial_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Длина превью текста в уведомлении о новом сообщении
const notificationPreviewRunes = 120

// SendMessageInput - команда отправки сообщения.
// TempID прозрачно возвращается в ответе и в dm:message.
type SendMessageInput struct {
	ConversationID string
	SenderID       string
	Text           string
	TempID         string
}

// HistoryInput - запрос страницы истории. Before - keyset-курсор:
// вернуть сообщения строго старше этого момента.
type HistoryInput struct {
	ConversationID string
	RequesterID    string
	Limit          int
	Before         *time.Time
}

// Limits - пределы чата из конфигурации
type Limits struct {
	MaxMessageLength    int
	DefaultHistoryLimit int
	MaxHistoryLimit     int
}

// Notifier - срез NotificationService, нужный чату для уведомлений
// о новых сообщениях
type Notifier interface {
	Notify(ctx context.Context, input services.NotifyInput) (*dto.NotificationResponse, error)
}

type Service interface {
	// FindOrCreateConversation возвращает личный диалог пары, создавая его
	// при первом обращении. created=true - диалог создан этим вызовом.
	FindOrCreateConversation(ctx context.Context, currentUserID, partnerID string) (conv *dto.ConversationResponse, created bool, err error)
	ListConversations(ctx context.Context, userID string) ([]dto.ConversationResponse, error)
	// SendMessage дописывает сообщение в лог диалога, обновляет его
	// last-message указатель и рассылает dm:message в канал диалога.
	SendMessage(ctx context.Context, input SendMessageInput) (*dto.MessageResponse, error)
	// GetMessages отдает историю новыми вперед; требует членства в диалоге
	GetMessages(ctx context.Context, input HistoryInput) ([]dto.MessageResponse, error)
	// IsParticipant - авторизационный гейт для websocket-подписок
	IsParticipant(conversationID, userID string) (bool, error)
}

type service struct {
	conversations chatrepo.ConversationRepository
	messages      chatrepo.MessageRepository
	users         repositories.UserRepository
	cache         *cache.MessageCache // nil, если Redis не сконфигурирован
	publisher     realtime.Publisher
	notifier      Notifier
	limits        Limits
}

func NewService(
	conversations chatrepo.ConversationRepository,
	messages chatrepo.MessageRepository,
	users repositories.UserRepository,
	messageCache *cache.MessageCache,
	publisher realtime.Publisher,
	notifier Notifier,
	limits Limits,
) Service {
	if publisher == nil {
		publisher = realtime.NoopPublisher{}
	}
	if limits.MaxMessageLength <= 0 {
		limits.MaxMessageLength = 2000
	}
	if limits.DefaultHistoryLimit <= 0 {
		limits.DefaultHistoryLimit = 20
	}
	if limits.MaxHistoryLimit <= 0 {
		limits.MaxHistoryLimit = 100
	}
	return &service{
		conversations: conversations,
		messages:      messages,
		users:         users,
		cache:         messageCache,
		publisher:     publisher,
		notifier:      notifier,
		limits:        limits,
	}
}

func (s *service) FindOrCreateConversation(ctx context.Context, currentUserID, partnerID string) (*dto.ConversationResponse, bool, error) {
	if partnerID == currentUserID {
		return nil, false, apperrors.ErrSelfConversation
	}

	if _, err := s.users.FindByID(partnerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperrors.ErrNotFound(err, "chat", "Partner not found")
		}
		return nil, false, apperrors.Wrap(err, apperrors.CodeDatabaseError, "chat", "Failed to look up partner")
	}

	conv, created, err := s.conversations.FindOrCreatePair(currentUserID, partnerID)
	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.CodeDatabaseError, "chat", "Failed to open conversation")
	}

	if created {
		logger.CtxInfo(ctx, "conversation created",
			"conversation_id", conv.ID,
			"user_id", currentUserID,
			"partner_id", partnerID,
		)
	}

	resp, err := s.toConversationResponse(conv)
	if err != nil {
		return nil, false, err
	}
	return resp, created, nil
}

func (s *service) ListConversations(ctx context.Context, userID string) ([]dto.ConversationResponse, error) {
	conversations, err := s.conversations.FindAllByUser(userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "chat", "Failed to list conversations")
	}

	// Участников всех диалогов резолвим одним запросом
	idSet := make(map[string]struct{})
	for i := range conversations {
		for _, p := range conversations[i].Participants {
			idSet[p.UserID] = struct{}{}
		}
	}
	usersByID, err := s.resolveUsers(idSet)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ConversationResponse, 0, len(conversations))
	for i := range conversations {
		out = append(out, buildConversationResponse(&conversations[i], usersByID))
	}
	return out, nil
}

func (s *service) SendMessage(ctx context.Context, input SendMessageInput) (*dto.MessageResponse, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, apperrors.ErrEmptyMessageText
	}
	if utf8.RuneCountInString(text) > s.limits.MaxMessageLength {
		return nil, apperrors.ErrMessageTooLong
	}

	conv, err := s.conversations.FindByID(input.ConversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "chat", "Failed to look up conversation")
	}

	member := false
	for _, p := range conv.Participants {
		if p.UserID == input.SenderID {
			member = true
			break
		}
	}
	if !member {
		return nil, apperrors.ErrNotParticipant
	}

	message := &chatmodels.Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		SenderID:       input.SenderID,
		Text:           text,
		CreatedAt:      time.Now(),
	}
	if err := s.messages.Append(message); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "chat", "Failed to send message")
	}

	// Дальше сообщение уже в БД: кеш, пуш и уведомления - best-effort
	if s.cache != nil {
		if err := s.cache.AddMessage(ctx, message); err != nil {
			logger.CtxWarn(ctx, "message cache write failed", "error", err, "conversation_id", conv.ID)
		}
	}

	sender := dto.UserProjection{ID: input.SenderID}
	if u, err := s.users.FindByID(input.SenderID); err == nil {
		sender = dto.ProjectUser(u)
	} else {
		logger.CtxWarn(ctx, "sender lookup failed", "error", err, "user_id", input.SenderID)
	}

	s.publisher.PublishToConversation(conv.ID, realtime.EventDMMessage, realtime.MessageDeliveredEvent{
		MessageID:      message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Sender: realtime.ActorProjection{
			ID:             sender.ID,
			Username:       sender.Username,
			ProfilePicture: sender.ProfilePicture,
		},
		Text:      message.Text,
		ReadBy:    message.ReadBy(),
		CreatedAt: message.CreatedAt,
		TempID:    input.TempID,
	})

	if s.notifier != nil {
		for _, p := range conv.Participants {
			if p.UserID == input.SenderID {
				continue
			}
			_, err := s.notifier.Notify(ctx, services.NotifyInput{
				UserID:     p.UserID,
				ActorID:    input.SenderID,
				Type:       models.NotificationTypeMessage,
				EntityType: "conversation",
				EntityID:   conv.ID,
				Message:    previewText(text),
			})
			if err != nil {
				logger.CtxWarn(ctx, "message notification failed",
					"error", err,
					"conversation_id", conv.ID,
					"recipient_id", p.UserID,
				)
			}
		}
	}

	resp := buildMessageResponse(message, sender)
	resp.TempID = input.TempID
	return &resp, nil
}

func (s *service) GetMessages(ctx context.Context, input HistoryInput) ([]dto.MessageResponse, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = s.limits.DefaultHistoryLimit
	}
	if limit > s.limits.MaxHistoryLimit {
		limit = s.limits.MaxHistoryLimit
	}

	if _, err := s.conversations.FindByID(input.ConversationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "chat", "Failed to look up conversation")
	}

	member, err := s.conversations.IsParticipant(input.ConversationID, input.RequesterID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "chat", "Failed to check membership")
	}
	if !member {
		return nil, apperrors.ErrNotParticipant
	}

	messages, fromCache, err := s.loadHistory(ctx, input.ConversationID, limit, input.Before)
	if err != nil {
		return nil, err
	}

	idSet := make(map[string]struct{})
	for i := range messages {
		idSet[messages[i].SenderID] = struct{}{}
	}
	usersByID, err := s.resolveUsers(idSet)
	if err != nil {
		return nil, err
	}

	out := make([]dto.MessageResponse, 0, len(messages))
	for i := range messages {
		sender, ok := usersByID[messages[i].SenderID]
		if !ok {
			sender = dto.UserProjection{ID: messages[i].SenderID}
		}
		out = append(out, buildMessageResponse(&messages[i], sender))
	}

	logger.CtxInfo(ctx, "history page served",
		"conversation_id", input.ConversationID,
		"count", len(out),
		"from_cache", fromCache,
	)
	return out, nil
}

func (s *service) IsParticipant(conversationID, userID string) (bool, error) {
	return s.conversations.IsParticipant(conversationID, userID)
}

// loadHistory обслуживает первую страницу из Redis, когда это возможно;
// keyset-запросы (before != nil) всегда идут в БД
func (s *service) loadHistory(ctx context.Context, conversationID string, limit int, before *time.Time) ([]chatmodels.Message, bool, error) {
	if before == nil && s.cache != nil {
		cached, ok, err := s.cache.RecentMessages(ctx, conversationID, limit)
		if err != nil {
			logger.CtxWarn(ctx, "message cache read failed", "error", err, "conversation_id", conversationID)
		} else if ok {
			return cached, true, nil
		}
	}

	messages, err := s.messages.FindByConversation(conversationID, limit, before)
	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.CodeDatabaseError, "chat", "Failed to load history")
	}

	if before == nil && s.cache != nil {
		if err := s.cache.Backfill(ctx, conversationID, messages); err != nil {
			logger.CtxWarn(ctx, "message cache backfill failed", "error", err, "conversation_id", conversationID)
		}
	}
	return messages, false, nil
}

func (s *service) toConversationResponse(conv *chatmodels.Conversation) (*dto.ConversationResponse, error) {
	idSet := make(map[string]struct{}, len(conv.Participants))
	for _, p := range conv.Participants {
		idSet[p.UserID] = struct{}{}
	}
	usersByID, err := s.resolveUsers(idSet)
	if err != nil {
		return nil, err
	}
	resp := buildConversationResponse(conv, usersByID)
	return &resp, nil
}

func (s *service) resolveUsers(idSet map[string]struct{}) (map[string]dto.UserProjection, error) {
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	out := make(map[string]dto.UserProjection, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	users, err := s.users.FindByIDs(ids)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "chat", "Failed to resolve participants")
	}
	for i := range users {
		out[users[i].ID] = dto.ProjectUser(&users[i])
	}
	return out, nil
}

func buildConversationResponse(conv *chatmodels.Conversation, usersByID map[string]dto.UserProjection) dto.ConversationResponse {
	participants := make([]dto.UserProjection, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		if u, ok := usersByID[p.UserID]; ok {
			participants = append(participants, u)
		} else {
			participants = append(participants, dto.UserProjection{ID: p.UserID})
		}
	}
	return dto.ConversationResponse{
		ID:              conv.ID,
		IsGroup:         conv.IsGroup,
		Participants:    participants,
		LastMessageText: conv.LastMessageText,
		LastMessageAt:   conv.LastMessageAt,
		CreatedAt:       conv.CreatedAt,
	}
}

func buildMessageResponse(message *chatmodels.Message, sender dto.UserProjection) dto.MessageResponse {
	return dto.MessageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		Sender:         sender,
		Text:           message.Text,
		ReadBy:         message.ReadBy(),
		CreatedAt:      message.CreatedAt,
	}
}

// previewText обрезает текст для поля message уведомления
func previewText(text string) string {
	runes := []rune(text)
	if len(runes) <= notificationPreviewRunes {
		return text
	}
	return string(runes[:notificationPreviewRunes-1]) + "…"
}
