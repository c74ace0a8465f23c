package chat

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"ksocial_backend/internal/models"
	chatmodels "ksocial_backend/internal/models/chat"
	"ksocial_backend/internal/realtime"
	"ksocial_backend/internal/services"
	"ksocial_backend/internal/services/dto"
	"ksocial_backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- In-memory фейки репозиториев ---

type fakeConversationRepo struct {
	mu     sync.Mutex
	byID   map[string]*chatmodels.Conversation
	byPair map[string]*chatmodels.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		byID:   make(map[string]*chatmodels.Conversation),
		byPair: make(map[string]*chatmodels.Conversation),
	}
}

func (r *fakeConversationRepo) FindByID(id string) (*chatmodels.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *conv
	return &copied, nil
}

func (r *fakeConversationRepo) FindOrCreatePair(userA, userB string) (*chatmodels.Conversation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pairKey := chatmodels.PairKeyFor(userA, userB)
	if conv, ok := r.byPair[pairKey]; ok {
		copied := *conv
		return &copied, false, nil
	}

	now := time.Now()
	conv := &chatmodels.Conversation{
		ID:        uuid.New().String(),
		PairKey:   pairKey,
		CreatedAt: now,
		Participants: []chatmodels.ConversationParticipant{
			{UserID: userA, JoinedAt: now},
			{UserID: userB, JoinedAt: now},
		},
	}
	r.byID[conv.ID] = conv
	r.byPair[pairKey] = conv
	copied := *conv
	return &copied, true, nil
}

func (r *fakeConversationRepo) FindAllByUser(userID string) ([]chatmodels.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []chatmodels.Conversation
	for _, conv := range r.byID {
		for _, p := range conv.Participants {
			if p.UserID == userID {
				out = append(out, *conv)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) IsParticipant(conversationID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.byID[conversationID]
	if !ok {
		return false, nil
	}
	for _, p := range conv.Participants {
		if p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	convRepo *fakeConversationRepo
	messages []chatmodels.Message
}

func (r *fakeMessageRepo) Append(message *chatmodels.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	message.Reads = []chatmodels.MessageRead{{
		MessageID: message.ID,
		UserID:    message.SenderID,
		ReadAt:    message.CreatedAt,
	}}
	r.messages = append(r.messages, *message)

	r.convRepo.mu.Lock()
	defer r.convRepo.mu.Unlock()
	if conv, ok := r.convRepo.byID[message.ConversationID]; ok {
		conv.LastMessageText = message.Text
		at := message.CreatedAt
		conv.LastMessageAt = &at
	}
	return nil
}

func (r *fakeMessageRepo) FindByConversation(conversationID string, limit int, before *time.Time) ([]chatmodels.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []chatmodels.Message
	for _, m := range r.messages {
		if m.ConversationID != conversationID {
			continue
		}
		if before != nil && !m.CreatedAt.Before(*before) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[string]*models.User
}

func (r *fakeUserRepo) Create(user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByIDs(ids []string) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

// --- Запись публикаций и уведомлений ---

type publishedEvent struct {
	target  string
	event   string
	payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	toUser []publishedEvent
	toConv []publishedEvent
}

func (p *recordingPublisher) PublishToUser(userID, event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.toUser = append(p.toUser, publishedEvent{userID, event, payload})
}

func (p *recordingPublisher) PublishToConversation(conversationID, event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.toConv = append(p.toConv, publishedEvent{conversationID, event, payload})
}

type recordingNotifier struct {
	inputs []services.NotifyInput
}

func (n *recordingNotifier) Notify(_ context.Context, input services.NotifyInput) (*dto.NotificationResponse, error) {
	n.inputs = append(n.inputs, input)
	return nil, nil
}

// --- Обвязка ---

type chatFixture struct {
	service   Service
	convRepo  *fakeConversationRepo
	msgRepo   *fakeMessageRepo
	userRepo  *fakeUserRepo
	publisher *recordingPublisher
	notifier  *recordingNotifier
}

func newChatFixture(t *testing.T, limits Limits) *chatFixture {
	t.Helper()

	convRepo := newFakeConversationRepo()
	msgRepo := &fakeMessageRepo{convRepo: convRepo}
	userRepo := &fakeUserRepo{users: map[string]*models.User{}}
	publisher := &recordingPublisher{}
	notifier := &recordingNotifier{}

	for _, name := range []string{"alice", "bob", "carol"} {
		userRepo.users[name] = &models.User{
			BaseModel: models.BaseModel{ID: name},
			Username:  name,
			Email:     name + "@example.com",
		}
	}

	return &chatFixture{
		service:   NewService(convRepo, msgRepo, userRepo, nil, publisher, notifier, limits),
		convRepo:  convRepo,
		msgRepo:   msgRepo,
		userRepo:  userRepo,
		publisher: publisher,
		notifier:  notifier,
	}
}

func (f *chatFixture) openConversation(t *testing.T, a, b string) *dto.ConversationResponse {
	t.Helper()
	conv, _, err := f.service.FindOrCreateConversation(context.Background(), a, b)
	require.NoError(t, err)
	return conv
}

func (f *chatFixture) send(t *testing.T, convID, sender, text string) *dto.MessageResponse {
	t.Helper()
	msg, err := f.service.SendMessage(context.Background(), SendMessageInput{
		ConversationID: convID,
		SenderID:       sender,
		Text:           text,
	})
	require.NoError(t, err)
	return msg
}

// --- Директория диалогов ---

func TestFindOrCreateConversation_RejectsSelf(t *testing.T) {
	f := newChatFixture(t, Limits{})

	_, _, err := f.service.FindOrCreateConversation(context.Background(), "alice", "alice")
	assert.ErrorIs(t, err, apperrors.ErrSelfConversation)
}

func TestFindOrCreateConversation_UnknownPartner(t *testing.T) {
	f := newChatFixture(t, Limits{})

	_, _, err := f.service.FindOrCreateConversation(context.Background(), "alice", "ghost")
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestFindOrCreateConversation_IdempotentAcrossOrder(t *testing.T) {
	f := newChatFixture(t, Limits{})

	first, created, err := f.service.FindOrCreateConversation(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.True(t, created)

	// Повтор с другой стороны возвращает тот же диалог
	second, created, err := f.service.FindOrCreateConversation(context.Background(), "bob", "alice")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	ids := make([]string, 0, len(second.Participants))
	for _, p := range second.Participants {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{"alice", "bob"}, ids)
}

// --- Лог сообщений ---

func TestSendMessage_RequiresMembership(t *testing.T) {
	f := newChatFixture(t, Limits{})
	conv := f.openConversation(t, "alice", "bob")

	_, err := f.service.SendMessage(context.Background(), SendMessageInput{
		ConversationID: conv.ID,
		SenderID:       "carol",
		Text:           "привет",
	})
	assert.ErrorIs(t, err, apperrors.ErrNotParticipant)
}

func TestSendMessage_UnknownConversation(t *testing.T) {
	f := newChatFixture(t, Limits{})

	_, err := f.service.SendMessage(context.Background(), SendMessageInput{
		ConversationID: uuid.New().String(),
		SenderID:       "alice",
		Text:           "привет",
	})
	assert.ErrorIs(t, err, apperrors.ErrConversationNotFound)
}

func TestSendMessage_RejectsEmptyAndOversizedText(t *testing.T) {
	f := newChatFixture(t, Limits{MaxMessageLength: 10})
	conv := f.openConversation(t, "alice", "bob")

	_, err := f.service.SendMessage(context.Background(), SendMessageInput{
		ConversationID: conv.ID,
		SenderID:       "alice",
		Text:           "   \n\t ",
	})
	assert.ErrorIs(t, err, apperrors.ErrEmptyMessageText)

	_, err = f.service.SendMessage(context.Background(), SendMessageInput{
		ConversationID: conv.ID,
		SenderID:       "alice",
		Text:           strings.Repeat("я", 11),
	})
	assert.ErrorIs(t, err, apperrors.ErrMessageTooLong)
}

func TestSendMessage_AppendsAndUpdatesPointer(t *testing.T) {
	f := newChatFixture(t, Limits{})
	conv := f.openConversation(t, "alice", "bob")

	msg := f.send(t, conv.ID, "alice", "  привет, боб  ")

	// Текст нормализован, отправитель сразу в read_by
	assert.Equal(t, "привет, боб", msg.Text)
	assert.Equal(t, []string{"alice"}, msg.ReadBy)

	// Указатель последнего сообщения обновлен
	updated, err := f.convRepo.FindByID(conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "привет, боб", updated.LastMessageText)
	require.NotNil(t, updated.LastMessageAt)
	assert.Equal(t, msg.CreatedAt, *updated.LastMessageAt)
}

func TestSendMessage_PublishesWithTempID(t *testing.T) {
	f := newChatFixture(t, Limits{})
	conv := f.openConversation(t, "alice", "bob")

	msg, err := f.service.SendMessage(context.Background(), SendMessageInput{
		ConversationID: conv.ID,
		SenderID:       "alice",
		Text:           "привет",
		TempID:         "tmp-42",
	})
	require.NoError(t, err)
	assert.Equal(t, "tmp-42", msg.TempID)

	require.Len(t, f.publisher.toConv, 1)
	published := f.publisher.toConv[0]
	assert.Equal(t, conv.ID, published.target)
	assert.Equal(t, realtime.EventDMMessage, published.event)

	event, ok := published.payload.(realtime.MessageDeliveredEvent)
	require.True(t, ok)
	assert.Equal(t, "tmp-42", event.TempID)
	assert.Equal(t, msg.ID, event.MessageID)
	assert.Equal(t, "alice", event.Sender.ID)
}

func TestSendMessage_DegradesToBareSenderProjection(t *testing.T) {
	f := newChatFixture(t, Limits{})
	conv := f.openConversation(t, "alice", "bob")

	// Профиль отправителя пропал между аутентификацией и отправкой:
	// сообщение все равно уходит, проекция деградирует до одного id
	delete(f.userRepo.users, "alice")

	msg := f.send(t, conv.ID, "alice", "привет")
	assert.Equal(t, "alice", msg.Sender.ID)
	assert.Empty(t, msg.Sender.Username)

	require.Len(t, f.publisher.toConv, 1)
	event, ok := f.publisher.toConv[0].payload.(realtime.MessageDeliveredEvent)
	require.True(t, ok)
	assert.Equal(t, "alice", event.Sender.ID)
	assert.Empty(t, event.Sender.Username)
}

func TestSendMessage_NotifiesRecipientOnly(t *testing.T) {
	f := newChatFixture(t, Limits{})
	conv := f.openConversation(t, "alice", "bob")

	f.send(t, conv.ID, "alice", "привет")

	require.Len(t, f.notifier.inputs, 1)
	input := f.notifier.inputs[0]
	assert.Equal(t, "bob", input.UserID)
	assert.Equal(t, "alice", input.ActorID)
	assert.Equal(t, models.NotificationTypeMessage, input.Type)
	assert.Equal(t, conv.ID, input.EntityID)
}

// --- История ---

func TestGetMessages_RequiresMembership(t *testing.T) {
	f := newChatFixture(t, Limits{})
	conv := f.openConversation(t, "alice", "bob")

	_, err := f.service.GetMessages(context.Background(), HistoryInput{
		ConversationID: conv.ID,
		RequesterID:    "carol",
	})
	assert.ErrorIs(t, err, apperrors.ErrNotParticipant)
}

func TestGetMessages_UnknownConversation(t *testing.T) {
	f := newChatFixture(t, Limits{})

	_, err := f.service.GetMessages(context.Background(), HistoryInput{
		ConversationID: uuid.New().String(),
		RequesterID:    "alice",
	})
	assert.ErrorIs(t, err, apperrors.ErrConversationNotFound)
}

func TestGetMessages_NewestFirstWithKeyset(t *testing.T) {
	f := newChatFixture(t, Limits{DefaultHistoryLimit: 2})
	conv := f.openConversation(t, "alice", "bob")

	for i := 0; i < 5; i++ {
		f.send(t, conv.ID, "alice", "msg-"+string(rune('a'+i)))
		time.Sleep(time.Millisecond)
	}

	// Первая страница: два новейших
	page1, err := f.service.GetMessages(context.Background(), HistoryInput{
		ConversationID: conv.ID,
		RequesterID:    "bob",
	})
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "msg-e", page1[0].Text)
	assert.Equal(t, "msg-d", page1[1].Text)

	// Keyset: строго старше последнего элемента страницы
	before := page1[len(page1)-1].CreatedAt
	page2, err := f.service.GetMessages(context.Background(), HistoryInput{
		ConversationID: conv.ID,
		RequesterID:    "bob",
		Before:         &before,
	})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "msg-c", page2[0].Text)
	assert.Equal(t, "msg-b", page2[1].Text)
}

func TestGetMessages_LimitClamped(t *testing.T) {
	f := newChatFixture(t, Limits{DefaultHistoryLimit: 2, MaxHistoryLimit: 3})
	conv := f.openConversation(t, "alice", "bob")

	for i := 0; i < 5; i++ {
		f.send(t, conv.ID, "alice", "msg")
		time.Sleep(time.Millisecond)
	}

	page, err := f.service.GetMessages(context.Background(), HistoryInput{
		ConversationID: conv.ID,
		RequesterID:    "alice",
		Limit:          100,
	})
	require.NoError(t, err)
	assert.Len(t, page, 3)
}

// --- Список диалогов ---

func TestListConversations_ResolvesParticipants(t *testing.T) {
	f := newChatFixture(t, Limits{})
	f.openConversation(t, "alice", "bob")
	f.openConversation(t, "alice", "carol")

	conversations, err := f.service.ListConversations(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, conversations, 2)

	for _, conv := range conversations {
		require.Len(t, conv.Participants, 2)
		for _, p := range conv.Participants {
			assert.NotEmpty(t, p.Username)
		}
	}

	// Боб видит только свой диалог
	bobConvs, err := f.service.ListConversations(context.Background(), "bob")
	require.NoError(t, err)
	assert.Len(t, bobConvs, 1)
}
