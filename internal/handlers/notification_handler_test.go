package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"ksocial_backend/internal/services"
	"ksocial_backend/internal/services/dto"
	"ksocial_backend/internal/validator"
	"ksocial_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotificationService struct {
	notification *dto.NotificationResponse
	list         *dto.NotificationListResponse
	updated      int64
	unread       int64
	err          error

	lastNotify services.NotifyInput
}

func (f *fakeNotificationService) Notify(_ context.Context, input services.NotifyInput) (*dto.NotificationResponse, error) {
	f.lastNotify = input
	return f.notification, f.err
}

func (f *fakeNotificationService) ListForUser(_ context.Context, _ string) (*dto.NotificationListResponse, error) {
	return f.list, f.err
}

func (f *fakeNotificationService) MarkAsRead(_ context.Context, _, _ string) (*dto.NotificationResponse, error) {
	return f.notification, f.err
}

func (f *fakeNotificationService) MarkAllAsRead(_ context.Context, _ string) (int64, error) {
	return f.updated, f.err
}

func (f *fakeNotificationService) UnreadCount(_ context.Context, _ string) (int64, error) {
	return f.unread, f.err
}

func setupNotificationRouter(svc services.NotificationService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := NewNotificationHandler(svc, validator.New())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "alice")
		c.Next()
	})
	r.GET("/notifications", h.List)
	r.POST("/notifications", h.Create)
	r.GET("/notifications/unread-count", h.UnreadCount)
	r.PATCH("/notifications/read-all", h.MarkAllRead)
	r.PATCH("/notifications/:notificationId/read", h.MarkRead)
	return r
}

func TestCreateNotification_ActorIsCurrentUser(t *testing.T) {
	svc := &fakeNotificationService{
		notification: &dto.NotificationResponse{ID: "n-1", Type: "like"},
	}
	r := setupNotificationRouter(svc)

	w, env := doRequest(t, r, http.MethodPost, "/notifications",
		`{"user_id":"bob","type":"like","entity_type":"post","entity_id":"post-1"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "success", env.Status)

	// Актор берется из токена, а не из тела
	assert.Equal(t, "alice", svc.lastNotify.ActorID)
	assert.Equal(t, "bob", svc.lastNotify.UserID)
}

func TestCreateNotification_SelfSuppressed(t *testing.T) {
	// Сервис вернул (nil, nil) - само-уведомление подавлено
	r := setupNotificationRouter(&fakeNotificationService{})

	w, env := doRequest(t, r, http.MethodPost, "/notifications",
		`{"user_id":"alice","type":"like"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Notification suppressed", env.Message)
	assert.Empty(t, env.Data)
}

func TestCreateNotification_RejectsUnknownType(t *testing.T) {
	r := setupNotificationRouter(&fakeNotificationService{})

	w, env := doRequest(t, r, http.MethodPost, "/notifications",
		`{"user_id":"bob","type":"poke"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error", env.Status)
}

func TestListNotifications_ReturnsEnvelope(t *testing.T) {
	svc := &fakeNotificationService{
		list: &dto.NotificationListResponse{
			Notifications: []dto.NotificationResponse{{ID: "n-1"}, {ID: "n-2"}},
			UnreadCount:   2,
		},
	}
	r := setupNotificationRouter(svc)

	w, env := doRequest(t, r, http.MethodGet, "/notifications", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var data dto.NotificationListResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Len(t, data.Notifications, 2)
	assert.Equal(t, int64(2), data.UnreadCount)
}

func TestMarkRead_NotFoundForForeignNotification(t *testing.T) {
	r := setupNotificationRouter(&fakeNotificationService{err: apperrors.ErrNotificationNotFound})

	w, env := doRequest(t, r, http.MethodPatch, "/notifications/n-1/read", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error", env.Status)
}

func TestMarkAllRead_ReturnsUpdatedCount(t *testing.T) {
	r := setupNotificationRouter(&fakeNotificationService{updated: 7})

	w, env := doRequest(t, r, http.MethodPatch, "/notifications/read-all", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Updated int64 `json:"updated"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, int64(7), data.Updated)
}

func TestUnreadCount(t *testing.T) {
	r := setupNotificationRouter(&fakeNotificationService{unread: 3})

	w, env := doRequest(t, r, http.MethodGet, "/notifications/unread-count", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Count int64 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, int64(3), data.Count)
}
