package services

import (
	"context"
	"testing"

	"ksocial_backend/internal/auth"
	"ksocial_backend/internal/config"
	"ksocial_backend/internal/models"
	"ksocial_backend/internal/services/dto"
	"ksocial_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (AuthService, *fakeUserRepo) {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.TTL = 60
	config.AppConfig = cfg

	userRepo := &fakeUserRepo{users: map[string]*models.User{}}
	return NewAuthService(userRepo), userRepo
}

func TestRegister_IssuesToken(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "strong password",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "alice", resp.User.Username)

	// Пароль хранится только хешем
	stored, err := repo.FindByEmail("alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "strong password", stored.PasswordHash)
	assert.True(t, auth.CheckPasswordHash("strong password", stored.PasswordHash))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	req := &dto.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "strong password",
	}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeAlreadyExists, appErr.Code)
}

func TestLogin_ValidAndInvalidCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "strong password",
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "strong password",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	// Неверный пароль и несуществующий email неотличимы для клиента
	_, err = svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}
