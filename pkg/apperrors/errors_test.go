package apperrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	appErr := Wrap(cause, CodeDatabaseError, "chat", "Failed to send message")

	assert.ErrorIs(t, appErr, cause)
	assert.Contains(t, appErr.Error(), "Failed to send message")
}

func TestWrapDerivesHTTPStatus(t *testing.T) {
	cause := errors.New("boom")

	cases := []struct {
		code ErrorCode
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeValidationFailed, http.StatusBadRequest},
		{CodeInvalidOperation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeInvalidToken, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeDatabaseError, http.StatusInternalServerError},
		{CodeInternalError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		appErr := Wrap(cause, tc.code, "chat", "failed")
		assert.Equal(t, tc.want, appErr.HTTPCode, string(tc.code))
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := ErrNotFound(errors.New("record not found"), "chat", "Partner not found")

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.HTTPCode)

	_, ok = AsAppError(errors.New("plain error"))
	assert.False(t, ok)
}

func TestDomainErrorHTTPCodes(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, ErrConversationNotFound.HTTPCode)
	assert.Equal(t, http.StatusForbidden, ErrNotParticipant.HTTPCode)
	assert.Equal(t, http.StatusBadRequest, ErrSelfConversation.HTTPCode)
	assert.Equal(t, http.StatusBadRequest, ErrEmptyMessageText.HTTPCode)
	assert.Equal(t, http.StatusNotFound, ErrNotificationNotFound.HTTPCode)
	assert.Equal(t, http.StatusUnauthorized, ErrInvalidCredentials.HTTPCode)
}

func TestMarshalHidesInternals(t *testing.T) {
	appErr := Wrap(errors.New("pq: secret detail"), CodeDatabaseError, "chat", "Failed")

	raw, err := appErr.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret detail")
	assert.Contains(t, string(raw), string(CodeDatabaseError))
}
