package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeWS_UnavailableWithoutManager(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Сборка без realtime-менеджера: шлюз отвечает 503, а не паникует
	h := &Handler{}
	r := gin.New()
	r.GET("/ws", h.ServeWS)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "error", body.Status)
}

func TestServeWS_RejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handler{manager: NewManager()}
	r := gin.New()
	r.GET("/ws", h.ServeWS)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
