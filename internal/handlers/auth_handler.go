package handlers

import (
	"net/http"

	"ksocial_backend/internal/config"
	"ksocial_backend/internal/services"
	"ksocial_backend/internal/services/dto"
	"ksocial_backend/internal/validator"
	"ksocial_backend/pkg/apperrors"
	"ksocial_backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	BaseHandler
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService, v *validator.Validator) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(v),
		authService: authService,
	}
}

// Register - POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindAndValidate(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	setAuthCookie(c, result.AccessToken)
	response.Send(c, http.StatusCreated, "Registration successful", result)
}

// Login - POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidate(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	setAuthCookie(c, result.AccessToken)
	response.Send(c, http.StatusOK, "Login successful", result)
}

// Logout - POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie("auth_token", "", -1, "/", "", false, true)
	response.Send(c, http.StatusOK, "Logged out", nil)
}

// setAuthCookie дублирует токен в httpOnly-cookie: браузерный клиент
// ходит с cookie, мобильный - с Bearer-заголовком
func setAuthCookie(c *gin.Context, token string) {
	ttl := config.GetConfig().JWT.TTL * 60
	c.SetCookie("auth_token", token, ttl, "/", "", false, true)
}
