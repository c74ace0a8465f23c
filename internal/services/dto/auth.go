package dto

// RegisterRequest - body POST /auth/register
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest - body POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse - выданный токен + проекция пользователя
type AuthResponse struct {
	AccessToken string         `json:"access_token"`
	User        UserProjection `json:"user"`
}
