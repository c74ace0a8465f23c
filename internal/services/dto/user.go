package dto

import "ksocial_backend/internal/models"

// UserProjection - минимальная проекция пользователя для чата и уведомлений
type UserProjection struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

func ProjectUser(user *models.User) UserProjection {
	if user == nil {
		return UserProjection{}
	}
	return UserProjection{
		ID:             user.ID,
		Username:       user.Username,
		ProfilePicture: user.ProfilePicture,
	}
}
