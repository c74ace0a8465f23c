package models

// User - учетная запись пользователя.
// Ядро сообщений/уведомлений использует User только как участника
// и как проекцию актора (id, username, аватар).
type User struct {
	BaseModel
	Username       string `gorm:"not null" json:"username"`
	Email          string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string `gorm:"not null" json:"-"`
	ProfilePicture string `json:"profile_picture"`
}
