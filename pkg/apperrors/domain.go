package apperrors

import (
	"net/http"
)

/*
Фабрики для доменных ошибок чата и уведомлений.
Репозитории возвращают gorm-ошибки, сервисы оборачивают их сюда.
*/

// ErrNotFound - фабрика для ошибки "не найдено" (404).
// Используется, когда ошибка репозитория (типа gorm.ErrRecordNotFound)
// должна быть преобразована в AppError.
func ErrNotFound(err error, domain, message string) *AppError {
	return Wrap(err, CodeNotFound, domain, message)
}

// ErrAlreadyExists - фабрика для ошибки "уже существует" (409)
func ErrAlreadyExists(err error, domain, message string) *AppError {
	return Wrap(err, CodeAlreadyExists, domain, message)
}

// ErrInvalidOperation - фабрика для невалидных операций (400)
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// --- Предопределенные ошибки ядра сообщений/уведомлений ---

// ErrConversationNotFound - диалог не существует
var ErrConversationNotFound = New(CodeNotFound, "chat", "Conversation not found", http.StatusNotFound)

// ErrNotParticipant - пользователь не является участником диалога
var ErrNotParticipant = New(CodeForbidden, "chat", "You are not a participant of this conversation", http.StatusForbidden)

// ErrSelfConversation - нельзя открыть диалог с самим собой
var ErrSelfConversation = New(CodeInvalidOperation, "chat", "Cannot start a conversation with yourself", http.StatusBadRequest)

// ErrEmptyMessageText - пустой текст сообщения
var ErrEmptyMessageText = New(CodeValidationFailed, "chat", "Message text is required", http.StatusBadRequest)

// ErrMessageTooLong - превышен лимит длины текста
var ErrMessageTooLong = New(CodeValidationFailed, "chat", "Message text exceeds the maximum length", http.StatusBadRequest)

// ErrNotificationNotFound - уведомление не существует или принадлежит другому пользователю
var ErrNotificationNotFound = New(CodeNotFound, "notifications", "Notification not found", http.StatusNotFound)

// ErrUnknownNotificationType - тип вне словаря уведомлений
var ErrUnknownNotificationType = New(CodeValidationFailed, "notifications", "Unknown notification type", http.StatusBadRequest)

// ErrInvalidCredentials - неверная пара email/пароль
var ErrInvalidCredentials = New(CodeInvalidCredentials, "auth", "Invalid email or password", http.StatusUnauthorized)
