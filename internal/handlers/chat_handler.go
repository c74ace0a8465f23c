package handlers

import (
	"net/http"
	"strconv"
	"time"

	chatservice "ksocial_backend/internal/services/chat"
	"ksocial_backend/internal/services/dto"
	"ksocial_backend/internal/validator"
	"ksocial_backend/pkg/apperrors"
	"ksocial_backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	BaseHandler
	chatService chatservice.Service
}

func NewChatHandler(chatService chatservice.Service, v *validator.Validator) *ChatHandler {
	return &ChatHandler{
		BaseHandler: NewBaseHandler(v),
		chatService: chatService,
	}
}

// CreateConversation - POST /api/v1/chat/conversations.
// Идемпотентна: повторный вызов с тем же партнером возвращает
// существующий диалог со статусом 200.
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	var req dto.CreateConversationRequest
	if !h.BindAndValidate(c, &req) {
		return
	}

	conv, created, err := h.chatService.FindOrCreateConversation(c.Request.Context(), userID, req.PartnerID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	if created {
		response.Send(c, http.StatusCreated, "Conversation created", conv)
		return
	}
	response.Send(c, http.StatusOK, "Conversation found", conv)
}

// ListConversations - GET /api/v1/chat/conversations
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	conversations, err := h.chatService.ListConversations(c.Request.Context(), userID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	response.Send(c, http.StatusOK, "Conversations retrieved", conversations)
}

// GetMessages - GET /api/v1/chat/conversations/:conversationId/messages?limit=&before=
func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	input := chatservice.HistoryInput{
		ConversationID: c.Param("conversationId"),
		RequesterID:    userID,
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid limit parameter"))
			return
		}
		input.Limit = limit
	}

	if raw := c.Query("before"); raw != "" {
		before, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid before parameter, expected RFC3339 timestamp"))
			return
		}
		input.Before = &before
	}

	messages, err := h.chatService.GetMessages(c.Request.Context(), input)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	response.Send(c, http.StatusOK, "Messages retrieved", messages)
}

// SendMessage - POST /api/v1/chat/messages/:conversationId
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if !h.BindAndValidate(c, &req) {
		return
	}

	message, err := h.chatService.SendMessage(c.Request.Context(), chatservice.SendMessageInput{
		ConversationID: c.Param("conversationId"),
		SenderID:       userID,
		Text:           req.Text,
		TempID:         req.TempID,
	})
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	response.Send(c, http.StatusCreated, "Message sent", message)
}
