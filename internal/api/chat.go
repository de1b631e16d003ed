package api

import (
	"net/http"

	"ai-board-of-directors/backend/internal/models"
	"ai-board-of-directors/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// SendMessageRequest is the body of POST /chat/send
type SendMessageRequest struct {
	ConversationID uint   `json:"conversationId"`
	Content        string `json:"content"`
	PersonaIDs     []uint `json:"personaIds"`
	// BoardMemberIDs is accepted for older clients
	BoardMemberIDs []uint `json:"boardMemberIds"`
	MessageType    string `json:"messageType"`
	FileURL        string `json:"fileUrl"`
	Metadata       *struct {
		MimeType     string `json:"mimeType"`
		Size         int64  `json:"size"`
		OriginalName string `json:"originalName"`
	} `json:"metadata"`
}

func (r *SendMessageRequest) toSubmit(userID uint) service.SubmitRequest {
	ids := r.PersonaIDs
	if len(ids) == 0 {
		ids = r.BoardMemberIDs
	}

	req := service.SubmitRequest{
		UserID:         userID,
		ConversationID: r.ConversationID,
		Content:        r.Content,
		Kind:           r.MessageType,
		PersonaIDs:     ids,
	}
	if r.FileURL != "" {
		req.Attachment = &models.Attachment{URL: r.FileURL}
		if r.Metadata != nil {
			req.Attachment.MimeType = r.Metadata.MimeType
			req.Attachment.Size = r.Metadata.Size
			req.Attachment.OriginalName = r.Metadata.OriginalName
		}
	}
	return req
}

// ChatHandler is the request/response delivery of the board fan-out
type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Send stores the message and answers once every board member has replied or failed
func (h *ChatHandler) Send(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", "Invalid request format")
		return
	}

	result, err := h.chat.SubmitMessage(c.Request.Context(), req.toSubmit(userID))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
