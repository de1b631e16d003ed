package api

import (
	"net/http"
	"strconv"

	"ai-board-of-directors/backend/internal/models"
	"ai-board-of-directors/backend/internal/service"

	"github.com/gin-gonic/gin"
)

type ConversationHandler struct {
	service *service.ConversationService
}

func NewConversationHandler(service *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// List returns the user's conversations, most recently active first
func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	convs, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

func (h *ConversationHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.CreateConversationRequest
	// an empty body is fine, the title defaults
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "INVALID_REQUEST", "Invalid request format")
			return
		}
	}

	conv, err := h.service.Create(c.Request.Context(), userID, req.Title)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

// Messages returns the conversation log; ?limit=N returns only the last N
func (h *ConversationHandler) Messages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	convID, ok := idParam(c, "id")
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "INVALID_LIMIT", "limit must be a non-negative number")
			return
		}
		limit = n
	}

	msgs, err := h.service.Messages(c.Request.Context(), userID, convID, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}
