package api

import (
	"net/http"

	"ai-board-of-directors/backend/internal/models"
	"ai-board-of-directors/backend/internal/persona"
	"ai-board-of-directors/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// BoardMemberHandler serves the user's board
type BoardMemberHandler struct {
	service *service.BoardMemberService
}

func NewBoardMemberHandler(service *service.BoardMemberService) *BoardMemberHandler {
	return &BoardMemberHandler{service: service}
}

// List returns the active board members, oldest first
func (h *BoardMemberHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	members, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *BoardMemberHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.CreateBoardMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", "Name and personality are required")
		return
	}

	member, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (h *BoardMemberHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateBoardMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", "Invalid request format")
		return
	}

	member, err := h.service.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// Delete deactivates a member; its past replies stay readable
func (h *BoardMemberHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Initialize seeds the default board for a user with no active members
func (h *BoardMemberHandler) Initialize(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	members, created, err := h.service.InitializeDefaults(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}

	message := "Board members already initialized"
	if created {
		message = "Default board members created successfully"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "members": members})
}

type personalityResponse struct {
	Type        persona.Kind `json:"type"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	AvatarURL   string       `json:"avatarUrl"`
}

// Personalities lists the built-in templates
func (h *BoardMemberHandler) Personalities(c *gin.Context) {
	templates := persona.Templates()
	out := make([]personalityResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, personalityResponse{Type: t.Kind, Name: t.Name, Description: t.Description, AvatarURL: t.AvatarURL})
	}
	c.JSON(http.StatusOK, out)
}
