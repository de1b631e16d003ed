package api

import (
	"net/http"

	"ai-board-of-directors/backend/internal/translation"

	"github.com/gin-gonic/gin"
)

type translateRequest struct {
	Words []string `json:"words" binding:"required,max=200"`
}

type TranslateHandler struct {
	translator *translation.Service
}

func NewTranslateHandler(translator *translation.Service) *TranslateHandler {
	return &TranslateHandler{translator: translator}
}

// Translate returns a translation for every word in the request
func (h *TranslateHandler) Translate(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", "Words array is required")
		return
	}

	c.JSON(http.StatusOK, gin.H{"translations": h.translator.Translate(c.Request.Context(), req.Words)})
}
