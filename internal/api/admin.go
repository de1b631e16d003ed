package api

import (
	"net/http"
	"strings"

	"ai-board-of-directors/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the admin-only settings and analytics routes
type AdminHandler struct {
	service *service.AdminService
}

func NewAdminHandler(service *service.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) Settings(c *gin.Context) {
	settings, err := h.service.Settings(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		badRequest(c, "INVALID_KEY", "Setting key is required")
		return
	}

	var req struct {
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", "Invalid request format")
		return
	}

	setting, err := h.service.UpdateSetting(c.Request.Context(), key, req.Value)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

func (h *AdminHandler) Analytics(c *gin.Context) {
	a, err := h.service.Analytics(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
