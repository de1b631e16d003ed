package api

import (
	"net/http"

	"ai-board-of-directors/backend/internal/service"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	service *service.SubscriptionService
}

func NewSubscriptionHandler(service *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

func (h *SubscriptionHandler) Status(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	status, err := h.service.Status(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Create starts a checkout.vn payment for {"planType": "premium"|"pro"}
func (h *SubscriptionHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		PlanType string `json:"planType"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "INVALID_REQUEST", "Invalid request format")
			return
		}
	}

	result, err := h.service.Subscribe(c.Request.Context(), userID, req.PlanType)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Stripe returns the client secret for the user's card subscription
func (h *SubscriptionHandler) Stripe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	sub, err := h.service.StripeSubscription(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptionId": sub.SubscriptionID, "clientSecret": sub.ClientSecret})
}

// Webhook is called by checkout.vn; it is not authenticated, the order is verified upstream instead
func (h *SubscriptionHandler) Webhook(c *gin.Context) {
	var ev service.WebhookEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		badRequest(c, "INVALID_REQUEST", "Invalid request format")
		return
	}

	result, err := h.service.HandleWebhook(c.Request.Context(), ev)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
