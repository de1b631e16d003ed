package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-board-of-directors/backend/internal/models"
	"ai-board-of-directors/backend/internal/payment"
	"ai-board-of-directors/backend/internal/repository"
	"ai-board-of-directors/backend/pkg/logger"
)

var (
	ErrPaymentUnavailable   = errors.New("payment processing is currently unavailable")
	ErrNoEmail              = errors.New("no user email on file")
	ErrPaymentVerification  = errors.New("invalid payment verification")
	ErrMissingWebhookFields = errors.New("missing required fields")
	ErrPaymentGateway       = errors.New("payment provider request failed")
)

// Plan is a purchasable checkout.vn subscription
type Plan struct {
	Tier        string `json:"planType"`
	Name        string `json:"name"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

var plans = map[string]Plan{
	models.TierPremium: {
		Tier:        models.TierPremium,
		Name:        "Premium Plan",
		Amount:      99000,
		Description: "Premium subscription with unlimited board members and conversations",
	},
	models.TierPro: {
		Tier:        models.TierPro,
		Name:        "Pro Plan",
		Amount:      199000,
		Description: "Pro subscription with advanced features and priority support",
	},
}

// PlanFor returns the plan for a tier; anything unknown is premium
func PlanFor(tier string) Plan {
	if p, ok := plans[tier]; ok {
		return p
	}
	return plans[models.TierPremium]
}

// CheckoutGateway is satisfied by *payment.CheckoutVN
type CheckoutGateway interface {
	CreateTransaction(ctx context.Context, tx payment.Transaction) (*payment.CreateTransactionResponse, error)
	PaymentStatus(ctx context.Context, orderID string) (*payment.PaymentStatus, error)
	IsPaid(ctx context.Context, orderID string) (bool, error)
}

// StripeGateway is satisfied by *payment.Stripe
type StripeGateway interface {
	GetSubscription(ctx context.Context, id string) (*payment.StripeSubscription, error)
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	CreateSubscription(ctx context.Context, customerID string) (*payment.StripeSubscription, error)
}

// SubscriptionStatus is the GET /subscription payload
type SubscriptionStatus struct {
	HasSubscription   bool       `json:"hasSubscription"`
	Status            string     `json:"status"`
	PlanType          *string    `json:"planType"`
	Amount            *int64     `json:"amount"`
	Currency          string     `json:"currency,omitempty"`
	OrderID           string     `json:"orderId,omitempty"`
	LastPaymentStatus string     `json:"lastPaymentStatus,omitempty"`
	LastPaymentUpdate *time.Time `json:"lastPaymentUpdate,omitempty"`
}

// CheckoutResult is returned after starting (or confirming) a checkout.vn payment
type CheckoutResult struct {
	OrderID     string `json:"orderId"`
	PaymentURL  string `json:"paymentUrl,omitempty"`
	Status      string `json:"status"`
	PlanType    string `json:"planType"`
	Amount      int64  `json:"amount,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Description string `json:"description,omitempty"`
}

// WebhookEvent is the checkout.vn callback body
type WebhookEvent struct {
	OrderID       string `json:"order_id"`
	PaymentStatus string `json:"payment_status"`
	WebsiteID     int    `json:"website_id"`
}

// WebhookResult acknowledges a processed callback
type WebhookResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// SubscriptionService drives both payment providers and keeps the user's tier in sync
type SubscriptionService struct {
	users       repository.UserRepository
	checkout    CheckoutGateway
	stripe      StripeGateway
	frontendURL string
	log         *logger.Logger
	now         func() time.Time
}

// NewSubscriptionService wires the providers. Either gateway may be nil when it is not configured.
func NewSubscriptionService(users repository.UserRepository, checkout CheckoutGateway, stripe StripeGateway, frontendURL string, log *logger.Logger) *SubscriptionService {
	return &SubscriptionService{
		users:       users,
		checkout:    checkout,
		stripe:      stripe,
		frontendURL: frontendURL,
		log:         log,
		now:         time.Now,
	}
}

func (s *SubscriptionService) user(ctx context.Context, userID uint) (*models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// Status reports the stored subscription, reconciling it with checkout.vn when possible.
// A provider error leaves the stored status untouched.
func (s *SubscriptionService) Status(ctx context.Context, userID uint) (*SubscriptionStatus, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.CheckoutOrderID == "" {
		return &SubscriptionStatus{Status: models.SubscriptionNone}, nil
	}

	status := u.SubscriptionStatus
	if status == "" || status == models.SubscriptionNone {
		status = models.SubscriptionPending
	}

	if s.checkout != nil {
		paid, err := s.checkout.IsPaid(ctx, u.CheckoutOrderID)
		switch {
		case err != nil:
			s.log.LogError(err, "Failed to check payment status", "user_id", u.ID)
		case paid && status != models.SubscriptionActive:
			status = models.SubscriptionActive
			s.applyStatus(ctx, u, status, "")
		case !paid && status == models.SubscriptionActive:
			status = models.SubscriptionExpired
			s.applyStatus(ctx, u, status, "")
		}
	}

	plan := u.SubscriptionPlan
	if plan == "" {
		plan = models.TierPremium
	}
	amount := u.SubscriptionAmount
	if amount == 0 {
		amount = PlanFor(plan).Amount
	}

	return &SubscriptionStatus{
		HasSubscription:   true,
		Status:            status,
		PlanType:          &plan,
		Amount:            &amount,
		Currency:          "VND",
		OrderID:           u.CheckoutOrderID,
		LastPaymentStatus: u.LastPaymentStatus,
		LastPaymentUpdate: u.LastPaymentUpdate,
	}, nil
}

// Subscribe starts a checkout.vn payment for the plan, or confirms an already active one
func (s *SubscriptionService) Subscribe(ctx context.Context, userID uint, planType string) (*CheckoutResult, error) {
	if s.checkout == nil {
		return nil, ErrPaymentUnavailable
	}
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	plan := PlanFor(planType)

	if u.CheckoutOrderID != "" && u.SubscriptionStatus == models.SubscriptionActive {
		paid, err := s.checkout.IsPaid(ctx, u.CheckoutOrderID)
		if err != nil {
			s.log.LogError(err, "Failed to check existing subscription", "user_id", u.ID)
		} else if paid {
			current := u.SubscriptionPlan
			if current == "" {
				current = plan.Tier
			}
			return &CheckoutResult{OrderID: u.CheckoutOrderID, Status: models.SubscriptionActive, PlanType: current}, nil
		}
	}

	orderID := fmt.Sprintf("sub_%d_%d", u.ID, s.now().UnixMilli())
	tx, err := s.checkout.CreateTransaction(ctx, payment.Transaction{
		OrderID:       orderID,
		Amount:        plan.Amount,
		Description:   "Subscription: " + plan.Name,
		CustomerName:  u.Name,
		CustomerEmail: u.Email,
		SuccessURL:    s.frontendURL + "/subscription/success",
		CancelURL:     s.frontendURL + "/subscription/cancel",
		Items:         []payment.OrderItem{{Name: plan.Name, Quantity: 1, Price: plan.Amount}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create payment transaction: %w", ErrPaymentGateway, err)
	}

	err = s.users.UpdateFields(ctx, u.ID, map[string]any{
		"checkout_order_id":   orderID,
		"subscription_plan":   plan.Tier,
		"subscription_status": models.SubscriptionPending,
		"subscription_amount": plan.Amount,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Checkout started", "user_id", u.ID, "order_id", orderID, "plan", plan.Tier)
	return &CheckoutResult{
		OrderID:     orderID,
		PaymentURL:  tx.PaymentURL,
		Status:      models.SubscriptionPending,
		PlanType:    plan.Tier,
		Amount:      plan.Amount,
		Currency:    "VND",
		Description: plan.Description,
	}, nil
}

// WebhookStatus maps a checkout.vn payment_status onto a subscription status
func WebhookStatus(paymentStatus string) string {
	switch paymentStatus {
	case "success", "completed":
		return models.SubscriptionActive
	case "failed", "cancelled":
		return models.SubscriptionCancelled
	default:
		return models.SubscriptionPending
	}
}

// HandleWebhook verifies the order with checkout.vn and records the reported status
func (s *SubscriptionService) HandleWebhook(ctx context.Context, ev WebhookEvent) (*WebhookResult, error) {
	if ev.OrderID == "" || ev.PaymentStatus == "" {
		return nil, ErrMissingWebhookFields
	}
	if s.checkout == nil {
		return nil, ErrPaymentUnavailable
	}

	verified, err := s.checkout.PaymentStatus(ctx, ev.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: verify payment: %w", ErrPaymentGateway, err)
	}
	if verified == nil || verified.Error {
		return nil, ErrPaymentVerification
	}

	u, err := s.users.GetByCheckoutOrderID(ctx, ev.OrderID)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Warn("Webhook for unknown order", "order_id", ev.OrderID)
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	status := WebhookStatus(ev.PaymentStatus)
	if err := s.applyStatus(ctx, u, status, ev.PaymentStatus); err != nil {
		return nil, err
	}

	s.log.Info("Payment webhook processed", "user_id", u.ID, "order_id", ev.OrderID, "status", status)
	return &WebhookResult{Success: true, Message: "Webhook processed successfully", OrderID: ev.OrderID, Status: status}, nil
}

// applyStatus stores a new subscription status. Active grants the plan's tier, expiry or
// cancellation drops the user back to free.
func (s *SubscriptionService) applyStatus(ctx context.Context, u *models.User, status, paymentStatus string) error {
	now := s.now()
	fields := map[string]any{
		"subscription_status": status,
		"last_payment_update": now,
	}
	if paymentStatus != "" {
		fields["last_payment_status"] = paymentStatus
	}

	switch status {
	case models.SubscriptionActive:
		plan := u.SubscriptionPlan
		if plan == "" {
			plan = models.TierPremium
		}
		fields["subscription_tier"] = PlanFor(plan).Tier
	case models.SubscriptionExpired, models.SubscriptionCancelled:
		fields["subscription_tier"] = models.TierFree
	}

	if err := s.users.UpdateFields(ctx, u.ID, fields); err != nil {
		s.log.LogError(err, "Failed to update subscription", "user_id", u.ID)
		return err
	}
	return nil
}

// StripeSubscription returns the user's Stripe subscription, creating the customer and
// subscription on first use. A stored subscription that cannot be loaded is replaced.
func (s *SubscriptionService) StripeSubscription(ctx context.Context, userID uint) (*payment.StripeSubscription, error) {
	if s.stripe == nil {
		return nil, ErrPaymentUnavailable
	}
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	if u.StripeSubscriptionID != "" {
		sub, err := s.stripe.GetSubscription(ctx, u.StripeSubscriptionID)
		if err == nil {
			return sub, nil
		}
		s.log.LogError(err, "Failed to load stored Stripe subscription, creating a new one", "user_id", u.ID)
	}

	if u.Email == "" {
		return nil, ErrNoEmail
	}

	customerID := u.StripeCustomerID
	if customerID == "" {
		customerID, err = s.stripe.CreateCustomer(ctx, u.Email, u.Name)
		if err != nil {
			return nil, err
		}
	}

	sub, err := s.stripe.CreateSubscription(ctx, customerID)
	if err != nil {
		return nil, err
	}

	err = s.users.UpdateFields(ctx, u.ID, map[string]any{
		"stripe_customer_id":     customerID,
		"stripe_subscription_id": sub.SubscriptionID,
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}
