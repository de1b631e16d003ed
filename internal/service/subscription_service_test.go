package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-board-of-directors/backend/internal/models"
	"ai-board-of-directors/backend/internal/payment"
	"ai-board-of-directors/backend/internal/repository"
	"ai-board-of-directors/backend/internal/testutil"
	"ai-board-of-directors/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCheckout struct {
	paid      bool
	statusErr error
	verifyErr bool
	created   []payment.Transaction
}

func (f *fakeCheckout) CreateTransaction(_ context.Context, tx payment.Transaction) (*payment.CreateTransactionResponse, error) {
	f.created = append(f.created, tx)
	return &payment.CreateTransactionResponse{ID: 1, PaymentURL: "https://pay.example/" + tx.OrderID}, nil
}

func (f *fakeCheckout) PaymentStatus(_ context.Context, _ string) (*payment.PaymentStatus, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &payment.PaymentStatus{Error: f.verifyErr}, nil
}

func (f *fakeCheckout) IsPaid(_ context.Context, _ string) (bool, error) {
	return f.paid, f.statusErr
}

type fakeStripe struct {
	getErr    error
	customers int
	subs      int
}

func (f *fakeStripe) GetSubscription(_ context.Context, id string) (*payment.StripeSubscription, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &payment.StripeSubscription{SubscriptionID: id, ClientSecret: "existing_secret"}, nil
}

func (f *fakeStripe) CreateCustomer(_ context.Context, _, _ string) (string, error) {
	f.customers++
	return "cus_new", nil
}

func (f *fakeStripe) CreateSubscription(_ context.Context, customerID string) (*payment.StripeSubscription, error) {
	f.subs++
	return &payment.StripeSubscription{SubscriptionID: "sub_new", CustomerID: customerID, ClientSecret: "new_secret"}, nil
}

func TestSubscribeAndWebhook(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := repository.NewGormUserRepository(db)
	checkout := &fakeCheckout{}
	svc := NewSubscriptionService(users, checkout, nil, "https://app.example", logger.Discard())
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	u := testutil.CreateUser(t, db, "pay@example.com", models.TierFree)

	st, err := svc.Status(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, st.HasSubscription)
	assert.Equal(t, models.SubscriptionNone, st.Status)
	assert.Nil(t, st.PlanType)

	res, err := svc.Subscribe(ctx, u.ID, "pro")
	require.NoError(t, err)
	assert.Equal(t, "sub_1_1700000000000", res.OrderID)
	assert.Equal(t, int64(199000), res.Amount)
	assert.Equal(t, models.SubscriptionPending, res.Status)
	require.Len(t, checkout.created, 1)
	assert.Equal(t, "https://app.example/subscription/success", checkout.created[0].SuccessURL)

	_, err = svc.HandleWebhook(ctx, WebhookEvent{OrderID: "unknown", PaymentStatus: "success"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	wh, err := svc.HandleWebhook(ctx, WebhookEvent{OrderID: res.OrderID, PaymentStatus: "completed"})
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, wh.Status)

	stored, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TierPro, stored.SubscriptionTier)
	assert.Equal(t, models.SubscriptionActive, stored.SubscriptionStatus)
	assert.Equal(t, "completed", stored.LastPaymentStatus)

	// provider now reports unpaid, so the status poll expires the plan
	st, err = svc.Status(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionExpired, st.Status)
	stored, err = users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TierFree, stored.SubscriptionTier)
}

func TestWebhookValidation(t *testing.T) {
	db := testutil.NewDB(t)
	checkout := &fakeCheckout{verifyErr: true}
	svc := NewSubscriptionService(repository.NewGormUserRepository(db), checkout, nil, "", logger.Discard())

	_, err := svc.HandleWebhook(context.Background(), WebhookEvent{OrderID: "x"})
	assert.ErrorIs(t, err, ErrMissingWebhookFields)

	_, err = svc.HandleWebhook(context.Background(), WebhookEvent{OrderID: "x", PaymentStatus: "success"})
	assert.ErrorIs(t, err, ErrPaymentVerification)

	checkout.statusErr = errors.New("connection refused")
	_, err = svc.HandleWebhook(context.Background(), WebhookEvent{OrderID: "x", PaymentStatus: "success"})
	assert.ErrorIs(t, err, ErrPaymentGateway)
	assert.ErrorIs(t, err, checkout.statusErr)
}

func TestWebhookStatus(t *testing.T) {
	assert.Equal(t, models.SubscriptionActive, WebhookStatus("success"))
	assert.Equal(t, models.SubscriptionActive, WebhookStatus("completed"))
	assert.Equal(t, models.SubscriptionCancelled, WebhookStatus("failed"))
	assert.Equal(t, models.SubscriptionCancelled, WebhookStatus("cancelled"))
	assert.Equal(t, models.SubscriptionPending, WebhookStatus("processing"))
}

func TestStatusKeepsStoredStateOnProviderError(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := repository.NewGormUserRepository(db)
	u := testutil.CreateUser(t, db, "err@example.com", models.TierPremium)
	require.NoError(t, users.UpdateFields(ctx, u.ID, map[string]any{
		"checkout_order_id":   "sub_x",
		"subscription_status": models.SubscriptionActive,
	}))

	svc := NewSubscriptionService(users, &fakeCheckout{statusErr: errors.New("down")}, nil, "", logger.Discard())
	st, err := svc.Status(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, st.Status)
	assert.Equal(t, int64(99000), *st.Amount)
}

func TestPaymentUnavailable(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewSubscriptionService(repository.NewGormUserRepository(db), nil, nil, "", logger.Discard())
	u := testutil.CreateUser(t, db, "none@example.com", models.TierFree)

	_, err := svc.Subscribe(context.Background(), u.ID, "premium")
	assert.ErrorIs(t, err, ErrPaymentUnavailable)
	_, err = svc.StripeSubscription(context.Background(), u.ID)
	assert.ErrorIs(t, err, ErrPaymentUnavailable)
}

func TestStripeSubscription(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := repository.NewGormUserRepository(db)
	fake := &fakeStripe{}
	svc := NewSubscriptionService(users, nil, fake, "", logger.Discard())
	u := testutil.CreateUser(t, db, "card@example.com", models.TierFree)

	sub, err := svc.StripeSubscription(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new_secret", sub.ClientSecret)
	assert.Equal(t, 1, fake.customers)

	// second call finds the stored subscription
	sub, err = svc.StripeSubscription(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "existing_secret", sub.ClientSecret)
	assert.Equal(t, 1, fake.subs)

	// a stale subscription is replaced, reusing the customer
	fake.getErr = errors.New("no such subscription")
	sub, err = svc.StripeSubscription(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "sub_new", sub.SubscriptionID)
	assert.Equal(t, 1, fake.customers)
	assert.Equal(t, 2, fake.subs)

	_, err = svc.StripeSubscription(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
