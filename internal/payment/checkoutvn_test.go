package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCheckout(t *testing.T, handler http.HandlerFunc) *CheckoutVN {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewCheckoutVN(CheckoutVNConfig{APIToken: "tok", WebsiteID: 7, GateID: 3, BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestNewCheckoutVNRequiresConfig(t *testing.T) {
	_, err := NewCheckoutVN(CheckoutVNConfig{APIToken: "tok"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCreateTransaction(t *testing.T) {
	var got createTransactionRequest
	c := newTestCheckout(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/transaction/create", r.URL.Path)
		assert.Equal(t, "tok", r.Header.Get("Token"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(CreateTransactionResponse{ID: 42, PaymentURL: "https://pay.example/42"})
	})

	resp, err := c.CreateTransaction(context.Background(), Transaction{
		OrderID: "sub_1_1000",
		Amount:  99000,
		Items:   []OrderItem{{Name: "Premium Plan", Quantity: 1, Price: 99000}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.ID)
	assert.Equal(t, "https://pay.example/42", resp.PaymentURL)

	assert.Equal(t, 7, got.WebsiteID)
	assert.Equal(t, 3, got.GateID)
	assert.Equal(t, "VND", got.Currency)
	assert.Equal(t, 0, got.Status)
	assert.Equal(t, "Payment for order sub_1_1000", got.Description)
}

func TestCreateTransactionProviderError(t *testing.T) {
	c := newTestCheckout(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(CreateTransactionResponse{Error: true, Msg: "gate disabled"})
	})

	_, err := c.CreateTransaction(context.Background(), Transaction{OrderID: "x", Amount: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gate disabled")
}

func TestIsPaid(t *testing.T) {
	status := PaidStatus
	c := newTestCheckout(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		var body paymentStatusRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "42", body.OrderID)
		_ = json.NewEncoder(w).Encode(PaymentStatus{PaymentStatus: status})
	})

	paid, err := c.IsPaid(context.Background(), "42")
	require.NoError(t, err)
	assert.True(t, paid)

	status = "0"
	paid, err = c.IsPaid(context.Background(), "42")
	require.NoError(t, err)
	assert.False(t, paid)
}

func TestCheckoutHTTPError(t *testing.T) {
	c := newTestCheckout(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.PaymentStatus(context.Background(), "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
