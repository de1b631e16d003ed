// Package payment holds the clients for the two payment providers: checkout.vn for VND
// subscriptions and Stripe for card subscriptions.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured is returned when a provider has no credentials
var ErrNotConfigured = errors.New("payment provider not configured")

// PaidStatus is the payment_status checkout.vn reports for a settled order
const PaidStatus = "1"

// CheckoutVNConfig configures the checkout.vn client
type CheckoutVNConfig struct {
	APIToken  string
	WebsiteID int
	GateID    int
	BaseURL   string
	Timeout   time.Duration
}

// OrderItem is one line of a checkout.vn transaction
type OrderItem struct {
	Name     string `json:"item_name"`
	Quantity int    `json:"item_quantity"`
	Price    int64  `json:"item_price"`
}

// Transaction describes a payment to create
type Transaction struct {
	OrderID       string
	Amount        int64
	Currency      string
	Description   string
	CustomerName  string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Items         []OrderItem
}

type createTransactionRequest struct {
	WebsiteID    int         `json:"website_id"`
	OrderID      string      `json:"order_id"`
	Description  string      `json:"description,omitempty"`
	PayMoney     int64       `json:"pay_money"`
	Currency     string      `json:"currency"`
	ContactName  string      `json:"contact_name,omitempty"`
	ContactEmail string      `json:"contact_email,omitempty"`
	Status       int         `json:"status"`
	GateID       int         `json:"gate_id"`
	URLThanks    string      `json:"url_thanks,omitempty"`
	URLCancel    string      `json:"url_cancel,omitempty"`
	OrderItems   []OrderItem `json:"order_items"`
}

// CreateTransactionResponse is checkout.vn's answer to a create call
type CreateTransactionResponse struct {
	Error      bool   `json:"error"`
	ID         int64  `json:"id,omitempty"`
	Msg        string `json:"msg"`
	PaymentURL string `json:"payment_url,omitempty"`
}

type paymentStatusRequest struct {
	OrderID   string `json:"order_id"`
	WebsiteID int    `json:"website_id"`
}

// PaymentStatus is the state of one order
type PaymentStatus struct {
	Error              bool   `json:"error"`
	Msg                string `json:"msg"`
	Code               int    `json:"code"`
	PaymentStatus      string `json:"payment_status,omitempty"`
	PaymentTransaction string `json:"payment_transaction,omitempty"`
	PaymentMethod      string `json:"payment_method,omitempty"`
	PaymentMoney       int64  `json:"payment_money,omitempty"`
	PaymentTime        string `json:"payment_time,omitempty"`
}

// CheckoutVN is a checkout.vn REST client
type CheckoutVN struct {
	cfg        CheckoutVNConfig
	httpClient *http.Client
}

// NewCheckoutVN creates a client. Token, website and gate are all required.
func NewCheckoutVN(cfg CheckoutVNConfig) (*CheckoutVN, error) {
	if cfg.APIToken == "" || cfg.WebsiteID == 0 || cfg.GateID == 0 {
		return nil, ErrNotConfigured
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://checkout.vn"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &CheckoutVN{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}, nil
}

// CreateTransaction registers an unpaid order and returns the hosted payment URL
func (c *CheckoutVN) CreateTransaction(ctx context.Context, tx Transaction) (*CreateTransactionResponse, error) {
	currency := tx.Currency
	if currency == "" {
		currency = "VND"
	}
	description := tx.Description
	if description == "" {
		description = "Payment for order " + tx.OrderID
	}

	body := createTransactionRequest{
		WebsiteID:    c.cfg.WebsiteID,
		OrderID:      tx.OrderID,
		Description:  description,
		PayMoney:     tx.Amount,
		Currency:     currency,
		ContactName:  tx.CustomerName,
		ContactEmail: tx.CustomerEmail,
		Status:       0,
		GateID:       c.cfg.GateID,
		URLThanks:    tx.SuccessURL,
		URLCancel:    tx.CancelURL,
		OrderItems:   tx.Items,
	}

	var out CreateTransactionResponse
	if err := c.do(ctx, http.MethodPost, "/api/transaction/create", body, &out); err != nil {
		return nil, err
	}
	if out.Error {
		msg := out.Msg
		if msg == "" {
			msg = "failed to create payment transaction"
		}
		return &out, fmt.Errorf("checkout.vn: %s", msg)
	}
	return &out, nil
}

// PaymentStatus fetches the state of an order. The API expects a JSON body on GET.
func (c *CheckoutVN) PaymentStatus(ctx context.Context, orderID string) (*PaymentStatus, error) {
	var out PaymentStatus
	err := c.do(ctx, http.MethodGet, "/api/v1/getPaymentStatus", paymentStatusRequest{
		OrderID:   orderID,
		WebsiteID: c.cfg.WebsiteID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// IsPaid reports whether the order has settled
func (c *CheckoutVN) IsPaid(ctx context.Context, orderID string) (bool, error) {
	st, err := c.PaymentStatus(ctx, orderID)
	if err != nil {
		return false, err
	}
	return !st.Error && st.PaymentStatus == PaidStatus, nil
}

func (c *CheckoutVN) do(ctx context.Context, method, path string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Token", c.cfg.APIToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making checkout.vn request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("checkout.vn returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("error unmarshaling response: %w", err)
	}
	return nil
}
