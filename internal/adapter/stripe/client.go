// Package stripe implements the payments port against the hosted payment API
// used for boost micro-transactions.
package stripe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Huzai911/workspaced/internal/port/payments"
	"github.com/Huzai911/workspaced/internal/resilience"
)

// Client talks to the payment API.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a payment client.
func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

type checkoutRequest struct {
	Reference string `json:"reference"`
	AmountUSD int64  `json:"amount_cents"`
	Purpose   string `json:"purpose"`
}

type checkoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type confirmResponse struct {
	Paid bool `json:"paid"`
}

// CreateBoostCheckout opens a checkout session for a boost purchase. Amounts
// are sent in cents.
func (c *Client) CreateBoostCheckout(ctx context.Context, boostID string, amountUSD float64) (*payments.CheckoutSession, error) {
	body, err := json.Marshal(checkoutRequest{
		Reference: boostID,
		AmountUSD: int64(amountUSD*100 + 0.5),
		Purpose:   "agent-boost",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal checkout: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/v1/checkout/sessions", body)
	if err != nil {
		return nil, fmt.Errorf("create checkout: %w", err)
	}

	var result checkoutResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal checkout: %w", err)
	}
	return &payments.CheckoutSession{SessionID: result.SessionID, URL: result.URL}, nil
}

// ConfirmPayment reports whether the checkout session has been paid.
func (c *Client) ConfirmPayment(ctx context.Context, sessionID string) (bool, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/v1/checkout/sessions/"+sessionID, nil)
	if err != nil {
		return false, fmt.Errorf("confirm payment: %w", err)
	}

	var result confirmResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return false, fmt.Errorf("unmarshal confirm: %w", err)
	}
	return result.Paid, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.secretKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("payment API error %d: %s", resp.StatusCode, string(data))
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}
