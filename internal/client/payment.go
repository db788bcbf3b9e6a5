package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wellnexa/cart-service/pkg/httpclient"
)

// CreateSessionRequest is the payload sent to the payment service to open a
// checkout session. Amount is in cents.
type CreateSessionRequest struct {
	UserID      string `json:"user_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	SuccessURL  string `json:"success_url"`
	CancelURL   string `json:"cancel_url"`
}

// Session is a checkout session opened at the payment provider.
type Session struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// PaymentClient creates checkout sessions through the payment service.
type PaymentClient struct {
	http    HTTPDoer
	baseURL string
}

// NewPaymentClient creates a payment client against the given base URL.
func NewPaymentClient(http HTTPDoer, baseURL string) *PaymentClient {
	return &PaymentClient{http: http, baseURL: baseURL}
}

// CreateSession opens a checkout session for the given request.
func (c *PaymentClient) CreateSession(ctx context.Context, reqBody CreateSessionRequest) (*Session, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal session request: %w", err)
	}

	url := c.baseURL + "/api/v1/payments/sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call payment service: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, httpclient.ParseResponseError(resp, "payment")
	}
	defer resp.Body.Close()

	var envelope struct {
		Data Session `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}

	return &envelope.Data, nil
}
