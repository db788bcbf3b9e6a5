package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wellnexa/cart-service/pkg/httpclient"
)

// UserClient checks user existence against the user service.
type UserClient struct {
	http    HTTPDoer
	baseURL string
}

// NewUserClient creates a user lookup client against the given base URL.
func NewUserClient(http HTTPDoer, baseURL string) *UserClient {
	return &UserClient{http: http, baseURL: baseURL}
}

// Exists reports whether a user with the given ID exists.
func (c *UserClient) Exists(ctx context.Context, userID string) (bool, error) {
	url := c.baseURL + "/api/v1/users/" + userID + "/exists"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return false, fmt.Errorf("create user request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return false, fmt.Errorf("call user service: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, httpclient.ParseResponseError(resp, "user")
	}
	defer resp.Body.Close()

	var envelope struct {
		Data struct {
			Exists bool `json:"exists"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return false, fmt.Errorf("decode user response: %w", err)
	}

	return envelope.Data.Exists, nil
}
