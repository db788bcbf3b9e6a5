package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wellnexa/cart-service/pkg/httpclient"
)

// HTTPDoer is the interface for executing HTTP requests. Both
// httpclient.Client and httpclient.CircuitBreakerClient satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Product holds the live attributes the product service reports for an item.
// Price is in cents.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Category string `json:"category"`
	ImageURL string `json:"image_url"`
}

// ProductClient looks up products in the product service.
type ProductClient struct {
	http    HTTPDoer
	baseURL string
}

// NewProductClient creates a product lookup client against the given base URL.
func NewProductClient(http HTTPDoer, baseURL string) *ProductClient {
	return &ProductClient{http: http, baseURL: baseURL}
}

// GetByID fetches the product with the given ID. An absent product is
// reported as (nil, nil) so callers can distinguish "not found" from a
// failed lookup.
func (c *ProductClient) GetByID(ctx context.Context, productID string) (*Product, error) {
	url := c.baseURL + "/api/v1/products/" + productID

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create product request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call product service: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "product")
	}
	defer resp.Body.Close()

	var envelope struct {
		Data Product `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode product response: %w", err)
	}

	return &envelope.Data, nil
}
