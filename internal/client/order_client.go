// Package client holds the HTTP clients for the external collaborators: the
// order backend, the product catalog and the payment gateway.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pos-cart-service/internal/entity"
)

// ErrBackendUnavailable wraps transport-level failures (connection refused,
// request timeout) so callers can tell them apart from contract errors.
var ErrBackendUnavailable = errors.New("order backend unavailable")

const requestTimeout = 10 * time.Second

// OrderClient talks to the order backend that owns persistent order state.
type OrderClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOrderClient(baseURL string) *OrderClient {
	return &OrderClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// CreateOrder persists a new order and returns the backend-assigned identity.
func (c *OrderClient) CreateOrder(ctx context.Context, payload entity.OrderSubmit, idempotentKey string) (*entity.SubmitResult, error) {
	return c.submit(ctx, http.MethodPost, fmt.Sprintf("%s/api/orders", c.baseURL), payload, idempotentKey)
}

// UpdateOrder overwrites an already persisted order.
func (c *OrderClient) UpdateOrder(ctx context.Context, orderID int, payload entity.OrderSubmit, idempotentKey string) (*entity.SubmitResult, error) {
	return c.submit(ctx, http.MethodPut, fmt.Sprintf("%s/api/orders/%d", c.baseURL, orderID), payload, idempotentKey)
}

func (c *OrderClient) submit(ctx context.Context, method, url string, payload entity.OrderSubmit, idempotentKey string) (*entity.SubmitResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotentKey != "" {
		req.Header.Set("Idempotent-Key", idempotentKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("order backend returned status %d", resp.StatusCode)
	}

	var result entity.SubmitResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding order backend response: %w", err)
	}

	return &result, nil
}

// GetOrder fetches the authoritative order record, used by payment
// reconciliation after the gateway redirect returns.
func (c *OrderClient) GetOrder(ctx context.Context, orderID int) (*entity.OrderRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/orders/%d", c.baseURL, orderID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("order backend returned status %d", resp.StatusCode)
	}

	var record entity.OrderRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("decoding order record: %w", err)
	}

	return &record, nil
}
