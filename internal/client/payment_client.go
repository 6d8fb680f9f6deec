package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNoPayURL means the payment service accepted the request but returned no
// redirect URL, so the browser has nowhere to go.
var ErrNoPayURL = errors.New("payment service returned no payUrl")

type paymentRequest struct {
	OrderInfo string  `json:"orderInfo"`
	Amount    float64 `json:"amount"`
}

type paymentResponse struct {
	PayURL string `json:"payUrl"`
}

// PaymentClient asks the payment service for a gateway redirect URL. The
// gateway later sends the browser back with a result code in the query
// string; that half of the round-trip is handled by reconciliation.
type PaymentClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewPaymentClient(baseURL string) *PaymentClient {
	return &PaymentClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *PaymentClient) CreateRedirect(ctx context.Context, orderInfo string, amount float64) (string, error) {
	body, err := json.Marshal(paymentRequest{OrderInfo: orderInfo, Amount: amount})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("payment service returned status %d", resp.StatusCode)
	}

	var result paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding payment response: %w", err)
	}
	if result.PayURL == "" {
		return "", ErrNoPayURL
	}

	return result.PayURL, nil
}
