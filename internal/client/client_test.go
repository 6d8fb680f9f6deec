package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-cart-service/internal/entity"
)

func TestOrderClientCreateOrder(t *testing.T) {
	var gotPath, gotMethod, gotKey string
	var gotPayload entity.OrderSubmit

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotKey = r.Header.Get("Idempotent-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		json.NewEncoder(w).Encode(entity.SubmitResult{
			OrderID: 17, Code: "DH-17", Status: entity.StatusCompleted, CreatedAt: "2026-09-01T10:00:00Z",
		})
	}))
	defer srv.Close()

	c := NewOrderClient(srv.URL)
	payload := entity.OrderSubmit{
		Total:         253000,
		Status:        entity.StatusCompleted,
		PaymentMethod: entity.MethodCash,
		CustomerName:  "Khách lẻ",
	}
	result, err := c.CreateOrder(context.Background(), payload, "key-1")

	require.NoError(t, err)
	assert.Equal(t, "/api/orders", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "key-1", gotKey)
	assert.Equal(t, payload, gotPayload)
	assert.Equal(t, 17, result.OrderID)
	assert.Equal(t, entity.StatusCompleted, result.Status)
}

func TestOrderClientUpdateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders/17", r.URL.Path)
		assert.Equal(t, http.MethodPut, r.Method)
		json.NewEncoder(w).Encode(entity.SubmitResult{OrderID: 17, Status: entity.StatusDraft})
	}))
	defer srv.Close()

	result, err := NewOrderClient(srv.URL).UpdateOrder(context.Background(), 17, entity.OrderSubmit{}, "key-2")

	require.NoError(t, err)
	assert.Equal(t, 17, result.OrderID)
}

func TestOrderClientGetOrderDecodesRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders/9", r.URL.Path)
		w.Write([]byte(`{
			"orderId": 9,
			"code": "DH-9",
			"customerName": "Khách lẻ",
			"total": 198000,
			"status": "COMPLETED",
			"createdAt": "2026-09-01T10:00:00Z",
			"paymentMethod": "momo",
			"items": [
				{"productId": 1, "productName": "Kem dưỡng ẩm", "price": 100000, "quantity": 2, "subtotal": 200000, "total": 180000},
				{"productId": 2, "productName": "Son môi", "price": 50000, "quantity": 1}
			]
		}`))
	}))
	defer srv.Close()

	record, err := NewOrderClient(srv.URL).GetOrder(context.Background(), 9)

	require.NoError(t, err)
	assert.Equal(t, 9, record.OrderID)
	assert.Equal(t, entity.StatusCompleted, record.Status)
	require.Len(t, record.Items, 2)
	require.NotNil(t, record.Items[0].Subtotal)
	assert.Equal(t, 200000.0, *record.Items[0].Subtotal)
	// absent optional fields decode to nil, not zero
	assert.Nil(t, record.Items[1].Subtotal)
	assert.Nil(t, record.Items[1].Total)
}

func TestOrderClientBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := NewOrderClient(srv.URL).GetOrder(context.Background(), 1)

	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestOrderClientNon2xxStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewOrderClient(srv.URL).CreateOrder(context.Background(), entity.OrderSubmit{}, "")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBackendUnavailable)
}

func TestProductClientGetProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/3", r.URL.Path)
		json.NewEncoder(w).Encode(entity.Product{ID: 3, Name: "Dầu gội", Price: 120000, Discount: 5, Stock: 25})
	}))
	defer srv.Close()

	p, err := NewProductClient(srv.URL).GetProduct(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, "Dầu gội", p.Name)
	assert.Equal(t, 5.0, p.Discount)
}

func TestPaymentClientCreateRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req paymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "DH-17", req.OrderInfo)
		assert.Equal(t, 198000.0, req.Amount)
		json.NewEncoder(w).Encode(paymentResponse{PayURL: "https://gateway.example/pay?ref=abc"})
	}))
	defer srv.Close()

	url, err := NewPaymentClient(srv.URL).CreateRedirect(context.Background(), "DH-17", 198000)

	require.NoError(t, err)
	assert.Equal(t, "https://gateway.example/pay?ref=abc", url)
}

func TestPaymentClientMissingPayURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewPaymentClient(srv.URL).CreateRedirect(context.Background(), "DH-1", 1000)

	assert.ErrorIs(t, err, ErrNoPayURL)
}
