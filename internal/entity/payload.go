package entity

import "fmt"

// SubmitItem is one order line in the shape the order backend expects.
type SubmitItem struct {
	ProductID      int     `json:"productId"`
	ProductName    string  `json:"productName"`
	Price          float64 `json:"price"`
	Quantity       int     `json:"quantity"`
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discountAmount"`
}

// OrderSubmit is the create/update payload for the order backend. Field names
// are the backend contract and must be preserved verbatim.
type OrderSubmit struct {
	Items          []SubmitItem  `json:"items"`
	Subtotal       float64       `json:"subtotal"`
	Discount       float64       `json:"discount"`
	Tax            float64       `json:"tax"`
	Total          float64       `json:"total"`
	CustomerName   string        `json:"customerName"`
	Notes          string        `json:"notes"`
	Status         OrderStatus   `json:"status"`
	PaymentMethod  PaymentMethod `json:"paymentMethod,omitempty"`
	CashAmount     float64       `json:"cashAmount"`
	TransferAmount float64       `json:"transferAmount"`
}

// SubmitResult is what the backend returns from a create or update. A zero
// OrderID means the backend did not assign an identifier, which aborts the
// checkout attempt.
type SubmitResult struct {
	OrderID   int         `json:"orderId"`
	Code      string      `json:"code"`
	Status    OrderStatus `json:"status"`
	CreatedAt string      `json:"createdAt"`
}

// RecordItem is an order line as returned by the backend. Subtotal and Total
// are pointers so that an absent field can be told apart from a zero value
// and recomputed from price and quantity instead of silently read as 0.
type RecordItem struct {
	ProductID   int      `json:"productId"`
	ProductName string   `json:"productName"`
	Price       float64  `json:"price"`
	Quantity    int      `json:"quantity"`
	Subtotal    *float64 `json:"subtotal"`
	Total       *float64 `json:"total"`
}

// OrderRecord is the authoritative order state fetched from the backend
// during payment reconciliation.
type OrderRecord struct {
	OrderID       int           `json:"orderId"`
	Code          string        `json:"code"`
	CustomerName  string        `json:"customerName"`
	Total         float64       `json:"total"`
	Status        OrderStatus   `json:"status"`
	CreatedAt     string        `json:"createdAt"`
	Items         []RecordItem  `json:"items"`
	Notes         string        `json:"notes"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
}

// DecodeError reports an order record that violates the backend contract.
// Reconciliation fails fast on it rather than substituting zeros.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("order record decode: field %q %s", e.Field, e.Reason)
}
