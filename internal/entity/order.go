package entity

// OrderStatus is the lifecycle status assigned by the order backend.
type OrderStatus string

const (
	StatusDraft     OrderStatus = "DRAFT"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusReturned  OrderStatus = "RETURNED"
)

// IsTerminal reports whether no further lifecycle transition is expected.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusReturned
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusCompleted, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

// OrderItem is one line of a draft order. Subtotal, DiscountAmount and Total
// are derived by the pricing package on every mutation and satisfy
// Subtotal = DiscountAmount + Total.
type OrderItem struct {
	ProductID      int     `json:"productId"`
	ProductName    string  `json:"productName"`
	Price          float64 `json:"price"`    // unit price before discount
	Discount       float64 `json:"discount"` // unit discount percentage, 0..100
	Quantity       int     `json:"quantity"`
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discountAmount"`
	Total          float64 `json:"total"`
}

// Order is a draft being edited in the session, or a finalized order mapped
// back from the order backend. OrderID is zero until first persisted.
type Order struct {
	OrderID       int           `json:"orderId"`
	Code          string        `json:"code"`
	CustomerName  string        `json:"customerName"`
	Items         []OrderItem   `json:"items"`
	Notes         string        `json:"notes"`
	Status        OrderStatus   `json:"status"`
	PaymentMethod PaymentMethod `json:"paymentMethod,omitempty"`
	Total         float64       `json:"total"`
	CreatedAt     string        `json:"createdAt,omitempty"`
}
