package entity

// PaymentMethod identifies how an order is settled. The codes are the ones the
// payment service understands and must not be renamed.
type PaymentMethod string

const (
	MethodCash   PaymentMethod = "cash"
	MethodMomo   PaymentMethod = "momo" // e-wallet
	MethodBank   PaymentMethod = "bank" // full bank transfer
	MethodHybrid PaymentMethod = "tmck" // cash + partial bank transfer
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodMomo, MethodBank, MethodHybrid:
		return true
	}
	return false
}

// IsGateway reports whether settling via m redirects through the external
// payment gateway. Cash settles synchronously at the counter.
func (m PaymentMethod) IsGateway() bool {
	return m.IsValid() && m != MethodCash
}

// PendingPayment marks a checkout that redirected to the payment gateway and
// awaits confirmation. At most one exists at a time; it must survive a process
// restart, so it lives in the pending store rather than in memory.
type PendingPayment struct {
	OrderID int           `json:"orderId"`
	Method  PaymentMethod `json:"paymentMethod"`
}
