package entity

// Product is catalog data owned by the product service; read-only here.
// Stock is informational only, availability is enforced server-side.
type Product struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Discount float64 `json:"discount"` // percentage, 0..100
	Stock    int     `json:"stock"`
}
