// Package pricing computes all derived monetary fields for order items and
// orders. Everything is decimal arithmetic so repricing the same line twice
// yields identical fields and the item invariant
// subtotal = discountAmount + total holds exactly.
package pricing

import (
	"github.com/shopspring/decimal"

	"pos-cart-service/internal/entity"
)

// TaxRate is the flat VAT rate applied to the post-discount order sum.
const TaxRate = 0.10

var (
	hundred = decimal.NewFromInt(100)
	taxRate = decimal.NewFromFloat(TaxRate)
)

// Breakdown is the order-level money summary sent to the order backend.
type Breakdown struct {
	Subtotal float64
	Discount float64
	Tax      float64
	Total    float64
}

func discountedUnit(price, discountPct float64) decimal.Decimal {
	p := decimal.NewFromFloat(price)
	if discountPct <= 0 {
		return p
	}
	return p.Sub(p.Mul(decimal.NewFromFloat(discountPct)).Div(hundred)).Round(2)
}

// PriceItem builds a fully priced order line for qty units of p.
// qty must be >= 1; the session store removes lines instead of storing
// non-positive quantities.
func PriceItem(p entity.Product, qty int) entity.OrderItem {
	q := decimal.NewFromInt(int64(qty))
	subtotal := q.Mul(decimal.NewFromFloat(p.Price))
	total := q.Mul(discountedUnit(p.Price, p.Discount))

	return entity.OrderItem{
		ProductID:      p.ID,
		ProductName:    p.Name,
		Price:          p.Price,
		Discount:       p.Discount,
		Quantity:       qty,
		Subtotal:       subtotal.InexactFloat64(),
		DiscountAmount: subtotal.Sub(total).InexactFloat64(),
		Total:          total.InexactFloat64(),
	}
}

// Reprice recomputes item's derived fields for a new quantity.
func Reprice(item entity.OrderItem, qty int) entity.OrderItem {
	repriced := PriceItem(entity.Product{
		ID:       item.ProductID,
		Name:     item.ProductName,
		Price:    item.Price,
		Discount: item.Discount,
	}, qty)
	return repriced
}

// Totals computes the order-level breakdown from already-priced items.
func Totals(items []entity.OrderItem) Breakdown {
	subtotal := decimal.Zero
	afterDiscount := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(decimal.NewFromFloat(item.Subtotal))
		afterDiscount = afterDiscount.Add(decimal.NewFromFloat(item.Total))
	}
	// the tax is never rounded on its own: the order total must equal the
	// post-discount sum times (1 + TaxRate) exactly, even when the sum has
	// fractional cents
	tax := afterDiscount.Mul(taxRate)

	return Breakdown{
		Subtotal: subtotal.InexactFloat64(),
		Discount: subtotal.Sub(afterDiscount).InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Total:    afterDiscount.Add(tax).InexactFloat64(),
	}
}

// OrderTotal is the amount the customer pays: the post-discount sum of all
// lines plus VAT.
func OrderTotal(items []entity.OrderItem) float64 {
	return Totals(items).Total
}
