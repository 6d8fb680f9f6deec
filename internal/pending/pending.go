// Package pending stores the single pending-payment marker that must survive
// the redirect round-trip to the payment gateway, including a process restart
// in between. Starting a new checkout overwrites any previous marker.
package pending

import (
	"context"

	"pos-cart-service/internal/entity"
)

// Store is the durable key-value contract for the pending payment marker.
// Get returns (nil, nil) when no marker exists.
type Store interface {
	Get(ctx context.Context) (*entity.PendingPayment, error)
	Set(ctx context.Context, pp entity.PendingPayment) error
	Clear(ctx context.Context) error
}
