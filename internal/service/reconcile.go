package service

import (
	"context"
	"sync"
	"time"

	"pos-cart-service/internal/entity"
	"pos-cart-service/internal/pending"
)

// State is where a pending payment stands in the reconciliation machine.
type State string

const (
	// StateIdle: no pending payment marker exists; nothing to reconcile.
	StateIdle State = "IDLE"
	// StateAwaitingRedirect: a pending payment marker exists but no
	// reconciliation run has been triggered yet; the browser is still out at
	// the gateway.
	StateAwaitingRedirect State = "AWAITING_REDIRECT"
	// StatePolling: the order is being fetched; only observed when polling is
	// cut short by context cancellation.
	StatePolling State = "POLLING"
	// StateResolved: the backend confirmed the terminal paid state and the
	// invoice hook was notified.
	StateResolved State = "RESOLVED"
	// StateAbandoned: the retry ceiling was exhausted without confirmation;
	// the true outcome must be checked with order-management tooling.
	StateAbandoned State = "ABANDONED"
	// StateFailed: the gateway returned a definitive non-success code.
	StateFailed State = "FAILED"
)

func (s State) IsTerminal() bool {
	return s == StateResolved || s == StateAbandoned || s == StateFailed
}

// Outcome is the result of one reconciliation run.
type Outcome struct {
	State    State         `json:"state"`
	Order    *entity.Order `json:"order,omitempty"`
	Attempts int           `json:"attempts"`
}

// Gateway result codes that mean the customer completed payment. Any other
// non-empty code is a definitive failure. "0" and "00" are the codes the two
// supported gateways send.
var successCodes = map[string]struct{}{
	"0":  {},
	"00": {},
}

// SuccessCode reports whether a gateway result code is on the allow-list.
func SuccessCode(code string) bool {
	_, ok := successCodes[code]
	return ok
}

const (
	defaultMaxAttempts  = 5
	defaultPollInterval = time.Second
)

// ReconcileService recovers the final order state after an asynchronous
// gateway round-trip. It is driven by the pending payment marker alone, so it
// also recovers when the redirect back lost its query string or the process
// restarted in between.
type ReconcileService struct {
	backend  OrderBackend
	pending  pending.Store
	invoices InvoicePublisher

	// MaxAttempts and PollInterval bound the polling loop. Tests shrink them.
	MaxAttempts  int
	PollInterval time.Duration

	mu sync.Mutex
}

func NewReconcileService(backend OrderBackend, pendingStore pending.Store, invoices InvoicePublisher) *ReconcileService {
	return &ReconcileService{
		backend:      backend,
		pending:      pendingStore,
		invoices:     invoices,
		MaxAttempts:  defaultMaxAttempts,
		PollInterval: defaultPollInterval,
	}
}

// Resolve runs the reconciliation machine once. gatewayCode is the result
// code from the redirect query string, or empty when the application came up
// without one (reload, lost query string).
//
// Only one run executes at a time; a concurrent trigger waits and then sees
// the cleared marker, which makes re-triggering a no-op.
func (s *ReconcileService) Resolve(ctx context.Context, gatewayCode string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pp, err := s.pending.Get(ctx)
	if err != nil {
		return Outcome{State: StateIdle}, err
	}
	if pp == nil {
		return Outcome{State: StateIdle}, nil
	}

	if gatewayCode != "" && !SuccessCode(gatewayCode) {
		logger.Warn().
			Str("gatewayCode", gatewayCode).
			Int("orderId", pp.OrderID).
			Msg("Gateway reported payment failure")
		if err := s.pending.Clear(ctx); err != nil {
			return Outcome{State: StateFailed}, err
		}
		return Outcome{State: StateFailed}, nil
	}

	for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
		record, err := s.backend.GetOrder(ctx, pp.OrderID)
		if err != nil {
			logger.Warn().Err(err).Int("orderId", pp.OrderID).Int("attempt", attempt).Msg("Error fetching order during reconciliation")
		} else if record != nil && record.Status == entity.StatusCompleted {
			order, err := OrderFromRecord(record)
			if err != nil {
				// contract drift: surface it instead of inventing zeros; the
				// authoritative state stays on the backend
				if cerr := s.pending.Clear(ctx); cerr != nil {
					logger.Warn().Err(cerr).Msg("Failed to clear pending payment marker")
				}
				return Outcome{State: StateFailed, Attempts: attempt}, err
			}
			if order.PaymentMethod == "" {
				order.PaymentMethod = pp.Method
			}
			if err := s.invoices.PublishInvoice(ctx, order); err != nil {
				logger.Warn().Err(err).Int("orderId", order.OrderID).Msg("Failed to publish invoice")
			}
			if err := s.pending.Clear(ctx); err != nil {
				return Outcome{State: StateResolved, Order: order, Attempts: attempt}, err
			}
			logger.Info().Int("orderId", order.OrderID).Int("attempt", attempt).Msg("Payment reconciled")
			return Outcome{State: StateResolved, Order: order, Attempts: attempt}, nil
		}

		if attempt < s.MaxAttempts {
			if err := wait(ctx, s.PollInterval); err != nil {
				return Outcome{State: StatePolling, Attempts: attempt}, err
			}
		}
	}

	logger.Warn().
		Int("orderId", pp.OrderID).
		Int("attempts", s.MaxAttempts).
		Msg("Payment reconciliation abandoned, check order-management tooling for the true outcome")
	if err := s.pending.Clear(ctx); err != nil {
		return Outcome{State: StateAbandoned, Attempts: s.MaxAttempts}, err
	}
	return Outcome{State: StateAbandoned, Attempts: s.MaxAttempts}, nil
}

// Status reports where the machine stands without advancing it.
func (s *ReconcileService) Status(ctx context.Context) (State, error) {
	pp, err := s.pending.Get(ctx)
	if err != nil {
		return StateIdle, err
	}
	if pp == nil {
		return StateIdle, nil
	}
	return StateAwaitingRedirect, nil
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// OrderFromRecord maps a backend order record into the display order shape.
// Required fields missing from the record fail with *entity.DecodeError;
// derivable money fields are recomputed from price and quantity instead.
func OrderFromRecord(record *entity.OrderRecord) (*entity.Order, error) {
	if record.OrderID == 0 {
		return nil, &entity.DecodeError{Field: "orderId", Reason: "missing"}
	}
	if !record.Status.IsValid() {
		return nil, &entity.DecodeError{Field: "status", Reason: "missing or unknown"}
	}

	items := make([]entity.OrderItem, 0, len(record.Items))
	for _, ri := range record.Items {
		if ri.ProductID == 0 {
			return nil, &entity.DecodeError{Field: "items.productId", Reason: "missing"}
		}
		if ri.Quantity < 1 {
			return nil, &entity.DecodeError{Field: "items.quantity", Reason: "missing or non-positive"}
		}
		if ri.Price < 0 {
			return nil, &entity.DecodeError{Field: "items.price", Reason: "negative"}
		}

		subtotal := ri.Price * float64(ri.Quantity)
		if ri.Subtotal != nil {
			subtotal = *ri.Subtotal
		}
		total := subtotal
		if ri.Total != nil {
			total = *ri.Total
		}

		items = append(items, entity.OrderItem{
			ProductID:      ri.ProductID,
			ProductName:    ri.ProductName,
			Price:          ri.Price,
			Quantity:       ri.Quantity,
			Subtotal:       subtotal,
			DiscountAmount: subtotal - total,
			Total:          total,
		})
	}

	return &entity.Order{
		OrderID:       record.OrderID,
		Code:          record.Code,
		CustomerName:  record.CustomerName,
		Items:         items,
		Notes:         record.Notes,
		Status:        record.Status,
		PaymentMethod: record.PaymentMethod,
		Total:         record.Total,
		CreatedAt:     record.CreatedAt,
	}, nil
}
