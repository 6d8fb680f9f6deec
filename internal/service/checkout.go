// Package service implements the checkout protocol and the payment
// reconciliation that recovers an order's final state after the gateway
// redirect round-trip.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pos-cart-service/internal/entity"
	"pos-cart-service/internal/pending"
	"pos-cart-service/internal/pricing"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var (
	// ErrEmptyOrder rejects checking out a draft with no lines.
	ErrEmptyOrder = errors.New("order has no items")
	// ErrInvalidPaymentMethod rejects unknown payment method codes.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	// ErrInvalidTransferAmount rejects a hybrid split whose transfer portion
	// is not strictly between zero and the order total.
	ErrInvalidTransferAmount = errors.New("transfer amount must be greater than zero and less than the order total")
	// ErrMissingOrderID means the backend persisted nothing usable: without a
	// server-assigned identifier the checkout cannot proceed.
	ErrMissingOrderID = errors.New("order backend returned no order id")
	// ErrGatewayDispatch wraps a redirect-URL failure that happened after the
	// order was already persisted as COMPLETED. The sale stands; settlement
	// happens out of band.
	ErrGatewayDispatch = errors.New("payment gateway dispatch failed")
)

// OrderBackend is the persistence collaborator owning authoritative order
// state.
type OrderBackend interface {
	CreateOrder(ctx context.Context, payload entity.OrderSubmit, idempotentKey string) (*entity.SubmitResult, error)
	UpdateOrder(ctx context.Context, orderID int, payload entity.OrderSubmit, idempotentKey string) (*entity.SubmitResult, error)
	GetOrder(ctx context.Context, orderID int) (*entity.OrderRecord, error)
}

// PaymentGateway creates the redirect URL the browser navigates to for
// gateway-backed payment methods.
type PaymentGateway interface {
	CreateRedirect(ctx context.Context, orderInfo string, amount float64) (string, error)
}

// InvoicePublisher receives finalized paid orders for display and print.
type InvoicePublisher interface {
	PublishInvoice(ctx context.Context, order *entity.Order) error
}

// CheckoutService turns the active draft into the backend payload, persists
// it, and branches on the payment method. The protocol is save-then-redirect:
// the order is always persisted before any navigation to the gateway.
type CheckoutService struct {
	backend  OrderBackend
	gateway  PaymentGateway
	pending  pending.Store
	invoices InvoicePublisher
}

func NewCheckoutService(backend OrderBackend, gateway PaymentGateway, pendingStore pending.Store, invoices InvoicePublisher) *CheckoutService {
	return &CheckoutService{
		backend:  backend,
		gateway:  gateway,
		pending:  pendingStore,
		invoices: invoices,
	}
}

// CheckoutResult is what the operator's terminal needs after a checkout:
// the persisted order, and for gateway methods the URL to navigate to.
type CheckoutResult struct {
	Order       *entity.Order `json:"order"`
	RedirectURL string        `json:"redirectUrl,omitempty"`
}

// Save persists the draft with status DRAFT so it can be resumed later.
// The draft is updated in place with the backend-assigned identity.
func (s *CheckoutService) Save(ctx context.Context, draft *entity.Order) error {
	if len(draft.Items) == 0 {
		return ErrEmptyOrder
	}
	payload := buildSubmit(draft, entity.StatusDraft, "", 0)
	result, err := s.persist(ctx, draft, payload)
	if err != nil {
		return err
	}
	applyResult(draft, result)
	logger.Info().Int("orderId", draft.OrderID).Str("code", draft.Code).Msg("Order saved as draft")
	return nil
}

// Checkout persists the draft as COMPLETED and settles it. Cash settles
// synchronously and hands the order to the invoice hook; gateway methods
// record a pending payment and return the redirect URL.
//
// transferAmount is only meaningful for the hybrid method and must satisfy
// 0 < transferAmount < order total, validated before any network call.
func (s *CheckoutService) Checkout(ctx context.Context, draft *entity.Order, method entity.PaymentMethod, transferAmount float64) (*CheckoutResult, error) {
	if len(draft.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if !method.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, method)
	}
	totals := pricing.Totals(draft.Items)
	if method == entity.MethodHybrid && (transferAmount <= 0 || transferAmount >= totals.Total) {
		return nil, ErrInvalidTransferAmount
	}

	payload := buildSubmit(draft, entity.StatusCompleted, method, transferAmount)
	result, err := s.persist(ctx, draft, payload)
	if err != nil {
		return nil, err
	}
	applyResult(draft, result)
	draft.Status = entity.StatusCompleted
	draft.PaymentMethod = method

	if method == entity.MethodCash {
		// nothing pending for cash; drop any marker a superseded checkout left
		if err := s.pending.Clear(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to clear pending payment marker")
		}
		if err := s.invoices.PublishInvoice(ctx, draft); err != nil {
			logger.Warn().Err(err).Int("orderId", draft.OrderID).Msg("Failed to publish invoice")
		}
		return &CheckoutResult{Order: draft}, nil
	}

	// The marker must be durable before the browser leaves; it is the only
	// state the post-redirect half of the checkout can rely on.
	if err := s.pending.Set(ctx, entity.PendingPayment{OrderID: draft.OrderID, Method: method}); err != nil {
		return &CheckoutResult{Order: draft}, fmt.Errorf("%w: storing pending payment: %v", ErrGatewayDispatch, err)
	}

	amount := totals.Total
	if method == entity.MethodHybrid {
		amount = transferAmount
	}
	payURL, err := s.gateway.CreateRedirect(ctx, draft.Code, amount)
	if err != nil {
		logger.Error().Err(err).Int("orderId", draft.OrderID).Msg("Gateway dispatch failed after order was persisted")
		return &CheckoutResult{Order: draft}, fmt.Errorf("%w: %v", ErrGatewayDispatch, err)
	}

	return &CheckoutResult{Order: draft, RedirectURL: payURL}, nil
}

func (s *CheckoutService) persist(ctx context.Context, draft *entity.Order, payload entity.OrderSubmit) (*entity.SubmitResult, error) {
	key := uuid.NewString()

	var result *entity.SubmitResult
	var err error
	if draft.OrderID != 0 {
		result, err = s.backend.UpdateOrder(ctx, draft.OrderID, payload, key)
	} else {
		result, err = s.backend.CreateOrder(ctx, payload, key)
	}
	if err != nil {
		logger.Error().Err(err).Str("code", draft.Code).Msg("Error persisting order")
		return nil, err
	}
	if result.OrderID == 0 {
		return nil, ErrMissingOrderID
	}
	return result, nil
}

func applyResult(draft *entity.Order, result *entity.SubmitResult) {
	draft.OrderID = result.OrderID
	if result.Code != "" {
		draft.Code = result.Code
	}
	if result.Status != "" {
		draft.Status = result.Status
	}
	draft.CreatedAt = result.CreatedAt
}

func buildSubmit(draft *entity.Order, status entity.OrderStatus, method entity.PaymentMethod, transferAmount float64) entity.OrderSubmit {
	totals := pricing.Totals(draft.Items)

	items := make([]entity.SubmitItem, 0, len(draft.Items))
	for _, item := range draft.Items {
		items = append(items, entity.SubmitItem{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Price:          item.Price,
			Quantity:       item.Quantity,
			Subtotal:       item.Subtotal,
			DiscountAmount: item.DiscountAmount,
		})
	}

	var cash, transfer float64
	switch method {
	case entity.MethodCash:
		cash = totals.Total
	case entity.MethodMomo, entity.MethodBank:
		transfer = totals.Total
	case entity.MethodHybrid:
		transfer = transferAmount
		cash = totals.Total - transferAmount
	}

	customer := draft.CustomerName
	if customer == "" {
		customer = "Khách lẻ"
	}

	return entity.OrderSubmit{
		Items:          items,
		Subtotal:       totals.Subtotal,
		Discount:       totals.Discount,
		Tax:            totals.Tax,
		Total:          totals.Total,
		CustomerName:   customer,
		Notes:          draft.Notes,
		Status:         status,
		PaymentMethod:  method,
		CashAmount:     cash,
		TransferAmount: transfer,
	}
}
