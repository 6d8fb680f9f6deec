// Package api exposes the cart engine over HTTP for the operator terminal.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"

	"pos-cart-service/internal/client"
	"pos-cart-service/internal/entity"
	"pos-cart-service/internal/service"
	"pos-cart-service/internal/session"
)

// ProductCatalog is the read-only catalog collaborator.
type ProductCatalog interface {
	GetProduct(ctx context.Context, productID int) (*entity.Product, error)
}

// Handler owns the terminal's session and serializes every mutation, which
// keeps the session's single-threaded contract.
type Handler struct {
	mu        sync.Mutex
	session   *session.Session
	products  ProductCatalog
	checkout  *service.CheckoutService
	reconcile *service.ReconcileService
}

func NewHandler(sess *session.Session, products ProductCatalog, checkout *service.CheckoutService, reconcile *service.ReconcileService) *Handler {
	return &Handler{
		session:   sess,
		products:  products,
		checkout:  checkout,
		reconcile: reconcile,
	}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/session", h.GetSession)
	e.POST("/session/items", h.AddItem)
	e.PUT("/session/items/:productId", h.UpdateQuantity)
	e.DELETE("/session/items/:productId", h.RemoveItem)
	e.POST("/session/drafts", h.AddDraft)
	e.PUT("/session/drafts/active", h.SwitchDraft)
	e.DELETE("/session/drafts/:index", h.DeleteDraft)
	e.PUT("/session/customer", h.UpdateCustomer)
	e.POST("/orders/save", h.SaveOrder)
	e.POST("/orders/checkout", h.Checkout)
	e.GET("/payments/return", h.PaymentReturn)
	e.GET("/payments/status", h.PaymentStatus)
}

type sessionView struct {
	Drafts      []*entity.Order `json:"drafts"`
	ActiveIndex int             `json:"activeIndex"`
}

func (h *Handler) view() sessionView {
	return sessionView{Drafts: h.session.Drafts(), ActiveIndex: h.session.ActiveIndex()}
}

func (h *Handler) GetSession(c echo.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return c.JSON(http.StatusOK, h.view())
}

func (h *Handler) AddItem(c echo.Context) error {
	var req struct {
		ProductID int `json:"productId"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	product, err := h.products.GetProduct(c.Request().Context(), req.ProductID)
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.session.AddItem(*product)
	return c.JSON(http.StatusOK, h.session.Active())
}

func (h *Handler) UpdateQuantity(c echo.Context) error {
	productID, err := strconv.Atoi(c.Param("productId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid product ID"})
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.session.UpdateQuantity(productID, req.Quantity)
	return c.JSON(http.StatusOK, h.session.Active())
}

func (h *Handler) RemoveItem(c echo.Context) error {
	productID, err := strconv.Atoi(c.Param("productId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid product ID"})
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.session.RemoveItem(productID)
	return c.JSON(http.StatusOK, h.session.Active())
}

func (h *Handler) AddDraft(c echo.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.session.AddDraft()
	return c.JSON(http.StatusOK, h.view())
}

func (h *Handler) SwitchDraft(c echo.Context) error {
	var req struct {
		Index int `json:"index"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.session.SwitchDraft(req.Index); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, h.view())
}

func (h *Handler) DeleteDraft(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid draft index"})
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.session.DeleteDraft(index); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, session.ErrLastDraft) {
			status = http.StatusConflict
		}
		return c.JSON(status, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, h.view())
}

func (h *Handler) UpdateCustomer(c echo.Context) error {
	var req struct {
		CustomerName string `json:"customerName"`
		Notes        string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.session.SetCustomerName(req.CustomerName)
	h.session.SetNotes(req.Notes)
	return c.JSON(http.StatusOK, h.session.Active())
}

func (h *Handler) SaveOrder(c echo.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	draft := h.session.Active()
	if err := h.checkout.Save(c.Request().Context(), draft); err != nil {
		return h.checkoutError(c, err, nil)
	}
	saved := *draft
	h.session.ResetActive()
	return c.JSON(http.StatusOK, saved)
}

func (h *Handler) Checkout(c echo.Context) error {
	var req struct {
		PaymentMethod  entity.PaymentMethod `json:"paymentMethod"`
		TransferAmount float64              `json:"transferAmount"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	draft := h.session.Active()
	result, err := h.checkout.Checkout(c.Request().Context(), draft, req.PaymentMethod, req.TransferAmount)
	if err != nil {
		return h.checkoutError(c, err, result)
	}

	if req.PaymentMethod == entity.MethodCash {
		// settled at the counter; free the tab for the next customer
		h.session.ResetActive()
	}
	// gateway methods keep the draft on screen as COMPLETED-pending until
	// reconciliation confirms payment
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) checkoutError(c echo.Context, err error, result *service.CheckoutResult) error {
	switch {
	case errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidTransferAmount):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrGatewayDispatch):
		// the order is persisted; hand it back so the operator can settle out
		// of band
		return c.JSON(http.StatusBadGateway, map[string]interface{}{
			"error": err.Error(),
			"order": result.Order,
		})
	case errors.Is(err, client.ErrBackendUnavailable),
		errors.Is(err, service.ErrMissingOrderID):
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// PaymentReturn is where the gateway redirects the browser back to. The
// result code parameter name differs per gateway.
func (h *Handler) PaymentReturn(c echo.Context) error {
	code := c.QueryParam("resultCode")
	if code == "" {
		code = c.QueryParam("vnp_ResponseCode")
	}

	outcome, err := h.reconcile.Resolve(c.Request().Context(), code)
	if err != nil {
		var decodeErr *entity.DecodeError
		if errors.As(err, &decodeErr) {
			return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	if outcome.State == service.StateResolved && outcome.Order != nil {
		// the sale is settled; free the tab that was holding it
		h.mu.Lock()
		h.session.ResetByOrderID(outcome.Order.OrderID)
		h.mu.Unlock()
	}
	return c.JSON(http.StatusOK, outcome)
}

// PaymentStatus reports whether a gateway round-trip is still outstanding.
func (h *Handler) PaymentStatus(c echo.Context) error {
	state, err := h.reconcile.Status(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]service.State{"state": state})
}
