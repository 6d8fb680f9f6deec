package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-cart-service/internal/entity"
	"pos-cart-service/internal/pending"
)

func f64(v float64) *float64 { return &v }

func completedRecord(orderID int) *entity.OrderRecord {
	return &entity.OrderRecord{
		OrderID:       orderID,
		Code:          "DH-9",
		CustomerName:  "Khách lẻ",
		Total:         198000,
		Status:        entity.StatusCompleted,
		CreatedAt:     "2026-09-01T10:00:00Z",
		PaymentMethod: entity.MethodMomo,
		Items: []entity.RecordItem{{
			ProductID:   1,
			ProductName: "Kem dưỡng ẩm",
			Price:       100000,
			Quantity:    2,
			Subtotal:    f64(200000),
			Total:       f64(180000),
		}},
	}
}

func draftRecord(orderID int) *entity.OrderRecord {
	r := completedRecord(orderID)
	r.Status = entity.StatusDraft
	return r
}

func newReconcileFixture(backend *fakeBackend) (*ReconcileService, *pending.MemoryStore, *fakeInvoices) {
	store := pending.NewMemoryStore()
	invoices := &fakeInvoices{}
	svc := NewReconcileService(backend, store, invoices)
	svc.PollInterval = time.Millisecond
	return svc, store, invoices
}

func setPending(t *testing.T, store pending.Store, orderID int, method entity.PaymentMethod) {
	t.Helper()
	require.NoError(t, store.Set(context.Background(), entity.PendingPayment{OrderID: orderID, Method: method}))
}

func TestResolveNoPendingIsNoop(t *testing.T) {
	backend := &fakeBackend{}
	svc, _, invoices := newReconcileFixture(backend)

	outcome, err := svc.Resolve(context.Background(), "0")

	require.NoError(t, err)
	assert.Equal(t, StateIdle, outcome.State)
	assert.Equal(t, 0, backend.getCalls)
	assert.Empty(t, invoices.published)
}

func TestResolveSuccessOnSecondAttempt(t *testing.T) {
	backend := &fakeBackend{records: []*entity.OrderRecord{draftRecord(9), completedRecord(9)}}
	svc, store, invoices := newReconcileFixture(backend)
	setPending(t, store, 9, entity.MethodMomo)

	outcome, err := svc.Resolve(context.Background(), "0")

	require.NoError(t, err)
	assert.Equal(t, StateResolved, outcome.State)
	assert.Equal(t, 2, outcome.Attempts)
	assert.Equal(t, 2, backend.getCalls)

	require.NotNil(t, outcome.Order)
	assert.Equal(t, 9, outcome.Order.OrderID)
	assert.Equal(t, entity.StatusCompleted, outcome.Order.Status)
	require.Len(t, outcome.Order.Items, 1)
	assert.Equal(t, 20000.0, outcome.Order.Items[0].DiscountAmount)

	require.Len(t, invoices.published, 1)
	pp, _ := store.Get(context.Background())
	assert.Nil(t, pp)
}

func TestResolveWithoutCodeStillReconciles(t *testing.T) {
	// redirect came back without its query string (reload): the marker alone
	// drives recovery
	backend := &fakeBackend{records: []*entity.OrderRecord{completedRecord(9)}}
	svc, store, invoices := newReconcileFixture(backend)
	setPending(t, store, 9, entity.MethodBank)

	outcome, err := svc.Resolve(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, StateResolved, outcome.State)
	assert.Equal(t, 1, outcome.Attempts)
	require.Len(t, invoices.published, 1)
	pp, _ := store.Get(context.Background())
	assert.Nil(t, pp)
}

func TestResolveExhaustsRetriesAndAbandons(t *testing.T) {
	backend := &fakeBackend{records: []*entity.OrderRecord{draftRecord(9)}}
	svc, store, invoices := newReconcileFixture(backend)
	setPending(t, store, 9, entity.MethodMomo)

	outcome, err := svc.Resolve(context.Background(), "0")

	require.NoError(t, err)
	assert.Equal(t, StateAbandoned, outcome.State)
	assert.Equal(t, 5, outcome.Attempts)
	assert.Equal(t, 5, backend.getCalls)
	assert.Empty(t, invoices.published)
	pp, _ := store.Get(context.Background())
	assert.Nil(t, pp)
}

func TestResolveDefinitiveFailureCodeSkipsPolling(t *testing.T) {
	backend := &fakeBackend{records: []*entity.OrderRecord{completedRecord(9)}}
	svc, store, invoices := newReconcileFixture(backend)
	setPending(t, store, 9, entity.MethodMomo)

	outcome, err := svc.Resolve(context.Background(), "24")

	require.NoError(t, err)
	assert.Equal(t, StateFailed, outcome.State)
	assert.Equal(t, 0, backend.getCalls)
	assert.Empty(t, invoices.published)
	pp, _ := store.Get(context.Background())
	assert.Nil(t, pp)
}

func TestResolveIsIdempotentAfterResolution(t *testing.T) {
	backend := &fakeBackend{records: []*entity.OrderRecord{completedRecord(9)}}
	svc, store, invoices := newReconcileFixture(backend)
	setPending(t, store, 9, entity.MethodMomo)

	first, err := svc.Resolve(context.Background(), "0")
	require.NoError(t, err)
	require.Equal(t, StateResolved, first.State)

	second, err := svc.Resolve(context.Background(), "0")
	require.NoError(t, err)
	assert.Equal(t, StateIdle, second.State)
	assert.Equal(t, 1, backend.getCalls)
	assert.Len(t, invoices.published, 1)
}

func TestResolveCancelledMidPolling(t *testing.T) {
	backend := &fakeBackend{records: []*entity.OrderRecord{draftRecord(9)}}
	svc, store, _ := newReconcileFixture(backend)
	svc.PollInterval = 50 * time.Millisecond
	setPending(t, store, 9, entity.MethodMomo)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	outcome, err := svc.Resolve(ctx, "0")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatePolling, outcome.State)
	// abandoned was not reached, the marker survives for the next load
	pp, _ := store.Get(context.Background())
	assert.NotNil(t, pp)
}

func TestResolveBackendErrorsCountAsAttempts(t *testing.T) {
	backend := &fakeBackend{recordErr: assert.AnError}
	svc, store, _ := newReconcileFixture(backend)
	setPending(t, store, 9, entity.MethodMomo)

	outcome, err := svc.Resolve(context.Background(), "0")

	require.NoError(t, err)
	assert.Equal(t, StateAbandoned, outcome.State)
	assert.Equal(t, 5, backend.getCalls)
}

func TestSuccessCodeAllowList(t *testing.T) {
	assert.True(t, SuccessCode("0"))
	assert.True(t, SuccessCode("00"))
	assert.False(t, SuccessCode(""))
	assert.False(t, SuccessCode("24"))
	assert.False(t, SuccessCode("97"))
}

func TestStateTerminality(t *testing.T) {
	assert.True(t, StateResolved.IsTerminal())
	assert.True(t, StateAbandoned.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
	assert.False(t, StateIdle.IsTerminal())
	assert.False(t, StateAwaitingRedirect.IsTerminal())
	assert.False(t, StatePolling.IsTerminal())
}

func TestStatusReflectsPendingMarker(t *testing.T) {
	svc, store, _ := newReconcileFixture(&fakeBackend{})

	state, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateIdle, state)

	setPending(t, store, 9, entity.MethodBank)

	state, err = svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingRedirect, state)
}

func TestOrderFromRecordDerivesMissingMoneyFields(t *testing.T) {
	record := completedRecord(9)
	record.Items[0].Subtotal = nil
	record.Items[0].Total = nil

	order, err := OrderFromRecord(record)

	require.NoError(t, err)
	item := order.Items[0]
	assert.Equal(t, 200000.0, item.Subtotal) // price × quantity
	assert.Equal(t, 200000.0, item.Total)
	assert.Equal(t, 0.0, item.DiscountAmount)
}

func TestOrderFromRecordFailsFastOnContractDrift(t *testing.T) {
	missingID := completedRecord(9)
	missingID.OrderID = 0
	_, err := OrderFromRecord(missingID)
	var decodeErr *entity.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "orderId", decodeErr.Field)

	badStatus := completedRecord(9)
	badStatus.Status = "PAID?"
	_, err = OrderFromRecord(badStatus)
	require.ErrorAs(t, err, &decodeErr)

	badQty := completedRecord(9)
	badQty.Items[0].Quantity = 0
	_, err = OrderFromRecord(badQty)
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "items.quantity", decodeErr.Field)
}

func TestResolveDecodeErrorSurfaces(t *testing.T) {
	record := completedRecord(9)
	record.Items[0].Quantity = 0
	backend := &fakeBackend{records: []*entity.OrderRecord{record}}
	svc, store, invoices := newReconcileFixture(backend)
	setPending(t, store, 9, entity.MethodMomo)

	outcome, err := svc.Resolve(context.Background(), "0")

	var decodeErr *entity.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, StateFailed, outcome.State)
	assert.Empty(t, invoices.published)
	pp, _ := store.Get(context.Background())
	assert.Nil(t, pp)
}
