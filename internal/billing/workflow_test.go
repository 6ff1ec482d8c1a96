package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// fakeStore is an in-memory TableOrderStore recording every mutating
// call so tests can assert on the exact downstream sequence.
type fakeStore struct {
	table  model.Table
	orders []model.Order

	fetchTableErr  error
	fetchOrdersErr error
	deleteErr      map[uint64]error
	updateErr      error

	deleted []uint64
	patches []TablePatch
}

func (s *fakeStore) FetchTable(_ context.Context, tableID uint64) (model.Table, error) {
	if s.fetchTableErr != nil {
		return model.Table{}, s.fetchTableErr
	}
	if s.table.ID != tableID {
		return model.Table{}, ErrTableNotFound
	}
	return s.table, nil
}

func (s *fakeStore) FetchOrdersForTable(_ context.Context, tableID uint64) ([]model.Order, error) {
	if s.fetchOrdersErr != nil {
		return nil, s.fetchOrdersErr
	}
	out := []model.Order{}
	for _, o := range s.orders {
		if o.TableID == tableID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateTable(_ context.Context, tableID uint64, patch TablePatch) (model.Table, error) {
	s.patches = append(s.patches, patch)
	if s.updateErr != nil {
		return model.Table{}, s.updateErr
	}
	if patch.ExpectStatus != nil && s.table.Status != *patch.ExpectStatus {
		return model.Table{}, ErrConflict
	}
	if patch.Status != nil {
		s.table.Status = *patch.Status
	}
	if patch.ClearServer {
		s.table.AssignedServerID = nil
	}
	return s.table, nil
}

func (s *fakeStore) DeleteOrder(_ context.Context, orderID uint64) error {
	if err := s.deleteErr[orderID]; err != nil {
		return err
	}
	s.deleted = append(s.deleted, orderID)
	return nil
}

// fakeLedger stores sales keyed by attempt key, mirroring the
// idempotent insert the MySQL ledger provides.
type fakeLedger struct {
	createErr error
	nextID    uint64
	sales     map[string]model.Sale
	calls     int
}

func (l *fakeLedger) CreateSale(_ context.Context, sale model.Sale) (model.Sale, error) {
	l.calls++
	if l.createErr != nil {
		return model.Sale{}, l.createErr
	}
	if l.sales == nil {
		l.sales = map[string]model.Sale{}
	}
	if existing, ok := l.sales[sale.AttemptKey]; ok {
		return existing, nil
	}
	l.nextID++
	sale.ID = l.nextID
	l.sales[sale.AttemptKey] = sale
	return sale, nil
}

func occupiedTable(id uint64) model.Table {
	server := uint64(3)
	return model.Table{ID: id, Number: 12, Capacity: 4, Location: "interior", Status: model.TableOccupied, AssignedServerID: &server}
}

func newTestWorkflow(store *fakeStore, ledger *fakeLedger) *Workflow {
	w := New(store, ledger)
	w.now = func() time.Time { return time.Date(2025, 6, 1, 20, 30, 0, 0, time.UTC) }
	w.newKey = func() string { return "attempt-1" }
	return w
}

func TestWorkflowHappyPath(t *testing.T) {
	store := &fakeStore{
		table: occupiedTable(7),
		orders: []model.Order{
			order(1, model.OrderServed, 1300, item("Burger", 2, 500), item("Fries", 1, 300)),
			order(2, model.OrderCancelled, 250, item("Soda", 1, 250)),
			order(3, model.OrderServed, 500, item("Burger", 1, 500)),
		},
	}
	ledger := &fakeLedger{}
	w := newTestWorkflow(store, ledger)

	require.Equal(t, StateIdle, w.State())
	require.NoError(t, w.Load(context.Background(), 7))
	require.Equal(t, StateReady, w.State())

	bill, err := w.BeginClose()
	require.NoError(t, err)
	assert.Equal(t, StateConfirmingPayment, w.State())
	assert.Equal(t, int64(1800), bill.GrandTotalCents)

	res, err := w.Confirm(context.Background(), 3, model.PayCard)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, w.State())

	// The sale carries the bill's totals and the invocation's key.
	assert.Equal(t, uint64(7), res.Sale.TableID)
	assert.Equal(t, uint64(3), res.Sale.ServerID)
	assert.Equal(t, model.PayCard, res.Sale.PaymentMethod)
	assert.Equal(t, int64(1800), res.Sale.TotalCents)
	assert.Equal(t, "attempt-1", res.Sale.AttemptKey)
	require.Len(t, res.Sale.Items, 2)
	assert.Equal(t, "Burger", res.Sale.Items[0].ProductName)
	assert.Equal(t, uint32(3), res.Sale.Items[0].Quantity)

	// Every order on the table is deleted, the cancelled one included.
	assert.Equal(t, []uint64{1, 2, 3}, store.deleted)

	// Table released via a conditional update on the occupied status.
	require.Len(t, store.patches, 1)
	patch := store.patches[0]
	require.NotNil(t, patch.Status)
	assert.Equal(t, model.TableAvailable, *patch.Status)
	assert.True(t, patch.ClearServer)
	require.NotNil(t, patch.ExpectStatus)
	assert.Equal(t, model.TableOccupied, *patch.ExpectStatus)

	assert.Equal(t, model.TableAvailable, res.Table.Status)
	assert.Nil(t, res.Table.AssignedServerID)
}

func TestWorkflowLoadFailures(t *testing.T) {
	t.Run("unknown table", func(t *testing.T) {
		store := &fakeStore{table: occupiedTable(7)}
		w := newTestWorkflow(store, &fakeLedger{})

		err := w.Load(context.Background(), 99)
		require.Error(t, err)
		assert.Equal(t, KindFetch, KindOf(err))
		assert.ErrorIs(t, err, ErrTableNotFound)
		assert.Equal(t, StateFailed, w.State())
	})

	t.Run("order fetch failure", func(t *testing.T) {
		store := &fakeStore{table: occupiedTable(7), fetchOrdersErr: errors.New("db down")}
		w := newTestWorkflow(store, &fakeLedger{})

		err := w.Load(context.Background(), 7)
		require.Error(t, err)
		assert.Equal(t, KindFetch, KindOf(err))
		assert.Equal(t, StateFailed, w.State())
	})

	t.Run("retry from failed is allowed", func(t *testing.T) {
		store := &fakeStore{table: occupiedTable(7), fetchOrdersErr: errors.New("db down")}
		w := newTestWorkflow(store, &fakeLedger{})

		require.Error(t, w.Load(context.Background(), 7))
		store.fetchOrdersErr = nil
		require.NoError(t, w.Load(context.Background(), 7))
		assert.Equal(t, StateReady, w.State())
	})

	t.Run("load rejected once ready", func(t *testing.T) {
		store := &fakeStore{table: occupiedTable(7)}
		w := newTestWorkflow(store, &fakeLedger{})

		require.NoError(t, w.Load(context.Background(), 7))
		err := w.Load(context.Background(), 7)
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
		// State is untouched by the refusal.
		assert.Equal(t, StateReady, w.State())
	})
}

func TestWorkflowRejectsEmptyClose(t *testing.T) {
	store := &fakeStore{table: occupiedTable(7)}
	ledger := &fakeLedger{}
	w := newTestWorkflow(store, ledger)
	require.NoError(t, w.Load(context.Background(), 7))

	_, err := w.BeginClose()
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	// The refusal changes nothing downstream or in the state machine.
	assert.Equal(t, StateReady, w.State())
	assert.Zero(t, ledger.calls)
	assert.Empty(t, store.deleted)
	assert.Empty(t, store.patches)
}

func TestWorkflowRejectsUnknownPaymentMethod(t *testing.T) {
	store := &fakeStore{
		table:  occupiedTable(7),
		orders: []model.Order{order(1, model.OrderServed, 500, item("Burger", 1, 500))},
	}
	ledger := &fakeLedger{}
	w := newTestWorkflow(store, ledger)
	require.NoError(t, w.Load(context.Background(), 7))
	_, err := w.BeginClose()
	require.NoError(t, err)

	_, err = w.Confirm(context.Background(), 3, "cheque")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	// Still confirming: the caller may retry with a valid method.
	assert.Equal(t, StateConfirmingPayment, w.State())
	assert.Zero(t, ledger.calls)

	_, err = w.Confirm(context.Background(), 3, model.PayCash)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, w.State())
}

func TestWorkflowSaleSubmissionFailure(t *testing.T) {
	store := &fakeStore{
		table:  occupiedTable(7),
		orders: []model.Order{order(1, model.OrderServed, 500, item("Burger", 1, 500))},
	}
	ledger := &fakeLedger{createErr: errors.New("ledger unavailable")}
	w := newTestWorkflow(store, ledger)
	require.NoError(t, w.Load(context.Background(), 7))
	_, err := w.BeginClose()
	require.NoError(t, err)

	_, err = w.Confirm(context.Background(), 3, model.PayCash)
	require.Error(t, err)
	assert.Equal(t, KindSaleSubmission, KindOf(err))
	assert.Equal(t, StateFailed, w.State())

	// Nothing after the failed submission may run.
	assert.Empty(t, store.deleted)
	assert.Empty(t, store.patches)
}

func TestWorkflowOrderCleanupFailure(t *testing.T) {
	store := &fakeStore{
		table: occupiedTable(7),
		orders: []model.Order{
			order(1, model.OrderServed, 500, item("Burger", 1, 500)),
			order(2, model.OrderServed, 300, item("Fries", 1, 300)),
			order(3, model.OrderServed, 250, item("Soda", 1, 250)),
		},
		deleteErr: map[uint64]error{2: errors.New("order is locked")},
	}
	ledger := &fakeLedger{}
	w := newTestWorkflow(store, ledger)
	require.NoError(t, w.Load(context.Background(), 7))
	_, err := w.BeginClose()
	require.NoError(t, err)

	_, err = w.Confirm(context.Background(), 3, model.PayCash)
	require.Error(t, err)
	assert.Equal(t, KindOrderCleanup, KindOf(err))
	assert.Contains(t, err.Error(), "delete order 2")
	assert.Equal(t, StateFailed, w.State())

	// The sale stays recorded and deletion stopped at the failure.
	assert.Equal(t, 1, ledger.calls)
	assert.Len(t, ledger.sales, 1)
	assert.Equal(t, []uint64{1}, store.deleted)
	assert.Empty(t, store.patches)
}

func TestWorkflowTableReleaseConflict(t *testing.T) {
	store := &fakeStore{
		table:  occupiedTable(7),
		orders: []model.Order{order(1, model.OrderServed, 500, item("Burger", 1, 500))},
	}
	ledger := &fakeLedger{}
	w := newTestWorkflow(store, ledger)
	require.NoError(t, w.Load(context.Background(), 7))
	_, err := w.BeginClose()
	require.NoError(t, err)

	// Another device released the table between load and confirm.
	store.table.Status = model.TableAvailable

	_, err = w.Confirm(context.Background(), 3, model.PayCash)
	require.Error(t, err)
	assert.Equal(t, KindTableRelease, KindOf(err))
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, StateFailed, w.State())

	// Sale and order cleanup ran before the conflicting release.
	assert.Equal(t, 1, ledger.calls)
	assert.Equal(t, []uint64{1}, store.deleted)
}

func TestWorkflowAttemptKeyIsStable(t *testing.T) {
	store := &fakeStore{
		table:  occupiedTable(7),
		orders: []model.Order{order(1, model.OrderServed, 500, item("Burger", 1, 500))},
	}
	keys := []string{"key-a", "key-b"}
	ledger := &fakeLedger{}
	w := New(store, ledger)
	w.now = time.Now
	w.newKey = func() string {
		k := keys[0]
		keys = keys[1:]
		return k
	}

	// Repeated reads return the key minted on first use.
	assert.Equal(t, "key-a", w.AttemptKey())
	assert.Equal(t, "key-a", w.AttemptKey())

	require.NoError(t, w.Load(context.Background(), 7))
	_, err := w.BeginClose()
	require.NoError(t, err)
	res, err := w.Confirm(context.Background(), 3, model.PayCash)
	require.NoError(t, err)
	assert.Equal(t, "key-a", res.Sale.AttemptKey)
}

func TestWorkflowConfirmRequiresBeginClose(t *testing.T) {
	store := &fakeStore{
		table:  occupiedTable(7),
		orders: []model.Order{order(1, model.OrderServed, 500, item("Burger", 1, 500))},
	}
	w := newTestWorkflow(store, &fakeLedger{})
	require.NoError(t, w.Load(context.Background(), 7))

	_, err := w.Confirm(context.Background(), 3, model.PayCash)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, StateReady, w.State())
}

func TestWorkflowFiltersForeignOrders(t *testing.T) {
	store := &fakeStore{
		table: occupiedTable(7),
		orders: []model.Order{
			order(1, model.OrderServed, 500, item("Burger", 1, 500)),
			{ID: 9, TableID: 8, Status: model.OrderServed, TotalCents: 9999},
		},
	}
	w := newTestWorkflow(store, &fakeLedger{})
	require.NoError(t, w.Load(context.Background(), 7))

	require.Len(t, w.Orders(), 1)
	bill, err := w.BeginClose()
	require.NoError(t, err)
	assert.Equal(t, int64(500), bill.GrandTotalCents)
}
