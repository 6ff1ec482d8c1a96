package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// State names a position in the closing workflow. One Workflow value
// covers one invocation: Completed and Failed are terminal, a new
// billing cycle starts from a fresh Workflow.
type State string

const (
	StateIdle              State = "idle"
	StateLoading           State = "loading"
	StateReady             State = "ready"
	StateConfirmingPayment State = "confirming_payment"
	StateProcessing        State = "processing"
	StateCompleted         State = "completed"
	StateFailed            State = "failed"
)

// TablePatch describes a partial table update. Nil fields are left
// untouched. When ExpectStatus is set, the store must apply the patch
// only if the table currently has that status and return ErrConflict
// otherwise; that is the conditional update guarding two devices
// closing the same table at once.
type TablePatch struct {
	Status       *string
	ServerID     *uint64
	ClearServer  bool
	ExpectStatus *string
}

// ErrConflict is returned by a TableOrderStore when a conditional
// update found the table in an unexpected status.
var ErrConflict = errors.New("table status changed concurrently")

// ErrTableNotFound is returned by a TableOrderStore when the table
// does not exist.
var ErrTableNotFound = errors.New("table not found")

// TableOrderStore is the workflow's view of table and order
// persistence. The production implementation wraps the MySQL
// repositories; tests substitute in-memory fakes.
type TableOrderStore interface {
	FetchTable(ctx context.Context, tableID uint64) (model.Table, error)
	FetchOrdersForTable(ctx context.Context, tableID uint64) ([]model.Order, error)
	UpdateTable(ctx context.Context, tableID uint64, patch TablePatch) (model.Table, error)
	DeleteOrder(ctx context.Context, orderID uint64) error
}

// SalesLedger persists finalized sales. CreateSale must be idempotent
// on Sale.AttemptKey: a second submission with the same key returns
// the already-recorded sale instead of inserting another row.
type SalesLedger interface {
	CreateSale(ctx context.Context, sale model.Sale) (model.Sale, error)
}

// Result is emitted when a workflow completes: the persisted sale,
// the released table and the bill the sale was written from.
type Result struct {
	Sale  model.Sale
	Table model.Table
	Bill  Bill
}

// Workflow drives one table-closing invocation through
// Idle → Loading → Ready → ConfirmingPayment → Processing → Completed.
// Downstream calls run strictly in sequence against a single fetched
// snapshot; there is no rollback of completed sub-steps and no
// cancellation once Processing begins. Not safe for concurrent use.
type Workflow struct {
	store  TableOrderStore
	ledger SalesLedger

	// test seams; wired to time.Now and uuid.NewString in New.
	now    func() time.Time
	newKey func() string

	state      State
	attemptKey string
	table      model.Table
	orders     []model.Order
}

// New returns a Workflow in StateIdle. The attempt key identifying
// this billing attempt is fixed here, so every sale submission made
// by this invocation carries the same key.
func New(store TableOrderStore, ledger SalesLedger) *Workflow {
	if store == nil || ledger == nil {
		panic("nil collaborator passed to billing.New")
	}
	return &Workflow{
		store:  store,
		ledger: ledger,
		now:    time.Now,
		newKey: uuid.NewString,
		state:  StateIdle,
	}
}

// State reports the workflow's current state.
func (w *Workflow) State() State { return w.state }

// Table returns the table snapshot fetched by Load. Zero value before
// StateReady.
func (w *Workflow) Table() model.Table { return w.table }

// Orders returns the order snapshot fetched by Load, already filtered
// to the workflow's table.
func (w *Workflow) Orders() []model.Order { return w.orders }

// AttemptKey returns the idempotency key stamped on this invocation.
func (w *Workflow) AttemptKey() string {
	if w.attemptKey == "" {
		w.attemptKey = w.newKey()
	}
	return w.attemptKey
}

// Load fetches the table and its orders, entering StateReady on
// success. It is accepted from StateIdle and, after a fetch failure,
// from StateFailed so a caller can retry the load without building a
// new workflow. Orders are filtered to those referencing the table
// before the snapshot is kept.
func (w *Workflow) Load(ctx context.Context, tableID uint64) error {
	if w.state != StateIdle && w.state != StateFailed {
		return newError(KindValidation, w.state, fmt.Errorf("load not allowed in state %s", w.state))
	}
	w.state = StateLoading

	table, err := w.store.FetchTable(ctx, tableID)
	if err != nil {
		w.state = StateFailed
		return newError(KindFetch, StateLoading, err)
	}
	orders, err := w.store.FetchOrdersForTable(ctx, tableID)
	if err != nil {
		w.state = StateFailed
		return newError(KindFetch, StateLoading, err)
	}

	kept := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if o.TableID == tableID {
			kept = append(kept, o)
		}
	}

	w.table = table
	w.orders = kept
	w.state = StateReady
	return nil
}

// BeginClose moves Ready → ConfirmingPayment and returns the bill the
// caller should present for confirmation. A close over zero orders is
// refused: the UI disables the action in that case, and the workflow
// rejects it here as well. Refusals leave the state unchanged.
func (w *Workflow) BeginClose() (Bill, error) {
	if w.state != StateReady {
		return Bill{}, newError(KindValidation, w.state, fmt.Errorf("close not allowed in state %s", w.state))
	}
	if len(w.orders) == 0 {
		return Bill{}, newError(KindValidation, w.state, errors.New("table has no orders to close"))
	}
	w.state = StateConfirmingPayment
	return Aggregate(w.table.ID, w.orders), nil
}

// Confirm accepts a payment method and runs Processing to completion:
// aggregate the snapshot into a bill, submit the sale, delete every
// order associated with the table (cancelled ones included) one at a
// time, then release the table. serverID is the staff member closing
// the table and becomes the sale's server.
//
// An unknown payment method is refused without a state change. Any
// downstream failure moves the workflow to StateFailed with the
// corresponding error kind; sub-steps that already succeeded are not
// compensated.
func (w *Workflow) Confirm(ctx context.Context, serverID uint64, paymentMethod string) (Result, error) {
	if w.state != StateConfirmingPayment {
		return Result{}, newError(KindValidation, w.state, fmt.Errorf("confirm not allowed in state %s", w.state))
	}
	if !model.ValidPaymentMethod(paymentMethod) {
		return Result{}, newError(KindValidation, w.state, fmt.Errorf("unknown payment method %q", paymentMethod))
	}
	w.state = StateProcessing

	bill := Aggregate(w.table.ID, w.orders)

	items := make([]model.SaleItem, len(bill.Lines))
	for i, ln := range bill.Lines {
		items[i] = model.SaleItem{
			ProductName:    ln.ProductName,
			Quantity:       ln.Quantity,
			UnitPriceCents: ln.UnitPriceCents,
			SubtotalCents:  ln.SubtotalCents,
		}
	}
	sale, err := w.ledger.CreateSale(ctx, model.Sale{
		TableID:       w.table.ID,
		ServerID:      serverID,
		PaymentMethod: paymentMethod,
		TotalCents:    bill.GrandTotalCents,
		AttemptKey:    w.AttemptKey(),
		Items:         items,
		CreatedAt:     w.now().UTC(),
	})
	if err != nil {
		w.state = StateFailed
		return Result{}, newError(KindSaleSubmission, StateProcessing, err)
	}

	// Every order on the table is removed, billed or not. The sale is
	// already recorded at this point, so a failure here leaves partial
	// state the caller must reconcile by retrying cleanup only.
	for _, o := range w.orders {
		if err := w.store.DeleteOrder(ctx, o.ID); err != nil {
			w.state = StateFailed
			return Result{}, newError(KindOrderCleanup, StateProcessing, fmt.Errorf("delete order %d: %w", o.ID, err))
		}
	}

	available := model.TableAvailable
	occupied := model.TableOccupied
	released, err := w.store.UpdateTable(ctx, w.table.ID, TablePatch{
		Status:       &available,
		ClearServer:  true,
		ExpectStatus: &occupied,
	})
	if err != nil {
		w.state = StateFailed
		return Result{}, newError(KindTableRelease, StateProcessing, err)
	}

	w.state = StateCompleted
	return Result{Sale: sale, Table: released, Bill: bill}, nil
}
