package repository

import (
	"context"
	"errors"

	"github.com/iliyamo/restaurant-pos/internal/billing"
	"github.com/iliyamo/restaurant-pos/internal/model"
)

// BillingStore adapts TableRepo and OrderRepo to the
// billing.TableOrderStore interface so the closing workflow stays
// decoupled from the SQL layer. Repository sentinels are translated
// to the billing package's own sentinels at this boundary.
type BillingStore struct {
	Tables *TableRepo
	Orders *OrderRepo
}

// NewBillingStore returns a store over the given repositories.
func NewBillingStore(tables *TableRepo, orders *OrderRepo) *BillingStore {
	if tables == nil || orders == nil {
		panic("nil repository passed to NewBillingStore")
	}
	return &BillingStore{Tables: tables, Orders: orders}
}

// FetchTable loads one table.
func (s *BillingStore) FetchTable(ctx context.Context, tableID uint64) (model.Table, error) {
	t, err := s.Tables.GetByID(ctx, tableID)
	if errors.Is(err, ErrTableNotFound) {
		return t, billing.ErrTableNotFound
	}
	return t, err
}

// FetchOrdersForTable loads every order of one table, items included.
func (s *BillingStore) FetchOrdersForTable(ctx context.Context, tableID uint64) ([]model.Order, error) {
	return s.Orders.ListByTable(ctx, tableID)
}

// UpdateTable applies a partial update. The only patch the workflow
// issues is the conditional release (available, server cleared,
// expecting occupied), which maps onto ReleaseIfOccupied; other
// patches fall through to the general update.
func (s *BillingStore) UpdateTable(ctx context.Context, tableID uint64, patch billing.TablePatch) (model.Table, error) {
	if isRelease(patch) {
		t, err := s.Tables.ReleaseIfOccupied(ctx, tableID)
		switch {
		case errors.Is(err, ErrConflict):
			return t, billing.ErrConflict
		case errors.Is(err, ErrTableNotFound):
			return t, billing.ErrTableNotFound
		}
		return t, err
	}

	cur, err := s.Tables.GetByID(ctx, tableID)
	if errors.Is(err, ErrTableNotFound) {
		return cur, billing.ErrTableNotFound
	}
	if err != nil {
		return cur, err
	}
	if patch.ExpectStatus != nil && cur.Status != *patch.ExpectStatus {
		return model.Table{}, billing.ErrConflict
	}
	status := cur.Status
	if patch.Status != nil {
		status = *patch.Status
	}
	server := cur.AssignedServerID
	if patch.ClearServer {
		server = nil
	} else if patch.ServerID != nil {
		server = patch.ServerID
	}
	return s.Tables.Update(ctx, tableID, cur.Number, cur.Capacity, cur.Location, status, server)
}

// DeleteOrder removes one order. An order that is already gone counts
// as deleted, so retrying cleanup after a partial failure can walk the
// same order list again.
func (s *BillingStore) DeleteOrder(ctx context.Context, orderID uint64) error {
	err := s.Orders.Delete(ctx, orderID)
	if errors.Is(err, ErrOrderNotFound) {
		return nil
	}
	return err
}

func isRelease(p billing.TablePatch) bool {
	return p.Status != nil && *p.Status == model.TableAvailable &&
		p.ClearServer &&
		p.ExpectStatus != nil && *p.ExpectStatus == model.TableOccupied
}

// BillingLedger adapts SaleRepo to billing.SalesLedger.
type BillingLedger struct{ Sales *SaleRepo }

// NewBillingLedger returns a ledger over the given repository.
func NewBillingLedger(sales *SaleRepo) *BillingLedger {
	if sales == nil {
		panic("nil repository passed to NewBillingLedger")
	}
	return &BillingLedger{Sales: sales}
}

// CreateSale records a sale; idempotent on Sale.AttemptKey.
func (l *BillingLedger) CreateSale(ctx context.Context, sale model.Sale) (model.Sale, error) {
	return l.Sales.Create(ctx, sale)
}
