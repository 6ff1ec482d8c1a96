package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// OrderRepo provides CRUD operations for orders and their line items.
// An order and its items are always written together in one
// transaction; the stored total is fixed from the items at creation
// time and treated as authoritative afterwards.
type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

const orderCols = "id,table_id,server_id,status,total_cents,created_at"

// Create inserts an order plus its items in a single transaction and
// returns the stored order. The total is computed here as the sum of
// the supplied item subtotals.
func (r *OrderRepo) Create(ctx context.Context, tableID, serverID uint64, items []model.OrderItem) (model.Order, error) {
	var total int64
	for _, it := range items {
		total += it.SubtotalCents
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Order{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO orders (table_id, server_id, status, total_cents) VALUES (?,?,?,?)",
		tableID, serverID, model.OrderPending, total)
	if err != nil {
		return model.Order{}, err
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return model.Order{}, err
	}

	if len(items) > 0 {
		q := "INSERT INTO order_items (order_id, product_name, quantity, unit_price_cents, subtotal_cents) VALUES "
		args := make([]any, 0, len(items)*5)
		for i, it := range items {
			if i > 0 {
				q += ","
			}
			q += "(?,?,?,?,?)"
			args = append(args, orderID, it.ProductName, it.Quantity, it.UnitPriceCents, it.SubtotalCents)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return model.Order{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Order{}, err
	}
	committed = true
	return r.GetByID(ctx, uint64(orderID))
}

// GetByID fetches one order with its items.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (model.Order, error) {
	var o model.Order
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+orderCols+" FROM orders WHERE id=? LIMIT 1", id).
		Scan(&o.ID, &o.TableID, &o.ServerID, &o.Status, &o.TotalCents, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return o, ErrOrderNotFound
	}
	if err != nil {
		return o, err
	}
	o.Items, err = r.itemsFor(ctx, o.ID)
	return o, err
}

// List returns orders, newest first, optionally restricted to one
// table. Items are loaded for every returned order.
func (r *OrderRepo) List(ctx context.Context, tableID *uint64) ([]model.Order, error) {
	q := "SELECT " + orderCols + " FROM orders"
	var args []any
	if tableID != nil {
		q += " WHERE table_id=?"
		args = append(args, *tableID)
	}
	q += " ORDER BY created_at DESC, id DESC"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.TableID, &o.ServerID, &o.Status, &o.TotalCents, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Items, err = r.itemsFor(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListByTable returns every order belonging to one table.
func (r *OrderRepo) ListByTable(ctx context.Context, tableID uint64) ([]model.Order, error) {
	return r.List(ctx, &tableID)
}

// UpdateStatus moves an order to a new lifecycle state.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint64, status string) (model.Order, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE orders SET status=? WHERE id=?", status, id)
	if err != nil {
		return model.Order{}, err
	}
	// Zero affected rows can mean a no-op write of the same status;
	// GetByID distinguishes that from a missing order.
	return r.GetByID(ctx, id)
}

// Delete removes an order and, via ON DELETE CASCADE, its items.
func (r *OrderRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM orders WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepo) itemsFor(ctx context.Context, orderID uint64) ([]model.OrderItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,order_id,product_name,quantity,unit_price_cents,subtotal_cents FROM order_items WHERE order_id=? ORDER BY id",
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductName, &it.Quantity, &it.UnitPriceCents, &it.SubtotalCents); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
