package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// SaleRepo persists finalized sales. Sale rows are immutable once
// written; there are no update operations. The attempt_key column is
// unique, which makes Create idempotent per billing attempt: a retry
// with the same key returns the already-recorded sale.
type SaleRepo struct{ DB *sql.DB }

func NewSaleRepo(db *sql.DB) *SaleRepo { return &SaleRepo{DB: db} }

const saleCols = "id,table_id,server_id,payment_method,total_cents,attempt_key,created_at"

// SaleStats summarizes the ledger over one day for the sales screen.
type SaleStats struct {
	TotalCents   int64 `json:"total_cents"`
	Count        int64 `json:"count"`
	AverageCents int64 `json:"average_cents"`
}

// Create writes a sale and its items in one transaction and returns
// the stored row. A duplicate attempt key short-circuits into a read
// of the existing sale instead of an error.
func (r *SaleRepo) Create(ctx context.Context, sale model.Sale) (model.Sale, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Sale{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO sales (table_id, server_id, payment_method, total_cents, attempt_key, created_at) VALUES (?,?,?,?,?,?)",
		sale.TableID, sale.ServerID, sale.PaymentMethod, sale.TotalCents, sale.AttemptKey, sale.CreatedAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return r.GetByAttemptKey(ctx, sale.AttemptKey)
		}
		return model.Sale{}, err
	}
	saleID, err := res.LastInsertId()
	if err != nil {
		return model.Sale{}, err
	}

	if len(sale.Items) > 0 {
		q := "INSERT INTO sale_items (sale_id, product_name, quantity, unit_price_cents, subtotal_cents) VALUES "
		args := make([]any, 0, len(sale.Items)*5)
		for i, it := range sale.Items {
			if i > 0 {
				q += ","
			}
			q += "(?,?,?,?,?)"
			args = append(args, saleID, it.ProductName, it.Quantity, it.UnitPriceCents, it.SubtotalCents)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return model.Sale{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Sale{}, err
	}
	committed = true
	return r.GetByID(ctx, uint64(saleID))
}

// GetByID fetches one sale with its items.
func (r *SaleRepo) GetByID(ctx context.Context, id uint64) (model.Sale, error) {
	return r.getWhere(ctx, "id=?", id)
}

// GetByAttemptKey fetches the sale recorded under an idempotency key.
func (r *SaleRepo) GetByAttemptKey(ctx context.Context, key string) (model.Sale, error) {
	return r.getWhere(ctx, "attempt_key=?", key)
}

func (r *SaleRepo) getWhere(ctx context.Context, cond string, arg any) (model.Sale, error) {
	var s model.Sale
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+saleCols+" FROM sales WHERE "+cond+" LIMIT 1", arg).
		Scan(&s.ID, &s.TableID, &s.ServerID, &s.PaymentMethod, &s.TotalCents, &s.AttemptKey, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return s, ErrSaleNotFound
	}
	if err != nil {
		return s, err
	}
	s.Items, err = r.itemsFor(ctx, s.ID)
	return s, err
}

// List returns sales, newest first.
func (r *SaleRepo) List(ctx context.Context) ([]model.Sale, error) {
	return r.listWhere(ctx, "", nil)
}

// ListByDateRange returns sales with created_at in [from, to).
func (r *SaleRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]model.Sale, error) {
	return r.listWhere(ctx, " WHERE created_at >= ? AND created_at < ?", []any{from, to})
}

func (r *SaleRepo) listWhere(ctx context.Context, cond string, args []any) ([]model.Sale, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+saleCols+" FROM sales"+cond+" ORDER BY created_at DESC, id DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Sale
	for rows.Next() {
		var s model.Sale
		if err := rows.Scan(&s.ID, &s.TableID, &s.ServerID, &s.PaymentMethod, &s.TotalCents, &s.AttemptKey, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
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

// Stats aggregates total, count and average over [from, to). The
// average is computed in SQL so the three figures come from one
// consistent snapshot.
func (r *SaleRepo) Stats(ctx context.Context, from, to time.Time) (SaleStats, error) {
	var st SaleStats
	err := r.DB.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(total_cents),0), COUNT(*), COALESCE(CAST(AVG(total_cents) AS SIGNED),0) FROM sales WHERE created_at >= ? AND created_at < ?",
		from, to).Scan(&st.TotalCents, &st.Count, &st.AverageCents)
	return st, err
}

func (r *SaleRepo) itemsFor(ctx context.Context, saleID uint64) ([]model.SaleItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,sale_id,product_name,quantity,unit_price_cents,subtotal_cents FROM sale_items WHERE sale_id=? ORDER BY id",
		saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.SaleItem
	for rows.Next() {
		var it model.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductName, &it.Quantity, &it.UnitPriceCents, &it.SubtotalCents); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
