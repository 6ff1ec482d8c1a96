package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// TableRepo provides CRUD operations over the 'tables' table plus the
// occupancy transitions the floor screens drive: a waiter taking a
// table and the billing workflow releasing it.
type TableRepo struct{ DB *sql.DB }

func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{DB: db} }

var ErrTableNumberExists = errors.New("table number already exists")

const tableCols = "id,number,capacity,location,status,assigned_server_id,created_at,updated_at"

func scanTable(row interface {
	Scan(dest ...any) error
}) (model.Table, error) {
	var (
		t      model.Table
		server sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.Number, &t.Capacity, &t.Location, &t.Status, &server, &t.CreatedAt, &t.UpdatedAt)
	if server.Valid {
		id := uint64(server.Int64)
		t.AssignedServerID = &id
	}
	return t, err
}

// Create inserts a table and returns it with generated fields filled.
func (r *TableRepo) Create(ctx context.Context, number, capacity uint32, location string) (model.Table, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO tables (number, capacity, location, status) VALUES (?,?,?,?)",
		number, capacity, strings.TrimSpace(location), model.TableAvailable)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.Table{}, ErrTableNumberExists
		}
		return model.Table{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Table{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a table by id.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (model.Table, error) {
	t, err := scanTable(r.DB.QueryRowContext(ctx,
		"SELECT "+tableCols+" FROM tables WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return t, ErrTableNotFound
	}
	return t, err
}

// List returns all tables ordered by number.
func (r *TableRepo) List(ctx context.Context) ([]model.Table, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+tableCols+" FROM tables ORDER BY number")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update rewrites a table's descriptive fields and status.
func (r *TableRepo) Update(ctx context.Context, id uint64, number, capacity uint32, location, status string, serverID *uint64) (model.Table, error) {
	var server sql.NullInt64
	if serverID != nil {
		server = sql.NullInt64{Int64: int64(*serverID), Valid: true}
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tables SET number=?, capacity=?, location=?, status=?, assigned_server_id=? WHERE id=?",
		number, capacity, strings.TrimSpace(location), status, server, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.Table{}, ErrTableNumberExists
		}
		return model.Table{}, err
	}
	return r.GetByID(ctx, id)
}

// Occupy assigns a table to a waiter, but only while it is not
// already occupied by someone else. Zero affected rows means the
// table was taken concurrently (or does not exist).
func (r *TableRepo) Occupy(ctx context.Context, id, serverID uint64) (model.Table, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tables SET status=?, assigned_server_id=? WHERE id=? AND status<>?",
		model.TableOccupied, serverID, id, model.TableOccupied)
	if err != nil {
		return model.Table{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return model.Table{}, err
		}
		return model.Table{}, ErrConflict
	}
	return r.GetByID(ctx, id)
}

// ReleaseIfOccupied is the conditional update used when closing out a
// table: status goes back to available and the assigned server is
// cleared, but only if the table is still occupied. When another
// device already released it, zero rows match and ErrConflict is
// returned so the caller does not double-close.
func (r *TableRepo) ReleaseIfOccupied(ctx context.Context, id uint64) (model.Table, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tables SET status=?, assigned_server_id=NULL WHERE id=? AND status=?",
		model.TableAvailable, id, model.TableOccupied)
	if err != nil {
		return model.Table{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return model.Table{}, err
		}
		return model.Table{}, ErrConflict
	}
	return r.GetByID(ctx, id)
}

// Delete removes a table row. Tables with order or sale history are
// protected by foreign keys and surface as ErrConflict.
func (r *TableRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tables WHERE id=?", id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1451") {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	return nil
}
