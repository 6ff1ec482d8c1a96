package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// ProductRepo provides CRUD operations over the 'products' table.
// Only the catalog metadata lives here; orders copy name and price at
// order time instead of referencing product rows.
type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

const productCols = "id,name,category,price_cents,description,available,image_url,created_at,updated_at"

func scanProduct(row interface {
	Scan(dest ...any) error
}) (model.Product, error) {
	var (
		p   model.Product
		img sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.PriceCents, &p.Description, &p.Available, &img, &p.CreatedAt, &p.UpdatedAt)
	if img.Valid {
		u := img.String
		p.ImageURL = &u
	}
	return p, err
}

// Create inserts a product and returns it with generated fields.
func (r *ProductRepo) Create(ctx context.Context, name, category string, priceCents int64, description string, available bool) (model.Product, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO products (name, category, price_cents, description, available) VALUES (?,?,?,?,?)",
		strings.TrimSpace(name), strings.TrimSpace(category), priceCents, description, available)
	if err != nil {
		return model.Product{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Product{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a product by id.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (model.Product, error) {
	p, err := scanProduct(r.DB.QueryRowContext(ctx,
		"SELECT "+productCols+" FROM products WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return p, ErrProductNotFound
	}
	return p, err
}

// List returns products ordered by category then name. When
// availableOnly is set, unavailable items are filtered out; the order
// screen uses that, the admin catalog does not.
func (r *ProductRepo) List(ctx context.Context, availableOnly bool) ([]model.Product, error) {
	q := "SELECT " + productCols + " FROM products"
	if availableOnly {
		q += " WHERE available=1"
	}
	q += " ORDER BY category, name"
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update rewrites a product's catalog fields.
func (r *ProductRepo) Update(ctx context.Context, id uint64, name, category string, priceCents int64, description string, available bool) (model.Product, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE products SET name=?, category=?, price_cents=?, description=?, available=? WHERE id=?",
		strings.TrimSpace(name), strings.TrimSpace(category), priceCents, description, available, id)
	if err != nil {
		return model.Product{}, err
	}
	return r.GetByID(ctx, id)
}

// SetImageURL stores or clears the product image location.
func (r *ProductRepo) SetImageURL(ctx context.Context, id uint64, url *string) error {
	var v sql.NullString
	if url != nil {
		v = sql.NullString{String: *url, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, "UPDATE products SET image_url=? WHERE id=?", v, id)
	return err
}

// Delete removes a product row.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM products WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}
