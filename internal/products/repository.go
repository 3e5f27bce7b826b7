package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

const productColumns = `id, tenant_id, sku, barcode, title, description, unit, mrp, default_discount,
	default_discount_type, sale_price, sale_price_override, cost, stock_on_hand, reorder_level,
	is_archived, created_at, updated_at, version`

// Repository provides persistence for products.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs Repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{db: tx}
}

// Insert writes a new product row.
func (r *Repository) Insert(ctx context.Context, p Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.TenantID, p.SKU, p.Barcode, p.Title, p.Description, p.Unit,
		p.MRP.String(), p.DefaultDiscount.String(), string(p.DefaultDiscountType),
		p.SalePrice.String(), p.SalePriceOverride, p.Cost.String(), p.StockOnHand, p.ReorderLevel,
		p.IsArchived, p.CreatedAt, p.UpdatedAt, p.Version,
	)
	if err != nil {
		return fmt.Errorf("products: insert: %w", err)
	}
	return nil
}

// Get loads one product of the tenant.
func (r *Repository) Get(ctx context.Context, tenantID, id string) (Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE tenant_id = ? AND id = ?`, tenantID, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, fmt.Errorf("%w: product %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return Product{}, fmt.Errorf("products: get: %w", err)
	}
	return p, nil
}

// Update overwrites the catalogue fields of the row previously read at version
// prev. stock_on_hand is deliberately absent: only IncrementStock moves it.
func (r *Repository) Update(ctx context.Context, p Product, prev int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET sku = ?, barcode = ?, title = ?, description = ?, unit = ?, mrp = ?,
			default_discount = ?, default_discount_type = ?, sale_price = ?, sale_price_override = ?,
			cost = ?, reorder_level = ?, is_archived = ?, updated_at = ?, version = ?
		WHERE tenant_id = ? AND id = ? AND version = ?`,
		p.SKU, p.Barcode, p.Title, p.Description, p.Unit, p.MRP.String(),
		p.DefaultDiscount.String(), string(p.DefaultDiscountType), p.SalePrice.String(), p.SalePriceOverride,
		p.Cost.String(), p.ReorderLevel, p.IsArchived, p.UpdatedAt, p.Version,
		p.TenantID, p.ID, prev,
	)
	if err != nil {
		return fmt.Errorf("products: update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("products: update rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: product %s changed concurrently", shared.ErrConflict, p.ID)
	}
	return nil
}

// IncrementStock adds delta to stock on hand with a single relative UPDATE,
// bumping the version, and returns the row as written. Callers run it inside the
// transaction that records the movement.
func (r *Repository) IncrementStock(ctx context.Context, tenantID, id string, delta int64, at time.Time) (Product, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET stock_on_hand = stock_on_hand + ?, version = version + 1, updated_at = ?
		WHERE tenant_id = ? AND id = ?`, delta, at, tenantID, id)
	if err != nil {
		return Product{}, fmt.Errorf("products: increment stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Product{}, fmt.Errorf("products: increment stock rows: %w", err)
	}
	if n == 0 {
		return Product{}, fmt.Errorf("%w: product %s", shared.ErrNotFound, id)
	}
	return r.Get(ctx, tenantID, id)
}

// List returns non-archived products ordered by title.
func (r *Repository) List(ctx context.Context, tenantID string) ([]Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products
		WHERE tenant_id = ? AND is_archived = 0
		ORDER BY title COLLATE NOCASE, id`, tenantID)
}

// ListLowStock returns non-archived products at or below their reorder level.
func (r *Repository) ListLowStock(ctx context.Context, tenantID string) ([]Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products
		WHERE tenant_id = ? AND is_archived = 0
			AND reorder_level IS NOT NULL AND stock_on_hand <= reorder_level
		ORDER BY stock_on_hand - reorder_level, title COLLATE NOCASE`, tenantID)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("products: list: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("products: scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (Product, error) {
	var (
		p    Product
		kind string
	)
	err := s.Scan(&p.ID, &p.TenantID, &p.SKU, &p.Barcode, &p.Title, &p.Description, &p.Unit,
		&p.MRP, &p.DefaultDiscount, &kind, &p.SalePrice, &p.SalePriceOverride, &p.Cost,
		&p.StockOnHand, &p.ReorderLevel, &p.IsArchived, &p.CreatedAt, &p.UpdatedAt, &p.Version)
	if err != nil {
		return Product{}, err
	}
	p.DefaultDiscountType = DiscountType(kind)
	return p, nil
}
