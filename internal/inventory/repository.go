package inventory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
)

// Repository persists stock movements.
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

// InsertMovement appends one stock card line.
func (r *Repository) InsertMovement(ctx context.Context, m Movement) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO stock_movements (tenant_id, product_id, delta, balance, ref_module, ref_id, note, posted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.TenantID, m.ProductID, m.Delta, m.Balance, m.RefModule, m.RefID, m.Note, m.PostedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("inventory: insert movement: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("inventory: movement id: %w", err)
	}
	return id, nil
}

// GetStockCard returns movements for one product, oldest first.
func (r *Repository) GetStockCard(ctx context.Context, tenantID, productID string, filter StockCardFilter) ([]Movement, error) {
	query := `
		SELECT id, tenant_id, product_id, delta, balance, ref_module, ref_id, note, posted_at
		FROM stock_movements
		WHERE tenant_id = ? AND product_id = ?`
	args := []any{tenantID, productID}
	if !filter.From.IsZero() {
		query += ` AND posted_at >= ?`
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		query += ` AND posted_at <= ?`
		args = append(args, filter.To)
	}
	query += ` ORDER BY id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("inventory: stock card: %w", err)
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.TenantID, &m.ProductID, &m.Delta, &m.Balance, &m.RefModule, &m.RefID, &m.Note, &m.PostedAt); err != nil {
			return nil, fmt.Errorf("inventory: scan movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
