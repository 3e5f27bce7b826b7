package customers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

const customerColumns = `id, tenant_id, name, type, email, phone, gst, address, state, balance, notes,
	is_archived, created_at, updated_at, version`

// Repository provides persistence for customers.
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

// Insert writes a new customer row.
func (r *Repository) Insert(ctx context.Context, c Customer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.TenantID, c.Name, string(c.Type), c.Email, c.Phone, c.GST, c.Address, c.State,
		c.Balance.String(), c.Notes, c.IsArchived, c.CreatedAt, c.UpdatedAt, c.Version,
	)
	if err != nil {
		return fmt.Errorf("customers: insert: %w", err)
	}
	return nil
}

// Get loads one customer of the tenant.
func (r *Repository) Get(ctx context.Context, tenantID, id string) (Customer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE tenant_id = ? AND id = ?`, tenantID, id)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, fmt.Errorf("%w: customer %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return Customer{}, fmt.Errorf("customers: get: %w", err)
	}
	return c, nil
}

// Update overwrites the row previously read at version prev.
func (r *Repository) Update(ctx context.Context, c Customer, prev int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE customers SET name = ?, type = ?, email = ?, phone = ?, gst = ?, address = ?, state = ?,
			balance = ?, notes = ?, is_archived = ?, updated_at = ?, version = ?
		WHERE tenant_id = ? AND id = ? AND version = ?`,
		c.Name, string(c.Type), c.Email, c.Phone, c.GST, c.Address, c.State,
		c.Balance.String(), c.Notes, c.IsArchived, c.UpdatedAt, c.Version,
		c.TenantID, c.ID, prev,
	)
	if err != nil {
		return fmt.Errorf("customers: update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("customers: update rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: customer %s changed concurrently", shared.ErrConflict, c.ID)
	}
	return nil
}

// List returns non-archived customers ordered by name.
func (r *Repository) List(ctx context.Context, tenantID string, filter ListFilter) ([]Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE tenant_id = ? AND is_archived = 0`
	args := []any{tenantID}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	query += ` ORDER BY name COLLATE NOCASE, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("customers: list: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("customers: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCustomer(s scanner) (Customer, error) {
	var (
		c   Customer
		typ string
	)
	err := s.Scan(&c.ID, &c.TenantID, &c.Name, &typ, &c.Email, &c.Phone, &c.GST, &c.Address, &c.State,
		&c.Balance, &c.Notes, &c.IsArchived, &c.CreatedAt, &c.UpdatedAt, &c.Version)
	if err != nil {
		return Customer{}, err
	}
	c.Type = Type(typ)
	return c, nil
}
