package customers

import (
	"context"
	"database/sql"
	"strings"

	"github.com/odyssey-erp/odyssey-retail/internal/outbox"
	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

// Service implements the customer entity store.
type Service struct {
	conn   *sql.DB
	repo   *Repository
	outbox *outbox.Service
	now    shared.Clock
}

// NewService builds Service. A nil clock uses the system clock.
func NewService(conn *sql.DB, sync *outbox.Service, now shared.Clock) *Service {
	if now == nil {
		now = shared.SystemClock
	}
	return &Service{conn: conn, repo: NewRepository(conn), outbox: sync, now: now}
}

// Create stores a new customer at version 1 and queues it for sync.
func (s *Service) Create(ctx context.Context, in CreateInput) (Customer, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return Customer{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := shared.Validate(in); err != nil {
		return Customer{}, err
	}
	if in.Type == "" {
		in.Type = TypeCustomer
	}

	c := Customer{
		Meta:    shared.NewMeta(tenant, s.now()),
		Name:    in.Name,
		Type:    in.Type,
		Email:   strings.TrimSpace(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		GST:     strings.TrimSpace(in.GST),
		Address: in.Address,
		State:   strings.TrimSpace(in.State),
		Balance: in.Balance,
		Notes:   in.Notes,
	}
	err = db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).Insert(ctx, c); err != nil {
			return err
		}
		_, err := s.outbox.Enqueue(ctx, tx, outbox.EntityCustomer, c.ID, outbox.ActionCreate, c)
		return err
	})
	if err != nil {
		return Customer{}, err
	}
	return c, nil
}

// Get returns the customer, archived or not.
func (s *Service) Get(ctx context.Context, id string) (Customer, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return Customer{}, err
	}
	return s.repo.Get(ctx, tenant, id)
}

// Update applies a partial update without checking the caller's version.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Customer, error) {
	return s.update(ctx, id, nil, in)
}

// UpdateIfVersion applies a partial update only when the stored version equals expected.
func (s *Service) UpdateIfVersion(ctx context.Context, id string, expected int64, in UpdateInput) (Customer, error) {
	return s.update(ctx, id, &expected, in)
}

// Archive hides the customer from listings. It stays gettable and updatable.
func (s *Service) Archive(ctx context.Context, id string) (Customer, error) {
	archived := true
	return s.update(ctx, id, nil, UpdateInput{IsArchived: &archived})
}

func (s *Service) update(ctx context.Context, id string, expected *int64, in UpdateInput) (Customer, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return Customer{}, err
	}
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
	if err := in.validate(); err != nil {
		return Customer{}, err
	}

	var updated Customer
	err = db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.Get(ctx, tenant, id)
		if err != nil {
			return err
		}
		if err := shared.CheckVersion(current.Version, expected); err != nil {
			return err
		}
		next := current
		in.apply(&next)
		next.Meta = current.Meta.Next(s.now())
		if err := repo.Update(ctx, next, current.Version); err != nil {
			return err
		}
		if _, err := s.outbox.Enqueue(ctx, tx, outbox.EntityCustomer, next.ID, outbox.ActionUpdate, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return Customer{}, err
	}
	return updated, nil
}

// List returns the tenant's non-archived customers ordered by name.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Customer, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, tenant, filter)
}

// Search returns non-archived customers whose name, email, phone or GST number
// contains query, ignoring case.
func (s *Service) Search(ctx context.Context, query string, filter ListFilter) ([]Customer, error) {
	all, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]Customer, 0, len(all))
	for _, c := range all {
		if c.matches(query) {
			out = append(out, c)
		}
	}
	return out, nil
}

// ListPaginated returns one page of the search results.
func (s *Service) ListPaginated(ctx context.Context, query string, page, pageSize int, filter ListFilter) (shared.Page[Customer], error) {
	all, err := s.List(ctx, filter)
	if err != nil {
		return shared.Page[Customer]{}, err
	}
	return shared.Paginate(all, page, pageSize, func(c Customer) bool { return c.matches(query) }), nil
}
