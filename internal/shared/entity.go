package shared

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Clock returns the current time; services take one so tests can pin timestamps.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// Meta is the base shape shared by every persisted entity.
type Meta struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Version   int64     `json:"version"`
}

// NewMeta stamps a freshly created entity at version 1.
func NewMeta(tenantID string, now time.Time) Meta {
	return Meta{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

// Next returns the stamp for the write that follows a read of m.
func (m Meta) Next(now time.Time) Meta {
	m.UpdatedAt = now
	m.Version++
	return m
}

// CheckVersion rejects writes prepared against a version other than the stored one.
func CheckVersion(stored int64, expected *int64) error {
	if expected == nil || *expected == stored {
		return nil
	}
	return fmt.Errorf("%w: stale version %d, stored version is %d", ErrConflict, *expected, stored)
}
