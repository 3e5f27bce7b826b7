// Package dbtest opens throwaway local stores for tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

// Tenant is the tenant used by TenantContext.
const Tenant = "tenant-test"

// Open creates a fully migrated store in a temporary directory.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := db.OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// TenantContext returns a background context scoped to Tenant.
func TenantContext() context.Context {
	return shared.ContextWithTenant(context.Background(), Tenant)
}

// Clock is a manually advanced clock for deterministic timestamps.
type Clock struct {
	now time.Time
}

// NewClock starts a clock at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)}
}

// Now returns the current instant and advances the clock by one second.
func (c *Clock) Now() time.Time {
	current := c.now
	c.now = c.now.Add(time.Second)
	return current
}
