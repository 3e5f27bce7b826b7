// Package sequence generates order ids.
package sequence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
)

// Format selects how order ids are built.
type Format string

const (
	// FormatRandom builds PREFIX-<uuid>.
	FormatRandom Format = "random"
	// FormatSequential builds PREFIX-0001, PREFIX-0002... per prefix. The counter
	// is shared by every tenant of the store because order ids are store-wide keys.
	FormatSequential Format = "sequential"
)

// ParseFormat validates a configured format name. Empty means random.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatRandom:
		return FormatRandom, nil
	case FormatSequential:
		return FormatSequential, nil
	default:
		return "", fmt.Errorf("sequence: unknown order id format %q", s)
	}
}

// Generator hands out order ids.
type Generator struct {
	format Format
	width  int
}

// NewGenerator builds a Generator. Sequential numbers are zero padded to four digits.
func NewGenerator(format Format) *Generator {
	if format == "" {
		format = FormatRandom
	}
	return &Generator{format: format, width: 4}
}

// Format reports the configured format.
func (g *Generator) Format() Format {
	return g.format
}

// Next returns a fresh id for prefix. For sequential ids the counter row is
// incremented with a single upsert statement through q, so callers must pass the
// transaction that persists the order: the number is only consumed if it commits.
func (g *Generator) Next(ctx context.Context, q db.DBTX, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", errors.New("sequence: prefix required")
	}
	if g.format == FormatRandom {
		return fmt.Sprintf("%s-%s", prefix, uuid.NewString()), nil
	}
	var n int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO order_sequences (prefix, last_number) VALUES (?, 1)
		ON CONFLICT (prefix) DO UPDATE SET last_number = last_number + 1
		RETURNING last_number`, prefix).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("sequence: increment %s counter: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%0*d", prefix, g.width, n), nil
}

// Last returns the last number handed out for prefix, 0 when none.
func (g *Generator) Last(ctx context.Context, q db.DBTX, prefix string) (int64, error) {
	var n int64
	err := q.QueryRowContext(ctx, `SELECT last_number FROM order_sequences WHERE prefix = ?`, prefix).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("sequence: read %s counter: %w", prefix, err)
	}
	return n, nil
}
