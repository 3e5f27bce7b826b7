package remote

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlreadyStored(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	assert.True(t, AlreadyStored(unique))
	assert.True(t, AlreadyStored(fmt.Errorf("wrapped: %w", unique)))
	assert.False(t, AlreadyStored(&pgconn.PgError{Code: "23503"}))
	assert.False(t, AlreadyStored(errors.New("connection reset")))
	assert.False(t, AlreadyStored(nil))
}

func TestPushEmptyIsNoop(t *testing.T) {
	m := NewPostgresMirror(nil)
	acked, err := m.Push(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, acked)
}
