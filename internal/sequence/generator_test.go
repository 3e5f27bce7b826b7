package sequence

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
	"github.com/odyssey-erp/odyssey-retail/internal/platform/db/dbtest"
)

func TestSequentialPerPrefix(t *testing.T) {
	conn := dbtest.Open(t)
	gen := NewGenerator(FormatSequential)
	ctx := context.Background()

	first, err := gen.Next(ctx, conn, "SO")
	require.NoError(t, err)
	second, err := gen.Next(ctx, conn, "SO")
	require.NoError(t, err)
	purchase, err := gen.Next(ctx, conn, "PO")
	require.NoError(t, err)

	assert.Equal(t, "SO-0001", first)
	assert.Equal(t, "SO-0002", second)
	assert.Equal(t, "PO-0001", purchase)

	last, err := gen.Last(ctx, conn, "SO")
	require.NoError(t, err)
	assert.EqualValues(t, 2, last)

	last, err = gen.Last(ctx, conn, "QT")
	require.NoError(t, err)
	assert.Zero(t, last)
}

func TestSequentialNumberIsReleasedOnRollback(t *testing.T) {
	conn := dbtest.Open(t)
	gen := NewGenerator(FormatSequential)
	ctx := context.Background()

	err := db.WithTx(ctx, conn, func(tx *sql.Tx) error {
		id, err := gen.Next(ctx, tx, "SO")
		require.NoError(t, err)
		assert.Equal(t, "SO-0001", id)
		return errors.New("abort")
	})
	require.Error(t, err)

	id, err := gen.Next(ctx, conn, "SO")
	require.NoError(t, err)
	assert.Equal(t, "SO-0001", id)
}

func TestRandomFormat(t *testing.T) {
	gen := NewGenerator(FormatRandom)

	a, err := gen.Next(context.Background(), nil, "SO")
	require.NoError(t, err)
	b, err := gen.Next(context.Background(), nil, "SO")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "SO-"))
	assert.NotEqual(t, a, b)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatRandom, f)

	f, err = ParseFormat(" Sequential ")
	require.NoError(t, err)
	assert.Equal(t, FormatSequential, f)

	_, err = ParseFormat("daily")
	require.Error(t, err)

	_, err = NewGenerator(FormatRandom).Next(context.Background(), nil, " ")
	require.Error(t, err)
}
