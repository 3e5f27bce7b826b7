package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bsm/redislock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestNewRejectsMissingAddress(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.Error(t, err)
}

func TestLockerIsExclusive(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := New(context.Background(), Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	locker := NewLocker(client)
	ctx := context.Background()

	lock, err := locker.Obtain(ctx, "lease", time.Minute, nil)
	require.NoError(t, err)

	_, err = locker.Obtain(ctx, "lease", time.Minute, nil)
	assert.ErrorIs(t, err, redislock.ErrNotObtained)

	require.NoError(t, lock.Release(ctx))
	again, err := locker.Obtain(ctx, "lease", time.Minute, nil)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}
