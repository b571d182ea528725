package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewIdempotencyStore(client, time.Hour)
	ctx := context.Background()
	key := KeyIdemBooking(7, "req-123")

	// First caller takes the lock.
	locked, err := store.AcquireLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, locked)

	// A concurrent retry cannot.
	locked, err = store.AcquireLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, locked)

	isLocked, err := store.IsLocked(ctx, key)
	require.NoError(t, err)
	assert.True(t, isLocked)

	// No result yet while in flight.
	_, ok, err := store.GetResult(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	// The stored result replaces the lock and replays verbatim.
	require.NoError(t, store.SaveResult(ctx, key, `{"booking_id":100}`))

	payload, ok, err := store.GetResult(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"booking_id":100}`, payload)

	isLocked, err = store.IsLocked(ctx, key)
	require.NoError(t, err)
	assert.False(t, isLocked)
}

func TestIdempotencyStore_Release(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewIdempotencyStore(client, time.Hour)
	ctx := context.Background()
	key := KeyIdemBooking(7, "req-456")

	locked, err := store.AcquireLock(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, locked)

	// Releasing after a failed purchase lets the client retry.
	require.NoError(t, store.Release(ctx, key))

	locked, err = store.AcquireLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, locked)
}
