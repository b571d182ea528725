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

func TestSlidingWindowLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewSlidingWindowLimiter(client, "rl-test", 2, time.Minute)
	ctx := context.Background()

	allowed, _, _, err := limiter.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, _, err = limiter.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, retry, err := limiter.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retry, time.Duration(0))

	// A different caller has its own window.
	allowed, _, _, err = limiter.Allow(ctx, "ip:10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed)
}
