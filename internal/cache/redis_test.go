package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCache("redis://"+mr.Addr(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCache_GetSetDelete(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "payment_status:2024-01-01", []byte("payload"), time.Minute))
	assert.True(t, mr.Exists(keyPrefix+"payment_status:2024-01-01"), "key is stored with prefix")

	got, ok, err := c.Get(ctx, "payment_status:2024-01-01")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "payload", string(got))

	require.NoError(t, c.Delete(ctx, "payment_status:2024-01-01"))
	_, ok, err = c.Get(ctx, "payment_status:2024-01-01")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestRedisCache_Expiry verifies the TTL is handed to redis.
func TestRedisCache_Expiry(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Second))
	mr.FastForward(11 * time.Second)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_Ping(t *testing.T) {
	c, _ := newTestRedis(t)
	assert.NoError(t, c.Ping())
}

// TestRedisCache_Unreachable verifies errors surface when the server is down.
func TestRedisCache_Unreachable(t *testing.T) {
	c, err := NewRedisCache("redis://127.0.0.1:1", 100*time.Millisecond)
	require.NoError(t, err)
	defer c.Close()

	assert.Error(t, c.Ping())
	_, _, err = c.Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache("not a url", 0)
	assert.Error(t, err)
}
