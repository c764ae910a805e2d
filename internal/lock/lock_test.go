package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoop(t *testing.T) {
	release, ok, err := Noop().TryLock(context.Background(), "reconcile", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, release(context.Background()))
}

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisLocker_ExclusiveUntilReleased(t *testing.T) {
	client := redisClient(t)
	locker := NewRedisLocker(client)
	ctx := context.Background()
	key := "test-" + t.Name()

	release, ok, err := locker.TryLock(ctx, key, 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.TryLock(ctx, key, 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, release(ctx))

	release, ok, err = locker.TryLock(ctx, key, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, release(ctx))
}

func TestRedisLocker_StaleReleaseKeepsNewHolder(t *testing.T) {
	client := redisClient(t)
	locker := NewRedisLocker(client)
	ctx := context.Background()
	key := "test-" + t.Name()

	stale, ok, err := locker.TryLock(ctx, key, 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
	time.Sleep(100 * time.Millisecond)

	current, ok, err := locker.TryLock(ctx, key, 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, stale(ctx))
	_, ok, err = locker.TryLock(ctx, key, 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, current(ctx))
}

func TestRedisLocker_RejectsZeroTTL(t *testing.T) {
	_, ok, err := NewRedisLocker(nil).TryLock(context.Background(), "k", 0)
	assert.Error(t, err)
	assert.False(t, ok)
}
