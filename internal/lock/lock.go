// Package lock provides the lease lock that keeps reconciliation passes from overlapping across instances.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Release gives up a lease. Releasing a lease that already expired is not an error.
type Release func(ctx context.Context) error

type Locker interface {
	// TryLock acquires key for ttl without blocking. ok is false when another holder owns it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release Release, ok bool, err error)
}

type noopLocker struct{}

// Noop always grants the lease. Used for single-instance deployments.
func Noop() Locker { return noopLocker{} }

func (noopLocker) TryLock(context.Context, string, time.Duration) (Release, bool, error) {
	return func(context.Context) error { return nil }, true, nil
}

const keyPrefix = "equiprent:lock:"

// delete only if we still hold the lease
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client redis.UniversalClient
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (Release, bool, error) {
	if ttl <= 0 {
		return nil, false, errors.New("lock ttl must be positive")
	}
	fullKey := keyPrefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err()
	}
	return release, true, nil
}
