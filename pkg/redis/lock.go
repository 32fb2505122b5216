package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds the caller's token,
// so an expired holder cannot release a lock that someone else took over.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a single-key mutual exclusion lock with automatic expiry.
// It prevents overlapping queue runs across processes.
type Lock struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewLock creates a lock on key that expires after ttl if never released.
func NewLock(client redis.UniversalClient, key string, ttl time.Duration) *Lock {
	return &Lock{client: client, key: key, ttl: ttl}
}

// TryLock acquires the lock without waiting. When acquired is false the lock
// is held by someone else and release is nil.
func (l *Lock) TryLock(ctx context.Context) (release func(context.Context) error, acquired bool, err error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %q: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release = func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Int()
		if err != nil {
			return fmt.Errorf("release lock %q: %w", l.key, err)
		}
		if n == 0 {
			return errors.Join(ErrLockNotHeld, fmt.Errorf("lock %q expired before release", l.key))
		}
		return nil
	}
	return release, true, nil
}
