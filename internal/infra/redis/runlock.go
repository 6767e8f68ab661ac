package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/wsr-notifier/internal/runlock"
	goredis "github.com/redis/go-redis/v9"
)

var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

var _ runlock.Locker = (*RedisRunLocker)(nil)

// RedisRunLocker hands out SET NX leases so that at most one process runs a
// given job at a time.
type RedisRunLocker struct {
	client   *goredis.Client
	newToken func() string
}

func NewRedisRunLocker(client *goredis.Client) (*RedisRunLocker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisRunLocker{
		client:   client,
		newToken: uuid.NewString,
	}, nil
}

func (l *RedisRunLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (runlock.Lease, error) {
	if l == nil || l.client == nil {
		return nil, fmt.Errorf("run locker is not initialized")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return nil, fmt.Errorf("lock key is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("lock ttl must be positive")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	token := l.newToken()
	acquired, err := l.client.SetNX(ctx, trimmedKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock %q: %w", trimmedKey, err)
	}
	if !acquired {
		return nil, runlock.ErrHeld
	}

	return &redisLease{client: l.client, key: trimmedKey, token: token}, nil
}

type redisLease struct {
	client *goredis.Client
	key    string
	token  string
}

func (l *redisLease) Release(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("failed to release run lock %q: %w", l.key, err)
	}
	return nil
}
