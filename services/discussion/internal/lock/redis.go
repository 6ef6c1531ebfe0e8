package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "discussion:lock:"

// Deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker coordinates locks across replicas with SET NX and a TTL.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
	log    *zap.Logger
}

// NewRedis connects to the Redis server at dsn. A dsn that is not a
// redis:// URL is treated as a host:port address.
func NewRedis(dsn string, ttl, wait time.Duration, log *zap.Logger) *RedisLocker {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		opts = &redis.Options{Addr: dsn}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisLocker{
		client: redis.NewClient(opts),
		ttl:    ttl,
		wait:   wait,
		retry:  25 * time.Millisecond,
		log:    log,
	}
}

func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token := uuid.NewString()
	if err := l.acquire(ctx, keyPrefix+key, token); err != nil {
		return err
	}
	defer func() {
		// release on a fresh context so a cancelled request still frees the key
		rctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.client, []string{keyPrefix + key}, token).Err(); err != nil {
			l.log.Warn("lock: release failed", zap.String("key", key), zap.Error(err))
		}
	}()
	return fn(ctx)
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		if ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrNotAcquired
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retry):
		}
	}
}
