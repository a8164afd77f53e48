package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLedger records keys that have already been processed, so redelivered
// events and messages are applied once.
type RedisLedger struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisLedger(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisLedger {
	return &RedisLedger{client: client, prefix: prefix, ttl: ttl}
}

// Claim reports true when the caller is the first to claim key.
func (l *RedisLedger) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(key), time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("ledger claim failed: %w", err)
	}
	return ok, nil
}

// Release drops a claim so a later delivery can retry the work.
func (l *RedisLedger) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("ledger release failed: %w", err)
	}
	return nil
}

func (l *RedisLedger) key(k string) string {
	return l.prefix + ":" + k
}
