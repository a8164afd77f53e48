package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	cartKeyPrefix = "cart:"
	cartTTL       = 15 * time.Minute
	maxTTLJitter  = 5 // minutes, exclusive

	fieldVersion = "version"
	fieldData    = "data"
)

// setIfNewer replaces the entry only when the cached version is older. An
// entry of any other shape is overwritten.
// KEYS[1] cart key; ARGV version, JSON, ttl in ms.
var setIfNewer = redis.NewScript(`
local cur = redis.pcall('HGET', KEYS[1], 'version')
local v = type(cur) == 'string' and tonumber(cur)
if v and v >= tonumber(ARGV[1]) then
	return 0
end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'data', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// RedisCache keeps each cart as a hash of its version and its JSON document,
// so writes can be ordered by version inside Redis.
type RedisCache struct {
	client redis.UniversalClient
	ttl    func() time.Duration
}

func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client, ttl: jitteredTTL}
}

// jitteredTTL spreads expiry so carts cached together don't expire together.
func jitteredTTL() time.Duration {
	return cartTTL + time.Duration(rand.Intn(maxTTLJitter))*time.Minute
}

func (r *RedisCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	raw, err := r.client.HGet(ctx, cacheKey(userID), fieldData).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("cache get %s: %w", userID, err)
	}

	cart := new(domain.Cart)
	if err := json.Unmarshal(raw, cart); err != nil {
		return nil, fmt.Errorf("cache decode %s: %w", userID, err)
	}
	return cart, nil
}

func (r *RedisCache) Set(ctx context.Context, userID string, cart *domain.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", userID, err)
	}
	err = setIfNewer.Run(ctx, r.client, []string{cacheKey(userID)},
		cart.Version, raw, r.ttl().Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("cache set %s: %w", userID, err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", userID, err)
	}
	return nil
}

func cacheKey(userID string) string {
	return cartKeyPrefix + userID
}
