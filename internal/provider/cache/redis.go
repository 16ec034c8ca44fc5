package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisPrefix namespaces quote keys, e.g. "quote:AAPL".
const DefaultRedisPrefix = "quote:"

// RedisStore shares cached quotes between processes. Redis expires keys
// itself; PriceCache still checks ExpiresAt on read.
type RedisStore struct {
	rdb    redis.Cmdable
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore uses DefaultRedisPrefix when prefix is empty.
func NewRedisStore(rdb redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (r *RedisStore) key(symbol string) string { return r.prefix + symbol }

// Load treats a missing key as a miss and a decode failure as an error.
func (r *RedisStore) Load(ctx context.Context, symbol string) (Entry, bool, error) {
	raw, err := r.rdb.Get(ctx, r.key(symbol)).Result()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %s: %w", r.key(symbol), err)
	}
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return Entry{}, false, fmt.Errorf("decoding cached quote %s: %w", symbol, err)
	}
	return e, true, nil
}

// Save writes e as JSON with ttl as the redis expiry.
func (r *RedisStore) Save(ctx context.Context, symbol string, e Entry, ttl time.Duration) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding quote %s: %w", symbol, err)
	}
	if err := r.rdb.Set(ctx, r.key(symbol), string(b), ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key(symbol), err)
	}
	return nil
}
