package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Aside implements the cache-aside pattern: look up key in Redis, and on a
// miss call load, store the result under key with ttl, and return it.
//
// A nil client or any Redis error degrades to calling load directly; the
// cache is an optimization, never a source of truth.
func Aside[T any](ctx context.Context, rdb *redis.Client, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var zero T

	if rdb == nil {
		return load()
	}

	raw, err := rdb.Get(ctx, key).Result()
	if err == nil {
		var cached T
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			return cached, nil
		}
		// Corrupt entry; drop it and fall through to load.
		rdb.Del(ctx, key)
	}

	value, err := load()
	if err != nil {
		return zero, err
	}

	if data, jsonErr := json.Marshal(value); jsonErr == nil {
		rdb.Set(ctx, key, data, ttl)
	}

	return value, nil
}
