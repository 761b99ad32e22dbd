package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache key builders and TTLs. Keys are versioned so a format change can be
// rolled out by bumping the prefix.

const (
	UserTTL    = 5 * time.Minute
	MessageTTL = 5 * time.Minute
)

// UserKey returns the cache key for a user by ID.
func UserKey(id uint) string {
	return fmt.Sprintf("v1:user:%d", id)
}

// MessageKey returns the cache key for a message by ID.
func MessageKey(id uint) string {
	return fmt.Sprintf("v1:message:%d", id)
}

// Invalidate removes the given keys from the cache. A nil client is a no-op.
func Invalidate(ctx context.Context, rdb *redis.Client, keys ...string) {
	if rdb == nil || len(keys) == 0 {
		return
	}
	rdb.Del(ctx, keys...)
}

// InvalidateUser removes a user's cached entry.
func InvalidateUser(ctx context.Context, rdb *redis.Client, id uint) {
	Invalidate(ctx, rdb, UserKey(id))
}
