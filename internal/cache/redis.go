// Package cache provides Redis connectivity and cache-aside helpers.
package cache

import (
	"context"
	"net"
	"time"

	"warbler/internal/config"
	"warbler/internal/middleware"
	"warbler/internal/observability"

	"github.com/redis/go-redis/v9"
)

// metricsHook counts Redis command failures so degraded cache behavior is visible.
type metricsHook struct{}

func (metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			observability.RedisErrors.WithLabelValues("dial").Inc()
		}
		return conn, err
	}
}

func (metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && err != redis.Nil {
			observability.RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && err != redis.Nil {
			observability.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// InitRedis connects to Redis using the configured URL. REDIS_URL may be a
// full redis:// URL or a bare host:port address.
//
// Returns nil when the connection cannot be established; callers treat a nil
// client as "cache disabled" and fall back to the database.
func InitRedis(cfg *config.Config) *redis.Client {
	var opts *redis.Options

	if parsed, err := redis.ParseURL(cfg.RedisURL); err == nil {
		opts = parsed
	} else {
		opts = &redis.Options{Addr: cfg.RedisURL}
	}

	rdb := redis.NewClient(opts)
	rdb.AddHook(metricsHook{})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("redis unavailable, caching and sessions degrade to in-process fallbacks",
			"addr", opts.Addr, "error", err.Error())
		return nil
	}

	middleware.Logger.Info("connected to redis", "addr", opts.Addr)
	return rdb
}
