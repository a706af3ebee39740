// Package cache provides the Redis-backed counters and cooldown keys used
// by the notification engine. Every operation degrades to a safe default
// when Redis is unavailable so delivery never blocks on the cache.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Integral-ind/integral-backend/internal/config"
	"github.com/Integral-ind/integral-backend/pkg/logger"
)

// Cache wraps the Redis client used for unread counters and push cooldowns.
type Cache struct {
	rdb *redis.Client
	log *logger.Logger
}

// New connects to Redis. Returns nil when no address is configured; callers
// treat a nil Cache as cache-off.
func New(cfg config.RedisConfig, log *logger.Logger) (*Cache, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	if log == nil {
		log = logger.NewDefault("cache")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Cache{rdb: rdb, log: log}, nil
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

func unreadKey(userID string) string {
	return "notify:unread:" + userID
}

func cooldownKey(userID string, typ string) string {
	return "notify:cooldown:" + userID + ":" + typ
}

// GetUnread returns the cached unread count. ok is false on miss or error.
func (c *Cache) GetUnread(ctx context.Context, userID string) (int, bool) {
	if c == nil {
		return 0, false
	}
	n, err := c.rdb.Get(ctx, unreadKey(userID)).Int()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).Debug("unread cache read failed")
		}
		return 0, false
	}
	return n, true
}

// SetUnread stores the unread count with a short TTL.
func (c *Cache) SetUnread(ctx context.Context, userID string, count int) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, unreadKey(userID), count, time.Minute).Err(); err != nil {
		c.log.WithError(err).Debug("unread cache write failed")
	}
}

// IncrUnread bumps the cached count if present. Missing keys stay missing
// so the next read repopulates from storage.
func (c *Cache) IncrUnread(ctx context.Context, userID string) {
	if c == nil {
		return
	}
	key := unreadKey(userID)
	exists, err := c.rdb.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return
	}
	if err := c.rdb.Incr(ctx, key).Err(); err != nil {
		c.log.WithError(err).Debug("unread cache incr failed")
	}
}

// InvalidateUnread drops the cached count, e.g. after mark-read.
func (c *Cache) InvalidateUnread(ctx context.Context, userID string) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, unreadKey(userID)).Err(); err != nil {
		c.log.WithError(err).Debug("unread cache delete failed")
	}
}

// Cooldown marks that a notification of this type just went to the user,
// and reports whether one was already in flight inside the window. The
// caller suppresses duplicate pushes when inFlight is true.
func (c *Cache) Cooldown(ctx context.Context, userID string, typ string, window time.Duration) (inFlight bool) {
	if c == nil || window <= 0 {
		return false
	}
	set, err := c.rdb.SetNX(ctx, cooldownKey(userID, typ), 1, window).Result()
	if err != nil {
		c.log.WithError(err).Debug("cooldown check failed")
		return false
	}
	return !set
}
