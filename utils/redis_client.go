package utils

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/jobboard/config"
)

// Redis states reported by RedisStatus.
const (
	RedisDisabled    = "disabled"
	RedisUp          = "up"
	RedisUnreachable = "unreachable"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
	redisMu     sync.Mutex
)

// GetRedis returns a singleton Redis client, or nil when no Redis host is configured.
// Revocation and the registration cooldown fall back to process memory when it is nil.
func GetRedis() *redis.Client {
	redisOnce.Do(func() {
		cfg := config.Get()
		if cfg.RedisHost == "" {
			return
		}
		c := redis.NewClient(&redis.Options{
			Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  3 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.Ping(ctx).Err(); err != nil {
			Sugar.Warnw("redis ping failed, memory fallbacks stay active for failed calls", "addr", c.Options().Addr, "error", err)
		}
		redisMu.Lock()
		redisClient = c
		redisMu.Unlock()
	})
	redisMu.Lock()
	defer redisMu.Unlock()
	return redisClient
}

// RedisStatus reports whether the shared state backend is configured and answering.
func RedisStatus(ctx context.Context) string {
	rc := GetRedis()
	if rc == nil {
		return RedisDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		return RedisUnreachable
	}
	return RedisUp
}

// CloseRedis releases the client on shutdown. Later GetRedis calls return nil.
func CloseRedis() {
	redisMu.Lock()
	defer redisMu.Unlock()
	if redisClient == nil {
		return
	}
	if err := redisClient.Close(); err != nil {
		Sugar.Warnw("redis close failed", "error", err)
	}
	redisClient = nil
}
