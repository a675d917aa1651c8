package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/siteops/alertdesk/internal/config"
)

const redisConnectTimeout = 3 * time.Second

// Redis holds the client used for the realtime relay and readiness checks.
type Redis struct {
	Client *redis.Client
}

// NewRedis creates the client and checks connectivity once. The client is
// returned even when the check fails so readiness can keep reporting it; the
// error tells the caller to fall back to in-process realtime delivery.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: redisConnectTimeout,
	})
	r := &Redis{Client: client}

	pingCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()
	if err := r.Ping(pingCtx); err != nil {
		return r, fmt.Errorf("redis %s unreachable: %w", cfg.Addr, err)
	}
	logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return r, nil
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
