// Package bootstrap builds the process-wide collaborators from configuration.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/whatsapp-scheduler/internal/config"
	"github.com/wolfman30/whatsapp-scheduler/internal/conversation"
	"github.com/wolfman30/whatsapp-scheduler/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildGreetingTracker prefers Redis so greetings survive restarts and are
// shared across instances; without it an in-process tracker is used.
func BuildGreetingTracker(redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) conversation.GreetingTracker {
	if logger == nil {
		logger = logging.Default()
	}
	if redisClient != nil {
		logger.Info("greeting tracker backed by redis", "ttl", cfg.GreetingTTL)
		return conversation.NewRedisGreetingTracker(redisClient, cfg.GreetingTTL)
	}
	logger.Info("greeting tracker in memory", "ttl", cfg.GreetingTTL)
	return conversation.NewMemoryGreetingTracker(cfg.GreetingTTL)
}
