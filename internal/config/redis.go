package config

// Redis backs the distributed login and recovery rate limiter.  When the
// server cannot be reached at startup NewRedisClient returns nil and the
// limiter falls back to an in-process bucket.

import (
	"context"
	"crypto/tls"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions builds client options from the environment:
//
//	REDIS_ADDR      host:port (REDIS_HOST and REDIS_PORT take precedence)
//	REDIS_PASSWORD  optional password
//	REDIS_DB        database number, default 0
//	REDIS_TLS       "true" or "1" enables TLS
func RedisOptions() *redis.Options {
	addr := envStr("REDIS_ADDR", "localhost:6379")
	if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
		addr = host + ":" + port
	}
	var tlsConf *tls.Config
	if t := envStr("REDIS_TLS", ""); strings.EqualFold(t, "true") || t == "1" {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return &redis.Options{
		Addr:      addr,
		Password:  envStr("REDIS_PASSWORD", ""),
		DB:        envInt("REDIS_DB", 0),
		TLSConfig: tlsConf,
	}
}

// NewRedisClient connects with RedisOptions and pings the server.  It
// returns nil when Redis is disabled or unreachable.
func NewRedisClient(logger *slog.Logger) *redis.Client {
	if !envBool("REDIS_ENABLED", true) {
		return nil
	}
	opts := RedisOptions()
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-process rate limiting", "addr", opts.Addr, "err", err)
		_ = client.Close()
		return nil
	}
	return client
}
