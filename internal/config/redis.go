package config

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions resolves the redis connection from the environment.
// REDIS_URL (redis:// or rediss://) wins; otherwise REDIS_ADDR or
// REDIS_HOST/REDIS_PORT, REDIS_PASSWORD, REDIS_DB and REDIS_TLS are read.
func RedisOptions() (*redis.Options, error) {
	if u := envStr("REDIS_URL", ""); u != "" {
		return redis.ParseURL(u)
	}
	addr := envStr("REDIS_ADDR", "localhost:6379")
	if host := envStr("REDIS_HOST", ""); host != "" {
		addr = net.JoinHostPort(host, envStr("REDIS_PORT", "6379"))
	}
	opt := &redis.Options{
		Addr:     addr,
		Password: envStr("REDIS_PASSWORD", ""),
		DB:       envInt("REDIS_DB", 0),
	}
	if envBool("REDIS_TLS", false) {
		host, _, _ := net.SplitHostPort(addr)
		opt.TLSConfig = &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
	}
	return opt, nil
}

// NewRedisClient connects to redis and pings it.  It returns nil when redis
// is not configured correctly or not reachable; sessions then live in
// process memory, and caching and rate limiting are switched off.
func NewRedisClient() *redis.Client {
	opt, err := RedisOptions()
	if err != nil {
		return nil
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
