package database

import (
	"context"
	"crypto/tls"

	"mental-care-go/internal/config"
	"mental-care-go/pkg/log"

	"github.com/go-redis/redis/v8"
)

var RDB *redis.Client

// InitRedis 初始化 Redis 客户端连接
func InitRedis(cfg config.RedisConfig) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	// 托管 Redis（rediss://）需要 TLS
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	RDB = redis.NewClient(opts)

	if err := RDB.Ping(context.Background()).Err(); err != nil {
		log.Fatal("failed to connect to redis", err)
	}
	log.Info("Redis client connected successfully")
}
