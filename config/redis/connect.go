package redis

import (
	"fmt"

	"realtime-srv/config"
	pkgRedis "realtime-srv/pkg/redis"
)

// Connect opens the Redis client described by cfg.
func Connect(cfg config.RedisConfig) (*pkgRedis.Client, error) {
	client, err := pkgRedis.NewClient(pkgRedis.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		Password:        cfg.Password,
		DB:              cfg.DB,
		UseTLS:          cfg.UseTLS,
		MaxRetries:      cfg.MaxRetries,
		MinIdleConns:    cfg.MinIdleConns,
		PoolSize:        cfg.PoolSize,
		PoolTimeout:     cfg.PoolTimeout,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
