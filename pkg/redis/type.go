package redis

import (
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Config holds connection settings. Only standalone mode is supported.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	UseTLS   bool

	MaxRetries      int
	MinIdleConns    int
	PoolSize        int
	PoolTimeout     time.Duration
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// Client wraps goredis.Client with latency aware health checks.
type Client struct {
	*goredis.Client
	config Config
}
