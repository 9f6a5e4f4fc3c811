package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// NewClient validates cfg, connects and pings the server.
func NewClient(cfg Config) (*Client, error) {
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}

	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{Client: client, config: cfg}, nil
}

// Wrap adopts an existing go-redis client without pinging it.
func Wrap(client *goredis.Client) *Client {
	return &Client{Client: client}
}

func options(cfg Config) (*goredis.Options, error) {
	if cfg.Host == "" {
		return nil, ErrHostRequired
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, ErrInvalidPort
	}

	opts := &goredis.Options{
		Addr:            fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      cfg.MaxRetries,
		MinIdleConns:    cfg.MinIdleConns,
		PoolSize:        cfg.PoolSize,
		PoolTimeout:     cfg.PoolTimeout,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.Client.Close()
}

// Ping checks if the connection is alive and returns latency.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// IsConnected checks if the client is connected to Redis.
func (c *Client) IsConnected(ctx context.Context) bool {
	_, err := c.Ping(ctx)
	return err == nil
}
