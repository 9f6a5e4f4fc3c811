package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// Config holds all service configuration.
type Config struct {
	// Environment Configuration
	Environment EnvironmentConfig

	// Server Configuration
	Server ServerConfig
	Logger LoggerConfig

	// Redis Configuration
	Redis RedisConfig

	// Stream Configuration
	Stream    StreamConfig
	RateLimit RateLimitConfig

	// Authentication & Security Configuration
	JWT      JWTConfig
	Cookie   CookieConfig
	Internal InternalConfig
}

// EnvironmentConfig is the configuration for the deployment environment.
type EnvironmentConfig struct {
	Name string `env:"ENV" envDefault:"production"`
}

// ServerConfig is the configuration for the HTTP server.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"8081"`
	Mode string `env:"SERVER_MODE" envDefault:"release"`

	// AllowedOrigins lists browser origins allowed to call the API
	// cross-origin. Empty means same-origin only.
	AllowedOrigins []string `env:"SERVER_ALLOWED_ORIGINS" envSeparator:","`
}

// RedisConfig is the configuration for Redis.
// Note: Only standalone mode is supported
type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	UseTLS   bool   `env:"REDIS_USE_TLS" envDefault:"false"`

	// Connection pool settings
	MaxRetries      int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	MinIdleConns    int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"10"`
	PoolSize        int           `env:"REDIS_POOL_SIZE" envDefault:"100"`
	PoolTimeout     time.Duration `env:"REDIS_POOL_TIMEOUT" envDefault:"4s"`
	ConnMaxIdleTime time.Duration `env:"REDIS_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"REDIS_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// StreamConfig is the configuration for server-push streams.
type StreamConfig struct {
	PingInterval   time.Duration `env:"STREAM_PING_INTERVAL" envDefault:"30s"`
	WriteWait      time.Duration `env:"STREAM_WRITE_WAIT" envDefault:"10s"`
	MaxConnections int           `env:"STREAM_MAX_CONNECTIONS" envDefault:"10000"`
	QueueSize      int           `env:"STREAM_QUEUE_SIZE" envDefault:"64"`
}

// RateLimitConfig limits stream opens per user.
type RateLimitConfig struct {
	MaxConnectionsPerUser int           `env:"RATE_LIMIT_MAX_CONNECTIONS_PER_USER" envDefault:"10"`
	ConnectionRate        int           `env:"RATE_LIMIT_CONNECTION_RATE" envDefault:"30"`
	Window                time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// JWTConfig is the configuration for session and stream tokens.
type JWTConfig struct {
	SecretKey    string        `env:"JWT_SECRET_KEY"`
	Issuer       string        `env:"JWT_ISSUER" envDefault:"realtime-srv"`
	StreamTTL    time.Duration `env:"JWT_STREAM_TTL" envDefault:"60m"`
	RefreshAfter time.Duration `env:"JWT_STREAM_REFRESH_AFTER" envDefault:"50m"`
	SessionTTL   time.Duration `env:"JWT_SESSION_TTL" envDefault:"2h"`
}

// CookieConfig is the configuration for HttpOnly cookie authentication.
type CookieConfig struct {
	Name string `env:"COOKIE_NAME" envDefault:"realtime_auth_token"`
}

// InternalConfig guards service-to-service endpoints.
type InternalConfig struct {
	Key string `env:"INTERNAL_API_KEY"`
}

// LoggerConfig is the configuration for the logger.
type LoggerConfig struct {
	Level        string `env:"LOGGER_LEVEL" envDefault:"info"`
	Mode         string `env:"LOGGER_MODE" envDefault:"production"`
	Encoding     string `env:"LOGGER_ENCODING" envDefault:"json"`
	ColorEnabled bool   `env:"LOGGER_COLOR_ENABLED" envDefault:"false"`
}

// Load reads an optional .env file, then parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	// Validate JWT
	if cfg.JWT.SecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if len(cfg.JWT.SecretKey) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters for security")
	}
	if cfg.JWT.RefreshAfter >= cfg.JWT.StreamTTL {
		return fmt.Errorf("JWT_STREAM_REFRESH_AFTER (%s) must be shorter than JWT_STREAM_TTL (%s)",
			cfg.JWT.RefreshAfter, cfg.JWT.StreamTTL)
	}

	// Validate Redis
	if cfg.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if cfg.Redis.Port == 0 {
		return fmt.Errorf("REDIS_PORT is required")
	}

	// Validate Cookie
	if cfg.Cookie.Name == "" {
		return fmt.Errorf("COOKIE_NAME is required")
	}

	return nil
}
