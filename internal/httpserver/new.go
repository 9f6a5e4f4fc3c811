package httpserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	"realtime-srv/config"
	"realtime-srv/internal/auth"
	"realtime-srv/internal/redis"
	"realtime-srv/internal/stream"
	"realtime-srv/pkg/jwt"
	"realtime-srv/pkg/log"
	pkgRedis "realtime-srv/pkg/redis"
)

// HTTPServer represents the HTTP server with all dependencies.
// New() only wires dependencies and validates them.
// Run() (in httpserver.go) is responsible for starting background services and HTTP serving.
type HTTPServer struct {
	// Server configuration
	gin         *gin.Engine
	logger      log.Logger
	host        string
	port        int
	environment string
	origins     []string

	// Stream configuration
	streamCfg    config.StreamConfig
	rateLimitCfg config.RateLimitConfig
	jwtCfg       config.JWTConfig

	// Auth & security
	jwtMgr      jwt.Manager
	cookieName  string
	internalKey string

	// External services
	redis       *pkgRedis.Client
	redisPinger RedisPinger

	// Realtime core, built by mapHandlers
	hub        *stream.Hub
	subscriber *redis.Subscriber
	tracker    *auth.ConnectionTracker
}

// Config is the constructor input for HTTPServer.
type Config struct {
	// Server configuration
	Host           string
	Port           int
	Mode           string
	Environment    string
	AllowedOrigins []string

	// Stream configuration
	Stream    config.StreamConfig
	RateLimit config.RateLimitConfig
	JWT       config.JWTConfig

	// Auth & security
	JWTManager  jwt.Manager
	CookieName  string
	InternalKey string

	// External services
	Redis *pkgRedis.Client
}

// New creates a new HTTPServer instance with the provided configuration.
// Note: This does NOT start any goroutines. Use (*HTTPServer).Run() to start the service.
func New(logger log.Logger, cfg Config) (*HTTPServer, error) {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	srv := &HTTPServer{
		gin:         gin.New(),
		logger:      logger,
		host:        cfg.Host,
		port:        cfg.Port,
		environment: cfg.Environment,
		origins:     cfg.AllowedOrigins,

		streamCfg:    cfg.Stream,
		rateLimitCfg: cfg.RateLimit,
		jwtCfg:       cfg.JWT,

		jwtMgr:      cfg.JWTManager,
		cookieName:  cfg.CookieName,
		internalKey: cfg.InternalKey,

		redis: cfg.Redis,
	}
	if cfg.Redis != nil {
		srv.redisPinger = cfg.Redis
	}

	if err := srv.validate(); err != nil {
		return nil, err
	}

	return srv, nil
}

// validate ensures all required dependencies are provided.
func (srv *HTTPServer) validate() error {
	if srv.logger == nil {
		return errors.New("logger is required")
	}
	if srv.port == 0 {
		return errors.New("port is required")
	}
	if srv.jwtMgr == nil {
		return errors.New("JWTManager is required")
	}
	if srv.redis == nil {
		return errors.New("Redis client is required")
	}
	return nil
}
