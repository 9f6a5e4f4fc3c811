package main

import (
	"context"
	"fmt"

	"realtime-srv/config"
	configRedis "realtime-srv/config/redis"
	"realtime-srv/internal/httpserver"
	"realtime-srv/pkg/jwt"
	"realtime-srv/pkg/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Failed to load config: ", err)
		return
	}

	// Initialize logger
	logger := log.Init(log.ZapConfig{
		Level:        cfg.Logger.Level,
		Mode:         cfg.Logger.Mode,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})
	ctx := context.Background()

	// Redis: pub/sub fan-out and token revocations
	redisClient, err := configRedis.Connect(cfg.Redis)
	if err != nil {
		logger.Error(ctx, "Failed to connect to Redis: ", err)
		return
	}
	defer redisClient.Close()
	logger.Infof(ctx, "Redis connected successfully to %s:%d", cfg.Redis.Host, cfg.Redis.Port)

	// Session and stream tokens
	jwtManager, err := jwt.New(jwt.Config{
		SecretKey:  cfg.JWT.SecretKey,
		Issuer:     cfg.JWT.Issuer,
		StreamTTL:  cfg.JWT.StreamTTL,
		SessionTTL: cfg.JWT.SessionTTL,
	})
	if err != nil {
		logger.Error(ctx, "Failed to initialize JWT manager: ", err)
		return
	}

	// Initialize HTTP server
	httpServer, err := httpserver.New(logger, httpserver.Config{
		// Server Configuration
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Mode:           cfg.Server.Mode,
		Environment:    cfg.Environment.Name,
		AllowedOrigins: cfg.Server.AllowedOrigins,

		// Stream Configuration
		Stream:    cfg.Stream,
		RateLimit: cfg.RateLimit,
		JWT:       cfg.JWT,

		// Authentication & Security Configuration
		JWTManager:  jwtManager,
		CookieName:  cfg.Cookie.Name,
		InternalKey: cfg.Internal.Key,

		// External services
		Redis: redisClient,
	})
	if err != nil {
		logger.Error(ctx, "Failed to initialize HTTP server: ", err)
		return
	}

	if err := httpServer.Run(); err != nil {
		logger.Error(ctx, "Failed to run server: ", err)
		return
	}
}
