package httpserver

import (
	"realtime-srv/internal/auth"
	credentialHTTP "realtime-srv/internal/credential/delivery/http"
	credentialUC "realtime-srv/internal/credential/usecase"
	"realtime-srv/internal/middleware"
	"realtime-srv/internal/redis"
	"realtime-srv/internal/stream"
)

// mapHandlers builds the realtime core and registers every route.
func (srv *HTTPServer) mapHandlers() error {
	mw := middleware.New(srv.logger, srv.jwtMgr, srv.cookieName, srv.internalKey)
	srv.gin.Use(mw.Recovery())
	srv.gin.Use(middleware.CORS(middleware.DefaultCORSConfig(srv.origins)))

	// Health check endpoints (no auth required)
	srv.gin.GET("/health", srv.healthCheck)
	srv.gin.GET("/ready", srv.readyCheck)
	srv.gin.GET("/live", srv.liveCheck)
	srv.gin.GET("/metrics", srv.metrics)

	// Realtime core
	srv.hub = stream.NewHub(srv.logger, stream.Config{
		MaxConnections: srv.streamCfg.MaxConnections,
		PingPeriod:     srv.streamCfg.PingInterval,
		QueueSize:      srv.streamCfg.QueueSize,
	})
	srv.subscriber = redis.NewSubscriber(srv.redis, srv.hub, srv.logger, redis.DefaultSubscriberConfig())
	srv.hub.SetUserObserver(srv.subscriber)

	srv.tracker = auth.NewConnectionTracker(auth.RateLimitConfig{
		MaxConnectionsPerUser: srv.rateLimitCfg.MaxConnectionsPerUser,
		ConnectionRateLimit:   srv.rateLimitCfg.ConnectionRate,
		RateLimitWindow:       srv.rateLimitCfg.Window,
	}, srv.logger)
	revocations := redis.NewRevocationStore(srv.redis)

	streamHandler := stream.NewHandler(srv.hub, srv.jwtMgr, srv.logger,
		stream.HandlerConfig{WriteWait: srv.streamCfg.WriteWait},
		&stream.HandlerOptions{Revocations: revocations, RateLimiter: srv.tracker},
	)
	streamHandler.SetupRoutes(srv.gin)

	credentialUsecase := credentialUC.New(srv.logger, srv.jwtMgr, revocations, srv.hub, srv.jwtCfg.RefreshAfter)
	credentialHandler := credentialHTTP.New(credentialUsecase, srv.logger)
	credentialHandler.RegisterRoutes(srv.gin, mw.Auth(), mw.InternalKey())

	return nil
}
