package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"realtime-srv/internal/redis"
	"realtime-srv/internal/stream"
	"realtime-srv/pkg/response"
)

const serviceName = "realtime-srv"

var startTime = time.Now()

// RedisPinger reports Redis round trip latency.
type RedisPinger interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status     string            `json:"status"`
	Service    string            `json:"service"`
	Timestamp  time.Time         `json:"timestamp"`
	Redis      *RedisHealth      `json:"redis"`
	Stream     *StreamInfo       `json:"stream,omitempty"`
	Subscriber *redis.HealthInfo `json:"subscriber,omitempty"`
	Uptime     int64             `json:"uptime_seconds"`
}

// RedisHealth represents Redis health status.
type RedisHealth struct {
	Status string  `json:"status"`
	PingMs float64 `json:"ping_ms,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// StreamInfo summarizes open streams.
type StreamInfo struct {
	ActiveConnections int `json:"active_connections"`
	TotalUniqueUsers  int `json:"total_unique_users"`
}

func (srv *HTTPServer) pingRedis(ctx context.Context) *RedisHealth {
	health := &RedisHealth{Status: "connected"}
	pingDuration, err := srv.redisPinger.Ping(ctx)
	if err != nil {
		health.Status = "disconnected"
		health.Error = err.Error()
		srv.logger.Errorf(ctx, "Redis health check failed: %v", err)
		return health
	}
	health.PingMs = float64(pingDuration.Microseconds()) / 1000.0
	return health
}

// healthCheck reports Redis, hub and subscriber health. It answers 503 when
// Redis is unreachable or the subscriber stopped relaying.
func (srv *HTTPServer) healthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	resp := HealthResponse{
		Status:    "healthy",
		Service:   serviceName,
		Timestamp: time.Now(),
		Uptime:    int64(time.Since(startTime).Seconds()),
		Redis:     srv.pingRedis(ctx),
	}
	if resp.Redis.Status != "connected" {
		resp.Status = "degraded"
	}

	if srv.hub != nil {
		stats := srv.hub.GetStats()
		resp.Stream = &StreamInfo{
			ActiveConnections: stats.ActiveConnections,
			TotalUniqueUsers:  stats.TotalUniqueUsers,
		}
	}

	if srv.subscriber != nil {
		info := srv.subscriber.GetHealthInfo()
		resp.Subscriber = &info
		if !info.Active {
			resp.Status = "degraded"
		}
	}

	statusCode := http.StatusOK
	if resp.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, resp)
}

// readyCheck answers 200 once Redis is reachable.
func (srv *HTTPServer) readyCheck(c *gin.Context) {
	redisHealth := srv.pingRedis(c.Request.Context())
	if redisHealth.Status != "connected" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not_ready",
			"service": serviceName,
			"redis":   redisHealth,
		})
		return
	}

	response.OK(c, gin.H{
		"status":  "ready",
		"service": serviceName,
		"redis":   redisHealth,
	})
}

// liveCheck always answers 200 while the process serves HTTP.
func (srv *HTTPServer) liveCheck(c *gin.Context) {
	response.OK(c, gin.H{
		"status":  "alive",
		"service": serviceName,
	})
}

// hubStats returns zero stats before the hub is built.
func (srv *HTTPServer) hubStats() stream.HubStats {
	if srv.hub == nil {
		return stream.HubStats{}
	}
	return srv.hub.GetStats()
}
