package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"realtime-srv/internal/auth"
)

// MetricsResponse represents the metrics response.
type MetricsResponse struct {
	Service     string                       `json:"service"`
	Timestamp   time.Time                    `json:"timestamp"`
	Uptime      int64                        `json:"uptime_seconds"`
	Connections *ConnectionMetrics           `json:"connections"`
	Messages    *MessageMetrics              `json:"messages"`
	RateLimiter *auth.ConnectionTrackerStats `json:"rate_limiter,omitempty"`
}

// ConnectionMetrics represents connection-related metrics.
type ConnectionMetrics struct {
	Active           int   `json:"active"`
	TotalUniqueUsers int   `json:"total_unique_users"`
	Pruned           int64 `json:"pruned"`
}

// MessageMetrics represents message-related metrics.
type MessageMetrics struct {
	ReceivedFromRedis int64 `json:"received_from_redis"`
	MalformedDropped  int64 `json:"malformed_dropped"`
	Broadcasts        int64 `json:"broadcasts"`
	SentToClients     int64 `json:"sent_to_clients"`
	Failed            int64 `json:"failed"`
}

func (srv *HTTPServer) metrics(c *gin.Context) {
	stats := srv.hubStats()

	resp := MetricsResponse{
		Service:   serviceName,
		Timestamp: time.Now(),
		Uptime:    int64(time.Since(startTime).Seconds()),
		Connections: &ConnectionMetrics{
			Active:           stats.ActiveConnections,
			TotalUniqueUsers: stats.TotalUniqueUsers,
			Pruned:           stats.PrunedConnections,
		},
		Messages: &MessageMetrics{
			Broadcasts:    stats.TotalBroadcasts,
			SentToClients: stats.FramesSent,
			Failed:        stats.FramesDropped,
		},
	}
	if srv.subscriber != nil {
		info := srv.subscriber.GetHealthInfo()
		resp.Messages.ReceivedFromRedis = info.MessagesRelayed
		resp.Messages.MalformedDropped = info.MessagesMalformed
	}
	if srv.tracker != nil {
		trackerStats := srv.tracker.GetStats()
		resp.RateLimiter = &trackerStats
	}

	c.JSON(http.StatusOK, resp)
}
