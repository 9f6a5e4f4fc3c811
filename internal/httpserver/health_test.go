package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-srv/internal/stream"
	"realtime-srv/pkg/log"
)

type fakePinger struct {
	latency time.Duration
	err     error
}

func (f fakePinger) Ping(context.Context) (time.Duration, error) { return f.latency, f.err }

func newTestServer(pinger RedisPinger) *HTTPServer {
	gin.SetMode(gin.TestMode)
	srv := &HTTPServer{
		gin:         gin.New(),
		logger:      log.NewNop(),
		redisPinger: pinger,
		hub:         stream.NewHub(log.NewNop(), stream.Config{}),
	}
	srv.gin.GET("/health", srv.healthCheck)
	srv.gin.GET("/ready", srv.readyCheck)
	srv.gin.GET("/live", srv.liveCheck)
	srv.gin.GET("/metrics", srv.metrics)
	return srv
}

func get(srv *HTTPServer, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.gin.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		srv := newTestServer(fakePinger{latency: 1500 * time.Microsecond})

		w := get(srv, "/health")
		require.Equal(t, http.StatusOK, w.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, 1.5, resp.Redis.PingMs)
		require.NotNil(t, resp.Stream)
		assert.Equal(t, 0, resp.Stream.ActiveConnections)
	})

	t.Run("redis down", func(t *testing.T) {
		srv := newTestServer(fakePinger{err: errors.New("connection refused")})

		w := get(srv, "/health")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "connection refused", resp.Redis.Error)
	})
}

func TestReadyAndLive(t *testing.T) {
	assert.Equal(t, http.StatusOK, get(newTestServer(fakePinger{}), "/ready").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(newTestServer(fakePinger{err: errors.New("down")}), "/ready").Code)
	assert.Equal(t, http.StatusOK, get(newTestServer(fakePinger{err: errors.New("down")}), "/live").Code)
}

func TestMetrics(t *testing.T) {
	w := get(newTestServer(fakePinger{}), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)

	var resp MetricsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, serviceName, resp.Service)
	require.NotNil(t, resp.Connections)
	assert.Equal(t, 0, resp.Connections.Active)
	assert.Nil(t, resp.RateLimiter)
}

func TestNewValidation(t *testing.T) {
	_, err := New(log.NewNop(), Config{})
	assert.EqualError(t, err, "port is required")

	_, err = New(log.NewNop(), Config{Port: 8081})
	assert.EqualError(t, err, "JWTManager is required")
}
