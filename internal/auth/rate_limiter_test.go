package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-srv/pkg/log"
)

func newTestTracker(t *testing.T, cfg RateLimitConfig) (*ConnectionTracker, *time.Time) {
	t.Helper()
	ct := NewConnectionTracker(cfg, log.NewNop())
	t.Cleanup(ct.Close)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ct.now = func() time.Time { return now }
	return ct, &now
}

func TestConnectionTrackerMaxPerUser(t *testing.T) {
	ct, _ := newTestTracker(t, RateLimitConfig{MaxConnectionsPerUser: 2, RateLimitWindow: time.Minute})
	ctx := context.Background()

	require.NoError(t, ct.CheckAndTrackConnection(ctx, "u-1"))
	require.NoError(t, ct.CheckAndTrackConnection(ctx, "u-1"))

	err := ct.CheckAndTrackConnection(ctx, "u-1")
	require.Error(t, err)
	assert.True(t, IsRateLimitError(err))
	assert.True(t, IsRateLimitError(fmt.Errorf("wrapped: %w", err)))

	// other users are unaffected
	require.NoError(t, ct.CheckAndTrackConnection(ctx, "u-2"))

	ct.UntrackConnection("u-1")
	require.NoError(t, ct.CheckAndTrackConnection(ctx, "u-1"))

	stats := ct.GetStats()
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 3, stats.TotalConnections)
}

func TestConnectionTrackerRateWindow(t *testing.T) {
	ct, now := newTestTracker(t, RateLimitConfig{ConnectionRateLimit: 2, RateLimitWindow: time.Minute})
	ctx := context.Background()

	require.NoError(t, ct.CheckAndTrackConnection(ctx, "u-1"))
	ct.UntrackConnection("u-1")
	require.NoError(t, ct.CheckAndTrackConnection(ctx, "u-1"))
	ct.UntrackConnection("u-1")

	err := ct.CheckAndTrackConnection(ctx, "u-1")
	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, "connection_rate_limit", rl.Limit)
	assert.Equal(t, 2, rl.Max)

	*now = now.Add(61 * time.Second)
	assert.NoError(t, ct.CheckAndTrackConnection(ctx, "u-1"))
}

func TestConnectionTrackerUntrackUnknown(t *testing.T) {
	ct, _ := newTestTracker(t, DefaultRateLimitConfig())

	ct.UntrackConnection("ghost")
	assert.Equal(t, 0, ct.GetUserConnectionCount("ghost"))
	assert.Equal(t, 0, ct.GetStats().TotalUsers)
}

func TestConnectionTrackerCleanup(t *testing.T) {
	ct, now := newTestTracker(t, RateLimitConfig{ConnectionRateLimit: 5, RateLimitWindow: time.Minute})
	require.NoError(t, ct.CheckAndTrackConnection(context.Background(), "u-1"))

	*now = now.Add(2 * time.Minute)
	ct.cleanupTimestamps()

	ct.mu.Lock()
	defer ct.mu.Unlock()
	assert.NotContains(t, ct.connectionTimestamps, "u-1")
}
