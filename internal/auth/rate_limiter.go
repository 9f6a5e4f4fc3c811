package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"realtime-srv/pkg/log"
)

// RateLimitConfig holds stream connection limits.
type RateLimitConfig struct {
	// MaxConnectionsPerUser is the maximum number of open streams per user.
	MaxConnectionsPerUser int

	// ConnectionRateLimit is the maximum new streams per user per window.
	ConnectionRateLimit int

	// RateLimitWindow is the time window for ConnectionRateLimit.
	RateLimitWindow time.Duration
}

// DefaultRateLimitConfig returns default limits.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxConnectionsPerUser: 10,
		ConnectionRateLimit:   30,
		RateLimitWindow:       time.Minute,
	}
}

// RateLimitError is returned when a limit is exceeded.
type RateLimitError struct {
	UserID  string
	Limit   string
	Current int
	Max     int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for user %s: %s (current: %d, max: %d)", e.UserID, e.Limit, e.Current, e.Max)
}

// IsRateLimitError checks if err is, or wraps, a RateLimitError.
func IsRateLimitError(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// ConnectionTracker counts open streams and recent stream opens per user.
type ConnectionTracker struct {
	userConnections      map[string]int
	connectionTimestamps map[string][]time.Time

	mu       sync.Mutex
	config   RateLimitConfig
	logger   log.Logger
	security *SecurityLogger
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewConnectionTracker creates a tracker and starts its cleanup loop.
// Call Close to stop the loop.
func NewConnectionTracker(config RateLimitConfig, logger log.Logger) *ConnectionTracker {
	if config.RateLimitWindow <= 0 {
		config.RateLimitWindow = time.Minute
	}
	ct := &ConnectionTracker{
		userConnections:      make(map[string]int),
		connectionTimestamps: make(map[string][]time.Time),
		config:               config,
		logger:               logger,
		security:             NewSecurityLogger(logger),
		now:                  time.Now,
		stop:                 make(chan struct{}),
	}
	go ct.cleanupLoop()
	return ct
}

// CheckAndTrackConnection checks both limits and counts a new stream.
func (ct *ConnectionTracker) CheckAndTrackConnection(ctx context.Context, userID string) error {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	if err := ct.checkRateLimitLocked(userID); err != nil {
		ct.security.LogRateLimitExceeded(ctx, userID, err.Limit, err.Current, err.Max)
		return err
	}

	if ct.config.MaxConnectionsPerUser > 0 {
		current := ct.userConnections[userID]
		if current >= ct.config.MaxConnectionsPerUser {
			ct.security.LogRateLimitExceeded(ctx, userID, "max_connections_per_user", current, ct.config.MaxConnectionsPerUser)
			return &RateLimitError{
				UserID:  userID,
				Limit:   "max_connections_per_user",
				Current: current,
				Max:     ct.config.MaxConnectionsPerUser,
			}
		}
	}

	ct.userConnections[userID]++
	return nil
}

func (ct *ConnectionTracker) checkRateLimitLocked(userID string) *RateLimitError {
	if ct.config.ConnectionRateLimit <= 0 {
		return nil
	}
	now := ct.now()
	valid := pruneBefore(ct.connectionTimestamps[userID], now.Add(-ct.config.RateLimitWindow))
	ct.connectionTimestamps[userID] = valid

	if len(valid) >= ct.config.ConnectionRateLimit {
		return &RateLimitError{
			UserID:  userID,
			Limit:   "connection_rate_limit",
			Current: len(valid),
			Max:     ct.config.ConnectionRateLimit,
		}
	}
	ct.connectionTimestamps[userID] = append(valid, now)
	return nil
}

// UntrackConnection releases a stream counted by CheckAndTrackConnection.
func (ct *ConnectionTracker) UntrackConnection(userID string) {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	if ct.userConnections[userID] > 0 {
		ct.userConnections[userID]--
		if ct.userConnections[userID] == 0 {
			delete(ct.userConnections, userID)
		}
	}
}

// GetUserConnectionCount returns the tracked stream count of userID.
func (ct *ConnectionTracker) GetUserConnectionCount(userID string) int {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.userConnections[userID]
}

// GetStats returns tracking statistics.
func (ct *ConnectionTracker) GetStats() ConnectionTrackerStats {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	total := 0
	for _, count := range ct.userConnections {
		total += count
	}
	return ConnectionTrackerStats{
		TotalUsers:       len(ct.userConnections),
		TotalConnections: total,
	}
}

// ConnectionTrackerStats holds connection tracking statistics.
type ConnectionTrackerStats struct {
	TotalUsers       int `json:"total_users"`
	TotalConnections int `json:"total_connections"`
}

// Close stops the cleanup loop.
func (ct *ConnectionTracker) Close() {
	ct.stopOnce.Do(func() { close(ct.stop) })
}

func (ct *ConnectionTracker) cleanupLoop() {
	ticker := time.NewTicker(ct.config.RateLimitWindow)
	defer ticker.Stop()

	for {
		select {
		case <-ct.stop:
			return
		case <-ticker.C:
			ct.cleanupTimestamps()
		}
	}
}

func (ct *ConnectionTracker) cleanupTimestamps() {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	windowStart := ct.now().Add(-ct.config.RateLimitWindow)
	for userID, timestamps := range ct.connectionTimestamps {
		valid := pruneBefore(timestamps, windowStart)
		if len(valid) == 0 {
			delete(ct.connectionTimestamps, userID)
		} else {
			ct.connectionTimestamps[userID] = valid
		}
	}
}

func pruneBefore(timestamps []time.Time, start time.Time) []time.Time {
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(start) {
			valid = append(valid, ts)
		}
	}
	return valid
}
