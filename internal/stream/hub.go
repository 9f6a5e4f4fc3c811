package stream

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"realtime-srv/internal/envelope"
	"realtime-srv/internal/sse"
	"realtime-srv/pkg/log"
)

const (
	DefaultPingPeriod = 30 * time.Second
	DefaultQueueSize  = 64
)

// UserObserver is told when a user's first connection opens and when each
// connection closes.
type UserObserver interface {
	OnUserConnected(userID string) error
	OnUserDisconnected(userID string, hasOtherConnections bool) error
}

// Config configures a Hub.
type Config struct {
	// MaxConnections caps open connections across all users. Zero means no cap.
	MaxConnections int
	// PingPeriod is the heartbeat interval of each connection.
	PingPeriod time.Duration
	// QueueSize is the per-connection outbound buffer. A connection whose
	// buffer is full when a broadcast arrives is treated as dead.
	QueueSize int
}

// Hub maps user ids to their open connections and fans envelopes out to them.
type Hub struct {
	// userID -> connections in registration order
	connections map[string][]*Connection
	mu          sync.RWMutex

	// serializes fan-out so every connection sees broadcasts in call order
	fanoutMu sync.Mutex

	nextID atomic.Uint64
	total  atomic.Int64

	totalBroadcasts atomic.Int64
	framesSent      atomic.Int64
	framesDropped   atomic.Int64
	prunedConns     atomic.Int64

	cfg      Config
	logger   log.Logger
	observer UserObserver

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a Hub. Call Run to start it.
func NewHub(logger log.Logger, cfg Config) *Hub {
	if cfg.PingPeriod <= 0 {
		cfg.PingPeriod = DefaultPingPeriod
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		connections: make(map[string][]*Connection),
		cfg:         cfg,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

// Run blocks until Shutdown, then closes every connection.
func (h *Hub) Run() {
	defer close(h.done)
	<-h.ctx.Done()
	h.logger.Info(context.Background(), "Hub shutting down...")
	h.closeAllConnections()
}

// SetUserObserver sets the connect/disconnect callback. Call before Run.
func (h *Hub) SetUserObserver(o UserObserver) {
	h.observer = o
}

// Register adds sink under userID and queues the connected comment so the
// client can tell an open stream from a pending one.
func (h *Hub) Register(userID string, sink Sink) (*Connection, error) {
	if h.ctx.Err() != nil {
		return nil, ErrHubClosed
	}

	conn := &Connection{
		id:         h.nextID.Add(1),
		hub:        h,
		userID:     userID,
		sink:       sink,
		send:       make(chan []byte, h.cfg.QueueSize),
		pingPeriod: h.cfg.PingPeriod,
		logger:     h.logger,
		done:       make(chan struct{}),
	}
	conn.send <- sse.Comment(sse.ConnectedComment)

	h.mu.Lock()
	// ctx is cancelled before Run snapshots the registry under h.mu.
	if h.ctx.Err() != nil {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	if h.cfg.MaxConnections > 0 && h.total.Load() >= int64(h.cfg.MaxConnections) {
		h.mu.Unlock()
		h.logger.Warnf(context.Background(), "Max connections reached, rejecting user: %s", userID)
		return nil, ErrMaxConnectionsReached
	}
	first := len(h.connections[userID]) == 0
	h.connections[userID] = append(h.connections[userID], conn)
	userCount := len(h.connections[userID])
	total := h.total.Add(1)
	h.mu.Unlock()

	h.logger.Infof(context.Background(), "User connected: %s (connection: %d, user connections: %d, total connections: %d)",
		userID, conn.id, userCount, total)

	if first && h.observer != nil {
		if err := h.observer.OnUserConnected(userID); err != nil {
			h.logger.Errorf(context.Background(), "Failed to notify user observer: %v", err)
		}
	}
	return conn, nil
}

// Unregister removes conn and closes it. Removing a connection that is no
// longer registered is a no-op. A user's bucket is deleted with its last
// connection.
func (h *Hub) Unregister(conn *Connection) {
	if conn == nil {
		return
	}
	conn.Close()

	h.mu.Lock()
	conns := h.connections[conn.userID]
	i := slices.Index(conns, conn)
	if i < 0 {
		h.mu.Unlock()
		return
	}
	conns = slices.Delete(conns, i, i+1)
	hasOthers := len(conns) > 0
	if hasOthers {
		h.connections[conn.userID] = conns
	} else {
		delete(h.connections, conn.userID)
	}
	h.total.Add(-1)
	h.mu.Unlock()

	if hasOthers {
		h.logger.Infof(context.Background(), "User connection closed: %s (connection: %d, remaining: %d)",
			conn.userID, conn.id, len(conns))
	} else {
		h.logger.Infof(context.Background(), "User disconnected (all streams closed): %s", conn.userID)
	}

	if h.observer != nil {
		if err := h.observer.OnUserDisconnected(conn.userID, hasOthers); err != nil {
			h.logger.Errorf(context.Background(), "Failed to notify user observer: %v", err)
		}
	}
}

// Broadcast queues env on every open connection of userID. A connection
// that cannot take the frame is pruned; the others still receive it. Events
// for users without connections are dropped.
func (h *Hub) Broadcast(userID string, env envelope.Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.logger.Errorf(context.Background(), "Failed to marshal %s envelope: %v", env.Type(), err)
		return
	}
	h.totalBroadcasts.Add(1)
	h.fanout(userID, sse.Data(payload))
}

func (h *Hub) fanout(userID string, frame []byte) []*Connection {
	h.fanoutMu.Lock()
	h.mu.RLock()
	conns := slices.Clone(h.connections[userID])
	h.mu.RUnlock()

	var dead []*Connection
	for _, conn := range conns {
		if !conn.enqueue(frame) {
			dead = append(dead, conn)
		}
	}
	h.fanoutMu.Unlock()

	for _, conn := range dead {
		h.logger.Warnf(context.Background(), "Pruning connection %d of user %s (queue full or closed)", conn.id, userID)
		h.framesDropped.Add(1)
		h.prunedConns.Add(1)
		h.Unregister(conn)
	}
	return conns
}

// ForceLogout sends a logout envelope to every connection of userID and then
// closes them. Frames queued before the close are still written.
func (h *Hub) ForceLogout(userID string, logout envelope.Logout) {
	payload, err := json.Marshal(envelope.New(logout))
	if err != nil {
		h.logger.Errorf(context.Background(), "Failed to marshal logout envelope: %v", err)
		return
	}
	h.totalBroadcasts.Add(1)
	conns := h.fanout(userID, sse.Data(payload))
	for _, conn := range conns {
		conn.Close()
	}
	h.logger.Infof(context.Background(), "Forced logout for user %s (%d connections, reason: %q)", userID, len(conns), logout.Reason)
}

// ConnectionCount returns the number of open connections across all users.
func (h *Hub) ConnectionCount() int {
	return int(h.total.Load())
}

// UserConnectionCount returns the number of open connections of userID.
func (h *Hub) UserConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID])
}

func (h *Hub) closeAllConnections() {
	h.mu.RLock()
	var all []*Connection
	for _, conns := range h.connections {
		all = append(all, conns...)
	}
	h.mu.RUnlock()

	for _, conn := range all {
		conn.Close()
	}
	h.logger.Infof(context.Background(), "Closed %d connections", len(all))
}

func (h *Hub) recordFrameSent()    { h.framesSent.Add(1) }
func (h *Hub) recordWriteFailure() { h.framesDropped.Add(1) }

// GetStats returns hub statistics.
func (h *Hub) GetStats() HubStats {
	h.mu.RLock()
	users := len(h.connections)
	h.mu.RUnlock()

	return HubStats{
		ActiveConnections: h.ConnectionCount(),
		TotalUniqueUsers:  users,
		TotalBroadcasts:   h.totalBroadcasts.Load(),
		FramesSent:        h.framesSent.Load(),
		FramesDropped:     h.framesDropped.Load(),
		PrunedConnections: h.prunedConns.Load(),
	}
}

// Shutdown stops the hub and waits for Run to return.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.cancel()

	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HubStats represents hub statistics.
type HubStats struct {
	ActiveConnections int   `json:"active_connections"`
	TotalUniqueUsers  int   `json:"total_unique_users"`
	TotalBroadcasts   int64 `json:"total_broadcasts"`
	FramesSent        int64 `json:"frames_sent"`
	FramesDropped     int64 `json:"frames_dropped"`
	PrunedConnections int64 `json:"pruned_connections"`
}
