package stream

import (
	"context"
	"sync"
	"time"

	"realtime-srv/internal/sse"
	"realtime-srv/pkg/log"
)

// Connection is one registered stream of a user. The hub enqueues frames;
// Serve is the only goroutine that writes to the sink.
type Connection struct {
	id     uint64
	hub    *Hub
	userID string
	sink   Sink

	send chan []byte

	pingPeriod time.Duration
	logger     log.Logger

	done      chan struct{}
	closeOnce sync.Once
}

func (c *Connection) ID() uint64     { return c.id }
func (c *Connection) UserID() string { return c.userID }

// enqueue never blocks. It reports false when the connection is closed or
// its queue is full.
func (c *Connection) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Serve writes queued frames and heartbeats until ctx is done, the
// connection is closed or a write fails. The heartbeat ticker and the
// registry entry are released on every return path.
func (c *Connection) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.Unregister(c)
		if err := c.sink.Close(); err != nil {
			c.logger.Debugf(context.Background(), "close sink for user %s: %v", c.userID, err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-c.done:
			c.flushPending()
			return ErrConnectionClosed

		case <-c.hub.ctx.Done():
			c.flushPending()
			return ErrConnectionClosed

		case frame := <-c.send:
			if err := c.sink.WriteFrame(frame); err != nil {
				c.logger.Warnf(context.Background(), "write to user %s connection %d failed: %v", c.userID, c.id, err)
				c.hub.recordWriteFailure()
				return err
			}
			c.hub.recordFrameSent()

		case <-ticker.C:
			if err := c.sink.WriteFrame(sse.Comment(sse.HeartbeatComment)); err != nil {
				c.logger.Warnf(context.Background(), "heartbeat to user %s connection %d failed: %v", c.userID, c.id, err)
				c.hub.recordWriteFailure()
				return err
			}
		}
	}
}

// flushPending writes frames that were queued before Close, so a logout
// frame queued just before a forced close still reaches the client.
func (c *Connection) flushPending() {
	for {
		select {
		case frame := <-c.send:
			if err := c.sink.WriteFrame(frame); err != nil {
				return
			}
			c.hub.recordFrameSent()
		default:
			return
		}
	}
}

// Close stops Serve. Safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Done is closed once the connection has been closed.
func (c *Connection) Done() <-chan struct{} { return c.done }
