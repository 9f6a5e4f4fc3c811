package subscriber

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"realtime-srv/internal/envelope"
	"realtime-srv/internal/sse"
)

var (
	errStreamEnded = errors.New("stream ended")
	errStreamIdle  = errors.New("stream idle")
)

// idleReader closes the stream when no bytes arrive for idle.
type idleReader struct {
	r     io.Reader
	idle  time.Duration
	timer *time.Timer
	fired atomic.Bool
}

func newIdleReader(body io.ReadCloser, idle time.Duration) *idleReader {
	ir := &idleReader{r: body, idle: idle}
	ir.timer = time.AfterFunc(idle, func() {
		ir.fired.Store(true)
		_ = body.Close()
	})
	return ir
}

func (ir *idleReader) Read(p []byte) (int, error) {
	n, err := ir.r.Read(p)
	if n > 0 {
		ir.timer.Reset(ir.idle)
	}
	if err != nil && ir.fired.Load() {
		err = errStreamIdle
	}
	return n, err
}

func (ir *idleReader) stop() { ir.timer.Stop() }

// runTransport dials, reports the open, then decodes frames until the
// stream fails or ctx is cancelled. Malformed frames are dropped.
func (s *Subscriber) runTransport(ctx context.Context, id uint64, token string) {
	body, err := s.dialer.Dial(ctx, token)
	if err != nil {
		s.postTransport(ctx, transportFailed{id: id, err: err})
		return
	}
	stop := context.AfterFunc(ctx, func() { _ = body.Close() })
	defer func() {
		if stop() {
			_ = body.Close()
		}
	}()

	if !s.postTransport(ctx, transportOpened{id: id}) {
		return
	}

	idle := newIdleReader(body, s.idle)
	defer idle.stop()

	reader := sse.NewReader(idle)
	for {
		ev, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = errStreamEnded
			}
			s.postTransport(ctx, transportFailed{id: id, err: err})
			return
		}

		env, err := envelope.Decode(ev.Data)
		if err != nil {
			s.logger.Warnf(ctx, "Dropping malformed frame on stream %d: %v", id, err)
			continue
		}
		if !s.postTransport(ctx, transportFrame{id: id, env: env}) {
			return
		}
	}
}

// postTransport delivers msg unless the transport was already replaced.
func (s *Subscriber) postTransport(ctx context.Context, msg input) bool {
	select {
	case s.in <- msg:
		return true
	case <-ctx.Done():
		return false
	case <-s.done:
		return false
	}
}
