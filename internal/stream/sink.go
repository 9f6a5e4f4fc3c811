package stream

import (
	"errors"
	"net/http"
	"time"
)

// Sink is the write side of one open client stream. A sink is owned by a
// single Connection and only written from its Serve loop.
type Sink interface {
	WriteFrame(frame []byte) error
	Close() error
}

// sseSink writes frames to an HTTP response and flushes after each one.
type sseSink struct {
	w         http.ResponseWriter
	rc        *http.ResponseController
	writeWait time.Duration
}

// NewSSESink wraps w. Each write is bounded by writeWait when the underlying
// connection supports deadlines.
func NewSSESink(w http.ResponseWriter, writeWait time.Duration) Sink {
	return &sseSink{w: w, rc: http.NewResponseController(w), writeWait: writeWait}
}

func (s *sseSink) WriteFrame(frame []byte) error {
	if s.writeWait > 0 {
		if err := s.rc.SetWriteDeadline(time.Now().Add(s.writeWait)); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return err
		}
	}
	if _, err := s.w.Write(frame); err != nil {
		return err
	}
	if err := s.rc.Flush(); err != nil {
		if f, ok := s.w.(http.Flusher); ok {
			f.Flush()
			return nil
		}
		return err
	}
	return nil
}

// Close is a no-op; the response is finished when the handler returns.
func (s *sseSink) Close() error { return nil }
