// Package eventrouter fans decoded envelopes out to in-process handlers.
package eventrouter

import (
	"context"
	"reflect"
	"slices"
	"sync"

	"realtime-srv/internal/envelope"
	"realtime-srv/pkg/log"
)

// Handler receives every dispatched envelope and picks the types it cares
// about.
type Handler interface {
	HandleEnvelope(env envelope.Envelope)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(env envelope.Envelope)

func (f HandlerFunc) HandleEnvelope(env envelope.Envelope) { f(env) }

// OnType returns a Handler that only sees envelopes of type t.
func OnType(t envelope.Type, fn func(env envelope.Envelope)) Handler {
	return HandlerFunc(func(env envelope.Envelope) {
		if env.Type() == t {
			fn(env)
		}
	})
}

type entry struct {
	id      uint64
	handler Handler
	// identity of comparable handlers, nil otherwise
	key any
}

// Router is an explicit, per-session subscriber set. Dispatch only queues;
// Run delivers queued envelopes in order so a burst of decoding never waits
// on slow handlers.
type Router struct {
	mu      sync.RWMutex
	entries []entry
	nextID  uint64

	queueMu sync.Mutex
	queue   []envelope.Envelope
	ready   chan struct{}
	// held while a batch taken off the queue is being delivered
	deliverMu sync.Mutex

	logger log.Logger
}

// New creates a Router. Call Run to start delivery of Dispatch calls.
func New(logger log.Logger) *Router {
	return &Router{
		ready:  make(chan struct{}, 1),
		logger: logger,
	}
}

// Subscribe adds h and returns a func that removes it. Subscribing a
// comparable handler that is already present does not add it twice.
func (r *Router) Subscribe(h Handler) (cancel func()) {
	key := identity(h)

	r.mu.Lock()
	defer r.mu.Unlock()

	if key != nil {
		if i := r.indexOfKeyLocked(key); i >= 0 {
			return r.cancelFunc(r.entries[i].id)
		}
	}
	r.nextID++
	id := r.nextID
	r.entries = append(r.entries, entry{id: id, handler: h, key: key})
	return r.cancelFunc(id)
}

// Unsubscribe removes a comparable handler. Handlers that are not
// comparable, such as HandlerFunc values, can only be removed with the
// func returned by Subscribe.
func (r *Router) Unsubscribe(h Handler) {
	key := identity(h)
	if key == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOfKeyLocked(key); i >= 0 {
		r.entries = slices.Delete(r.entries, i, i+1)
	}
}

func (r *Router) cancelFunc(id uint64) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if i := slices.IndexFunc(r.entries, func(e entry) bool { return e.id == id }); i >= 0 {
				r.entries = slices.Delete(r.entries, i, i+1)
			}
		})
	}
}

func (r *Router) indexOfKeyLocked(key any) int {
	return slices.IndexFunc(r.entries, func(e entry) bool { return e.key != nil && e.key == key })
}

// Len returns the number of subscribed handlers.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Dispatch queues env for delivery by Run and returns immediately.
func (r *Router) Dispatch(env envelope.Envelope) {
	r.queueMu.Lock()
	r.queue = append(r.queue, env)
	r.queueMu.Unlock()

	select {
	case r.ready <- struct{}{}:
	default:
	}
}

// Run delivers queued envelopes in dispatch order until ctx is done.
func (r *Router) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.ready:
		}
		r.Drain()
	}
}

// Drain delivers everything queued so far on the calling goroutine. A batch
// Run is still delivering finishes first, so once Drain returns every
// envelope dispatched before the call has been handled.
func (r *Router) Drain() {
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	for {
		r.queueMu.Lock()
		batch := r.queue
		r.queue = nil
		r.queueMu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, env := range batch {
			r.DispatchNow(env)
		}
	}
}

// DispatchNow delivers env to every handler on the calling goroutine. A
// panicking handler is logged and does not stop delivery to the rest.
func (r *Router) DispatchNow(env envelope.Envelope) {
	r.mu.RLock()
	handlers := make([]Handler, len(r.entries))
	for i, e := range r.entries {
		handlers[i] = e.handler
	}
	r.mu.RUnlock()

	for _, h := range handlers {
		r.deliver(h, env)
	}
}

func (r *Router) deliver(h Handler, env envelope.Envelope) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Errorf(context.Background(), "eventrouter: handler %T panicked on %s event: %v", h, env.Type(), p)
		}
	}()
	h.HandleEnvelope(env)
}

// identity returns h itself when it can be used as a map key, nil otherwise.
func identity(h Handler) any {
	if h == nil {
		panic("eventrouter: nil handler")
	}
	if !reflect.ValueOf(h).Comparable() {
		return nil
	}
	return h
}
