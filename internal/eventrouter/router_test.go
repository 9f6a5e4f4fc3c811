package eventrouter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-srv/internal/envelope"
	"realtime-srv/pkg/log"
)

type countingHandler struct {
	mu    sync.Mutex
	types []envelope.Type
}

func (c *countingHandler) HandleEnvelope(env envelope.Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types = append(c.types, env.Type())
}

func (c *countingHandler) seen() []envelope.Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]envelope.Type(nil), c.types...)
}

func balance(credit float64) envelope.Envelope {
	return envelope.New(envelope.Balance{Credit: credit})
}

func TestRouteByType(t *testing.T) {
	r := New(log.NewNop())

	var balances, storages []envelope.Envelope
	r.Subscribe(OnType(envelope.TypeBalance, func(env envelope.Envelope) { balances = append(balances, env) }))
	r.Subscribe(OnType(envelope.TypeStorage, func(env envelope.Envelope) { storages = append(storages, env) }))

	r.DispatchNow(balance(10))

	require.Len(t, balances, 1)
	assert.Equal(t, envelope.Balance{Credit: 10}, balances[0].Data())
	assert.Empty(t, storages)
}

func TestPanickingHandlerDoesNotBlockOthers(t *testing.T) {
	r := New(log.NewNop())

	r.Subscribe(OnType(envelope.TypeBalance, func(envelope.Envelope) { panic("boom") }))
	second := &countingHandler{}
	r.Subscribe(second)

	assert.NotPanics(t, func() { r.DispatchNow(balance(1)) })
	assert.Equal(t, []envelope.Type{envelope.TypeBalance}, second.seen())
}

func TestSubscribeIdempotent(t *testing.T) {
	r := New(log.NewNop())
	h := &countingHandler{}

	cancel1 := r.Subscribe(h)
	cancel2 := r.Subscribe(h)
	assert.Equal(t, 1, r.Len())

	r.DispatchNow(balance(1))
	assert.Len(t, h.seen(), 1)

	cancel1()
	cancel1()
	cancel2()
	assert.Equal(t, 0, r.Len())
}

func TestUnsubscribeIdempotent(t *testing.T) {
	r := New(log.NewNop())
	h := &countingHandler{}
	other := &countingHandler{}

	r.Subscribe(h)
	r.Subscribe(other)
	r.Unsubscribe(h)
	r.Unsubscribe(h)
	assert.Equal(t, 1, r.Len())

	r.DispatchNow(balance(1))
	assert.Empty(t, h.seen())
	assert.Len(t, other.seen(), 1)
}

func TestHandlerFuncSubscriptionsAreDistinct(t *testing.T) {
	r := New(log.NewNop())
	calls := 0
	fn := HandlerFunc(func(envelope.Envelope) { calls++ })

	cancel := r.Subscribe(fn)
	r.Subscribe(fn)
	assert.Equal(t, 2, r.Len())

	// not comparable, so only the cancel func removes it
	r.Unsubscribe(fn)
	assert.Equal(t, 2, r.Len())

	cancel()
	r.DispatchNow(balance(1))
	assert.Equal(t, 1, calls)
}

func TestDispatchDeliversInOrder(t *testing.T) {
	r := New(log.NewNop())
	h := &countingHandler{}
	r.Subscribe(h)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	want := []envelope.Type{
		envelope.TypeBalance,
		envelope.TypeUnreadCount,
		envelope.TypeStorage,
		envelope.TypeBalance,
	}
	r.Dispatch(balance(1))
	r.Dispatch(envelope.New(envelope.UnreadCount{Count: 2}))
	r.Dispatch(envelope.New(envelope.NewStorage(10, 5, 0)))
	r.Dispatch(balance(2))

	require.Eventually(t, func() bool { return len(h.seen()) == len(want) }, time.Second, 5*time.Millisecond)
	assert.Equal(t, want, h.seen())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestDispatchBeforeRunIsQueued(t *testing.T) {
	r := New(log.NewNop())
	h := &countingHandler{}
	r.Subscribe(h)

	r.Dispatch(balance(1))
	assert.Empty(t, h.seen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	require.Eventually(t, func() bool { return len(h.seen()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestDrainDeliversQueued(t *testing.T) {
	r := New(log.NewNop())
	h := &countingHandler{}
	r.Subscribe(h)

	r.Dispatch(balance(1))
	r.Dispatch(envelope.New(envelope.Logout{}))
	r.Drain()

	assert.Equal(t, []envelope.Type{envelope.TypeBalance, envelope.TypeLogout}, h.seen())
	r.Drain()
	assert.Len(t, h.seen(), 2)
}

func TestDrainWaitsForBatchInFlight(t *testing.T) {
	r := New(log.NewNop())
	started := make(chan struct{})
	h := &countingHandler{}
	r.Subscribe(OnType(envelope.TypeBalance, func(envelope.Envelope) {
		close(started)
		time.Sleep(100 * time.Millisecond)
	}))
	r.Subscribe(h)

	r.Dispatch(balance(1))
	r.Dispatch(envelope.New(envelope.Logout{Reason: "signed out"}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = r.Run(ctx) }()

	// Run holds both envelopes and is stuck in the slow handler.
	<-started
	cancel()
	r.Drain()

	assert.Equal(t, []envelope.Type{envelope.TypeBalance, envelope.TypeLogout}, h.seen())
}
