package features

import (
	"context"
	"sync"

	"realtime-srv/internal/envelope"
)

// Transactions tracks payment status by transaction id.
type Transactions struct {
	mu       sync.Mutex
	statuses map[string]envelope.TransactionStatus
	// closed and replaced on every change
	changed chan struct{}
}

func NewTransactions() *Transactions {
	return &Transactions{
		statuses: make(map[string]envelope.TransactionStatus),
		changed:  make(chan struct{}),
	}
}

func (t *Transactions) HandleEnvelope(env envelope.Envelope) {
	d, ok := env.Data().(envelope.Transaction)
	if !ok {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	// A terminal status is final; late pending or paid updates do not undo it.
	if cur, ok := t.statuses[d.TransactionID]; ok && cur.IsTerminal() {
		return
	}
	t.statuses[d.TransactionID] = d.Status
	close(t.changed)
	t.changed = make(chan struct{})
}

// Status returns the last known status of id.
func (t *Transactions) Status(id string) (envelope.TransactionStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.statuses[id]
	return s, ok
}

// Wait blocks until id reaches a terminal status or ctx is done.
func (t *Transactions) Wait(ctx context.Context, id string) (envelope.TransactionStatus, error) {
	for {
		t.mu.Lock()
		s := t.statuses[id]
		changed := t.changed
		t.mu.Unlock()

		if s.IsTerminal() {
			return s, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return s, ctx.Err()
		}
	}
}
