package features

import (
	"sync"

	"realtime-srv/internal/envelope"
)

// Balance tracks the user's credit.
type Balance struct {
	mu      sync.RWMutex
	credit  float64
	message string
	known   bool
}

func (b *Balance) HandleEnvelope(env envelope.Envelope) {
	d, ok := env.Data().(envelope.Balance)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit = d.Credit
	b.message = d.Message
	b.known = true
}

// Credit returns the last pushed credit and whether any was received.
func (b *Balance) Credit() (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.credit, b.known
}

// Message returns the message attached to the last balance change.
func (b *Balance) Message() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.message
}
