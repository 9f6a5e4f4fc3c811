package features

import (
	"sync"

	"realtime-srv/internal/envelope"
)

// DefaultLogoutMessage is shown when the server gives no reason.
const DefaultLogoutMessage = "You have been signed out."

// LogoutNotice records the message to show after a server pushed logout.
// The session itself is dropped by the subscriber before this runs.
type LogoutNotice struct {
	mu       sync.RWMutex
	message  string
	received bool
}

func (l *LogoutNotice) HandleEnvelope(env envelope.Envelope) {
	d, ok := env.Data().(envelope.Logout)
	if !ok {
		return
	}
	msg := d.Reason
	if msg == "" {
		msg = DefaultLogoutMessage
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.message = msg
	l.received = true
}

// Message returns the logout message and whether a logout was received.
func (l *LogoutNotice) Message() (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.message, l.received
}
