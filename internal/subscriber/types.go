package subscriber

import (
	"context"
	"errors"
	"io"
	"time"

	"realtime-srv/internal/envelope"
)

// ErrLoggedOut is returned by Run after the server pushed a logout.
var ErrLoggedOut = errors.New("subscriber: session logged out by server")

// State is the subscriber's connection state.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateRetrying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateRetrying:
		return "retrying"
	default:
		return "unknown"
	}
}

// Credential is a stream credential.
type Credential struct {
	Token     string
	ExpiresAt time.Time
	// RefreshAfter overrides Config.RefreshInterval when positive.
	RefreshAfter time.Duration
}

// CredentialSource mints stream credentials for the current session.
type CredentialSource interface {
	FetchCredential(ctx context.Context) (Credential, error)
}

// Dialer opens a stream with a credential. The returned body yields SSE
// frames until it fails or is closed.
type Dialer interface {
	Dial(ctx context.Context, token string) (io.ReadCloser, error)
}

// Dispatcher receives every decoded envelope, logout included.
type Dispatcher interface {
	Dispatch(env envelope.Envelope)
}

// SessionStore is told to drop the session when the server logs it out.
type SessionStore interface {
	Deauthenticate(reason string)
}

// Status is a read-only snapshot for observers such as a UI.
type Status struct {
	State         State
	Attempt       int
	PendingTimers int
	TransportID   uint64
	Fetching      bool
	// Terminal is set once the subscriber stopped for good.
	Terminal      bool
	LoggedOut     bool
	LastEventType envelope.Type
	LastEventAt   time.Time
}

// Config tunes a Subscriber.
type Config struct {
	Policy *Policy
	// RefreshInterval is used when a credential carries no RefreshAfter.
	RefreshInterval time.Duration
	// IdleTimeout fails a stream that delivers no bytes, heartbeats
	// included, for this long.
	IdleTimeout time.Duration
}

const (
	DefaultRefreshInterval = 50 * time.Minute
	// DefaultIdleTimeout allows two missed 30s heartbeats.
	DefaultIdleTimeout = 75 * time.Second
)
