package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// MinSecretKeyLen is the shortest HMAC secret accepted by New.
	MinSecretKeyLen = 32

	// ScopeSession marks the main session credential.
	ScopeSession = "session"
	// ScopeStream marks a short-lived credential that only opens the realtime stream.
	ScopeStream = "stream"

	DefaultIssuer     = "realtime-srv"
	DefaultStreamTTL  = 60 * time.Minute
	DefaultSessionTTL = 2 * time.Hour
)

// Config holds JWT configuration.
type Config struct {
	SecretKey  string
	Issuer     string
	StreamTTL  time.Duration
	SessionTTL time.Duration
}

// Claims is the claim set of both session and stream tokens.
type Claims struct {
	Scope     string `json:"scope"`
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject.
func (c *Claims) UserID() string { return c.Subject }

// Expiry returns the expiry time, or the zero time when the token has none.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

type managerImpl struct {
	secretKey  []byte
	issuer     string
	streamTTL  time.Duration
	sessionTTL time.Duration
	now        func() time.Time
}
