package jwt

import "time"

// Manager signs and verifies session and stream tokens.
type Manager interface {
	// GenerateSessionToken signs a main session credential.
	GenerateSessionToken(userID, sessionID string) (string, *Claims, error)
	// GenerateStreamToken signs a stream credential bound to the session.
	GenerateStreamToken(userID, sessionID string) (string, *Claims, error)
	// VerifySessionToken rejects anything that is not a valid session token.
	VerifySessionToken(token string) (*Claims, error)
	// VerifyStreamToken rejects anything that is not a valid stream token.
	VerifyStreamToken(token string) (*Claims, error)
	// StreamTTL is the lifetime given to new stream tokens.
	StreamTTL() time.Duration
}

// New validates cfg and returns a Manager using HS256.
func New(cfg Config) (Manager, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	m := &managerImpl{
		secretKey:  []byte(cfg.SecretKey),
		issuer:     cfg.Issuer,
		streamTTL:  cfg.StreamTTL,
		sessionTTL: cfg.SessionTTL,
		now:        time.Now,
	}
	if m.issuer == "" {
		m.issuer = DefaultIssuer
	}
	if m.streamTTL <= 0 {
		m.streamTTL = DefaultStreamTTL
	}
	if m.sessionTTL <= 0 {
		m.sessionTTL = DefaultSessionTTL
	}
	return m, nil
}
