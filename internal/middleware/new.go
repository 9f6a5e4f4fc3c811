package middleware

import (
	"realtime-srv/internal/auth"
	"realtime-srv/pkg/jwt"
	"realtime-srv/pkg/log"
)

// SessionVerifier validates main session credentials.
type SessionVerifier interface {
	VerifySessionToken(token string) (*jwt.Claims, error)
}

type Middleware struct {
	l           log.Logger
	security    *auth.SecurityLogger
	jwtManager  SessionVerifier
	cookieName  string
	internalKey string
}

// New creates the middleware set. An empty internalKey disables the internal
// routes.
func New(l log.Logger, jwtManager SessionVerifier, cookieName, internalKey string) Middleware {
	return Middleware{
		l:           l,
		security:    auth.NewSecurityLogger(l),
		jwtManager:  jwtManager,
		cookieName:  cookieName,
		internalKey: internalKey,
	}
}
