package credential

import (
	"context"
	"time"

	"realtime-srv/internal/envelope"
)

// UseCase issues and revokes stream credentials.
type UseCase interface {
	// IssueStreamToken mints a stream credential for an authenticated session.
	IssueStreamToken(ctx context.Context, sess Session) (StreamToken, error)
	// RevokeStreamToken revokes a stream credential owned by sess.
	RevokeStreamToken(ctx context.Context, sess Session, token string) error
	// ForceLogout pushes a logout envelope to every stream of a user and
	// closes them.
	ForceLogout(ctx context.Context, ip ForceLogoutInput) error
}

// Revoker stores revoked credential ids.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// LogoutPusher delivers a logout to a user's open streams.
type LogoutPusher interface {
	ForceLogout(userID string, logout envelope.Logout)
}
