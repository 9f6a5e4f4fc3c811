package credential

import "time"

// Session identifies the authenticated caller.
type Session struct {
	UserID    string
	SessionID string
}

// StreamToken is a freshly minted stream credential.
type StreamToken struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
	// RefreshAfter is how long the client should use the token before
	// fetching a new one.
	RefreshAfter time.Duration
}

// ForceLogoutInput is the input of UseCase.ForceLogout.
type ForceLogoutInput struct {
	UserID    string
	SessionID string
	Reason    string
}
