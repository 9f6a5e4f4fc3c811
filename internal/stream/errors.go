package stream

import "errors"

var (
	// ErrMissingToken is returned when the stream request carries no credential.
	ErrMissingToken = errors.New("missing stream token")

	// ErrInvalidToken is returned when the stream credential is invalid, expired or revoked.
	ErrInvalidToken = errors.New("invalid or expired stream token")

	// ErrConnectionClosed is returned by Serve when the connection was closed by the hub.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrMaxConnectionsReached is returned when the hub-wide connection cap is reached.
	ErrMaxConnectionsReached = errors.New("maximum connections reached")

	// ErrHubClosed is returned when registering on a hub that is shutting down.
	ErrHubClosed = errors.New("hub closed")
)
