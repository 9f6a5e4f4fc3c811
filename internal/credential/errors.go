package credential

import "errors"

var (
	ErrInvalidStreamToken = errors.New("invalid stream token")
	ErrTokenNotOwned      = errors.New("stream token belongs to another user")
	ErrMissingUserID      = errors.New("user id is required")
)
