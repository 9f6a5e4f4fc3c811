package jwt

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongScope is returned when a token is valid but issued for another purpose.
	ErrWrongScope = errors.New("jwt: token scope mismatch")
	// ErrMissingSubject is returned when a token has no subject.
	ErrMissingSubject = errors.New("jwt: missing subject")
)

func validateConfig(cfg Config) error {
	if len(cfg.SecretKey) < MinSecretKeyLen {
		return fmt.Errorf("jwt: secret key must be at least %d characters long, got %d", MinSecretKeyLen, len(cfg.SecretKey))
	}
	return nil
}
