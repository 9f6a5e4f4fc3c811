package http

import (
	"time"

	"realtime-srv/internal/credential"
	"realtime-srv/pkg/errors"
)

// --- Request DTOs ---

type revokeReq struct {
	Token string `json:"token"`
}

func (r revokeReq) validate() error {
	if r.Token == "" {
		return errors.NewValidationError(400, "token", "is required")
	}
	return nil
}

type forceLogoutReq struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

func (r forceLogoutReq) validate() error {
	if r.UserID == "" {
		return errors.NewValidationError(400, "user_id", "is required")
	}
	return nil
}

func (r forceLogoutReq) toInput() credential.ForceLogoutInput {
	return credential.ForceLogoutInput{
		UserID:    r.UserID,
		SessionID: r.SessionID,
		Reason:    r.Reason,
	}
}

// --- Response DTOs ---

type tokenResp struct {
	Token               string    `json:"token"`
	ExpiresAt           time.Time `json:"expires_at"`
	RefreshAfterSeconds int64     `json:"refresh_after_seconds"`
}

func newTokenResp(t credential.StreamToken) tokenResp {
	return tokenResp{
		Token:               t.Token,
		ExpiresAt:           t.ExpiresAt.UTC(),
		RefreshAfterSeconds: int64(t.RefreshAfter / time.Second),
	}
}
