package usecase

import (
	"context"
	"fmt"

	"realtime-srv/internal/credential"
	"realtime-srv/internal/envelope"
	"realtime-srv/pkg/jwt"
)

func (uc *usecase) IssueStreamToken(ctx context.Context, sess credential.Session) (credential.StreamToken, error) {
	if sess.UserID == "" {
		return credential.StreamToken{}, credential.ErrMissingUserID
	}

	token, claims, err := uc.jwtMgr.GenerateStreamToken(sess.UserID, sess.SessionID)
	if err != nil {
		uc.l.Errorf(ctx, "credential.usecase.IssueStreamToken.GenerateStreamToken: %v", err)
		return credential.StreamToken{}, fmt.Errorf("generate stream token: %w", err)
	}

	return credential.StreamToken{
		Token:        token,
		TokenID:      claims.ID,
		ExpiresAt:    claims.Expiry(),
		RefreshAfter: uc.refreshAfter,
	}, nil
}

func (uc *usecase) RevokeStreamToken(ctx context.Context, sess credential.Session, token string) error {
	claims, err := uc.jwtMgr.VerifyStreamToken(token)
	if err != nil {
		uc.security.LogCredentialRejected(ctx, jwt.ScopeStream, err.Error())
		return credential.ErrInvalidStreamToken
	}
	if claims.UserID() != sess.UserID {
		uc.security.LogCredentialRejected(ctx, jwt.ScopeStream, credential.ErrTokenNotOwned.Error())
		return credential.ErrTokenNotOwned
	}

	ttl := claims.Expiry().Sub(uc.now())
	if err := uc.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		uc.l.Errorf(ctx, "credential.usecase.RevokeStreamToken.Revoke: %v", err)
		return err
	}
	uc.security.LogCredentialRevoked(ctx, sess.UserID, claims.ID)
	return nil
}

func (uc *usecase) ForceLogout(ctx context.Context, ip credential.ForceLogoutInput) error {
	if ip.UserID == "" {
		return credential.ErrMissingUserID
	}
	uc.pusher.ForceLogout(ip.UserID, envelope.Logout{SessionID: ip.SessionID, Reason: ip.Reason})
	uc.security.LogForcedLogout(ctx, ip.UserID, ip.Reason)
	return nil
}
