package auth

import (
	"context"

	"realtime-srv/pkg/log"
)

// SecurityEventType names a security relevant event.
type SecurityEventType string

const (
	SecurityEventCredentialRejected SecurityEventType = "credential_rejected"
	SecurityEventCredentialRevoked  SecurityEventType = "credential_revoked"
	SecurityEventRateLimitExceeded  SecurityEventType = "rate_limit_exceeded"
	SecurityEventForcedLogout       SecurityEventType = "forced_logout"
)

// SecurityLogger writes security events with a common prefix so they can be
// filtered out of the service log.
type SecurityLogger struct {
	logger log.Logger
}

func NewSecurityLogger(logger log.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger}
}

func (sl *SecurityLogger) LogCredentialRejected(ctx context.Context, scope, reason string) {
	sl.logger.Warnf(ctx, "SECURITY: %s - scope=%s reason=%s", SecurityEventCredentialRejected, scope, reason)
}

func (sl *SecurityLogger) LogCredentialRevoked(ctx context.Context, userID, tokenID string) {
	sl.logger.Infof(ctx, "SECURITY: %s - user=%s token=%s", SecurityEventCredentialRevoked, userID, tokenID)
}

func (sl *SecurityLogger) LogRateLimitExceeded(ctx context.Context, userID, limitType string, current, max int) {
	sl.logger.Warnf(ctx, "SECURITY: %s - user=%s limit=%s current=%d max=%d",
		SecurityEventRateLimitExceeded, userID, limitType, current, max)
}

func (sl *SecurityLogger) LogForcedLogout(ctx context.Context, userID, reason string) {
	sl.logger.Infof(ctx, "SECURITY: %s - user=%s reason=%s", SecurityEventForcedLogout, userID, reason)
}
