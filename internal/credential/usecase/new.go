package usecase

import (
	"time"

	"realtime-srv/internal/auth"
	"realtime-srv/internal/credential"
	"realtime-srv/pkg/jwt"
	pkgLog "realtime-srv/pkg/log"
)

type usecase struct {
	l            pkgLog.Logger
	security     *auth.SecurityLogger
	jwtMgr       jwt.Manager
	revoker      credential.Revoker
	pusher       credential.LogoutPusher
	refreshAfter time.Duration
	now          func() time.Time
}

// New creates the credential UseCase. refreshAfter must be shorter than the
// stream token lifetime.
func New(l pkgLog.Logger, jwtMgr jwt.Manager, revoker credential.Revoker, pusher credential.LogoutPusher, refreshAfter time.Duration) credential.UseCase {
	if refreshAfter <= 0 || refreshAfter >= jwtMgr.StreamTTL() {
		refreshAfter = jwtMgr.StreamTTL() * 5 / 6
	}
	return &usecase{
		l:            l,
		security:     auth.NewSecurityLogger(l),
		jwtMgr:       jwtMgr,
		revoker:      revoker,
		pusher:       pusher,
		refreshAfter: refreshAfter,
		now:          time.Now,
	}
}
