package http

import (
	"github.com/gin-gonic/gin"

	"realtime-srv/internal/middleware"
	"realtime-srv/internal/credential"
	"realtime-srv/pkg/errors"
)

// session reads the caller set by the session middleware.
func (h *Handler) session(c *gin.Context) (credential.Session, error) {
	claims, ok := middleware.SessionClaims(c)
	if !ok {
		return credential.Session{}, errors.NewUnauthorizedHTTPError()
	}
	return credential.Session{UserID: claims.UserID(), SessionID: claims.SessionID}, nil
}

func (h *Handler) processRevokeRequest(c *gin.Context) (credential.Session, revokeReq, error) {
	sess, err := h.session(c)
	if err != nil {
		return credential.Session{}, revokeReq{}, err
	}

	var req revokeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return credential.Session{}, revokeReq{}, errors.NewValidationError(400, "body", "must be a JSON object")
	}
	if err := req.validate(); err != nil {
		return credential.Session{}, revokeReq{}, err
	}
	return sess, req, nil
}

func (h *Handler) processForceLogoutRequest(c *gin.Context) (forceLogoutReq, error) {
	var req forceLogoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return forceLogoutReq{}, errors.NewValidationError(400, "body", "must be a JSON object")
	}
	if err := req.validate(); err != nil {
		return forceLogoutReq{}, err
	}
	return req, nil
}
