package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"realtime-srv/pkg/response"
)

// IssueToken mints a stream credential for the session caller.
func (h *Handler) IssueToken(c *gin.Context) {
	ctx := c.Request.Context()

	sess, err := h.session(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.uc.IssueStreamToken(ctx, sess)
	if err != nil {
		h.logger.Errorf(ctx, "credential.http.IssueToken: %v", err)
		response.ErrorWithMap(c, err, errMapping)
		return
	}

	c.Header("Cache-Control", "no-store")
	response.OK(c, newTokenResp(token))
}

// RevokeToken revokes one of the caller's stream credentials. Streams already
// open with it stay open until the credential expires.
func (h *Handler) RevokeToken(c *gin.Context) {
	ctx := c.Request.Context()

	sess, req, err := h.processRevokeRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.uc.RevokeStreamToken(ctx, sess, req.Token); err != nil {
		h.logger.Warnf(ctx, "credential.http.RevokeToken: %v", err)
		response.ErrorWithMap(c, err, errMapping)
		return
	}
	c.Status(http.StatusNoContent)
}

// ForceLogout logs a user out of every open stream.
func (h *Handler) ForceLogout(c *gin.Context) {
	ctx := c.Request.Context()

	req, err := h.processForceLogoutRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.uc.ForceLogout(ctx, req.toInput()); err != nil {
		h.logger.Errorf(ctx, "credential.http.ForceLogout: %v", err)
		response.ErrorWithMap(c, err, errMapping)
		return
	}
	response.OK(c, nil)
}
