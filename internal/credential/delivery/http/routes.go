package http

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the credential routes. sessionAuth guards the
// user facing routes, internalAuth the service-to-service ones.
func (h *Handler) RegisterRoutes(r gin.IRouter, sessionAuth, internalAuth gin.HandlerFunc) {
	rt := r.Group("/api/realtime")
	{
		rt.POST("/token", sessionAuth, h.IssueToken)
		rt.POST("/token/revoke", sessionAuth, h.RevokeToken)
		rt.POST("/logout", internalAuth, h.ForceLogout)
	}
}
