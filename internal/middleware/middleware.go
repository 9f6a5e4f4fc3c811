package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"realtime-srv/pkg/jwt"
	"realtime-srv/pkg/response"
)

const (
	// ContextKeyClaims is the gin context key holding the session claims.
	ContextKeyClaims = "session_claims"
	// HeaderInternalKey carries the shared key of service-to-service calls.
	HeaderInternalKey = "X-Internal-Key"
)

// Auth validates the main session token and stores its claims in the gin
// context. The token is read from the session cookie, falling back to the
// Authorization bearer header.
func (m Middleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		tokenString := m.sessionToken(c)
		if tokenString == "" {
			m.l.Warnf(ctx, "Missing session token | Path: %s", c.Request.URL.Path)
			response.Unauthorized(c)
			return
		}

		claims, err := m.jwtManager.VerifySessionToken(tokenString)
		if err != nil {
			m.security.LogCredentialRejected(ctx, jwt.ScopeSession, err.Error())
			response.Unauthorized(c)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// InternalKey guards service-to-service routes.
func (m Middleware) InternalKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.internalKey == "" || c.GetHeader(HeaderInternalKey) != m.internalKey {
			m.l.Warnf(c.Request.Context(), "Internal route rejected | Path: %s", c.Request.URL.Path)
			response.Forbidden(c)
			return
		}
		c.Next()
	}
}

// SessionClaims returns the claims stored by Auth.
func SessionClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, ok := c.Get(ContextKeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}

func (m Middleware) sessionToken(c *gin.Context) string {
	if m.cookieName != "" {
		if token, err := c.Cookie(m.cookieName); err == nil && token != "" {
			return token
		}
	}
	const bearerPrefix = "Bearer "
	if rest, ok := strings.CutPrefix(c.GetHeader("Authorization"), bearerPrefix); ok {
		return strings.TrimSpace(rest)
	}
	return ""
}
