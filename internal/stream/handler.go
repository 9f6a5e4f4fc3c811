package stream

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"realtime-srv/internal/sse"
	"realtime-srv/pkg/jwt"
	"realtime-srv/pkg/log"
)

// TokenVerifier validates stream credentials.
type TokenVerifier interface {
	VerifyStreamToken(token string) (*jwt.Claims, error)
}

// RevocationChecker reports whether a credential id was revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// ConnectionRateLimiter limits how many streams a user may open.
type ConnectionRateLimiter interface {
	CheckAndTrackConnection(ctx context.Context, userID string) error
	UntrackConnection(userID string)
}

// HandlerConfig holds stream endpoint configuration.
type HandlerConfig struct {
	// WriteWait bounds each write to a client.
	WriteWait time.Duration
}

// HandlerOptions holds optional collaborators.
type HandlerOptions struct {
	Revocations RevocationChecker
	RateLimiter ConnectionRateLimiter
}

// Handler serves the realtime stream endpoint.
type Handler struct {
	hub         *Hub
	verifier    TokenVerifier
	revocations RevocationChecker
	rateLimiter ConnectionRateLimiter
	logger      log.Logger
	cfg         HandlerConfig
}

// NewHandler creates the stream handler. opts may be nil.
func NewHandler(hub *Hub, verifier TokenVerifier, logger log.Logger, cfg HandlerConfig, opts *HandlerOptions) *Handler {
	h := &Handler{
		hub:      hub,
		verifier: verifier,
		logger:   logger,
		cfg:      cfg,
	}
	if opts != nil {
		h.revocations = opts.Revocations
		h.rateLimiter = opts.RateLimiter
	}
	return h
}

// HandleStream opens a server-push stream for the owner of the ?token=
// credential. The stream ends when the client leaves, a write fails, the
// connection is closed by the hub, or the credential expires.
func (h *Handler) HandleStream(c *gin.Context) {
	ctx := c.Request.Context()

	token := c.Query("token")
	if token == "" {
		h.logger.Warn(ctx, "Stream connection rejected: missing token")
		c.JSON(http.StatusUnauthorized, gin.H{"error": ErrMissingToken.Error()})
		return
	}

	claims, err := h.verifier.VerifyStreamToken(token)
	if err != nil {
		h.logger.Warnf(ctx, "Stream connection rejected: invalid token - %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidToken.Error()})
		return
	}
	userID := claims.UserID()

	if h.revocations != nil {
		revoked, err := h.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			h.logger.Errorf(ctx, "Revocation check failed for user %s: %v", userID, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "revocation check failed"})
			return
		}
		if revoked {
			h.logger.Warnf(ctx, "Stream connection rejected: revoked token %s for user %s", claims.ID, userID)
			c.JSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidToken.Error()})
			return
		}
	}

	if h.rateLimiter != nil {
		if err := h.rateLimiter.CheckAndTrackConnection(ctx, userID); err != nil {
			h.logger.Warnf(ctx, "Stream connection rejected: %v", err)
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "connection limit exceeded"})
			return
		}
		defer h.rateLimiter.UntrackConnection(userID)
	}

	conn, err := h.hub.Register(userID, NewSSESink(c.Writer, h.cfg.WriteWait))
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, ErrMaxConnectionsReached) {
			status = http.StatusTooManyRequests
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	header := c.Writer.Header()
	header.Set("Content-Type", sse.ContentType)
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()

	serveCtx := ctx
	if exp := claims.Expiry(); !exp.IsZero() {
		var cancel context.CancelFunc
		serveCtx, cancel = context.WithDeadline(ctx, exp)
		defer cancel()
	}

	err = conn.Serve(serveCtx)
	h.logger.Debugf(ctx, "Stream for user %s connection %d ended: %v", userID, conn.ID(), err)
}

// SetupRoutes registers the stream route.
func (h *Handler) SetupRoutes(r gin.IRouter) {
	r.GET("/api/realtime/stream", h.HandleStream)
}
