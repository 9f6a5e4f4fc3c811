package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"realtime-srv/pkg/response"
)

// Recovery turns a handler panic into a 500 response.
func (m Middleware) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				ctx := c.Request.Context()
				m.l.Errorf(ctx, "Panic recovered: %v | Method: %s | Path: %s",
					err, c.Request.Method, c.Request.URL.Path)

				if c.Writer.Written() {
					// A stream already sent its headers; nothing sensible to add.
					c.Abort()
					return
				}
				response.Error(c, fmt.Errorf("panic: %v", err))
			}
		}()
		c.Next()
	}
}
