// Package middleware provides HTTP middleware functions.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/roguepikachu/snipsnap/pkg/ctxutil"
)

const (
	headerRequestID = "X-Request-ID"
	headerClientID  = "X-Client-ID"
)

// RequestIDMiddleware sets a request and client id on the context and echoes
// them back as response headers. Missing or blank headers get a fresh UUID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := headerOrUUID(c, headerRequestID)
		clientID := headerOrUUID(c, headerClientID)
		ctx := ctxutil.WithRequestID(c.Request.Context(), requestID)
		ctx = ctxutil.WithClientID(ctx, clientID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(headerRequestID, requestID)
		c.Header(headerClientID, clientID)
		c.Next()
	}
}

func headerOrUUID(c *gin.Context, name string) string {
	if v := strings.TrimSpace(c.GetHeader(name)); v != "" {
		return v
	}
	return uuid.New().String()
}
