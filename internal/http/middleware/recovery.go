package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/roguepikachu/snipsnap/pkg"
	"github.com/roguepikachu/snipsnap/pkg/logger"
)

// Recovery recovers from panics, logs them, and returns 500.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.With(c.Request.Context(), map[string]any{"panic": r, "stack": string(debug.Stack())}).Error("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, pkg.NewError("internal_error", "internal server error", ""))
			}
		}()
		c.Next()
	}
}
