package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roguepikachu/snipsnap/pkg"
	"github.com/roguepikachu/snipsnap/pkg/ctxutil"
	"github.com/roguepikachu/snipsnap/pkg/logger"
)

// Error codes used in the response envelope.
const (
	CodeBadRequest   = "bad_request"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeInternal     = "internal_error"
)

func abortError(c *gin.Context, status int, code, message, details string) {
	c.AbortWithStatusJSON(status, pkg.NewError(code, message, details))
}

func badRequest(c *gin.Context, message string, err error) {
	logger.Warn(c.Request.Context(), "%s: %v", message, err)
	abortError(c, http.StatusBadRequest, CodeBadRequest, message, err.Error())
}

func internalError(c *gin.Context, what string, err error) {
	logger.Error(c.Request.Context(), "failed to %s: %s", what, err.Error())
	abortError(c, http.StatusInternalServerError, CodeInternal, "internal server error", "")
}

// requesterID returns the authenticated user. Routes are mounted behind the
// auth middleware, so a missing id means the wiring is broken.
func requesterID(c *gin.Context) (int64, bool) {
	uid, ok := ctxutil.UserID(c.Request.Context())
	if !ok {
		abortError(c, http.StatusUnauthorized, CodeUnauthorized, "authentication required", "")
		return 0, false
	}
	return uid, true
}
