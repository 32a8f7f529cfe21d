package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/roguepikachu/snipsnap/pkg"
	"github.com/roguepikachu/snipsnap/pkg/ctxutil"
	"github.com/roguepikachu/snipsnap/pkg/logger"
)

var errNoToken = errors.New("missing bearer token")

// Auth validates an HS256 bearer token and stores its numeric subject as the
// requesting user id. An empty issuer skips the issuer check.
func Auth(secret, issuer string) gin.HandlerFunc {
	key := []byte(secret)
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithExpirationRequired()}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		uid, err := authenticate(parser, key, c.GetHeader("Authorization"))
		if err != nil {
			logger.Debug(c.Request.Context(), "rejecting request: %v", err)
			c.Header("WWW-Authenticate", `Bearer realm="snipsnap"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, pkg.NewError("unauthorized", "authentication required", ""))
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithUserID(c.Request.Context(), uid))
		c.Next()
	}
}

func authenticate(parser *jwt.Parser, key []byte, header string) (int64, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, errNoToken
	}
	var claims jwt.RegisteredClaims
	if _, err := parser.ParseWithClaims(strings.TrimSpace(raw), &claims, func(*jwt.Token) (any, error) {
		return key, nil
	}); err != nil {
		return 0, fmt.Errorf("parse token: %w", err)
	}
	uid, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || uid < 1 {
		return 0, fmt.Errorf("invalid subject %q", claims.Subject)
	}
	return uid, nil
}
