// Package handler provides HTTP handler functions for the SnipSnap API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roguepikachu/snipsnap/pkg"
	"github.com/roguepikachu/snipsnap/pkg/logger"
)

// Health is the plain "is the API up" endpoint.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, pkg.NewResponse(http.StatusOK, gin.H{"ok": true}, "API is working!"))
}

// Pinger is anything that can report whether a downstream dependency answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides liveness and readiness probes checking downstream deps.
type HealthHandler struct {
	pg          Pinger
	redis       Pinger
	pingTimeout time.Duration
}

// NewHealthHandler constructs a HealthHandler. A nil redis client skips the cache check.
func NewHealthHandler(pg *pgxpool.Pool, redis *redis.Client) *HealthHandler {
	var pgPinger Pinger
	if pg != nil {
		pgPinger = pgPingerAdapter{pg}
	}
	var redisPinger Pinger
	if redis != nil {
		redisPinger = redisPingerAdapter{redis}
	}
	return &HealthHandler{
		pg:          pgPinger,
		redis:       redisPinger,
		pingTimeout: 1 * time.Second,
	}
}

type pgPingerAdapter struct{ pool *pgxpool.Pool }

func (p pgPingerAdapter) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

type redisPingerAdapter struct{ c *redis.Client }

func (r redisPingerAdapter) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

// Liveness reports that the process is up. Do not check external deps here.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, pkg.NewResponse(http.StatusOK, gin.H{"status": "alive"}, "ok"))
}

type depCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func runCheck(ctx context.Context, name string, p Pinger) depCheck {
	if err := p.Ping(ctx); err != nil {
		return depCheck{Name: name, Status: "down", Error: err.Error()}
	}
	return depCheck{Name: name, Status: "up"}
}

// Readiness checks external dependencies to decide if we can serve traffic.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.pingTimeout)
	defer cancel()

	results := make([]depCheck, 0, 2)
	if h.pg != nil {
		results = append(results, runCheck(ctx, "postgres", h.pg))
	}
	if h.redis != nil {
		results = append(results, runCheck(ctx, "redis", h.redis))
	}
	ready := true
	for _, r := range results {
		if r.Status != "up" {
			ready = false
		}
	}

	if ready {
		c.JSON(http.StatusOK, pkg.NewResponse(http.StatusOK, gin.H{"ready": true, "checks": results}, "ready"))
		return
	}
	logger.Warn(c.Request.Context(), "readiness failed: %+v", results)
	c.JSON(http.StatusServiceUnavailable, pkg.NewResponse(http.StatusServiceUnavailable, gin.H{"ready": false, "checks": results}, "not ready"))
}
