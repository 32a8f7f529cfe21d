// Package router sets up the HTTP routes for the SnipSnap API server.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/roguepikachu/snipsnap/internal/http/handler"
	"github.com/roguepikachu/snipsnap/internal/http/middleware"
	"github.com/roguepikachu/snipsnap/pkg"
)

// NewRouter builds the gin engine. Health probes are public; snippet and tag
// routes sit behind auth.
func NewRouter(snippets *handler.Handler, tags *handler.TagHandler, health *handler.HealthHandler, auth gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestIDMiddleware(), middleware.RequestLogger())

	r.GET(pkg.HealthCheckPath, handler.Health)
	r.GET(pkg.LivenessPath, health.Liveness)
	r.GET(pkg.ReadinessPath, health.Readiness)

	api := r.Group(pkg.BasePath, auth)

	s := api.Group("/snippets")
	s.GET("", snippets.List)
	s.POST("", snippets.Create)
	s.GET("/:id", snippets.Get)
	s.PUT("/:id", snippets.Update)
	s.DELETE("/:id", snippets.Delete)
	s.POST("/:id/favorite", snippets.ToggleFavorite)

	t := api.Group("/tags")
	t.GET("", tags.List)
	t.POST("", tags.Create)
	t.GET("/:id", tags.Get)
	t.PUT("/:id", tags.Update)
	t.DELETE("/:id", tags.Delete)

	return r
}
