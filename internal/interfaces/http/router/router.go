// Package router assembles the versioned API route tree.
package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar is implemented by handlers that mount routes onto a group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts registrars under a versioned API prefix.
type Router struct {
	engine     *gin.Engine
	apiVersion string
}

// Option customizes router construction.
type Option func(*Router)

// WithAPIVersion overrides the default "v1" path segment.
func WithAPIVersion(version string) Option {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// New creates a router over the given engine.
func New(engine *gin.Engine, opts ...Option) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register mounts each registrar under /api/<version>.
func (r *Router) Register(registrars ...RouteRegistrar) {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range registrars {
		registrar.RegisterRoutes(api)
	}
}

// Engine exposes the underlying gin engine for server wiring.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
