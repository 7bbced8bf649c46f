// Package api is the HTTP surface over generation, commands, storage and
// frame previews.
package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ivlev/promoreel/internal/director"
	"github.com/ivlev/promoreel/internal/manifest"
	"github.com/ivlev/promoreel/internal/source"
	"github.com/ivlev/promoreel/internal/storage"
)

// Generator is satisfied by *generator.Pipeline.
type Generator interface {
	Run(ctx context.Context, url, style string) (manifest.VideoManifest, error)
}

// Server holds the collaborators the handlers need.
type Server struct {
	Store     storage.Store
	Director  *director.Director
	Generator Generator
	Loader    source.Loader // nil renders media as theme background
	Log       zerolog.Logger
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.Log))

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/themes", s.handleThemes)

	m := api.Group("/manifests")
	m.POST("", s.handleCreate)
	m.GET("/:id", s.handleGet)
	m.GET("/:id/versions", s.handleVersions)
	m.GET("/:id/versions/:version", s.handleGetVersion)
	m.POST("/:id/commands", s.handleCommand)
	m.GET("/:id/scene", s.handleScene)
	m.GET("/:id/frame.png", s.handleFrame)
	return r
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
