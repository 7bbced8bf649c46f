package api

import (
	"errors"
	"image/png"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ivlev/promoreel/internal/manifest"
	"github.com/ivlev/promoreel/internal/renderer"
	"github.com/ivlev/promoreel/internal/storage"
	"github.com/ivlev/promoreel/internal/system"
	"github.com/ivlev/promoreel/internal/theme"
)

type createRequest struct {
	URL   string `json:"url" binding:"required"`
	Style string `json:"style"`
}

type commandRequest struct {
	Command string `json:"command" binding:"required"`
	// Version the client is looking at. When set and stale, the command is
	// refused instead of being applied to a newer manifest.
	Version int `json:"version"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleThemes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"themes": theme.All()})
}

func (s *Server) handleCreate(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Style != "" {
		if _, ok := theme.Lookup(req.Style); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown style " + strconv.Quote(req.Style)})
			return
		}
	}

	m, err := s.Generator.Run(c.Request.Context(), req.URL, req.Style)
	if err != nil {
		s.Log.Error().Err(err).Str("url", req.URL).Msg("generate failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate a manifest"})
		return
	}
	if err := s.Store.Save(c.Request.Context(), m); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (s *Server) handleGet(c *gin.Context) {
	m, err := s.Store.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) handleVersions(c *gin.Context) {
	v, err := s.Store.Versions(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "versions": v})
}

func (s *Server) handleGetVersion(c *gin.Context) {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "version must be an integer"})
		return
	}
	m, err := s.Store.LoadVersion(c.Request.Context(), c.Param("id"), version)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// handleCommand runs one director command against the latest version and
// stores the result when it changed anything.
func (s *Server) handleCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	m, err := s.Store.Load(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if req.Version != 0 && req.Version != m.Version {
		c.JSON(http.StatusConflict, gin.H{"error": "manifest has changed", "version": m.Version})
		return
	}

	res := s.Director.Interpret(ctx, req.Command, m)
	if res.Manifest.Version != m.Version {
		if err := s.Store.Save(ctx, res.Manifest); err != nil {
			s.fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) loadFrame(c *gin.Context) (manifest.VideoManifest, int, bool) {
	m, err := s.Store.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return m, 0, false
	}
	frame, err := strconv.Atoi(c.DefaultQuery("frame", "0"))
	if err != nil || frame < 0 || frame >= m.DurationInFrames {
		c.JSON(http.StatusBadRequest, gin.H{"error": "frame out of range", "durationInFrames": m.DurationInFrames})
		return m, 0, false
	}
	return m, frame, true
}

func (s *Server) handleScene(c *gin.Context) {
	m, frame, ok := s.loadFrame(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, renderer.Render(m, frame))
}

func (s *Server) handleFrame(c *gin.Context) {
	m, frame, ok := s.loadFrame(c)
	if !ok {
		return
	}
	img, err := renderer.Rasterize(c.Request.Context(), renderer.Render(m, frame), s.Loader)
	if err != nil {
		s.fail(c, err)
		return
	}
	defer system.PutImage(img)

	c.Header("Content-Type", "image/png")
	c.Status(http.StatusOK)
	if err := png.Encode(c.Writer, img); err != nil {
		s.Log.Warn().Err(err).Msg("write frame")
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		s.Log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
