// Package app wires configuration into the collaborators the CLI and the
// server share. Clients are built here once and passed down explicitly.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"

	"github.com/rs/zerolog"

	"github.com/ivlev/promoreel/internal/config"
	"github.com/ivlev/promoreel/internal/director"
	"github.com/ivlev/promoreel/internal/engine"
	"github.com/ivlev/promoreel/internal/generator"
	"github.com/ivlev/promoreel/internal/llm"
	"github.com/ivlev/promoreel/internal/logging"
	"github.com/ivlev/promoreel/internal/scraper"
	"github.com/ivlev/promoreel/internal/source"
	"github.com/ivlev/promoreel/internal/storage"
	"github.com/ivlev/promoreel/internal/tts"
)

type App struct {
	Config   *config.Config
	Store    storage.Store
	Blob     *storage.S3 // nil without a bucket
	Director *director.Director
	Pipeline *generator.Pipeline
	Loader   *source.MediaLoader
	Log      zerolog.Logger

	redis *storage.RedisStore
}

// New builds every collaborator. Optional services (LLM, TTS, Redis, S3)
// are simply left out when not configured.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, Log: logging.WithComponent("app")}

	if cfg.Redis.Addr != "" {
		rs := storage.NewRedisStore(storage.RedisConfig{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		a.redis = rs
		a.Store = rs
	} else {
		a.Store = storage.NewMemory()
	}

	if cfg.S3.Bucket != "" {
		blob, err := storage.NewS3(ctx, cfg.S3.Bucket, storage.S3Config{
			Region:       cfg.S3.Region,
			Profile:      cfg.S3.Profile,
			UsePathStyle: cfg.S3.UsePathStyle,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("s3 %s: %w", cfg.S3.Bucket, err)
		}
		a.Blob = blob
	}

	a.Loader = source.NewMediaLoader(&http.Client{Timeout: cfg.Scraper.Timeout})
	a.Loader.PDF = source.FitzPDFSource{DPI: cfg.Render.DPI}

	ladder, err := NewLadder(cfg)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		a.Log.Info().Str("provider", cfg.LLM.Provider).Msg("no LLM key, using keyword rules and demo scripts")
	case err != nil:
		a.Close()
		return nil, err
	}

	dirOpts := []director.Option{
		director.WithLogger(logging.WithComponent("director")),
		director.WithLLMTimeout(cfg.LLM.Timeout),
	}
	var completer generator.Completer
	if ladder != nil {
		dirOpts = append(dirOpts, director.WithLLM(ladder))
		completer = ladder
	}
	a.Director = director.New(dirOpts...)

	voice := tts.New(cfg.TTS.APIKey, cfg.TTS.BaseURL, cfg.TTS.Voice, cfg.TTS.AudioDir, cfg.TTS.Timeout, logging.WithComponent("tts"))
	if a.Blob != nil {
		voice.Blob = a.Blob
		voice.Prefix = path.Join(cfg.S3.Prefix, "audio") + "/"
	}

	a.Pipeline = &generator.Pipeline{
		Products: scraper.New(cfg.Scraper.Timeout, cfg.Scraper.UserAgent, logging.WithComponent("scraper")),
		Gen:      generator.New(completer, logging.WithComponent("generator")),
		Voice:    voice,
		Options: generator.Options{
			Width:  cfg.Render.Width,
			Height: cfg.Render.Height,
			FPS:    cfg.Render.FPS,
		},
		VoiceID: cfg.TTS.Voice,
		Log:     logging.WithComponent("generator"),
	}
	return a, nil
}

// NewLadder returns llm.ErrNotConfigured when the provider has no key.
func NewLadder(cfg *config.Config) (*llm.Ladder, error) {
	var (
		gen    llm.Generator
		models []string
	)
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		g, err := llm.NewGemini(cfg.LLMKey(), cfg.LLM.Timeout)
		if err != nil {
			return nil, err
		}
		gen, models = g, llm.DefaultGeminiModels
	default:
		c, err := llm.NewCohere(cfg.LLMKey(), "", cfg.LLM.Timeout)
		if err != nil {
			return nil, err
		}
		gen, models = c, llm.DefaultCohereModels
	}
	if len(cfg.LLM.Models) > 0 {
		models = cfg.LLM.Models
	}
	return llm.NewLadder(gen, models, logging.WithComponent("llm")), nil
}

// Sink picks S3 when a bucket is configured, otherwise a local directory.
func (a *App) Sink(dir, manifestID string) (engine.Sink, error) {
	if a.Blob != nil {
		return &engine.S3Sink{
			Blob:         a.Blob,
			Prefix:       path.Join(a.Config.S3.Prefix, "frames", manifestID),
			SkipExisting: true,
		}, nil
	}
	return engine.NewDirSink(dir)
}

func (a *App) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
