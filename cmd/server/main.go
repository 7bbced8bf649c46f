package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ivlev/promoreel/internal/api"
	"github.com/ivlev/promoreel/internal/app"
	"github.com/ivlev/promoreel/internal/config"
	"github.com/ivlev/promoreel/internal/logging"
	"github.com/ivlev/promoreel/internal/tts"
)

var buildVersion = "dev"

func main() {
	configPath := flag.String("config", "", "Path to config YAML")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	cfg.BuildVersion = buildVersion
	cfg.Verbose = cfg.Verbose || *verbose
	logging.Init(logging.Options{Verbose: cfg.Verbose, JSON: cfg.Server.LogJSON})

	if !cfg.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("wire services")
	}
	defer a.Close()

	r := api.NewRouter(&api.Server{
		Store:     a.Store,
		Director:  a.Director,
		Generator: a.Pipeline,
		Loader:    a.Loader,
		Log:       logging.WithComponent("api"),
	})
	// locally synthesized voice-overs
	r.Static(tts.AudioRoute, cfg.TTS.AudioDir)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("build", buildVersion).Msg("promoreel api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
