// Package llm talks to hosted text-generation services. Clients are built
// explicitly and passed to their users; nothing here is global.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cohere-ai/cohere-go/v2/core"
	"github.com/rs/zerolog"
)

var (
	ErrNotConfigured = errors.New("llm not configured")
	ErrNoModels      = errors.New("no models configured")
	ErrEmptyResponse = errors.New("empty model response")
)

// Generator produces text for a prompt with a specific model.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// StatusError is a non-2xx response from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Provider, e.StatusCode, e.Body)
}

// IsRetryable reports whether another model might succeed where this one
// failed: rate limits and gateway or availability errors.
func IsRetryable(err error) bool {
	code := 0
	var se *StatusError
	var apiErr *core.APIError
	switch {
	case errors.As(err, &se):
		code = se.StatusCode
	case errors.As(err, &apiErr):
		code = apiErr.StatusCode
	}
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Ladder tries models in order, moving on only after a retryable failure.
type Ladder struct {
	Gen    Generator
	Models []string
	Log    zerolog.Logger
}

func NewLadder(gen Generator, models []string, log zerolog.Logger) *Ladder {
	return &Ladder{Gen: gen, Models: models, Log: log}
}

// Complete returns the first successful response and the model that gave it.
func (l *Ladder) Complete(ctx context.Context, prompt string) (string, string, error) {
	if l == nil || l.Gen == nil {
		return "", "", ErrNotConfigured
	}
	if len(l.Models) == 0 {
		return "", "", ErrNoModels
	}

	var lastErr error
	for _, model := range l.Models {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}
		text, err := l.Gen.Generate(ctx, model, prompt)
		if err == nil {
			if text == "" {
				return "", model, ErrEmptyResponse
			}
			return text, model, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return "", model, err
		}
		l.Log.Warn().Err(err).Str("model", model).Msg("model unavailable, trying next")
	}
	return "", "", fmt.Errorf("all models failed: %w", lastErr)
}
