package llm

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

// DefaultCohereModels is the fallback order when none is configured.
var DefaultCohereModels = []string{"command-r-plus", "command-r", "command-light"}

// CohereGenerator calls the Cohere chat endpoint.
type CohereGenerator struct {
	client      *cohereclient.Client
	Temperature float64
}

// NewCohere builds a client. baseURL is only set for tests and proxies.
func NewCohere(apiKey, baseURL string, timeout time.Duration) (*CohereGenerator, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	// HTTP/1.1 only; the chat endpoint has dropped HTTP/2 streams on us
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			ForceAttemptHTTP2: false,
		},
	}

	var client *cohereclient.Client
	if baseURL != "" {
		client = cohereclient.NewClient(
			cohereclient.WithToken(apiKey),
			cohereclient.WithHTTPClient(httpClient),
			cohereclient.WithBaseURL(baseURL),
		)
	} else {
		client = cohereclient.NewClient(
			cohereclient.WithToken(apiKey),
			cohereclient.WithHTTPClient(httpClient),
		)
	}
	return &CohereGenerator{client: client, Temperature: 0.3}, nil
}

func (c *CohereGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := c.client.Chat(ctx, &cohere.ChatRequest{
		Message:     prompt,
		Model:       cohere.String(model),
		Temperature: cohere.Float64(c.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("cohere chat (%s): %w", model, err)
	}
	if resp == nil || resp.Text == "" {
		return "", ErrEmptyResponse
	}
	return resp.Text, nil
}
