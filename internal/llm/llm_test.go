package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cohere-ai/cohere-go/v2/core"
	"github.com/rs/zerolog"
)

type scripted struct {
	results map[string]error
	calls   []string
}

func (s *scripted) Generate(_ context.Context, model, _ string) (string, error) {
	s.calls = append(s.calls, model)
	if err := s.results[model]; err != nil {
		return "", err
	}
	return "ok from " + model, nil
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&StatusError{StatusCode: 429}, true},
		{&StatusError{StatusCode: 503}, true},
		{&StatusError{StatusCode: 502}, true},
		{&StatusError{StatusCode: 504}, true},
		{&StatusError{StatusCode: 400}, false},
		{&StatusError{StatusCode: 401}, false},
		{fmt.Errorf("wrapped: %w", &StatusError{StatusCode: 429}), true},
		{&core.APIError{StatusCode: 503}, true},
		{&core.APIError{StatusCode: 422}, false},
		{errors.New("dial tcp: refused"), false},
		{nil, false},
	}
	for i, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("case %d: IsRetryable = %v, want %v", i, got, tt.want)
		}
	}
}

func TestLadderMovesOnOnlyWhenRetryable(t *testing.T) {
	gen := &scripted{results: map[string]error{
		"a": &StatusError{StatusCode: 429},
		"b": &StatusError{StatusCode: 503},
	}}
	l := NewLadder(gen, []string{"a", "b", "c", "d"}, zerolog.Nop())

	text, model, err := l.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatal(err)
	}
	if model != "c" || text != "ok from c" {
		t.Errorf("got %q from %s", text, model)
	}
	if strings.Join(gen.calls, ",") != "a,b,c" {
		t.Errorf("calls = %v, want sequential a,b,c", gen.calls)
	}
}

func TestLadderStopsOnFatalError(t *testing.T) {
	gen := &scripted{results: map[string]error{"a": &StatusError{StatusCode: 401}}}
	l := NewLadder(gen, []string{"a", "b"}, zerolog.Nop())

	if _, _, err := l.Complete(context.Background(), "hi"); err == nil {
		t.Fatal("expected error")
	}
	if len(gen.calls) != 1 {
		t.Errorf("ladder should not try further models after a fatal error: %v", gen.calls)
	}
}

func TestLadderExhausted(t *testing.T) {
	gen := &scripted{results: map[string]error{
		"a": &StatusError{StatusCode: 429},
		"b": &StatusError{StatusCode: 429},
	}}
	_, _, err := NewLadder(gen, []string{"a", "b"}, zerolog.Nop()).Complete(context.Background(), "hi")
	if err == nil || !IsRetryable(err) {
		t.Errorf("exhausted ladder should wrap the last error, got %v", err)
	}
}

func TestLadderNotConfigured(t *testing.T) {
	var l *Ladder
	if _, _, err := l.Complete(context.Background(), "x"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("nil ladder: %v", err)
	}
	if _, _, err := NewLadder(&scripted{}, nil, zerolog.Nop()).Complete(context.Background(), "x"); !errors.Is(err, ErrNoModels) {
		t.Errorf("no models: %v", err)
	}
}

func TestGeminiGenerate(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		if r.Header.Get("x-goog-api-key") != "k" || r.URL.RawQuery != "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"{\"actions\":[]}"}]}}]}`)
	}))
	defer srv.Close()

	g, err := NewGemini("k", 0)
	if err != nil {
		t.Fatal(err)
	}
	g.BaseURL = srv.URL
	g.HTTP = srv.Client()

	text, err := g.Generate(context.Background(), "gemini-test", "make it pop")
	if err != nil {
		t.Fatal(err)
	}
	if text != `{"actions":[]}` {
		t.Errorf("text = %q", text)
	}
	if gotPath != "/gemini-test:generateContent" {
		t.Errorf("path = %s", gotPath)
	}
	if !strings.Contains(gotBody, "make it pop") {
		t.Errorf("prompt not sent: %s", gotBody)
	}
}

func TestGeminiStatusIsClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":"quota"}`)
	}))
	defer srv.Close()

	g, _ := NewGemini("k", 0)
	g.BaseURL = srv.URL
	_, err := g.Generate(context.Background(), "m", "p")
	if !IsRetryable(err) {
		t.Errorf("429 should be retryable: %v", err)
	}
}

func TestGeminiErrorsHideKey(t *testing.T) {
	const key = "SECRET-KEY-123"
	g, _ := NewGemini(key, time.Second)
	// nothing listens on port 1
	g.BaseURL = "http://127.0.0.1:1/v1beta/models"

	_, err := g.Generate(context.Background(), "gemini-test", "p")
	if err == nil {
		t.Fatal("expected a transport error")
	}
	if strings.Contains(err.Error(), key) {
		t.Errorf("error leaks the API key: %v", err)
	}
}

func TestConstructorsRequireKeys(t *testing.T) {
	if _, err := NewGemini("", 0); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("gemini: %v", err)
	}
	if _, err := NewCohere("", "", 0); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("cohere: %v", err)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`},
		{`noise {"a":{"b":2}} trailing`, `{"a":{"b":2}}`},
		{"first ```json\n{\"x\":1}\n``` then {\"y\":2}", `{"x":1}`},
	}
	for _, tt := range tests {
		got, err := ExtractJSON(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ExtractJSON(%q) = %q, %v", tt.in, got, err)
		}
	}
	if _, err := ExtractJSON("no braces here"); !errors.Is(err, ErrNoJSON) {
		t.Errorf("err = %v", err)
	}
}
