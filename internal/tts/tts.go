// Package tts turns a script into a voiceover file. Audio is optional:
// every failure is logged and reported as a nil *Audio.
package tts

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ivlev/promoreel/internal/storage"
)

// AudioRoute is where the server exposes Dir; locally stored voiceovers get
// URLs under it.
const AudioRoute = "/audio"

// Deepgram encodes speech as 48 kbps MP3 unless told otherwise.
const mp3BitsPerSecond = 48_000

// Audio is a synthesized voiceover.
type Audio struct {
	URL        string `json:"audioUrl"`
	DurationMs int    `json:"durationMs"`
}

// Synthesizer calls the Deepgram speak endpoint. Files are written to Dir,
// or uploaded when Blob is set.
type Synthesizer struct {
	apiKey  string
	BaseURL string
	Voice   string
	Dir     string
	Blob    *storage.S3
	Prefix  string
	HTTP    *http.Client
	Log     zerolog.Logger
}

func New(apiKey, baseURL, voice, dir string, timeout time.Duration, log zerolog.Logger) *Synthesizer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Synthesizer{
		apiKey:  apiKey,
		BaseURL: baseURL,
		Voice:   voice,
		Dir:     dir,
		HTTP:    &http.Client{Timeout: timeout},
		Log:     log,
	}
}

// Synthesize returns nil when no key is configured or anything fails.
// voice overrides the configured preset when non-empty.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voice string) *Audio {
	if s == nil || s.apiKey == "" {
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if voice == "" {
		voice = s.Voice
	}

	data, err := s.speak(ctx, text, voice)
	if err != nil {
		s.Log.Warn().Err(err).Str("voice", voice).Msg("speech synthesis failed, continuing without voiceover")
		return nil
	}

	name := fileName(text, voice)
	loc, err := s.store(ctx, name, data)
	if err != nil {
		s.Log.Warn().Err(err).Msg("could not store voiceover")
		return nil
	}

	a := &Audio{URL: loc, DurationMs: EstimateDurationMs(len(data))}
	s.Log.Info().Str("url", a.URL).Int("duration_ms", a.DurationMs).Msg("voiceover ready")
	return a
}

func (s *Synthesizer) speak(ctx context.Context, text, voice string) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	endpoint := s.BaseURL + "?model=" + url.QueryEscape(voice)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deepgram returned %d: %s", resp.StatusCode, body)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("deepgram returned no audio")
	}
	return body, nil
}

func (s *Synthesizer) store(ctx context.Context, name string, data []byte) (string, error) {
	if s.Blob != nil {
		key := s.Prefix + name
		if err := s.Blob.Put(ctx, key, bytes.NewReader(data), "audio/mpeg"); err != nil {
			return "", err
		}
		return "s3://" + s.Blob.Bucket() + "/" + key, nil
	}

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0644); err != nil {
		return "", err
	}
	return AudioRoute + "/" + name, nil
}

// fileName is stable for a text and voice so repeated runs reuse the name.
func fileName(text, voice string) string {
	sum := sha1.Sum([]byte(voice + "\x00" + text))
	return "voice_" + hex.EncodeToString(sum[:8]) + ".mp3"
}

// EstimateDurationMs derives playback length from the MP3 size at a
// constant bitrate.
func EstimateDurationMs(size int) int {
	return int(int64(size) * 8 * 1000 / mp3BitsPerSecond)
}
