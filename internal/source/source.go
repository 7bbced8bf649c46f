package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// ErrUnsupported is returned for URLs no loader understands.
var ErrUnsupported = errors.New("unsupported media")

// Loader resolves a clip URL to a still frame.
type Loader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

// FitzPDFSource renders the first page of a product datasheet.
type FitzPDFSource struct {
	DPI int
}

func (f FitzPDFSource) Load(_ context.Context, path string) (image.Image, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("%s: no pages", path)
	}
	dpi := f.DPI
	if dpi <= 0 {
		dpi = 150
	}
	return doc.ImageDPI(0, float64(dpi))
}

// MediaLoader dispatches on the URL shape and caches results, since the
// same clip is drawn on every frame of its window. Failures are cached too:
// a dead URL is tried once per loader, not once per frame.
type MediaLoader struct {
	HTTP *http.Client
	PDF  FitzPDFSource

	mu    sync.Mutex
	cache map[string]loaded
}

type loaded struct {
	img image.Image
	err error
}

func NewMediaLoader(hc *http.Client) *MediaLoader {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &MediaLoader{HTTP: hc, cache: make(map[string]loaded)}
}

func (l *MediaLoader) Load(ctx context.Context, url string) (image.Image, error) {
	l.mu.Lock()
	if r, ok := l.cache[url]; ok {
		l.mu.Unlock()
		return r.img, r.err
	}
	l.mu.Unlock()

	img, err := l.load(ctx, url)
	if err != nil && ctx.Err() != nil {
		// cancellation says nothing about the media
		return nil, err
	}

	l.mu.Lock()
	if l.cache == nil {
		l.cache = make(map[string]loaded)
	}
	l.cache[url] = loaded{img: img, err: err}
	l.mu.Unlock()
	return img, err
}

func (l *MediaLoader) load(ctx context.Context, url string) (image.Image, error) {
	lower := strings.ToLower(url)
	switch {
	case url == "":
		return nil, ErrUnsupported
	case strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://"):
		return l.fetch(ctx, url)
	case filepath.Ext(lower) == ".pdf":
		return l.PDF.Load(ctx, url)
	case isImageExt(lower):
		return decodeFile(url)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, url)
}

func (l *MediaLoader) fetch(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return img, nil
}
