package generator

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ivlev/promoreel/internal/manifest"
	"github.com/ivlev/promoreel/internal/tts"
)

// ProductSource is satisfied by *scraper.Scraper.
type ProductSource interface {
	Scrape(ctx context.Context, url string) manifest.Product
}

// Voice is satisfied by *tts.Synthesizer.
type Voice interface {
	Synthesize(ctx context.Context, text, voice string) *tts.Audio
}

// Pipeline runs scrape, script, voiceover and assembly. Each collaborator
// degrades on its own, so Run only fails on an invalid result.
type Pipeline struct {
	Products ProductSource
	Gen      *Generator
	Voice    Voice // optional
	Options  Options
	VoiceID  string
	Now      func() time.Time
	Log      zerolog.Logger
}

// Run builds version 1 of a manifest for the product at url. style is a
// theme id; an unknown one falls back to the default theme.
func (p *Pipeline) Run(ctx context.Context, url, style string) (manifest.VideoManifest, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	product := p.Products.Scrape(ctx, url)
	opts := p.Options
	if style != "" {
		opts.ThemeID = style
	}

	script := p.Gen.Generate(ctx, product, opts.ThemeID, manifest.DefaultDuration)
	if p.Voice != nil {
		opts.Voice = p.Voice.Synthesize(ctx, script.Script, p.VoiceID)
	}

	m, err := Build(product, script, opts, now())
	if err != nil {
		return manifest.VideoManifest{}, err
	}
	p.Log.Info().
		Str("id", m.ID).
		Str("theme", m.ActiveTheme().ID).
		Int("clips", len(m.Clips)).
		Int("captions", len(m.Captions)).
		Bool("voice", m.AudioURL != "").
		Msg("manifest generated")
	return m, nil
}
