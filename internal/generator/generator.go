// Package generator writes the first version of a manifest: a short ad
// script with timed captions, image clips from the product photos, and an
// optional voiceover.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ivlev/promoreel/internal/llm"
	"github.com/ivlev/promoreel/internal/manifest"
	"github.com/ivlev/promoreel/internal/renderer"
	"github.com/ivlev/promoreel/internal/theme"
	"github.com/ivlev/promoreel/internal/tts"
)

// Script is generated ad copy. Captions carry timing and text only; styles
// are filled in from the theme when the manifest is built.
type Script struct {
	Script   string             `json:"script"`
	Captions []manifest.Caption `json:"captions"`
}

// Completer is the language model. *llm.Ladder satisfies it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (text, model string, err error)
}

type Generator struct {
	llm Completer
	log zerolog.Logger
}

func New(c Completer, log zerolog.Logger) *Generator {
	return &Generator{llm: c, log: log}
}

var demoLines = []string{
	"Stop scrolling.",
	"This changes everything.",
	"Built to impress.",
	"Get yours today.",
}

// Demo is the fixed fallback script, timed over the frames before the end
// card of a timeline of durationInFrames.
func Demo(durationInFrames int) Script {
	return Script{
		Script:   strings.Join(demoLines, "\n"),
		Captions: spread(demoLines, captionSpan(durationInFrames)),
	}
}

func captionSpan(durationInFrames int) int {
	return max(renderer.EndCardStart(durationInFrames), min(durationInFrames, len(demoLines)))
}

// spread gives each line an equal window over [0, span).
func spread(lines []string, span int) []manifest.Caption {
	if len(lines) == 0 || span <= 0 {
		return nil
	}
	step := span / len(lines)
	out := make([]manifest.Caption, len(lines))
	for i, l := range lines {
		end := (i + 1) * step
		if i == len(lines)-1 {
			end = span
		}
		out[i] = manifest.Caption{StartFrame: i * step, EndFrame: end, Text: l}
	}
	return out
}

type generated struct {
	Captions []struct {
		Text       string `json:"text"`
		StartFrame *int   `json:"startFrame,omitempty"`
		EndFrame   *int   `json:"endFrame,omitempty"`
	} `json:"captions"`
}

// Generate asks the model for caption lines in the voice of style (a theme
// id). Any failure returns the demo script.
func (g *Generator) Generate(ctx context.Context, p manifest.Product, style string, durationInFrames int) Script {
	if g == nil || g.llm == nil {
		return Demo(durationInFrames)
	}

	text, model, err := g.llm.Complete(ctx, prompt(p, style, durationInFrames))
	if err != nil {
		g.log.Warn().Err(err).Msg("script generation unavailable, using demo script")
		return Demo(durationInFrames)
	}
	s, err := parse(text, durationInFrames)
	if err != nil {
		g.log.Warn().Err(err).Str("model", model).Msg("unusable script, using demo script")
		return Demo(durationInFrames)
	}
	g.log.Info().Str("model", model).Int("captions", len(s.Captions)).Msg("script generated")
	return s
}

func prompt(p manifest.Product, style string, durationInFrames int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a punchy vertical video ad for this product in a %s style.\n\n", style)
	fmt.Fprintf(&b, "Product: %s\nPrice: %s\n", p.Title, p.Price)
	if p.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", p.Description)
	}
	span := captionSpan(durationInFrames)
	fmt.Fprintf(&b, "\nUse 3 to 6 short caption lines (max 6 words each). Captions must fit in frames 0-%d at 30 fps.\n", span)
	b.WriteString(`Reply with one JSON object only:
{"captions": [{"text": "...", "startFrame": 0, "endFrame": 90}]}
Frames are optional; lines without them are spaced evenly.
`)
	return b.String()
}

func parse(text string, durationInFrames int) (Script, error) {
	raw, err := llm.ExtractJSON(text)
	if err != nil {
		return Script{}, err
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	var g generated
	if err := dec.Decode(&g); err != nil {
		return Script{}, fmt.Errorf("decode script: %w", err)
	}
	if len(g.Captions) == 0 {
		return Script{}, fmt.Errorf("no captions")
	}

	lines := make([]string, 0, len(g.Captions))
	timed := true
	for _, c := range g.Captions {
		t := strings.TrimSpace(c.Text)
		if t == "" {
			return Script{}, fmt.Errorf("empty caption text")
		}
		lines = append(lines, t)
		if c.StartFrame == nil || c.EndFrame == nil {
			timed = false
		}
	}

	captions := spread(lines, captionSpan(durationInFrames))
	if timed {
		for i, c := range g.Captions {
			captions[i].StartFrame, captions[i].EndFrame = *c.StartFrame, *c.EndFrame
		}
		if err := checkWindows(captions, durationInFrames); err != nil {
			// keep the words, drop the model's timing
			captions = spread(lines, captionSpan(durationInFrames))
		}
	}
	return Script{Script: manifest.DeriveScript(captions), Captions: captions}, nil
}

func checkWindows(captions []manifest.Caption, durationInFrames int) error {
	for i, c := range captions {
		if c.StartFrame < 0 || c.EndFrame <= c.StartFrame || c.EndFrame > durationInFrames {
			return fmt.Errorf("caption %d window [%d,%d) invalid", i, c.StartFrame, c.EndFrame)
		}
	}
	return nil
}

// Options shape the initial manifest.
type Options struct {
	ThemeID string
	Width   int
	Height  int
	FPS     int
	Voice   *tts.Audio
	Music   string
}

// Build assembles version 1 of a manifest from a product and a script.
// Clips cycle through the product images at the theme clip length.
func Build(p manifest.Product, s Script, opts Options, now time.Time) (manifest.VideoManifest, error) {
	m := manifest.New(p, now)
	th, ok := theme.Lookup(opts.ThemeID)
	if !ok {
		th = theme.Default()
	}
	m.Theme = &th
	if opts.Width > 0 && opts.Height > 0 {
		m.Width, m.Height = opts.Width, opts.Height
	}
	if opts.FPS > 0 {
		m.FPS = opts.FPS
	}
	m.MusicURL = opts.Music

	if opts.Voice != nil && opts.Voice.URL != "" {
		m.AudioURL = opts.Voice.URL
		voiced := opts.Voice.DurationMs*m.FPS/1000 + renderer.EndCardFrames
		m.DurationInFrames = max(m.DurationInFrames, voiced)
	}

	m.Captions = make([]manifest.Caption, len(s.Captions))
	for i, c := range s.Captions {
		c.Style = th.TextAnimation
		m.Captions[i] = c
	}
	m.Script = manifest.DeriveScript(m.Captions)
	m.Clips = imageClips(p, th, m.DurationInFrames)

	if err := m.Validate(); err != nil {
		return manifest.VideoManifest{}, err
	}
	return m, nil
}

func imageClips(p manifest.Product, th theme.Theme, total int) []manifest.Clip {
	images := p.Images
	if len(images) == 0 && p.Image != "" {
		images = []string{p.Image}
	}
	if len(images) == 0 || th.ClipDuration <= 0 {
		return nil
	}

	var clips []manifest.Clip
	for start, i := 0, 0; start < total; start, i = start+th.ClipDuration, i+1 {
		clips = append(clips, manifest.Clip{
			StartFrame: start,
			Duration:   min(th.ClipDuration, total-start),
			Type:       manifest.ClipImage,
			URL:        images[i%len(images)],
			Transition: th.Transition,
		})
	}
	return clips
}
