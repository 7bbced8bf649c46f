// Package renderer turns a manifest and a frame number into a scene graph,
// and a scene graph into pixels. Render is pure: the same manifest and frame
// always give a reflect.DeepEqual scene, so frames can be computed in any
// order and in parallel.
package renderer

import (
	"github.com/ivlev/promoreel/internal/effects"
	"github.com/ivlev/promoreel/internal/textanim"
	"github.com/ivlev/promoreel/internal/theme"
)

// Scene is one frame, layers listed bottom to top.
type Scene struct {
	Frame      int           `json:"frame"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	ThemeID    string        `json:"themeId"`
	Background Background    `json:"background"`
	Clips      []ClipLayer   `json:"clips"`
	Scrim      Scrim         `json:"scrim"`
	Caption    *CaptionLayer `json:"caption,omitempty"`
	EndCard    *EndCard      `json:"endCard,omitempty"`
	Grain      *Grain        `json:"grain,omitempty"`
	Vignette   *Vignette     `json:"vignette,omitempty"`
	Audio      []AudioTrack  `json:"audio,omitempty"`
}

// Background is a vertical gradient, optionally with moving scanlines.
type Background struct {
	Top            string `json:"top"`
	Bottom         string `json:"bottom"`
	Scanlines      bool   `json:"scanlines"`
	ScanlineOffset int    `json:"scanlineOffset"`
}

// ClipLayer is one active clip. Fallback means the media is missing or a
// placeholder and the background must show through.
type ClipLayer struct {
	Index      int               `json:"index"`
	Type       string            `json:"type"`
	URL        string            `json:"url"`
	Fallback   bool              `json:"fallback"`
	Progress   float64           `json:"progress"`
	SourceTime float64           `json:"sourceTime"` // seconds into the source video
	Transition string            `json:"transition"`
	Transform  effects.Transform `json:"transform"`
}

// Scrim darkens (or lightens) the top and bottom bands for legibility.
type Scrim struct {
	Color  string  `json:"color"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// CaptionLayer is the visible caption with its computed style.
type CaptionLayer struct {
	Index    int            `json:"index"`
	Position string         `json:"position"`
	Style    textanim.Style `json:"style"`
}

// EndCard is the product card over the last EndCardFrames frames.
type EndCard struct {
	Title        string       `json:"title"`
	Price        string       `json:"price"`
	Image        string       `json:"image"`
	CTA          string       `json:"cta"`
	QRData       string       `json:"qrData,omitempty"`
	Opacity      float64      `json:"opacity"`
	Scale        float64      `json:"scale"`
	PriceGlow    float64      `json:"priceGlow"`
	PriceOffsetX float64      `json:"priceOffsetX"`
	Colors       theme.Colors `json:"colors"`
}

// Grain is luxe film grain; Seed changes every frame.
type Grain struct {
	Seed    uint64  `json:"seed"`
	Opacity float64 `json:"opacity"`
}

// Vignette darkens the frame edges radially.
type Vignette struct {
	Strength float64 `json:"strength"`
}

// AudioTrack is an audio source mixed under the whole timeline.
type AudioTrack struct {
	Kind   string  `json:"kind"`
	URL    string  `json:"url"`
	Volume float64 `json:"volume"`
}
