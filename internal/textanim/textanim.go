// Package textanim computes caption appearance. Each style is a pure function
// of the caption input; nothing is carried between frames.
package textanim

import (
	"github.com/ivlev/promoreel/internal/manifest"
	"github.com/ivlev/promoreel/internal/motion"
	"github.com/ivlev/promoreel/internal/theme"
)

// ExitFrames is the length of the linear fade at the end of every caption.
const ExitFrames = 10

// Input is everything a style needs for one frame.
type Input struct {
	Text        string
	Frame       int // relative to caption start
	GlobalFrame int // timeline frame, seeds pseudo-random effects
	Duration    int // caption length in frames
	FPS         int
	Theme       theme.Theme
	Overrides   Overrides
}

// Overrides are per-caption properties that beat anything computed.
type Overrides struct {
	Color      string
	FontSize   int
	FontWeight int
	FontFamily string
}

// OverridesFrom reads the override fields of a caption.
func OverridesFrom(c manifest.Caption) Overrides {
	return Overrides{
		Color:      c.Color,
		FontSize:   c.FontSize,
		FontWeight: c.FontWeight,
		FontFamily: c.FontFamily,
	}
}

// Shadow is one text-shadow layer.
type Shadow struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Blur    float64 `json:"blur"`
	Color   string  `json:"color"`
}

// Reveal is the character reveal state of the typewriter style.
type Reveal struct {
	Visible int  `json:"visible"`
	Total   int  `json:"total"`
	Cursor  bool `json:"cursor"`
}

// Style is the computed look of a caption on one frame.
type Style struct {
	Kind        string   `json:"kind"`
	Text        string   `json:"text"`
	Opacity     float64  `json:"opacity"`
	Scale       float64  `json:"scale"`
	TranslateX  float64  `json:"translateX"`
	TranslateY  float64  `json:"translateY"`
	Color       string   `json:"color"`
	FontSize    int      `json:"fontSize"`
	FontWeight  int      `json:"fontWeight"`
	FontFamily  string   `json:"fontFamily"`
	Stroke      string   `json:"stroke,omitempty"`
	StrokeWidth float64  `json:"strokeWidth,omitempty"`
	Shadows     []Shadow `json:"shadows,omitempty"`
	Reveal      *Reveal  `json:"reveal,omitempty"`
}

// Animator is one caption animation style.
type Animator interface {
	Animate(in Input) Style
}

var animators = map[string]Animator{
	theme.StyleImpact:     Impact{},
	theme.StyleGlitch:     Glitch{},
	theme.StyleMinimal:    Minimal{},
	theme.StyleTypewriter: Typewriter{},
}

// For returns the animator for a style id, falling back to minimal.
func For(style string) Animator {
	if a, ok := animators[style]; ok {
		return a
	}
	return Minimal{}
}

// Compute animates in with the named style, applies the shared envelope and
// then lays the overrides on top.
func Compute(style string, in Input) Style {
	if in.FPS <= 0 {
		in.FPS = manifest.DefaultFPS
	}
	s := For(style).Animate(in)
	s.Opacity *= Envelope(in.Frame, in.Duration, in.FPS)
	return applyOverrides(s, in.Overrides)
}

// Envelope is the opacity shared by every style: a spring in on entry and a
// linear fade over the last ExitFrames frames.
func Envelope(frame, duration, fps int) float64 {
	if frame < 0 || frame >= duration {
		return 0
	}
	entry := motion.Clamp(motion.Spring(frame, fps, motion.SmoothSpring), 0, 1)
	if frame == 0 {
		entry = 0
	}
	fadeStart := float64(duration - ExitFrames)
	if fadeStart < 0 {
		fadeStart = 0
	}
	exit := motion.Interpolate(float64(frame), fadeStart, float64(duration), 1, 0)
	if entry < exit {
		return entry
	}
	return exit
}

func applyOverrides(s Style, o Overrides) Style {
	if o.Color != "" {
		s.Color = o.Color
	}
	if o.FontSize > 0 {
		s.FontSize = o.FontSize
	}
	if o.FontWeight > 0 {
		s.FontWeight = o.FontWeight
	}
	if o.FontFamily != "" {
		s.FontFamily = o.FontFamily
	}
	return s
}
