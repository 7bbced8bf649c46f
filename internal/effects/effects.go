package effects

import (
	"fmt"
	"strings"

	"github.com/ivlev/promoreel/internal/motion"
	"github.com/ivlev/promoreel/internal/theme"
)

// Frame counts for the clip track.
const (
	TransitionFrames = 15
	FadeInFrames     = 15
)

// Params describes one clip at one frame.
type Params struct {
	ClipIndex     int
	Frame         int // relative to clip start
	GlobalFrame   int
	Duration      int
	Width, Height int
	Image         bool // Ken Burns only applies to stills
	Theme         theme.Theme
}

// Progress returns Frame/Duration in [0,1].
func (p Params) Progress() float64 {
	if p.Duration <= 0 {
		return 1
	}
	return motion.Clamp(float64(p.Frame)/float64(p.Duration), 0, 1)
}

// Transform is the geometric and color state an effect adds to a clip.
type Transform struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
	Opacity    float64 `json:"opacity"`
	RGBSplit   float64 `json:"rgbSplit,omitempty"` // channel offset in px
}

// Identity is the transform of an untouched clip.
func Identity() Transform {
	return Transform{Scale: 1, Opacity: 1}
}

// Combine multiplies scale and opacity and adds offsets.
func (t Transform) Combine(o Transform) Transform {
	return Transform{
		Scale:      t.Scale * o.Scale,
		TranslateX: t.TranslateX + o.TranslateX,
		TranslateY: t.TranslateY + o.TranslateY,
		Opacity:    t.Opacity * o.Opacity,
		RGBSplit:   t.RGBSplit + o.RGBSplit,
	}
}

// Effect adjusts a clip for one frame.
type Effect interface {
	Apply(p Params) Transform
}

// KenBurns slowly zooms a still towards one corner. The corner is picked
// from the clip index so every render of the same manifest agrees.
type KenBurns struct{}

func (KenBurns) Apply(p Params) Transform {
	if !p.Image || !p.Theme.KenBurnsEnabled || p.Theme.KenBurnsScale <= 1 {
		return Identity()
	}

	mode := Anchor(p.ClipIndex)
	t := motion.EaseInOutCubic(p.Progress())
	scale := motion.Lerp(1, p.Theme.KenBurnsScale, t)

	// keep the anchor corner fixed while the rest grows past the frame
	overflowX := (scale - 1) * float64(p.Width) / 2
	overflowY := (scale - 1) * float64(p.Height) / 2

	var dx, dy float64
	switch mode {
	case "top-left":
		dx, dy = overflowX, overflowY
	case "top-right":
		dx, dy = -overflowX, overflowY
	case "bottom-left":
		dx, dy = overflowX, -overflowY
	case "bottom-right":
		dx, dy = -overflowX, -overflowY
	}

	return Transform{Scale: scale, TranslateX: dx, TranslateY: dy, Opacity: 1}
}

var anchors = []string{"center", "top-left", "top-right", "bottom-left", "bottom-right"}

// Anchor returns the Ken Burns anchor for a clip index.
func Anchor(clipIndex int) string {
	h := motion.Hash(fmt.Sprintf("kenburns-%d", clipIndex))
	return anchors[int(h*float64(len(anchors)))%len(anchors)]
}

// FadeIn ramps opacity over the first FadeInFrames of every clip.
type FadeIn struct{}

func (FadeIn) Apply(p Params) Transform {
	t := Identity()
	t.Opacity = motion.Interpolate(float64(p.Frame), 0, FadeInFrames, 0, 1)
	return t
}

// Transition is the entry transition of a clip; it is only active for the
// first TransitionFrames frames.
type Transition struct {
	Kind string
}

func (tr Transition) Apply(p Params) Transform {
	out := Identity()
	if p.Frame >= TransitionFrames {
		return out
	}
	t := motion.Interpolate(float64(p.Frame), 0, TransitionFrames, 0, 1)

	switch strings.ToLower(tr.Kind) {
	case theme.TransitionFade:
		out.Opacity = t
	case theme.TransitionSlide:
		out.TranslateX = (1 - motion.EaseOutCubic(t)) * float64(p.Width)
	case theme.TransitionZoom:
		out.Scale = motion.Lerp(1.2, 1, motion.EaseOutCubic(t))
	case theme.TransitionGlitch:
		h := motion.Hash(fmt.Sprintf("transition-%d", p.GlobalFrame))
		decay := 1 - t
		out.TranslateX = (h - 0.5) * 40 * decay
		out.RGBSplit = 8 * decay
	}
	return out
}

// Chain returns the effects a clip goes through, in application order.
func Chain(transition string) []Effect {
	return []Effect{KenBurns{}, Transition{Kind: transition}, FadeIn{}}
}

// Apply runs the chain and combines the results.
func Apply(chain []Effect, p Params) Transform {
	out := Identity()
	for _, e := range chain {
		out = out.Combine(e.Apply(p))
	}
	return out
}
