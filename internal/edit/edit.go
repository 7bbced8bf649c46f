// Package edit holds the pure manifest transformations. Every operation takes
// a manifest by value and returns a new one; inputs are never modified. A
// successful edit bumps Version and refreshes UpdatedAt, a rejected edit
// returns the input unchanged.
package edit

import (
	"math"
	"time"

	"github.com/ivlev/promoreel/internal/manifest"
	"github.com/ivlev/promoreel/internal/theme"
)

// Editor applies transformations using its clock for UpdatedAt.
type Editor struct {
	Now func() time.Time
}

// New returns an Editor on the wall clock.
func New() *Editor {
	return &Editor{Now: time.Now}
}

var std = New()

func (e *Editor) next(m manifest.VideoManifest) manifest.VideoManifest {
	out := m.Clone()
	now := time.Now
	if e != nil && e.Now != nil {
		now = e.Now
	}
	out.Touch(now())
	return out
}

// Selector picks either every caption or a single one.
type Selector struct {
	All   bool
	Index int
}

// AllCaptions selects every caption.
func AllCaptions() Selector { return Selector{All: true} }

// CaptionAt selects the caption at index i.
func CaptionAt(i int) Selector { return Selector{Index: i} }

func (s Selector) indices(n int) ([]int, bool) {
	if s.All {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx, true
	}
	if s.Index < 0 || s.Index >= n {
		return nil, false
	}
	return []int{s.Index}, true
}

// StyleProps are per-caption overrides. Nil fields are left untouched.
type StyleProps struct {
	Color      *string `json:"color,omitempty"`
	FontSize   *int    `json:"fontSize,omitempty"`
	FontWeight *int    `json:"fontWeight,omitempty"`
	FontFamily *string `json:"fontFamily,omitempty"`
}

// Empty reports whether no property is set.
func (p StyleProps) Empty() bool {
	return p.Color == nil && p.FontSize == nil && p.FontWeight == nil && p.FontFamily == nil
}

// ApplyTheme sets the theme and resets every style-derived field from it.
// Caption text, timing and per-caption overrides survive.
func (e *Editor) ApplyTheme(m manifest.VideoManifest, themeID string) manifest.VideoManifest {
	t, ok := theme.Lookup(themeID)
	if !ok {
		return m
	}

	out := e.next(m)
	out.Theme = &t
	for i := range out.Clips {
		out.Clips[i].Transition = t.Transition
	}
	for i := range out.Captions {
		out.Captions[i].Style = t.TextAnimation
	}
	return out
}

// AdjustTiming re-tiles clips back to back with a uniform duration of
// min(target, floor(total/count)). Frames after the last clip stay uncovered.
func (e *Editor) AdjustTiming(m manifest.VideoManifest, targetClipDuration int) manifest.VideoManifest {
	count := len(m.Clips)
	if count == 0 || targetClipDuration <= 0 {
		return m
	}

	actual := targetClipDuration
	if perClip := m.DurationInFrames / count; perClip < actual {
		actual = perClip
	}
	if actual <= 0 {
		return m
	}

	out := e.next(m)
	for i := range out.Clips {
		out.Clips[i].StartFrame = i * actual
		out.Clips[i].Duration = actual
	}
	return out
}

// UpdateCaptionText replaces the text of one caption and re-derives the script.
func (e *Editor) UpdateCaptionText(m manifest.VideoManifest, index int, text string) manifest.VideoManifest {
	if index < 0 || index >= len(m.Captions) {
		return m
	}

	out := e.next(m)
	out.Captions[index].Text = text
	out.Script = manifest.DeriveScript(out.Captions)
	return out
}

// StyleCaptions writes the given overrides onto the selected captions.
func (e *Editor) StyleCaptions(m manifest.VideoManifest, sel Selector, props StyleProps) manifest.VideoManifest {
	if props.Empty() {
		return m
	}
	idx, ok := sel.indices(len(m.Captions))
	if !ok || len(idx) == 0 {
		return m
	}

	out := e.next(m)
	for _, i := range idx {
		c := &out.Captions[i]
		if props.Color != nil {
			c.Color = *props.Color
		}
		if props.FontSize != nil {
			c.FontSize = *props.FontSize
		}
		if props.FontWeight != nil {
			c.FontWeight = *props.FontWeight
		}
		if props.FontFamily != nil {
			c.FontFamily = *props.FontFamily
		}
	}
	return out
}

// SetCaptionPosition moves the selected captions to top, center or bottom.
func (e *Editor) SetCaptionPosition(m manifest.VideoManifest, sel Selector, position string) manifest.VideoManifest {
	switch position {
	case manifest.PositionTop, manifest.PositionCenter, manifest.PositionBottom:
	default:
		return m
	}
	idx, ok := sel.indices(len(m.Captions))
	if !ok || len(idx) == 0 {
		return m
	}

	out := e.next(m)
	for _, i := range idx {
		out.Captions[i].Position = position
	}
	return out
}

// SetVolumes changes the music and/or voice gain, clamped to [0,1].
func (e *Editor) SetVolumes(m manifest.VideoManifest, music, voice *float64) manifest.VideoManifest {
	if music == nil && voice == nil {
		return m
	}
	if (music != nil && math.IsNaN(*music)) || (voice != nil && math.IsNaN(*voice)) {
		return m
	}

	out := e.next(m)
	if music != nil {
		out.MusicVolume = clamp01(*music)
	}
	if voice != nil {
		out.VoiceVolume = clamp01(*voice)
	}
	return out
}

// ReplaceCaptions swaps in a whole caption list and re-derives the script.
// A list that does not fit the timeline is rejected.
func (e *Editor) ReplaceCaptions(m manifest.VideoManifest, captions []manifest.Caption) manifest.VideoManifest {
	if err := manifest.ValidateCaptions(captions, m.DurationInFrames); err != nil {
		return m
	}

	out := e.next(m)
	out.Captions = append([]manifest.Caption(nil), captions...)
	out.Script = manifest.DeriveScript(out.Captions)
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Package-level shortcuts on the wall clock.

func ApplyTheme(m manifest.VideoManifest, themeID string) manifest.VideoManifest {
	return std.ApplyTheme(m, themeID)
}

func AdjustTiming(m manifest.VideoManifest, targetClipDuration int) manifest.VideoManifest {
	return std.AdjustTiming(m, targetClipDuration)
}

func UpdateCaptionText(m manifest.VideoManifest, index int, text string) manifest.VideoManifest {
	return std.UpdateCaptionText(m, index, text)
}

func StyleCaptions(m manifest.VideoManifest, sel Selector, props StyleProps) manifest.VideoManifest {
	return std.StyleCaptions(m, sel, props)
}
