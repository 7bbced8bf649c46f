package textanim

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ivlev/promoreel/internal/motion"
	"github.com/ivlev/promoreel/internal/theme"
)

const (
	shakeFrames     = 10
	glitchThreshold = 0.9
	cursorPeriod    = 15
	revealPortion   = 0.6
)

// Impact springs the text down from 1.5x with a decaying shake.
type Impact struct{}

func (Impact) Animate(in Input) Style {
	sp := motion.Spring(in.Frame, in.FPS, motion.DefaultSpring)

	shake := 0.0
	if in.Frame < shakeFrames {
		decay := 1 - float64(in.Frame)/shakeFrames
		shake = math.Sin(float64(in.Frame)*2.5) * 8 * decay
	}

	return Style{
		Kind:        theme.StyleImpact,
		Text:        strings.ToUpper(in.Text),
		Opacity:     1,
		Scale:       1.5 - 0.5*sp,
		TranslateX:  shake,
		Color:       "#ffffff",
		FontSize:    84,
		FontWeight:  900,
		FontFamily:  in.Theme.FontFamily,
		Stroke:      "#000000",
		StrokeWidth: 3,
		Shadows: []Shadow{
			{Blur: 20, Color: in.Theme.Colors.Primary},
			{Blur: 40, Color: in.Theme.Colors.Primary},
		},
	}
}

// Glitch jitters on roughly one frame in ten, chosen by the frame hash.
type Glitch struct{}

func (Glitch) Animate(in Input) Style {
	s := Style{
		Kind:       theme.StyleGlitch,
		Text:       strings.ToUpper(in.Text),
		Opacity:    1,
		Scale:      1,
		Color:      "#ffffff",
		FontSize:   76,
		FontWeight: 800,
		FontFamily: in.Theme.FontFamily,
	}

	if motion.Hash(fmt.Sprintf("glitch-%d", in.GlobalFrame)) > glitchThreshold {
		s.TranslateX = (motion.Hash(fmt.Sprintf("glitch-x-%d", in.GlobalFrame)) - 0.5) * 20
		s.Shadows = []Shadow{
			{OffsetX: -3, Color: in.Theme.Colors.Secondary},
			{OffsetX: 3, Color: in.Theme.Colors.Primary},
		}
	}
	return s
}

// Minimal slides up and fades in, no glow.
type Minimal struct{}

func (Minimal) Animate(in Input) Style {
	sp := motion.Clamp(motion.Spring(in.Frame, in.FPS, motion.SmoothSpring), 0, 1)

	color := "#ffffff"
	if in.Theme.ID == theme.Minimal {
		color = in.Theme.Colors.Primary
	}

	return Style{
		Kind:       theme.StyleMinimal,
		Text:       in.Text,
		Opacity:    1,
		Scale:      1,
		TranslateY: motion.Lerp(30, 0, sp),
		Color:      color,
		FontSize:   64,
		FontWeight: 500,
		FontFamily: in.Theme.FontFamily,
	}
}

// Typewriter reveals the text by 60% of the caption lifetime, then holds.
type Typewriter struct{}

func (Typewriter) Animate(in Input) Style {
	total := utf8.RuneCountInString(in.Text)
	visible := VisibleChars(in.Frame, in.Duration, total)
	cursor := (in.Frame/cursorPeriod)%2 == 0

	text := string([]rune(in.Text)[:visible])
	if cursor {
		text += "|"
	}

	return Style{
		Kind:       theme.StyleTypewriter,
		Text:       text,
		Opacity:    1,
		Scale:      1,
		Color:      "#ffffff",
		FontSize:   60,
		FontWeight: 600,
		FontFamily: "Courier New, monospace",
		Reveal:     &Reveal{Visible: visible, Total: total, Cursor: cursor},
	}
}

// VisibleChars is floor(interpolate(frame, [0, 0.6*duration], [0, total])).
func VisibleChars(frame, duration, total int) int {
	n := int(math.Floor(motion.Interpolate(float64(frame), 0, revealPortion*float64(duration), 0, float64(total))))
	if n < 0 {
		return 0
	}
	if n > total {
		return total
	}
	return n
}
