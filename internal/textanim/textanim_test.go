package textanim

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/ivlev/promoreel/internal/motion"
	"github.com/ivlev/promoreel/internal/theme"
)

func input(style string, frame, duration int) Input {
	th, _ := theme.Lookup(theme.Cyber)
	return Input{
		Text:        "Hello world",
		Frame:       frame,
		GlobalFrame: frame,
		Duration:    duration,
		FPS:         30,
		Theme:       th,
	}
}

func TestTypewriterReveal(t *testing.T) {
	tests := []struct {
		frame, want int
	}{
		{0, 0},
		{30, 5},  // 30/60 of 11 chars
		{60, 11}, // 0.6 * 100
		{90, 11},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.frame), func(t *testing.T) {
			s := Compute(theme.StyleTypewriter, input(theme.StyleTypewriter, tt.frame, 100))
			if s.Reveal == nil {
				t.Fatal("typewriter style must carry reveal state")
			}
			if s.Reveal.Visible != tt.want {
				t.Errorf("visible = %d, want %d", s.Reveal.Visible, tt.want)
			}
			if s.Reveal.Total != 11 {
				t.Errorf("total = %d", s.Reveal.Total)
			}
		})
	}
}

func TestTypewriterCursorBlinks(t *testing.T) {
	on := Compute(theme.StyleTypewriter, input(theme.StyleTypewriter, 70, 100))
	off := Compute(theme.StyleTypewriter, input(theme.StyleTypewriter, 80, 100))
	if !on.Reveal.Cursor || on.Text != "Hello world|" {
		t.Errorf("frame 70: cursor should show, text %q", on.Text)
	}
	if off.Reveal.Cursor || off.Text != "Hello world" {
		t.Errorf("frame 80: cursor should be hidden, text %q", off.Text)
	}
}

func TestVisibleCharsHandlesMultibyte(t *testing.T) {
	in := input(theme.StyleTypewriter, 60, 100)
	in.Text = "héllo"
	s := Compute(theme.StyleTypewriter, in)
	if s.Reveal.Total != 5 || s.Reveal.Visible != 5 {
		t.Errorf("reveal = %+v", s.Reveal)
	}
}

func TestEnvelope(t *testing.T) {
	if got := Envelope(0, 100, 30); got != 0 {
		t.Errorf("frame 0 should be invisible, got %v", got)
	}
	if got := Envelope(50, 100, 30); got < 0.99 {
		t.Errorf("mid caption should be fully visible, got %v", got)
	}
	if got := Envelope(95, 100, 30); got < 0.49 || got > 0.51 {
		t.Errorf("halfway through exit fade, got %v", got)
	}
	if got := Envelope(100, 100, 30); got != 0 {
		t.Errorf("past end should be invisible, got %v", got)
	}
	// shorter than the exit window: fade starts at 0
	if got := Envelope(3, 6, 30); got > 0.5+1e-9 {
		t.Errorf("short caption opacity = %v, want <= 0.5", got)
	}
}

func TestImpact(t *testing.T) {
	s := Compute(theme.StyleImpact, input(theme.StyleImpact, 0, 100))
	if s.Scale != 1.5 {
		t.Errorf("impact should start at 1.5x, got %v", s.Scale)
	}
	if s.Text != "HELLO WORLD" || s.FontWeight != 900 {
		t.Errorf("impact text = %q weight %d", s.Text, s.FontWeight)
	}
	if s.Stroke != "#000000" || len(s.Shadows) == 0 || s.Shadows[0].Color != "#00ff88" {
		t.Errorf("impact glow/stroke wrong: %+v", s)
	}

	late := Compute(theme.StyleImpact, input(theme.StyleImpact, 60, 100))
	if late.TranslateX != 0 {
		t.Errorf("shake should have stopped, got %v", late.TranslateX)
	}
	if late.Scale < 0.99 || late.Scale > 1.01 {
		t.Errorf("impact should settle at 1.0, got %v", late.Scale)
	}
}

func TestGlitchFollowsFrameHash(t *testing.T) {
	var glitched, clean int
	for f := 0; f < 300; f++ {
		s := Compute(theme.StyleGlitch, input(theme.StyleGlitch, f, 400))
		want := motion.Hash(fmt.Sprintf("glitch-%d", f)) > 0.9
		if got := len(s.Shadows) > 0; got != want {
			t.Fatalf("frame %d: split = %v, hash says %v", f, got, want)
		}
		if want {
			glitched++
			if s.TranslateX < -10 || s.TranslateX > 10 {
				t.Errorf("frame %d: jitter %v out of range", f, s.TranslateX)
			}
			if s.Shadows[0].Color != "#ff0080" || s.Shadows[1].Color != "#00ff88" {
				t.Errorf("frame %d: split colors %+v", f, s.Shadows)
			}
		} else {
			clean++
		}
	}
	if glitched == 0 || clean == 0 {
		t.Errorf("expected a mix of frames, glitched=%d clean=%d", glitched, clean)
	}
}

func TestMinimalColorPerTheme(t *testing.T) {
	in := input(theme.StyleMinimal, 30, 100)
	if s := Compute(theme.StyleMinimal, in); s.Color != "#ffffff" {
		t.Errorf("cyber minimal text color = %s", s.Color)
	}
	in.Theme, _ = theme.Lookup(theme.Minimal)
	if s := Compute(theme.StyleMinimal, in); s.Color != "#1a1a1a" {
		t.Errorf("minimal theme text color = %s", s.Color)
	}

	start := Compute(theme.StyleMinimal, input(theme.StyleMinimal, 0, 100))
	if start.TranslateY != 30 {
		t.Errorf("minimal should start 30px low, got %v", start.TranslateY)
	}
}

func TestOverridesWin(t *testing.T) {
	for _, style := range []string{theme.StyleImpact, theme.StyleGlitch, theme.StyleMinimal, theme.StyleTypewriter} {
		in := input(style, 20, 100)
		in.Overrides = Overrides{Color: "#ff0000", FontSize: 96, FontWeight: 300, FontFamily: "Mono"}
		s := Compute(style, in)
		if s.Color != "#ff0000" || s.FontSize != 96 || s.FontWeight != 300 || s.FontFamily != "Mono" {
			t.Errorf("%s: overrides not applied: %+v", style, s)
		}
	}
}

func TestComputeIsPure(t *testing.T) {
	for _, style := range []string{theme.StyleImpact, theme.StyleGlitch, theme.StyleMinimal, theme.StyleTypewriter} {
		a := Compute(style, input(style, 17, 90))
		b := Compute(style, input(style, 17, 90))
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%s: two evaluations of the same frame differ", style)
		}
	}
}

func TestUnknownStyleFallsBack(t *testing.T) {
	if _, ok := For("wobble").(Minimal); !ok {
		t.Error("unknown style should use minimal")
	}
}
