package renderer

import (
	"reflect"
	"testing"
	"time"

	"github.com/ivlev/promoreel/internal/manifest"
	"github.com/ivlev/promoreel/internal/theme"
)

func sampleManifest(themeID string) manifest.VideoManifest {
	m := manifest.New(manifest.Product{
		Title: "Desk Lamp",
		Price: "$49",
		Image: "lamp.png",
		URL:   "https://shop.example.com/lamp",
	}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if th, ok := theme.Lookup(themeID); ok {
		m.Theme = &th
	}
	m.Captions = []manifest.Caption{
		{StartFrame: 0, EndFrame: 90, Text: "Meet the lamp", Style: theme.StyleGlitch},
		{StartFrame: 90, EndFrame: 180, Text: "Bright ideas", Style: theme.StyleTypewriter, Position: manifest.PositionBottom},
	}
	m.Clips = []manifest.Clip{
		{StartFrame: 0, Duration: 150, Type: manifest.ClipImage, URL: "a.png"},
		{StartFrame: 150, Duration: 150, Type: manifest.ClipVideo, URL: "v.mp4", SourceStartTime: 2},
		{StartFrame: 300, Duration: 150, Type: manifest.ClipImage, URL: "placeholder.jpg"},
	}
	return m
}

func TestRenderDeterministic(t *testing.T) {
	for _, id := range theme.IDs() {
		m := sampleManifest(id)
		for _, f := range []int{0, 7, 45, 151, 300, 380, 449} {
			a, b := Render(m, f), Render(m, f)
			if !reflect.DeepEqual(a, b) {
				t.Errorf("%s frame %d: scenes differ", id, f)
			}
		}
	}
}

func TestRenderOrderIndependent(t *testing.T) {
	m := sampleManifest(theme.Cyber)
	forward := make([]Scene, 60)
	for f := 0; f < 60; f++ {
		forward[f] = Render(m, f)
	}
	for f := 59; f >= 0; f-- {
		if !reflect.DeepEqual(Render(m, f), forward[f]) {
			t.Fatalf("frame %d differs when rendered out of order", f)
		}
	}
}

func TestClipWindows(t *testing.T) {
	m := sampleManifest(theme.Luxe)

	tests := []struct {
		frame     int
		wantIndex int
	}{
		{0, 0},
		{149, 0},
		{150, 1},
		{299, 1},
		{300, 2},
	}
	for _, tt := range tests {
		s := Render(m, tt.frame)
		if len(s.Clips) != 1 || s.Clips[0].Index != tt.wantIndex {
			t.Errorf("frame %d: clips %+v, want index %d", tt.frame, s.Clips, tt.wantIndex)
		}
	}

	if s := Render(m, 450); len(s.Clips) != 0 {
		t.Errorf("no clip should be active past the end")
	}
}

func TestClipLayerDetails(t *testing.T) {
	m := sampleManifest(theme.Luxe)

	s := Render(m, 165)
	c := s.Clips[0]
	if c.SourceTime != 2.5 {
		t.Errorf("video source time = %v, want 2.5", c.SourceTime)
	}
	if c.Transition != theme.TransitionFade {
		t.Errorf("transition should fall back to theme, got %s", c.Transition)
	}
	if c.Progress != 0.1 {
		t.Errorf("progress = %v", c.Progress)
	}

	if s := Render(m, 310); !s.Clips[0].Fallback {
		t.Error("placeholder url should fall back to background")
	}
	if !c.Fallback {
		t.Error("video clips should draw the background, not be fetched")
	}

	if s := Render(m, 0); s.Clips[0].Transform.Opacity != 0 {
		t.Errorf("clip should fade in from 0, got %v", s.Clips[0].Transform.Opacity)
	}
}

func TestZeroClipsUsesProductImage(t *testing.T) {
	m := sampleManifest(theme.Minimal)
	m.Clips = nil
	for _, f := range []int{0, 200, 449} {
		s := Render(m, f)
		if len(s.Clips) != 1 || s.Clips[0].URL != "lamp.png" || s.Clips[0].Type != manifest.ClipImage {
			t.Errorf("frame %d: fallback clip missing: %+v", f, s.Clips)
		}
	}
}

func TestCaptionWindows(t *testing.T) {
	m := sampleManifest(theme.Cyber)

	if s := Render(m, 89); s.Caption == nil || s.Caption.Index != 0 {
		t.Errorf("frame 89 should show caption 0")
	}
	s := Render(m, 90)
	if s.Caption == nil || s.Caption.Index != 1 {
		t.Fatalf("frame 90 should show caption 1")
	}
	if s.Caption.Position != manifest.PositionBottom {
		t.Errorf("position = %s", s.Caption.Position)
	}
	if s := Render(m, 180); s.Caption != nil {
		t.Errorf("no caption after the last window, got %+v", s.Caption)
	}
	if s := Render(m, 60); s.Caption.Position != manifest.PositionCenter {
		t.Errorf("default position = %s", s.Caption.Position)
	}
}

func TestEndCard(t *testing.T) {
	m := sampleManifest(theme.Luxe)

	if s := Render(m, 359); s.EndCard != nil {
		t.Error("end card before final 90 frames")
	}
	s := Render(m, 360)
	if s.EndCard == nil {
		t.Fatal("end card missing at total-90")
	}
	if s.EndCard.CTA != "Discover" {
		t.Errorf("luxe cta = %q", s.EndCard.CTA)
	}
	if s.EndCard.QRData != "https://shop.example.com/lamp" {
		t.Errorf("qr data = %q", s.EndCard.QRData)
	}
	if s := Render(m, 449); s.EndCard == nil {
		t.Error("end card missing on last frame")
	}

	cyber := sampleManifest(theme.Cyber)
	if s := Render(cyber, 400); s.EndCard.CTA != "Shop Now" {
		t.Errorf("cyber cta = %q", s.EndCard.CTA)
	}

	short := sampleManifest(theme.Cyber)
	short.DurationInFrames = 60
	if s := Render(short, 0); s.EndCard == nil {
		t.Error("timeline shorter than the card should show it from frame 0")
	}
}

func TestOverlaysPerTheme(t *testing.T) {
	tests := []struct {
		id          string
		grain, vign bool
		scanlines   bool
	}{
		{theme.Cyber, false, true, true},
		{theme.Luxe, true, true, false},
		{theme.Minimal, false, false, false},
	}
	for _, tt := range tests {
		s := Render(sampleManifest(tt.id), 10)
		if (s.Grain != nil) != tt.grain {
			t.Errorf("%s: grain = %v", tt.id, s.Grain != nil)
		}
		if (s.Vignette != nil) != tt.vign {
			t.Errorf("%s: vignette = %v", tt.id, s.Vignette != nil)
		}
		if s.Background.Scanlines != tt.scanlines {
			t.Errorf("%s: scanlines = %v", tt.id, s.Background.Scanlines)
		}
	}

	if a, b := Render(sampleManifest(theme.Luxe), 10).Grain.Seed, Render(sampleManifest(theme.Luxe), 11).Grain.Seed; a == b {
		t.Error("grain should change between frames")
	}
}

func TestScanlinesMoveWithFrame(t *testing.T) {
	m := sampleManifest(theme.Cyber)
	if Render(m, 0).Background.ScanlineOffset == Render(m, 1).Background.ScanlineOffset {
		t.Error("scanline offset should advance")
	}
}

func TestMissingThemeFallsBackToDefault(t *testing.T) {
	m := sampleManifest(theme.Cyber)
	m.Theme = nil
	if s := Render(m, 0); s.ThemeID != theme.Default().ID {
		t.Errorf("theme = %s", s.ThemeID)
	}
}

func TestAudioTracks(t *testing.T) {
	m := sampleManifest(theme.Cyber)
	if s := Render(m, 0); len(s.Audio) != 0 {
		t.Errorf("no audio urls, got %+v", s.Audio)
	}
	m.AudioURL = "voice.mp3"
	m.MusicURL = "music.mp3"
	m.MusicVolume = 0.2
	s := Render(m, 0)
	if len(s.Audio) != 2 || s.Audio[0].Kind != TrackVoice || s.Audio[1].Volume != 0.2 {
		t.Errorf("audio = %+v", s.Audio)
	}
}
