package renderer

import (
	"fmt"
	"math"
	"strings"

	"github.com/ivlev/promoreel/internal/effects"
	"github.com/ivlev/promoreel/internal/manifest"
	"github.com/ivlev/promoreel/internal/motion"
	"github.com/ivlev/promoreel/internal/textanim"
	"github.com/ivlev/promoreel/internal/theme"
)

const (
	EndCardFrames   = 90
	scanlineSpacing = 4
)

// Audio track kinds
const (
	TrackVoice = "voice"
	TrackMusic = "music"
)

// IsPlaceholderURL reports media the renderer should not try to load.
func IsPlaceholderURL(url string) bool {
	u := strings.TrimSpace(strings.ToLower(url))
	return u == "" || strings.HasPrefix(u, "placeholder") || strings.Contains(u, "/placeholder")
}

// Render builds the scene for one frame.
func Render(m manifest.VideoManifest, frame int) Scene {
	th := m.ActiveTheme()
	fps := m.FPS
	if fps <= 0 {
		fps = manifest.DefaultFPS
	}

	s := Scene{
		Frame:      frame,
		Width:      m.Width,
		Height:     m.Height,
		ThemeID:    th.ID,
		Background: background(th, frame),
		Clips:      clipLayers(m, th, fps, frame),
		Scrim:      scrim(th),
		Caption:    captionLayer(m, th, fps, frame),
		EndCard:    endCard(m, th, fps, frame),
		Audio:      audioTracks(m),
	}

	if th.ID == theme.Luxe {
		s.Grain = &Grain{
			Seed:    uint64(motion.Hash(fmt.Sprintf("grain-%d", frame)) * (1 << 53)),
			Opacity: 0.06,
		}
	}
	if th.ID != theme.Minimal {
		strength := 0.45
		if th.ID == theme.Luxe {
			strength = 0.6
		}
		s.Vignette = &Vignette{Strength: strength}
	}
	return s
}

func background(th theme.Theme, frame int) Background {
	bg := Background{Top: th.Colors.Background, Bottom: th.Colors.Background}
	switch th.ID {
	case theme.Cyber:
		bg.Bottom = "#001a12"
		bg.Scanlines = true
		bg.ScanlineOffset = (frame * 2) % scanlineSpacing
		if bg.ScanlineOffset < 0 {
			bg.ScanlineOffset += scanlineSpacing
		}
	case theme.Luxe:
		bg.Bottom = "#0d0a08"
	case theme.Minimal:
		bg.Bottom = "#eeeeee"
	}
	return bg
}

// effectiveClips substitutes the product image when no clips are defined.
func effectiveClips(m manifest.VideoManifest) []manifest.Clip {
	if len(m.Clips) > 0 {
		return m.Clips
	}
	return []manifest.Clip{{
		StartFrame: 0,
		Duration:   m.DurationInFrames,
		Type:       manifest.ClipImage,
		URL:        m.Product.Image,
		Label:      "product",
	}}
}

func clipLayers(m manifest.VideoManifest, th theme.Theme, fps, frame int) []ClipLayer {
	var layers []ClipLayer
	for i, c := range effectiveClips(m) {
		if !c.Active(frame) {
			continue
		}
		rel := frame - c.StartFrame

		transition := c.Transition
		if transition == "" {
			transition = th.Transition
		}

		p := effects.Params{
			ClipIndex:   i,
			Frame:       rel,
			GlobalFrame: frame,
			Duration:    c.Duration,
			Width:       m.Width,
			Height:      m.Height,
			Image:       c.Type == manifest.ClipImage,
			Theme:       th,
		}

		layer := ClipLayer{
			Index:      i,
			Type:       c.Type,
			URL:        c.URL,
			Fallback:   IsPlaceholderURL(c.URL) || c.Type == manifest.ClipVideo, // no video decoding in-process
			Progress:   p.Progress(),
			Transition: transition,
			Transform:  effects.Apply(effects.Chain(transition), p),
		}
		if c.Type == manifest.ClipVideo {
			layer.SourceTime = c.SourceStartTime + float64(rel)/float64(fps)
			if c.SourceEndTime != nil && layer.SourceTime > *c.SourceEndTime {
				layer.SourceTime = *c.SourceEndTime
			}
		}
		layers = append(layers, layer)
	}
	return layers
}

func scrim(th theme.Theme) Scrim {
	switch th.ID {
	case theme.Luxe:
		return Scrim{Color: "#140c04", Top: 0.55, Bottom: 0.75}
	case theme.Minimal:
		return Scrim{Color: "#ffffff", Top: 0.05, Bottom: 0.1}
	}
	return Scrim{Color: "#000000", Top: 0.35, Bottom: 0.6}
}

func captionLayer(m manifest.VideoManifest, th theme.Theme, fps, frame int) *CaptionLayer {
	for i, c := range m.Captions {
		if !c.Active(frame) {
			continue
		}
		style := c.Style
		if style == "" {
			style = th.TextAnimation
		}
		pos := c.Position
		if pos == "" {
			pos = manifest.PositionCenter
		}
		return &CaptionLayer{
			Index:    i,
			Position: pos,
			Style: textanim.Compute(style, textanim.Input{
				Text:        c.Text,
				Frame:       frame - c.StartFrame,
				GlobalFrame: frame,
				Duration:    c.EndFrame - c.StartFrame,
				FPS:         fps,
				Theme:       th,
				Overrides:   textanim.OverridesFrom(c),
			}),
		}
	}
	return nil
}

// EndCardStart is the first frame of the end card.
func EndCardStart(total int) int {
	return max(0, total-EndCardFrames)
}

func endCard(m manifest.VideoManifest, th theme.Theme, fps, frame int) *EndCard {
	total := m.DurationInFrames
	start := EndCardStart(total)
	if frame < start || frame >= total {
		return nil
	}
	rel := frame - start

	cta := "Shop Now"
	if th.ID == theme.Luxe {
		cta = "Discover"
	}

	card := &EndCard{
		Title:   m.Product.Title,
		Price:   m.Product.Price,
		Image:   m.Product.Image,
		CTA:     cta,
		QRData:  m.Product.URL,
		Opacity: motion.Interpolate(float64(rel), 0, 15, 0, 1),
		Scale:   motion.Lerp(0.9, 1, motion.Clamp(motion.Spring(rel, fps, motion.SmoothSpring), 0, 1)),
		Colors:  th.Colors,
	}

	switch th.ID {
	case theme.Luxe:
		card.PriceGlow = 0.5 + 0.5*math.Sin(float64(rel)*0.1)
	case theme.Cyber:
		card.PriceGlow = 1
		if motion.Hash(fmt.Sprintf("price-%d", frame)) > 0.85 {
			card.PriceOffsetX = (motion.Hash(fmt.Sprintf("price-x-%d", frame)) - 0.5) * 12
		}
	}
	return card
}

func audioTracks(m manifest.VideoManifest) []AudioTrack {
	var tracks []AudioTrack
	if m.AudioURL != "" {
		tracks = append(tracks, AudioTrack{Kind: TrackVoice, URL: m.AudioURL, Volume: m.VoiceVolume})
	}
	if m.MusicURL != "" {
		tracks = append(tracks, AudioTrack{Kind: TrackMusic, URL: m.MusicURL, Volume: m.MusicVolume})
	}
	return tracks
}
