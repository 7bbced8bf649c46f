package theme

import "strings"

// Theme IDs
const (
	Cyber   = "cyber"
	Luxe    = "luxe"
	Minimal = "minimal"
)

// Transition types a theme can default to
const (
	TransitionGlitch = "glitch"
	TransitionFade   = "fade"
	TransitionSlide  = "slide"
	TransitionZoom   = "zoom"
)

// Text animation styles
const (
	StyleImpact     = "impact"
	StyleMinimal    = "minimal"
	StyleGlitch     = "glitch"
	StyleTypewriter = "typewriter"
)

// Colors is the color set of a theme, as CSS hex strings.
type Colors struct {
	Primary    string `json:"primary" yaml:"primary"`
	Secondary  string `json:"secondary" yaml:"secondary"`
	Accent     string `json:"accent" yaml:"accent"`
	Background string `json:"background" yaml:"background"`
}

// Theme is a named visual preset. Values are copied out of the registry,
// so callers can never modify the catalog.
type Theme struct {
	ID              string  `json:"id" yaml:"id"`
	Name            string  `json:"name" yaml:"name"`
	Colors          Colors  `json:"colors" yaml:"colors"`
	FontFamily      string  `json:"fontFamily" yaml:"fontFamily"`
	Transition      string  `json:"transition" yaml:"transition"`
	MusicGenre      string  `json:"musicGenre" yaml:"musicGenre"`
	ClipDuration    int     `json:"clipDuration" yaml:"clipDuration"` // frames
	TextAnimation   string  `json:"textAnimation" yaml:"textAnimation"`
	KenBurnsEnabled bool    `json:"kenBurnsEnabled" yaml:"kenBurnsEnabled"`
	KenBurnsScale   float64 `json:"kenBurnsScale" yaml:"kenBurnsScale"`
}

var catalog = map[string]Theme{
	Cyber: {
		ID:   Cyber,
		Name: "Cyber",
		Colors: Colors{
			Primary:    "#00ff88",
			Secondary:  "#ff0080",
			Accent:     "#00d4ff",
			Background: "#0a0a0f",
		},
		FontFamily:      "Orbitron, sans-serif",
		Transition:      TransitionGlitch,
		MusicGenre:      "electronic",
		ClipDuration:    45,
		TextAnimation:   StyleGlitch,
		KenBurnsEnabled: false,
		KenBurnsScale:   1.0,
	},
	Luxe: {
		ID:   Luxe,
		Name: "Luxe",
		Colors: Colors{
			Primary:    "#d4af37",
			Secondary:  "#f5f0e6",
			Accent:     "#8b7355",
			Background: "#1a1512",
		},
		FontFamily:      "Playfair Display, serif",
		Transition:      TransitionFade,
		MusicGenre:      "ambient",
		ClipDuration:    90,
		TextAnimation:   StyleMinimal,
		KenBurnsEnabled: true,
		KenBurnsScale:   1.15,
	},
	Minimal: {
		ID:   Minimal,
		Name: "Minimal",
		Colors: Colors{
			Primary:    "#1a1a1a",
			Secondary:  "#666666",
			Accent:     "#0066ff",
			Background: "#fafafa",
		},
		FontFamily:      "Inter, sans-serif",
		Transition:      TransitionSlide,
		MusicGenre:      "acoustic",
		ClipDuration:    60,
		TextAnimation:   StyleMinimal,
		KenBurnsEnabled: true,
		KenBurnsScale:   1.08,
	},
}

// Lookup returns the preset with the given id. Matching ignores case and
// surrounding whitespace because ids often come from free-form model output.
func Lookup(id string) (Theme, bool) {
	t, ok := catalog[strings.ToLower(strings.TrimSpace(id))]
	return t, ok
}

// Default is the theme used when a manifest carries none.
func Default() Theme {
	return catalog[Cyber]
}

// IDs lists the catalog in a stable order.
func IDs() []string {
	return []string{Cyber, Luxe, Minimal}
}

// All returns every preset in IDs order.
func All() []Theme {
	out := make([]Theme, 0, len(catalog))
	for _, id := range IDs() {
		out = append(out, catalog[id])
	}
	return out
}

// IsTransition reports whether name is a known transition type.
func IsTransition(name string) bool {
	switch name {
	case TransitionGlitch, TransitionFade, TransitionSlide, TransitionZoom:
		return true
	}
	return false
}

// IsTextStyle reports whether name is a known caption animation style.
func IsTextStyle(name string) bool {
	switch name {
	case StyleImpact, StyleMinimal, StyleGlitch, StyleTypewriter:
		return true
	}
	return false
}
