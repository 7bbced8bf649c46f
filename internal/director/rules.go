package director

import (
	"slices"
	"strings"
	"unicode"

	"github.com/ivlev/promoreel/internal/manifest"
	"github.com/ivlev/promoreel/internal/theme"
)

// rule turns a lower-cased command into an action when its keywords match.
type rule struct {
	name  string
	match func(cmd string, m manifest.VideoManifest) (Action, bool)
}

// Order matters: the first matching rule wins.
var rules = []rule{
	{"theme", matchTheme},
	{"pacing", matchPacing},
	{"color", matchColor},
	{"size", matchSize},
	{"weight", matchWeight},
}

var themeKeywords = []struct {
	id       string
	keywords []string
}{
	{theme.Cyber, []string{"cyber", "futuristic", "neon", "tech"}},
	{theme.Luxe, []string{"luxe", "luxur", "elegant", "premium", "classy"}},
	{theme.Minimal, []string{"minimal", "clean", "simple"}},
}

// Named colors, in match order.
var colors = []struct {
	name string
	hex  string
}{
	{"red", "#ff0000"},
	{"blue", "#0000ff"},
	{"green", "#00ff00"},
	{"yellow", "#ffff00"},
	{"white", "#ffffff"},
	{"pink", "#ff69b4"},
	{"gold", "#ffd700"},
	{"purple", "#800080"},
	{"orange", "#ffa500"},
	{"black", "#000000"},
}

var (
	fasterKeywords = []string{"faster", "quicker", "speed up", "snappier"}
	slowerKeywords = []string{"slower", "calmer", "slow down"}
	colorContext   = []string{"text", "caption", "color", "font"}
	sizeContext    = []string{"text", "caption", "font"}
	heavyWords     = []string{"bold", "bolder", "heavier"}
	lightWords     = []string{"thin", "thinner", "lighter"}
)

const (
	bigFontSize    = 96
	smallFontSize  = 48
	heavyWeight    = 900
	lightWeight    = 300
	minClipFrames  = 15
	pacingFallback = 60
)

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// words splits a command on anything that is not a letter or digit, so
// "think" never matches "thin" and "colored" never matches "red".
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func hasWord(ws []string, keywords ...string) bool {
	for _, k := range keywords {
		if slices.Contains(ws, k) {
			return true
		}
	}
	return false
}

func namedColor(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range colors {
		if c.name == name {
			return c.hex, true
		}
	}
	return "", false
}

// matchRules runs the keyword table over command.
func matchRules(command string, m manifest.VideoManifest) (Action, string, bool) {
	cmd := strings.ToLower(command)
	for _, r := range rules {
		if a, ok := r.match(cmd, m); ok {
			return a, r.name, true
		}
	}
	return Action{}, "", false
}

func matchTheme(cmd string, _ manifest.VideoManifest) (Action, bool) {
	for _, t := range themeKeywords {
		if containsAny(cmd, t.keywords) {
			return newAction(ActionApplyTheme, themePayload{ThemeID: t.id}, "keyword match: "+t.id), true
		}
	}
	return Action{}, false
}

// matchPacing scales the current theme clip length.
func matchPacing(cmd string, m manifest.VideoManifest) (Action, bool) {
	base := m.ActiveTheme().ClipDuration
	if base <= 0 {
		base = pacingFallback
	}
	switch {
	case containsAny(cmd, fasterKeywords):
		d := max(base*2/3, minClipFrames)
		return newAction(ActionAdjustTiming, timingPayload{ClipDuration: d}, "keyword match: faster pacing"), true
	case containsAny(cmd, slowerKeywords):
		return newAction(ActionAdjustTiming, timingPayload{ClipDuration: base * 3 / 2}, "keyword match: slower pacing"), true
	}
	return Action{}, false
}

func matchColor(cmd string, _ manifest.VideoManifest) (Action, bool) {
	if !containsAny(cmd, colorContext) {
		return Action{}, false
	}
	ws := words(cmd)
	for _, c := range colors {
		if hasWord(ws, c.name) {
			hex := c.hex
			return newAction(ActionStyleCaptions, stylePayload{Color: &hex}, "keyword match: "+c.name+" text"), true
		}
	}
	return Action{}, false
}

func matchSize(cmd string, _ manifest.VideoManifest) (Action, bool) {
	if !containsAny(cmd, sizeContext) {
		return Action{}, false
	}
	size := 0
	switch {
	case containsAny(cmd, []string{"bigger", "larger"}):
		size = bigFontSize
	case strings.Contains(cmd, "smaller"):
		size = smallFontSize
	default:
		return Action{}, false
	}
	return newAction(ActionStyleCaptions, stylePayload{FontSize: &size}, "keyword match: font size"), true
}

func matchWeight(cmd string, _ manifest.VideoManifest) (Action, bool) {
	if !containsAny(cmd, sizeContext) {
		return Action{}, false
	}
	ws := words(cmd)
	weight := 0
	switch {
	case hasWord(ws, heavyWords...):
		weight = heavyWeight
	case hasWord(ws, lightWords...):
		weight = lightWeight
	default:
		return Action{}, false
	}
	return newAction(ActionStyleCaptions, stylePayload{FontWeight: &weight}, "keyword match: font weight"), true
}
