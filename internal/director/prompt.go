package director

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ivlev/promoreel/internal/llm"
	"github.com/ivlev/promoreel/internal/manifest"
	"github.com/ivlev/promoreel/internal/theme"
)

// parseResponse extracts, decodes and validates a model reply.
func parseResponse(text string) (response, error) {
	var r response
	raw, err := llm.ExtractJSON(text)
	if err != nil {
		return r, err
	}
	if err := decodeStrict([]byte(raw), &r); err != nil {
		return r, fmt.Errorf("decode response: %w", err)
	}
	if len(r.Actions) == 0 && r.ManifestChanges.empty() {
		return r, errors.New("response has no actions or changes")
	}
	for i, a := range r.Actions {
		if _, err := decodePayload(a); err != nil {
			return r, fmt.Errorf("action %d: %w", i, err)
		}
	}
	if err := r.ManifestChanges.validate(); err != nil {
		return r, fmt.Errorf("manifestChanges: %w", err)
	}
	return r, nil
}

// buildPrompt describes the manifest, the theme catalog and the action
// vocabulary, and asks for a single JSON object back.
func buildPrompt(command string, m manifest.VideoManifest) string {
	var b strings.Builder
	b.WriteString("You edit short vertical product videos described by a manifest.\n")
	b.WriteString("Turn the user's request into edits.\n\n")

	th := m.ActiveTheme()
	fmt.Fprintf(&b, "CURRENT VIDEO\n- theme: %s\n- duration: %d frames at %d fps\n", th.ID, m.DurationInFrames, m.FPS)
	fmt.Fprintf(&b, "- musicVolume: %.2f, voiceVolume: %.2f\n", m.MusicVolume, m.VoiceVolume)
	fmt.Fprintf(&b, "- clips: %d\n", len(m.Clips))
	for i, c := range m.Clips {
		fmt.Fprintf(&b, "  [%d] %s frames %d-%d transition=%s\n", i, c.Type, c.StartFrame, c.EndFrame(), c.Transition)
	}
	fmt.Fprintf(&b, "- captions: %d\n", len(m.Captions))
	for i, c := range m.Captions {
		fmt.Fprintf(&b, "  [%d] frames %d-%d style=%s %q\n", i, c.StartFrame, c.EndFrame, c.Style, c.Text)
	}
	if m.VideoIndex != nil || m.Product.VideoURL != "" {
		b.WriteString("- a source product video is available for search_video\n")
	}

	b.WriteString("\nTHEMES\n")
	for _, t := range theme.All() {
		fmt.Fprintf(&b, "- %s: primary %s, transition %s, text %s, clips %d frames\n",
			t.ID, t.Colors.Primary, t.Transition, t.TextAnimation, t.ClipDuration)
	}

	b.WriteString(`
ACTIONS (type: payload)
- apply_theme: {"themeId": "cyber|luxe|minimal"}
- adjust_timing: {"clipDuration": <frames>}
- update_caption: {"index": <int>, "text": "<new text>"}
- style_captions: {"index": <int, omit for all>, "color": "#rrggbb", "fontSize": <int>, "fontWeight": <100-900>, "fontFamily": "<css font>"}
- search_video: {"query": "<segment label>", "frame": <frame to place it at>}
- set_volume: {"music": <0-1>, "voice": <0-1>}
- set_caption_position: {"index": <int, omit for all>, "position": "top|center|bottom"}

Reply with exactly one JSON object and nothing else:
{"actions": [{"type": "...", "payload": {...}, "reasoning": "..."}],
 "manifestChanges": {"captions": [...], "musicVolume": 0.3, "voiceVolume": 1.0}}
manifestChanges is optional. A captions list shorter than the current one
updates captions by position; a full list replaces them.

REQUEST
`)
	b.WriteString(command)
	b.WriteString("\n")
	return b.String()
}
