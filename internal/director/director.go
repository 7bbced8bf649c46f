// Package director turns free-form edit commands into manifest edits. A
// fixed keyword table is tried first; only unmatched commands go to the
// language model, whose reply is treated as untrusted input.
package director

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ivlev/promoreel/internal/edit"
	"github.com/ivlev/promoreel/internal/manifest"
)

// User-facing fallback messages
const (
	MsgNotUnderstood = `I didn't understand that. Try: "make it luxurious", "make it faster", "make the text red" or "make the text bigger".`
	MsgError         = "I encountered an error processing your request. Please try again."
)

const defaultLLMTimeout = 45 * time.Second

// Completer is the language model tier. *llm.Ladder satisfies it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (text, model string, err error)
}

// Result is the outcome of one command. Manifest is the input unchanged
// (same Version) when nothing was applied.
type Result struct {
	Manifest manifest.VideoManifest `json:"manifest"`
	Actions  []Action               `json:"actions"`
	Message  string                 `json:"message"`
}

// Director interprets commands. It holds no per-manifest state and is safe
// for concurrent use.
type Director struct {
	editor     *edit.Editor
	llm        Completer
	llmTimeout time.Duration
	log        zerolog.Logger
}

type Option func(*Director)

// WithLLM enables the model tier.
func WithLLM(c Completer) Option {
	return func(d *Director) { d.llm = c }
}

// WithEditor sets the editor, mostly to pin the clock in tests.
func WithEditor(e *edit.Editor) Option {
	return func(d *Director) { d.editor = e }
}

func WithLogger(l zerolog.Logger) Option {
	return func(d *Director) { d.log = l }
}

// WithLLMTimeout bounds one model round trip.
func WithLLMTimeout(t time.Duration) Option {
	return func(d *Director) {
		if t > 0 {
			d.llmTimeout = t
		}
	}
}

func New(opts ...Option) *Director {
	d := &Director{
		editor:     edit.New(),
		llmTimeout: defaultLLMTimeout,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Interpret applies command to m. It never fails: every problem ends as
// an unchanged manifest and an explanatory message.
func (d *Director) Interpret(ctx context.Context, command string, m manifest.VideoManifest) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("command", command).Msg("interpret panicked")
			res = Result{Manifest: m, Message: MsgError}
		}
	}()

	command = strings.TrimSpace(command)
	if command == "" {
		return Result{Manifest: m, Message: MsgNotUnderstood}
	}

	if a, name, ok := matchRules(command, m); ok {
		d.log.Debug().Str("rule", name).Str("type", a.Type).Msg("keyword rule matched")
		return d.apply(m, []Action{a}, nil)
	}

	if d.llm == nil {
		return Result{Manifest: m, Message: MsgNotUnderstood}
	}

	llmCtx, cancel := context.WithTimeout(ctx, d.llmTimeout)
	defer cancel()
	text, model, err := d.llm.Complete(llmCtx, buildPrompt(command, m))
	if err != nil {
		d.log.Warn().Err(err).Msg("model tier unavailable")
		return Result{Manifest: m, Message: MsgNotUnderstood}
	}

	resp, err := parseResponse(text)
	if err != nil {
		d.log.Warn().Err(err).Str("model", model).Msg("unusable model response")
		return Result{Manifest: m, Message: MsgNotUnderstood}
	}
	d.log.Info().Str("model", model).Int("actions", len(resp.Actions)).Msg("model response accepted")
	return d.apply(m, resp.Actions, resp.ManifestChanges)
}

// apply runs actions in order, then the direct changes. Failures are
// logged and skipped; earlier edits stand. A command that changed
// anything produces exactly one new version.
func (d *Director) apply(m manifest.VideoManifest, actions []Action, changes *manifestChanges) Result {
	cur := m
	var (
		applied []Action
		notes   []string
		failed  int
	)
	for _, a := range actions {
		next, note, err := d.safeApply(cur, a)
		if err != nil {
			failed++
			d.log.Warn().Err(err).Str("type", a.Type).Msg("action failed")
			continue
		}
		if note != "" {
			notes = append(notes, note)
		}
		if next.Version != cur.Version {
			applied = append(applied, a)
		}
		cur = next
	}
	if !changes.empty() {
		next, note, err := d.applyChanges(cur, changes)
		switch {
		case err != nil:
			failed++
			d.log.Warn().Err(err).Msg("manifest changes rejected")
		case next.Version != cur.Version:
			notes = append(notes, note)
			cur = next
		}
	}

	if cur.Version == m.Version {
		msg := strings.Join(notes, " ")
		if failed > 0 && len(notes) == 0 {
			msg = MsgError
		} else if msg == "" {
			msg = "Nothing to change."
		}
		return Result{Manifest: m, Actions: applied, Message: msg}
	}

	cur.Version = m.Version + 1
	return Result{Manifest: cur, Actions: applied, Message: strings.Join(notes, " ")}
}

func (d *Director) safeApply(m manifest.VideoManifest, a Action) (out manifest.VideoManifest, note string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, note, err = m, "", fmt.Errorf("%s panicked: %v", a.Type, r)
		}
	}()
	return d.applyAction(m, a)
}

// applyAction maps one validated action onto the edit package. The
// returned note describes what happened, including no-ops.
func (d *Director) applyAction(m manifest.VideoManifest, a Action) (manifest.VideoManifest, string, error) {
	p, err := decodePayload(a)
	if err != nil {
		return m, "", err
	}
	e := d.editor

	switch p := p.(type) {
	case themePayload:
		out := e.ApplyTheme(m, p.ThemeID)
		if out.Version == m.Version {
			return m, fmt.Sprintf("There is no %q theme.", p.ThemeID), nil
		}
		return out, fmt.Sprintf("Switched to the %s theme.", out.Theme.Name), nil

	case timingPayload:
		out := e.AdjustTiming(m, p.ClipDuration)
		if out.Version == m.Version {
			return m, "There are no clips to retime.", nil
		}
		return out, fmt.Sprintf("Clips now last %d frames each.", out.Clips[0].Duration), nil

	case captionTextPayload:
		out := e.UpdateCaptionText(m, p.Index, p.Text)
		if out.Version == m.Version {
			return m, fmt.Sprintf("There is no caption %d.", p.Index+1), nil
		}
		return out, fmt.Sprintf("Updated caption %d.", p.Index+1), nil

	case stylePayload:
		props := edit.StyleProps{FontSize: p.FontSize, FontWeight: p.FontWeight, FontFamily: p.FontFamily}
		if p.Color != nil {
			c := *p.Color
			if hex, ok := namedColor(c); ok {
				c = hex
			}
			props.Color = &c
		}
		out := e.StyleCaptions(m, selector(p.Index), props)
		if out.Version == m.Version {
			return m, "No captions matched.", nil
		}
		return out, "Restyled the captions.", nil

	case searchPayload:
		searched, found, seg := e.SearchVideoSegment(m, p.Query)
		if !found {
			if searched.VideoIndex == nil {
				return m, "There is no product video to search.", nil
			}
			return searched, fmt.Sprintf("No video segment matches %q.", p.Query), nil
		}
		frame := 0
		if p.Frame != nil {
			frame = *p.Frame
		}
		out := e.InsertSegmentClip(searched, *seg, frame)
		if out.Version == searched.Version {
			return searched, fmt.Sprintf("Found %q but could not place it at frame %d.", seg.Label, frame), nil
		}
		return out, fmt.Sprintf("Added the %q segment at frame %d.", seg.Label, frame), nil

	case volumePayload:
		out := e.SetVolumes(m, p.Music, p.Voice)
		return out, "Adjusted the audio levels.", nil

	case positionPayload:
		out := e.SetCaptionPosition(m, selector(p.Index), p.Position)
		if out.Version == m.Version {
			return m, "No captions matched.", nil
		}
		return out, fmt.Sprintf("Moved captions to the %s.", p.Position), nil
	}
	return m, "", fmt.Errorf("%w: unhandled type %q", ErrInvalidAction, a.Type)
}

func selector(index *int) edit.Selector {
	if index == nil {
		return edit.AllCaptions()
	}
	return edit.CaptionAt(*index)
}

// applyChanges merges the direct patch. A captions list shorter than the
// current one overlays by position; otherwise it replaces the list.
func (d *Director) applyChanges(m manifest.VideoManifest, c *manifestChanges) (manifest.VideoManifest, string, error) {
	out := m
	var notes []string

	if len(c.Captions) > 0 {
		captions, err := mergeCaptions(m.Captions, c.Captions, m.ActiveTheme().TextAnimation)
		if err != nil {
			return m, "", err
		}
		if err := manifest.ValidateCaptions(captions, m.DurationInFrames); err != nil {
			return m, "", fmt.Errorf("patched captions: %w", err)
		}
		out = d.editor.ReplaceCaptions(out, captions)
		notes = append(notes, "Updated the captions.")
	}
	if c.MusicVolume != nil || c.VoiceVolume != nil {
		out = d.editor.SetVolumes(out, c.MusicVolume, c.VoiceVolume)
		notes = append(notes, "Adjusted the audio levels.")
	}
	return out, strings.Join(notes, " "), nil
}

func mergeCaptions(current []manifest.Caption, patch []captionPatch, defaultStyle string) ([]manifest.Caption, error) {
	if len(patch) < len(current) {
		out := append([]manifest.Caption(nil), current...)
		for i, p := range patch {
			p.overlay(&out[i])
		}
		return out, nil
	}

	out := make([]manifest.Caption, len(patch))
	for i, p := range patch {
		if p.StartFrame == nil || p.EndFrame == nil || p.Text == nil {
			return nil, fmt.Errorf("caption %d: startFrame, endFrame and text are required for a full list", i)
		}
		out[i].Style = defaultStyle
		p.overlay(&out[i])
	}
	return out, nil
}

func (p captionPatch) overlay(c *manifest.Caption) {
	if p.StartFrame != nil {
		c.StartFrame = *p.StartFrame
	}
	if p.EndFrame != nil {
		c.EndFrame = *p.EndFrame
	}
	if p.Text != nil {
		c.Text = *p.Text
	}
	if p.Style != nil {
		c.Style = *p.Style
	}
	if p.Position != nil {
		c.Position = *p.Position
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.FontSize != nil {
		c.FontSize = *p.FontSize
	}
	if p.FontWeight != nil {
		c.FontWeight = *p.FontWeight
	}
	if p.FontFamily != nil {
		c.FontFamily = *p.FontFamily
	}
}
