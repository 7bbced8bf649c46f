package director

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"

	"github.com/ivlev/promoreel/internal/manifest"
	"github.com/ivlev/promoreel/internal/theme"
)

// Action types understood by the director
const (
	ActionApplyTheme         = "apply_theme"
	ActionAdjustTiming       = "adjust_timing"
	ActionUpdateCaption      = "update_caption"
	ActionStyleCaptions      = "style_captions"
	ActionSearchVideo        = "search_video"
	ActionSetVolume          = "set_volume"
	ActionSetCaptionPosition = "set_caption_position"
)

var ErrInvalidAction = errors.New("invalid action")

// Action is one edit plus the reason it was chosen. It is also the audit
// record returned to callers.
type Action struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Reasoning string          `json:"reasoning,omitempty"`
}

type themePayload struct {
	ThemeID string `json:"themeId"`
}

type timingPayload struct {
	ClipDuration int `json:"clipDuration"`
}

type captionTextPayload struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// A nil Index targets every caption.
type stylePayload struct {
	Index      *int    `json:"index,omitempty"`
	Color      *string `json:"color,omitempty"`
	FontSize   *int    `json:"fontSize,omitempty"`
	FontWeight *int    `json:"fontWeight,omitempty"`
	FontFamily *string `json:"fontFamily,omitempty"`
}

type searchPayload struct {
	Query string `json:"query"`
	Frame *int   `json:"frame,omitempty"`
}

type volumePayload struct {
	Music *float64 `json:"music,omitempty"`
	Voice *float64 `json:"voice,omitempty"`
}

type positionPayload struct {
	Index    *int   `json:"index,omitempty"`
	Position string `json:"position"`
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// newAction marshals a typed payload. Payload types are plain structs so
// marshalling cannot fail.
func newAction(kind string, payload any, reasoning string) Action {
	raw, _ := json.Marshal(payload)
	return Action{Type: kind, Payload: raw, Reasoning: reasoning}
}

// decodeStrict rejects unknown fields and trailing data.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON value")
	}
	return nil
}

// decodePayload parses and range-checks the payload for a.Type, returning
// one of the *Payload structs above.
func decodePayload(a Action) (any, error) {
	if len(a.Payload) == 0 {
		return nil, fmt.Errorf("%w: %s has no payload", ErrInvalidAction, a.Type)
	}

	var (
		p   any
		err error
	)
	switch a.Type {
	case ActionApplyTheme:
		var v themePayload
		if err = decodeStrict(a.Payload, &v); err == nil && v.ThemeID == "" {
			err = errors.New("themeId is required")
		}
		p = v
	case ActionAdjustTiming:
		var v timingPayload
		if err = decodeStrict(a.Payload, &v); err == nil && v.ClipDuration <= 0 {
			err = fmt.Errorf("clipDuration %d must be positive", v.ClipDuration)
		}
		p = v
	case ActionUpdateCaption:
		var v captionTextPayload
		if err = decodeStrict(a.Payload, &v); err == nil && v.Index < 0 {
			err = fmt.Errorf("index %d out of range", v.Index)
		}
		p = v
	case ActionStyleCaptions:
		var v stylePayload
		if err = decodeStrict(a.Payload, &v); err == nil {
			err = v.validate()
		}
		p = v
	case ActionSearchVideo:
		var v searchPayload
		if err = decodeStrict(a.Payload, &v); err == nil && v.Query == "" {
			err = errors.New("query is required")
		}
		p = v
	case ActionSetVolume:
		var v volumePayload
		if err = decodeStrict(a.Payload, &v); err == nil {
			err = validateVolumes(v.Music, v.Voice)
		}
		p = v
	case ActionSetCaptionPosition:
		var v positionPayload
		if err = decodeStrict(a.Payload, &v); err == nil {
			switch v.Position {
			case manifest.PositionTop, manifest.PositionCenter, manifest.PositionBottom:
			default:
				err = fmt.Errorf("unknown position %q", v.Position)
			}
		}
		p = v
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidAction, a.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidAction, a.Type, err)
	}
	return p, nil
}

func (p stylePayload) validate() error {
	if p.Color == nil && p.FontSize == nil && p.FontWeight == nil && p.FontFamily == nil {
		return errors.New("no style properties")
	}
	if p.Index != nil && *p.Index < 0 {
		return fmt.Errorf("index %d out of range", *p.Index)
	}
	if p.Color != nil && !hexColor.MatchString(*p.Color) {
		if _, ok := namedColor(*p.Color); !ok {
			return fmt.Errorf("color %q is not a hex color", *p.Color)
		}
	}
	if p.FontSize != nil && (*p.FontSize < 8 || *p.FontSize > 400) {
		return fmt.Errorf("fontSize %d outside [8,400]", *p.FontSize)
	}
	if p.FontWeight != nil && (*p.FontWeight < 100 || *p.FontWeight > 900) {
		return fmt.Errorf("fontWeight %d outside [100,900]", *p.FontWeight)
	}
	return nil
}

func validateVolumes(music, voice *float64) error {
	if music == nil && voice == nil {
		return errors.New("no volume given")
	}
	for _, v := range []*float64{music, voice} {
		if v != nil && (math.IsNaN(*v) || *v < 0 || *v > 1) {
			return fmt.Errorf("volume %v outside [0,1]", *v)
		}
	}
	return nil
}

// captionPatch is one entry of manifestChanges.captions. Every field is
// optional so a short list can overlay only what changed.
type captionPatch struct {
	StartFrame *int    `json:"startFrame,omitempty"`
	EndFrame   *int    `json:"endFrame,omitempty"`
	Text       *string `json:"text,omitempty"`
	Style      *string `json:"style,omitempty"`
	Position   *string `json:"position,omitempty"`
	Color      *string `json:"color,omitempty"`
	FontSize   *int    `json:"fontSize,omitempty"`
	FontWeight *int    `json:"fontWeight,omitempty"`
	FontFamily *string `json:"fontFamily,omitempty"`
}

// manifestChanges is the direct patch an LLM may return next to its
// actions. Script is accepted but ignored; it is always derived from
// captions.
type manifestChanges struct {
	Captions    []captionPatch `json:"captions,omitempty"`
	MusicVolume *float64       `json:"musicVolume,omitempty"`
	VoiceVolume *float64       `json:"voiceVolume,omitempty"`
	Script      *string        `json:"script,omitempty"`
}

func (c *manifestChanges) empty() bool {
	return c == nil || (len(c.Captions) == 0 && c.MusicVolume == nil && c.VoiceVolume == nil)
}

func (c *manifestChanges) validate() error {
	if c == nil {
		return nil
	}
	if c.MusicVolume != nil || c.VoiceVolume != nil {
		if err := validateVolumes(c.MusicVolume, c.VoiceVolume); err != nil {
			return err
		}
	}
	for i, p := range c.Captions {
		if p.Style != nil && !theme.IsTextStyle(*p.Style) {
			return fmt.Errorf("caption %d: unknown style %q", i, *p.Style)
		}
		if p.Color != nil && !hexColor.MatchString(*p.Color) {
			return fmt.Errorf("caption %d: color %q is not a hex color", i, *p.Color)
		}
	}
	return nil
}

// response is the only shape accepted from the model.
type response struct {
	Actions         []Action         `json:"actions"`
	ManifestChanges *manifestChanges `json:"manifestChanges,omitempty"`
}
