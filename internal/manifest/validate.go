package manifest

import (
	"errors"
	"fmt"

	"github.com/ivlev/promoreel/internal/theme"
)

var (
	ErrInvalidManifest = errors.New("invalid manifest")
)

// Validate checks the manifest invariants and reports every violation.
// Clip overlap is not an error here, see ValidateClips.
func (m VideoManifest) Validate() error {
	var errs []error

	if m.ID == "" {
		errs = append(errs, errors.New("id is empty"))
	}
	if m.Version < 1 {
		errs = append(errs, fmt.Errorf("version %d must be >= 1", m.Version))
	}
	if m.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps %d must be positive", m.FPS))
	}
	if m.DurationInFrames <= 0 {
		errs = append(errs, fmt.Errorf("durationInFrames %d must be positive", m.DurationInFrames))
	}
	if m.Width <= 0 || m.Height <= 0 {
		errs = append(errs, fmt.Errorf("dimensions %dx%d must be positive", m.Width, m.Height))
	}
	if m.MusicVolume < 0 || m.MusicVolume > 1 {
		errs = append(errs, fmt.Errorf("musicVolume %.2f out of [0,1]", m.MusicVolume))
	}
	if m.VoiceVolume < 0 || m.VoiceVolume > 1 {
		errs = append(errs, fmt.Errorf("voiceVolume %.2f out of [0,1]", m.VoiceVolume))
	}

	if err := ValidateCaptions(m.Captions, m.DurationInFrames); err != nil {
		errs = append(errs, err)
	}

	for i, c := range m.Clips {
		if c.Duration <= 0 {
			errs = append(errs, fmt.Errorf("clip %d has non-positive duration %d", i, c.Duration))
		}
		if c.StartFrame < 0 {
			errs = append(errs, fmt.Errorf("clip %d starts at negative frame %d", i, c.StartFrame))
		}
		if c.Type != ClipVideo && c.Type != ClipImage {
			errs = append(errs, fmt.Errorf("clip %d has unknown type %q", i, c.Type))
		}
		if c.Transition != "" && !theme.IsTransition(c.Transition) {
			errs = append(errs, fmt.Errorf("clip %d has unknown transition %q", i, c.Transition))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidManifest, errors.Join(errs...))
}

// ValidateCaptions checks caption windows and styles against a duration.
func ValidateCaptions(captions []Caption, durationInFrames int) error {
	var errs []error
	for i, c := range captions {
		if c.StartFrame < 0 || c.EndFrame > durationInFrames {
			errs = append(errs, fmt.Errorf("caption %d window [%d,%d) outside [0,%d]", i, c.StartFrame, c.EndFrame, durationInFrames))
		}
		if c.EndFrame <= c.StartFrame {
			errs = append(errs, fmt.Errorf("caption %d has invalid range [%d,%d)", i, c.StartFrame, c.EndFrame))
		}
		if !theme.IsTextStyle(c.Style) {
			errs = append(errs, fmt.Errorf("caption %d has unknown style %q", i, c.Style))
		}
		switch c.Position {
		case "", PositionTop, PositionCenter, PositionBottom:
		default:
			errs = append(errs, fmt.Errorf("caption %d has unknown position %q", i, c.Position))
		}
	}
	return errors.Join(errs...)
}

// ValidateClips reports overlapping clip windows. Overlaps still render
// (later clips are drawn on top) so these are warnings, not errors.
func (m VideoManifest) ValidateClips() []string {
	var warnings []string
	for i := 0; i < len(m.Clips); i++ {
		for j := i + 1; j < len(m.Clips); j++ {
			a, b := m.Clips[i], m.Clips[j]
			if a.StartFrame < b.EndFrame() && b.StartFrame < a.EndFrame() {
				warnings = append(warnings, fmt.Sprintf("clips %d and %d overlap ([%d,%d) vs [%d,%d))",
					i, j, a.StartFrame, a.EndFrame(), b.StartFrame, b.EndFrame()))
			}
		}
	}
	return warnings
}
