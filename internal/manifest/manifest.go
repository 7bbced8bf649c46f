package manifest

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/promoreel/internal/theme"
)

// Caption positions
const (
	PositionTop    = "top"
	PositionCenter = "center"
	PositionBottom = "bottom"
)

// Clip media types
const (
	ClipVideo = "video"
	ClipImage = "image"
)

// Defaults for a new 9:16 short
const (
	DefaultFPS         = 30
	DefaultWidth       = 1080
	DefaultHeight      = 1920
	DefaultDuration    = 450 // 15s
	DefaultMusicVolume = 0.3
	DefaultVoiceVolume = 1.0
)

// VideoManifest is the complete, versioned description of one video.
// It is passed by value; edits produce a new value with Version+1.
type VideoManifest struct {
	ID               string       `json:"id" yaml:"id"`
	Version          int          `json:"version" yaml:"version"`
	Script           string       `json:"script" yaml:"script"`
	Captions         []Caption    `json:"captions" yaml:"captions"`
	Clips            []Clip       `json:"clips" yaml:"clips"`
	Product          Product      `json:"product" yaml:"product"`
	AudioURL         string       `json:"audioUrl,omitempty" yaml:"audioUrl,omitempty"`
	MusicURL         string       `json:"musicUrl,omitempty" yaml:"musicUrl,omitempty"`
	MusicVolume      float64      `json:"musicVolume" yaml:"musicVolume"`
	VoiceVolume      float64      `json:"voiceVolume" yaml:"voiceVolume"`
	Theme            *theme.Theme `json:"theme,omitempty" yaml:"theme,omitempty"`
	VideoIndex       *VideoIndex  `json:"videoIndex,omitempty" yaml:"videoIndex,omitempty"`
	FPS              int          `json:"fps" yaml:"fps"`
	DurationInFrames int          `json:"durationInFrames" yaml:"durationInFrames"`
	Width            int          `json:"width" yaml:"width"`
	Height           int          `json:"height" yaml:"height"`
	CreatedAt        time.Time    `json:"createdAt" yaml:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt" yaml:"updatedAt"`
}

// Caption is a timed text overlay over [StartFrame, EndFrame).
// Zero-valued override fields mean "not set".
type Caption struct {
	StartFrame int    `json:"startFrame" yaml:"startFrame"`
	EndFrame   int    `json:"endFrame" yaml:"endFrame"`
	Text       string `json:"text" yaml:"text"`
	Style      string `json:"style" yaml:"style"`
	Position   string `json:"position,omitempty" yaml:"position,omitempty"`
	Color      string `json:"color,omitempty" yaml:"color,omitempty"`
	FontSize   int    `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	FontWeight int    `json:"fontWeight,omitempty" yaml:"fontWeight,omitempty"`
	FontFamily string `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty"`
}

// Clip is a background media reference active over [StartFrame, StartFrame+Duration).
type Clip struct {
	StartFrame      int      `json:"startFrame" yaml:"startFrame"`
	Duration        int      `json:"duration" yaml:"duration"`
	Type            string   `json:"type" yaml:"type"`
	URL             string   `json:"url" yaml:"url"`
	SourceStartTime float64  `json:"sourceStartTime" yaml:"sourceStartTime"` // seconds, video only
	SourceEndTime   *float64 `json:"sourceEndTime,omitempty" yaml:"sourceEndTime,omitempty"`
	Label           string   `json:"label,omitempty" yaml:"label,omitempty"`
	Transition      string   `json:"transition,omitempty" yaml:"transition,omitempty"`
}

// Product is the end-card data.
type Product struct {
	Title       string   `json:"title" yaml:"title"`
	Price       string   `json:"price" yaml:"price"`
	Image       string   `json:"image" yaml:"image"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	URL         string   `json:"url,omitempty" yaml:"url,omitempty"`
	VideoURL    string   `json:"videoUrl,omitempty" yaml:"videoUrl,omitempty"`
	Images      []string `json:"images,omitempty" yaml:"images,omitempty"`
}

// VideoIndex is a labeled segment index over a source video.
type VideoIndex struct {
	VideoID   string    `json:"videoId" yaml:"videoId"`
	SourceURL string    `json:"sourceUrl" yaml:"sourceUrl"`
	Segments  []Segment `json:"segments" yaml:"segments"`
}

// Segment is a labeled time range (seconds) in a source video.
type Segment struct {
	Label       string  `json:"label" yaml:"label"`
	StartTime   float64 `json:"startTime" yaml:"startTime"`
	EndTime     float64 `json:"endTime" yaml:"endTime"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
}

// EndFrame returns the exclusive end frame of the clip.
func (c Clip) EndFrame() int {
	return c.StartFrame + c.Duration
}

// Active reports whether the clip covers frame.
func (c Clip) Active(frame int) bool {
	return frame >= c.StartFrame && frame < c.EndFrame()
}

// Active reports whether the caption is visible at frame.
func (c Caption) Active(frame int) bool {
	return frame >= c.StartFrame && frame < c.EndFrame
}

// New builds a version 1 manifest with default dimensions.
func New(product Product, now time.Time) VideoManifest {
	return VideoManifest{
		ID:               uuid.NewString(),
		Version:          1,
		Product:          product,
		MusicVolume:      DefaultMusicVolume,
		VoiceVolume:      DefaultVoiceVolume,
		FPS:              DefaultFPS,
		DurationInFrames: DefaultDuration,
		Width:            DefaultWidth,
		Height:           DefaultHeight,
		CreatedAt:        now.UTC(),
		UpdatedAt:        now.UTC(),
	}
}

// ActiveTheme returns the manifest theme or the registry default.
func (m VideoManifest) ActiveTheme() theme.Theme {
	if m.Theme != nil {
		return *m.Theme
	}
	return theme.Default()
}

// Clone returns a deep copy that shares no slices or pointers with m.
func (m VideoManifest) Clone() VideoManifest {
	out := m
	if m.Captions != nil {
		out.Captions = make([]Caption, len(m.Captions))
		copy(out.Captions, m.Captions)
	}
	if m.Clips != nil {
		out.Clips = make([]Clip, len(m.Clips))
		for i, c := range m.Clips {
			if c.SourceEndTime != nil {
				v := *c.SourceEndTime
				c.SourceEndTime = &v
			}
			out.Clips[i] = c
		}
	}
	if m.Product.Images != nil {
		out.Product.Images = append([]string(nil), m.Product.Images...)
	}
	if m.Theme != nil {
		t := *m.Theme
		out.Theme = &t
	}
	if m.VideoIndex != nil {
		idx := *m.VideoIndex
		idx.Segments = append([]Segment(nil), m.VideoIndex.Segments...)
		out.VideoIndex = &idx
	}
	return out
}

// Touch marks m as the next version. Call it on a clone, never on the input.
func (m *VideoManifest) Touch(now time.Time) {
	m.Version++
	m.UpdatedAt = now.UTC()
}

// DeriveScript joins caption texts with newlines. The script is a view over
// captions and is never edited directly.
func DeriveScript(captions []Caption) string {
	lines := make([]string, len(captions))
	for i, c := range captions {
		lines[i] = c.Text
	}
	return strings.Join(lines, "\n")
}

// Seconds converts a frame count to seconds at the manifest fps.
func (m VideoManifest) Seconds(frames int) float64 {
	if m.FPS <= 0 {
		return 0
	}
	return float64(frames) / float64(m.FPS)
}
