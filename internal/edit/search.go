package edit

import (
	"strings"

	"github.com/google/uuid"

	"github.com/ivlev/promoreel/internal/manifest"
)

// placeholderLabels are the segments synthesized for a product video that
// has no real index yet.
var placeholderLabels = []struct {
	label       string
	description string
}{
	{"hook", "Opening shot that grabs attention"},
	{"product reveal", "The product comes into full view"},
	{"features", "Key features demonstrated"},
	{"close-up", "Detail shot of materials and finish"},
	{"call to action", "Closing shot with the product hero"},
}

// PlaceholderIndex splits a product video into evenly sized labeled segments
// spanning the manifest duration. The video id is stable for a given URL.
func PlaceholderIndex(videoURL string, totalSeconds float64) *manifest.VideoIndex {
	if totalSeconds <= 0 {
		totalSeconds = float64(manifest.DefaultDuration) / manifest.DefaultFPS
	}
	step := totalSeconds / float64(len(placeholderLabels))

	idx := &manifest.VideoIndex{
		VideoID:   uuid.NewSHA1(uuid.NameSpaceURL, []byte(videoURL)).String(),
		SourceURL: videoURL,
	}
	for i, p := range placeholderLabels {
		idx.Segments = append(idx.Segments, manifest.Segment{
			Label:       p.label,
			StartTime:   float64(i) * step,
			EndTime:     float64(i+1) * step,
			Description: p.description,
		})
	}
	return idx
}

// SearchVideoSegment finds a labeled segment by case-insensitive substring
// match. An exact label match wins, otherwise the shortest matching label.
// When the manifest has no index but the product has a video, a placeholder
// index is attached first and the returned manifest carries it (and a bumped
// version). Search never inserts clips.
func (e *Editor) SearchVideoSegment(m manifest.VideoManifest, query string) (manifest.VideoManifest, bool, *manifest.Segment) {
	out := m
	if m.VideoIndex == nil {
		if m.Product.VideoURL == "" {
			return m, false, nil
		}
		out = e.next(m)
		out.VideoIndex = PlaceholderIndex(m.Product.VideoURL, m.Seconds(m.DurationInFrames))
	}

	seg, ok := bestSegment(out.VideoIndex.Segments, query)
	if !ok {
		return out, false, nil
	}
	return out, true, &seg
}

func bestSegment(segments []manifest.Segment, query string) (manifest.Segment, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return manifest.Segment{}, false
	}

	best := -1
	for i, s := range segments {
		label := strings.ToLower(s.Label)
		if label == q {
			return s, true
		}
		if strings.Contains(label, q) && (best < 0 || len(label) < len(segments[best].Label)) {
			best = i
		}
	}
	if best < 0 {
		return manifest.Segment{}, false
	}
	return segments[best], true
}

// InsertSegmentClip places a found segment on the clip track at frame. The
// clip covering frame is replaced in place (keeping its window); if no clip
// covers it, a new clip is appended lasting the segment length.
func (e *Editor) InsertSegmentClip(m manifest.VideoManifest, seg manifest.Segment, frame int) manifest.VideoManifest {
	if m.VideoIndex == nil || frame < 0 || frame >= m.DurationInFrames || seg.EndTime <= seg.StartTime {
		return m
	}

	end := seg.EndTime
	clip := manifest.Clip{
		Type:            manifest.ClipVideo,
		URL:             m.VideoIndex.SourceURL,
		SourceStartTime: seg.StartTime,
		SourceEndTime:   &end,
		Label:           seg.Label,
	}

	out := e.next(m)
	for i, c := range out.Clips {
		if c.Active(frame) {
			clip.StartFrame = c.StartFrame
			clip.Duration = c.Duration
			clip.Transition = c.Transition
			out.Clips[i] = clip
			return out
		}
	}

	clip.StartFrame = frame
	clip.Duration = int((seg.EndTime - seg.StartTime) * float64(m.FPS))
	if clip.StartFrame+clip.Duration > m.DurationInFrames {
		clip.Duration = m.DurationInFrames - clip.StartFrame
	}
	if clip.Duration <= 0 {
		return m
	}
	if m.Theme != nil {
		clip.Transition = m.Theme.Transition
	}
	out.Clips = append(out.Clips, clip)
	return out
}

// SearchVideoSegment runs a search on the wall clock.
func SearchVideoSegment(m manifest.VideoManifest, query string) (manifest.VideoManifest, bool, *manifest.Segment) {
	return std.SearchVideoSegment(m, query)
}
