package edit

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ivlev/promoreel/internal/manifest"
	"github.com/ivlev/promoreel/internal/theme"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testEditor() *Editor {
	return &Editor{Now: func() time.Time { return fixedNow }}
}

func testManifest() manifest.VideoManifest {
	m := manifest.New(manifest.Product{Title: "Lamp", Price: "$10", Image: "lamp.png"}, fixedNow.Add(-time.Hour))
	m.DurationInFrames = 300
	m.Captions = []manifest.Caption{
		{StartFrame: 0, EndFrame: 100, Text: "A", Style: theme.StyleImpact, Color: "#123456"},
		{StartFrame: 100, EndFrame: 200, Text: "B", Style: theme.StyleImpact},
	}
	m.Clips = []manifest.Clip{
		{StartFrame: 0, Duration: 100, Type: manifest.ClipImage, URL: "a.png"},
		{StartFrame: 100, Duration: 100, Type: manifest.ClipImage, URL: "b.png"},
		{StartFrame: 200, Duration: 100, Type: manifest.ClipImage, URL: "c.png", Transition: theme.TransitionZoom},
	}
	m.Script = manifest.DeriveScript(m.Captions)
	return m
}

func TestApplyTheme(t *testing.T) {
	e := testEditor()
	m := testManifest()
	before := m.Clone()

	out := e.ApplyTheme(m, theme.Luxe)

	if !reflect.DeepEqual(m, before) {
		t.Fatal("input manifest was mutated")
	}
	if out.Version != m.Version+1 {
		t.Errorf("version = %d, want %d", out.Version, m.Version+1)
	}
	if !out.UpdatedAt.Equal(fixedNow) {
		t.Errorf("updatedAt not refreshed: %v", out.UpdatedAt)
	}
	if out.Theme == nil || out.Theme.ID != theme.Luxe {
		t.Fatalf("theme not applied: %+v", out.Theme)
	}
	for i, c := range out.Clips {
		if c.Transition != theme.TransitionFade {
			t.Errorf("clip %d transition = %s, want fade", i, c.Transition)
		}
	}
	for i, c := range out.Captions {
		if c.Style != theme.StyleMinimal {
			t.Errorf("caption %d style = %s, want minimal", i, c.Style)
		}
		if c.Text != m.Captions[i].Text || c.StartFrame != m.Captions[i].StartFrame {
			t.Errorf("caption %d content or timing changed", i)
		}
	}
	if out.Captions[0].Color != "#123456" {
		t.Errorf("override lost on theme change: %q", out.Captions[0].Color)
	}
}

func TestApplyThemeIdempotentInContent(t *testing.T) {
	e := testEditor()
	once := e.ApplyTheme(testManifest(), theme.Minimal)
	twice := e.ApplyTheme(once, theme.Minimal)

	if twice.Version != once.Version+1 {
		t.Errorf("second apply should still bump version")
	}
	if !reflect.DeepEqual(once.Clips, twice.Clips) || !reflect.DeepEqual(once.Captions, twice.Captions) {
		t.Error("applying the same theme twice changed clips or captions")
	}
}

func TestApplyUnknownThemeIsNoop(t *testing.T) {
	m := testManifest()
	out := testEditor().ApplyTheme(m, "vaporwave")
	if !reflect.DeepEqual(out, m) {
		t.Error("unknown theme should return the manifest unchanged")
	}
}

func TestAdjustTiming(t *testing.T) {
	tests := []struct {
		name       string
		target     int
		wantLength int
	}{
		{"target below cap", 30, 30},
		{"target above cap", 500, 100},
		{"exact cap", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testManifest()
			out := testEditor().AdjustTiming(m, tt.target)

			if out.Version != m.Version+1 {
				t.Errorf("version = %d, want %d", out.Version, m.Version+1)
			}
			for i, c := range out.Clips {
				if c.Duration != tt.wantLength {
					t.Errorf("clip %d duration = %d, want %d", i, c.Duration, tt.wantLength)
				}
				if c.StartFrame != i*tt.wantLength {
					t.Errorf("clip %d start = %d, want %d", i, c.StartFrame, i*tt.wantLength)
				}
				if i > 0 && c.StartFrame != out.Clips[i-1].StartFrame+out.Clips[i-1].Duration {
					t.Errorf("clip %d not contiguous with previous", i)
				}
			}
			if m.Clips[0].Duration != 100 {
				t.Error("input clips were modified")
			}
		})
	}
}

func TestAdjustTimingScenario(t *testing.T) {
	out := testEditor().AdjustTiming(testManifest(), 30)
	want := []int{0, 30, 60}
	for i, c := range out.Clips {
		if c.StartFrame != want[i] || c.Duration != 30 {
			t.Errorf("clip %d = [%d,+%d), want [%d,+30)", i, c.StartFrame, c.Duration, want[i])
		}
	}
}

func TestAdjustTimingNoops(t *testing.T) {
	m := testManifest()
	m.Clips = nil
	if out := testEditor().AdjustTiming(m, 30); !reflect.DeepEqual(out, m) {
		t.Error("zero clips should be a no-op")
	}

	m = testManifest()
	if out := testEditor().AdjustTiming(m, 0); !reflect.DeepEqual(out, m) {
		t.Error("non-positive duration should be a no-op")
	}
}

func TestUpdateCaptionText(t *testing.T) {
	m := testManifest()
	out := testEditor().UpdateCaptionText(m, 1, "Brand new")

	if out.Captions[1].Text != "Brand new" {
		t.Errorf("caption text = %q", out.Captions[1].Text)
	}
	if out.Script != "A\nBrand new" {
		t.Errorf("script = %q, want re-derived from captions", out.Script)
	}
	if out.Version != m.Version+1 {
		t.Errorf("version not bumped")
	}
	if m.Captions[1].Text != "B" {
		t.Error("input mutated")
	}
}

func TestUpdateCaptionTextOutOfRange(t *testing.T) {
	m := testManifest()
	for _, idx := range []int{-1, 2, 100} {
		out := testEditor().UpdateCaptionText(m, idx, "nope")
		if !reflect.DeepEqual(out, m) {
			t.Errorf("index %d: manifest changed", idx)
		}
		if out.Version != m.Version {
			t.Errorf("index %d: version bumped", idx)
		}
	}
}

func TestStyleCaptions(t *testing.T) {
	red := "#ff0000"
	size := 80

	m := testManifest()
	out := testEditor().StyleCaptions(m, AllCaptions(), StyleProps{Color: &red})
	for i, c := range out.Captions {
		if c.Color != red {
			t.Errorf("caption %d color = %q", i, c.Color)
		}
	}

	out = testEditor().StyleCaptions(m, CaptionAt(1), StyleProps{FontSize: &size})
	if out.Captions[1].FontSize != 80 {
		t.Errorf("font size not applied")
	}
	if out.Captions[0].FontSize != 0 || out.Captions[0].Color != "#123456" {
		t.Errorf("unselected caption changed: %+v", out.Captions[0])
	}

	if got := testEditor().StyleCaptions(m, CaptionAt(5), StyleProps{FontSize: &size}); !reflect.DeepEqual(got, m) {
		t.Error("out-of-range selector should be a no-op")
	}
	if got := testEditor().StyleCaptions(m, AllCaptions(), StyleProps{}); !reflect.DeepEqual(got, m) {
		t.Error("empty props should be a no-op")
	}
}

func TestSetVolumesClamps(t *testing.T) {
	loud := 3.0
	out := testEditor().SetVolumes(testManifest(), &loud, nil)
	if out.MusicVolume != 1 {
		t.Errorf("music volume = %f, want clamped to 1", out.MusicVolume)
	}
	if out.VoiceVolume != manifest.DefaultVoiceVolume {
		t.Errorf("voice volume changed")
	}
}

func TestSetCaptionPosition(t *testing.T) {
	m := testManifest()
	out := testEditor().SetCaptionPosition(m, AllCaptions(), manifest.PositionTop)
	for _, c := range out.Captions {
		if c.Position != manifest.PositionTop {
			t.Errorf("position = %q", c.Position)
		}
	}
	if got := testEditor().SetCaptionPosition(m, AllCaptions(), "diagonal"); !reflect.DeepEqual(got, m) {
		t.Error("unknown position should be a no-op")
	}
}

func TestSearchVideoSegmentSynthesizesIndex(t *testing.T) {
	m := testManifest()
	m.Product.VideoURL = "https://cdn.example.com/lamp.mp4"

	out, found, seg := testEditor().SearchVideoSegment(m, "REVEAL")
	if !found || seg == nil {
		t.Fatal("expected a match on placeholder index")
	}
	if seg.Label != "product reveal" {
		t.Errorf("label = %q", seg.Label)
	}
	if out.VideoIndex == nil || len(out.VideoIndex.Segments) != 5 {
		t.Fatalf("placeholder index not attached: %+v", out.VideoIndex)
	}
	if out.VideoIndex.Segments[4].EndTime != 10 {
		t.Errorf("index should span the 10s timeline, last end = %f", out.VideoIndex.Segments[4].EndTime)
	}
	if len(out.Clips) != len(m.Clips) {
		t.Error("search must not insert clips")
	}

	again := PlaceholderIndex(m.Product.VideoURL, 10)
	if again.VideoID != out.VideoIndex.VideoID {
		t.Error("placeholder video id should be stable per URL")
	}
}

func TestSearchVideoSegmentPrefersExact(t *testing.T) {
	m := testManifest()
	m.VideoIndex = &manifest.VideoIndex{
		SourceURL: "v.mp4",
		Segments: []manifest.Segment{
			{Label: "close-up of handle", StartTime: 0, EndTime: 1},
			{Label: "Close-up", StartTime: 1, EndTime: 2},
		},
	}

	out, found, seg := testEditor().SearchVideoSegment(m, "close-up")
	if !found || seg.Label != "Close-up" {
		t.Errorf("expected exact label match, got %+v", seg)
	}
	if out.Version != m.Version {
		t.Error("searching an existing index should not bump version")
	}

	_, found, _ = testEditor().SearchVideoSegment(m, "unboxing")
	if found {
		t.Error("unexpected match")
	}
}

func TestSearchWithoutVideo(t *testing.T) {
	m := testManifest()
	out, found, seg := testEditor().SearchVideoSegment(m, "hook")
	if found || seg != nil || !reflect.DeepEqual(out, m) {
		t.Error("no index and no product video should find nothing and change nothing")
	}
}

func TestInsertSegmentClip(t *testing.T) {
	m := testManifest()
	m.Product.VideoURL = "https://cdn.example.com/lamp.mp4"
	m, _, seg := testEditor().SearchVideoSegment(m, "features")

	out := testEditor().InsertSegmentClip(m, *seg, 150)
	c := out.Clips[1]
	if c.Type != manifest.ClipVideo || !strings.HasSuffix(c.URL, "lamp.mp4") {
		t.Errorf("clip not replaced by segment: %+v", c)
	}
	if c.StartFrame != 100 || c.Duration != 100 {
		t.Errorf("replacement should keep the window: %+v", c)
	}
	if c.SourceStartTime != seg.StartTime || c.SourceEndTime == nil || *c.SourceEndTime != seg.EndTime {
		t.Errorf("source times not set: %+v", c)
	}
}

func TestReplaceCaptions(t *testing.T) {
	e := testEditor()
	m := testManifest()

	next := []manifest.Caption{
		{StartFrame: 0, EndFrame: 150, Text: "one", Style: theme.StyleMinimal},
		{StartFrame: 150, EndFrame: 300, Text: "two", Style: theme.StyleMinimal},
		{StartFrame: 200, EndFrame: 250, Text: "three", Style: theme.StyleTypewriter},
	}
	out := e.ReplaceCaptions(m, next)
	if out.Version != m.Version+1 {
		t.Errorf("version = %d", out.Version)
	}
	if out.Script != "one\ntwo\nthree" {
		t.Errorf("script = %q", out.Script)
	}
	next[0].Text = "mutated"
	if out.Captions[0].Text != "one" {
		t.Error("result aliases the argument slice")
	}

	bad := []manifest.Caption{{StartFrame: 0, EndFrame: 400, Text: "late", Style: theme.StyleMinimal}}
	if got := e.ReplaceCaptions(m, bad); !reflect.DeepEqual(got, m) {
		t.Error("captions past the end should be rejected")
	}
}
