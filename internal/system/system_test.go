package system

import (
	"errors"
	"image"
	"testing"
)

type fakeProbe struct {
	cpus   int
	avail  uint64
	cpuErr error
}

func (f fakeProbe) LogicalCPUs() (int, error)        { return f.cpus, f.cpuErr }
func (f fakeProbe) AvailableMemory() (uint64, error) { return f.avail, nil }

func TestRecommendedWorkers(t *testing.T) {
	frame := FrameBytes(1080, 1920) * 4

	tests := []struct {
		name  string
		probe fakeProbe
		want  int
	}{
		{"cpu bound", fakeProbe{cpus: 8, avail: frame * 100}, 8},
		{"memory bound", fakeProbe{cpus: 8, avail: frame * 3}, 3},
		{"never zero", fakeProbe{cpus: 8, avail: 10}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RecommendedWorkers(tt.probe, 1080, 1920); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}

	if got := RecommendedWorkers(fakeProbe{cpuErr: errors.New("no cpu info")}, 1080, 1920); got < 1 {
		t.Errorf("fallback worker count = %d", got)
	}
}

func TestImagePoolReturnsClearedBuffers(t *testing.T) {
	p := NewImagePool()
	rect := image.Rect(0, 0, 4, 4)

	img := p.Get(rect)
	img.Pix[0] = 200
	p.Put(img)

	again := p.Get(rect)
	if again.Rect != rect {
		t.Fatalf("rect = %v", again.Rect)
	}
	if again.Pix[0] != 0 {
		t.Error("pooled buffer was not cleared")
	}
}
