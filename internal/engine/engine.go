package engine

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/promoreel/internal/manifest"
	"github.com/ivlev/promoreel/internal/renderer"
	"github.com/ivlev/promoreel/internal/source"
	"github.com/ivlev/promoreel/internal/system"
)

// Project exports the frames of one manifest. Frames are independent, so
// workers take them in any order.
type Project struct {
	Loader   source.Loader
	Sink     Sink
	Workers  int
	Progress func(done, total int)
	Log      zerolog.Logger
}

func NewProject(loader source.Loader, sink Sink, workers int, log zerolog.Logger) *Project {
	return &Project{Loader: loader, Sink: sink, Workers: workers, Log: log}
}

// Stats summarize an export run.
type Stats struct {
	Frames  int
	Elapsed time.Duration
}

// FPS is the effective export rate.
func (s Stats) FPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Elapsed.Seconds()
}

// Report formats the run the way the CLI prints it.
func (s Stats) Report(build string) string {
	return fmt.Sprintf(
		"--- [EXPORT REPORT] ---\n"+
			"Build: %s\n"+
			"Frames: %d\n"+
			"Total Time: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"-----------------------\n",
		build, s.Frames, s.Elapsed.Seconds(), s.FPS(),
	)
}

// AppendBenchmarkLog appends one line per run to path.
func AppendBenchmarkLog(path, build string, m manifest.VideoManifest, s Stats) error {
	entry := fmt.Sprintf("[%s] Build: %s | Manifest: %s v%d | Frames: %d | Total: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		build, m.ID, m.Version, s.Frames, s.Elapsed.Seconds(), s.FPS(),
	)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(entry)
	return err
}

// Export renders frames [from, to) and writes each to the sink. to <= 0
// means the end of the timeline. The first failure cancels the rest.
func (p *Project) Export(ctx context.Context, m manifest.VideoManifest, from, to int) (Stats, error) {
	if to <= 0 || to > m.DurationInFrames {
		to = m.DurationInFrames
	}
	if from < 0 {
		from = 0
	}
	total := to - from
	if total <= 0 {
		return Stats{}, fmt.Errorf("empty frame range [%d, %d)", from, to)
	}

	workers := p.Workers
	if workers <= 0 {
		workers = system.RecommendedWorkers(system.HostProbe{}, m.Width, m.Height)
	}
	if workers > total {
		workers = total
	}

	p.Log.Info().
		Str("manifest", m.ID).
		Int("version", m.Version).
		Int("frames", total).
		Int("workers", workers).
		Msg("export started")

	start := time.Now()
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for f := from; f < to; f++ {
		f := f // per-iteration copy; go directive is below 1.22
		g.Go(func() error {
			scene := renderer.Render(m, f)
			img, err := renderer.Rasterize(gctx, scene, p.Loader)
			if err != nil {
				return fmt.Errorf("frame %d: %w", f, err)
			}
			defer system.PutImage(img)

			if err := p.Sink.WriteFrame(gctx, f, img); err != nil {
				return fmt.Errorf("frame %d: %w", f, err)
			}

			n := int(done.Add(1))
			if p.Progress != nil {
				p.Progress(n, total)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.Log.Error().Err(err).Int("written", int(done.Load())).Msg("export failed")
		return Stats{Frames: int(done.Load()), Elapsed: time.Since(start)}, err
	}

	stats := Stats{Frames: total, Elapsed: time.Since(start)}
	p.Log.Info().Dur("elapsed", stats.Elapsed).Float64("fps", stats.FPS()).Msg("export finished")
	return stats, nil
}
