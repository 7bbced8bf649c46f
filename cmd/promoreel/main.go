package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ivlev/promoreel/internal/app"
	"github.com/ivlev/promoreel/internal/config"
	"github.com/ivlev/promoreel/internal/engine"
	"github.com/ivlev/promoreel/internal/logging"
	"github.com/ivlev/promoreel/internal/manifest"
	"github.com/ivlev/promoreel/internal/renderer"
	"github.com/ivlev/promoreel/internal/system"
	"github.com/ivlev/promoreel/internal/theme"
)

// set with -ldflags "-X main.buildVersion=..."
var buildVersion = "dev"

const usage = `promoreel <command> [flags]

Commands:
  generate  scrape a product page and write a new manifest
  edit      apply a natural-language command to a manifest
  render    export every frame of a manifest as PNG
  frame     render a single frame to a PNG file
  themes    list the available themes
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "generate":
		err = runGenerate(ctx, args)
	case "edit":
		err = runEdit(ctx, args)
	case "render":
		err = runRender(ctx, args)
	case "frame":
		err = runFrame(ctx, args)
	case "themes":
		for _, t := range theme.All() {
			fmt.Printf("%-8s %s (clip %d frames, text %s)\n", t.ID, t.Name, t.ClipDuration, t.TextAnimation)
		}
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Print(usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("[-] %s: %v", cmd, err)
	}
}

// commonFlags registers the flags every subcommand shares.
type commonFlags struct {
	config  *string
	verbose *bool
}

func newFlagSet(name string) (*flag.FlagSet, commonFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return fs, commonFlags{
		config:  fs.String("config", "", "Path to config YAML (default: ./promoreel.yaml, ./config.yaml, ~/.promoreel/config.yaml)"),
		verbose: fs.Bool("v", false, "Debug logging"),
	}
}

func setup(ctx context.Context, cf commonFlags) (*app.App, error) {
	cfg, err := config.Load(*cf.config)
	if err != nil {
		return nil, err
	}
	cfg.BuildVersion = buildVersion
	if *cf.verbose {
		cfg.Verbose = true
	}
	logging.Init(logging.Options{Verbose: cfg.Verbose})
	return app.New(ctx, cfg)
}

// manifestPath falls back to the newest manifest in the configured dir.
func manifestPath(path string, cfg *config.Config) (string, error) {
	if path != "" {
		return path, nil
	}
	latest, err := manifest.FindLatest(cfg.ManifestDir)
	if err != nil {
		return "", err
	}
	fmt.Printf("[*] Using manifest: %s\n", latest)
	return latest, nil
}

func runGenerate(ctx context.Context, args []string) error {
	fs, cf := newFlagSet("generate")
	url := fs.String("url", "", "Product page URL (required)")
	style := fs.String("style", "", "Theme: "+strings.Join(theme.IDs(), ", ")+" (default: "+theme.Default().ID+")")
	out := fs.String("out", "", "Manifest path, .json or .yaml (default: timestamped file in the manifest dir)")
	fs.Parse(args)

	if *url == "" {
		return fmt.Errorf("-url is required")
	}
	if *style != "" {
		if _, ok := theme.Lookup(*style); !ok {
			return fmt.Errorf("unknown style %q", *style)
		}
	}

	a, err := setup(ctx, cf)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("[*] Generating from %s\n", *url)
	m, err := a.Pipeline.Run(ctx, *url, *style)
	if err != nil {
		return err
	}
	if err := a.Store.Save(ctx, m); err != nil {
		return err
	}

	path := *out
	if path == "" {
		if err := os.MkdirAll(a.Config.ManifestDir, 0755); err != nil {
			return err
		}
		path = manifest.GeneratePath(a.Config.ManifestDir, m.ID)
	}
	if err := manifest.Write(m, path); err != nil {
		return err
	}

	fmt.Printf("[*] %q, %d captions, %d clips, %d frames @ %dfps\n",
		m.Product.Title, len(m.Captions), len(m.Clips), m.DurationInFrames, m.FPS)
	fmt.Printf("[+++] Manifest %s written to %s\n", m.ID, path)
	return nil
}

func runEdit(ctx context.Context, args []string) error {
	fs, cf := newFlagSet("edit")
	in := fs.String("manifest", "", "Manifest file (default: newest in the manifest dir)")
	command := fs.String("command", "", "Instruction, e.g. \"make it luxurious\" (or pass it as arguments)")
	out := fs.String("out", "", "Where to write the result (default: overwrite -manifest)")
	fs.Parse(args)

	text := *command
	if text == "" {
		text = strings.Join(fs.Args(), " ")
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no command given")
	}

	a, err := setup(ctx, cf)
	if err != nil {
		return err
	}
	defer a.Close()

	path, err := manifestPath(*in, a.Config)
	if err != nil {
		return err
	}
	m, err := manifest.Read(path)
	if err != nil {
		return err
	}

	res := a.Director.Interpret(ctx, text, m)
	for _, act := range res.Actions {
		fmt.Printf("[*] %s %s\n", act.Type, act.Payload)
	}
	fmt.Printf("[*] %s\n", res.Message)

	if res.Manifest.Version == m.Version {
		fmt.Printf("[*] No changes, %s stays at v%d\n", path, m.Version)
		return nil
	}
	if err := a.Store.Save(ctx, res.Manifest); err != nil {
		return err
	}
	dst := *out
	if dst == "" {
		dst = path
	}
	if err := manifest.Write(res.Manifest, dst); err != nil {
		return err
	}
	fmt.Printf("[+++] v%d written to %s\n", res.Manifest.Version, dst)
	return nil
}

func runRender(ctx context.Context, args []string) error {
	fs, cf := newFlagSet("render")
	in := fs.String("manifest", "", "Manifest file (default: newest in the manifest dir)")
	outDir := fs.String("out", "", "Frame directory (default: render.output_dir/<manifest id>)")
	from := fs.Int("from", 0, "First frame")
	to := fs.Int("to", 0, "Stop before this frame (0: end of timeline)")
	workers := fs.Int("workers", 0, "Render workers (0: from config, then sized to CPU and memory)")
	fs.Parse(args)

	a, err := setup(ctx, cf)
	if err != nil {
		return err
	}
	defer a.Close()

	path, err := manifestPath(*in, a.Config)
	if err != nil {
		return err
	}
	m, err := manifest.Read(path)
	if err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	dir := *outDir
	if dir == "" {
		dir = filepath.Join(a.Config.Render.OutputDir, m.ID)
	}
	sink, err := a.Sink(dir, m.ID)
	if err != nil {
		return err
	}
	if a.Blob != nil {
		fmt.Printf("[*] Writing frames to s3://%s\n", a.Blob.Bucket())
	} else {
		fmt.Printf("[*] Writing frames to %s\n", dir)
	}

	n := *workers
	if n <= 0 {
		n = a.Config.Render.Workers
	}
	project := engine.NewProject(a.Loader, sink, n, logging.WithComponent("engine"))
	if a.Config.Render.ShowStats {
		project.Progress = func(done, total int) {
			if done%m.FPS == 0 || done == total {
				fmt.Printf("\r[*] %d/%d frames", done, total)
			}
		}
	}

	stats, err := project.Export(ctx, m, *from, *to)
	if a.Config.Render.ShowStats {
		fmt.Println()
	}
	if err != nil {
		return err
	}

	if a.Config.Render.ShowStats {
		fmt.Print(stats.Report(buildVersion))
	}
	if a.Config.Render.BenchmarkLog != "" {
		if err := engine.AppendBenchmarkLog(a.Config.Render.BenchmarkLog, buildVersion, m, stats); err != nil {
			fmt.Printf("[!] Benchmark log: %v\n", err)
		}
	}
	fmt.Printf("[+++] %d frames rendered in %.2fs\n", stats.Frames, stats.Elapsed.Seconds())
	return nil
}

func runFrame(ctx context.Context, args []string) error {
	fs, cf := newFlagSet("frame")
	in := fs.String("manifest", "", "Manifest file (default: newest in the manifest dir)")
	frame := fs.Int("frame", 0, "Frame number")
	out := fs.String("out", "", "PNG path (default: frame_<n>.png)")
	fs.Parse(args)

	a, err := setup(ctx, cf)
	if err != nil {
		return err
	}
	defer a.Close()

	path, err := manifestPath(*in, a.Config)
	if err != nil {
		return err
	}
	m, err := manifest.Read(path)
	if err != nil {
		return err
	}
	if *frame < 0 || *frame >= m.DurationInFrames {
		return fmt.Errorf("frame %d outside [0, %d)", *frame, m.DurationInFrames)
	}

	img, err := renderer.Rasterize(ctx, renderer.Render(m, *frame), a.Loader)
	if err != nil {
		return err
	}
	defer system.PutImage(img)

	dst := *out
	if dst == "" {
		dst = fmt.Sprintf("frame_%05d.png", *frame)
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("[+++] Frame %d written to %s\n", *frame, dst)
	return nil
}
