package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-irradiance-tracer/pkg/config"
	"github.com/df07/go-irradiance-tracer/pkg/core"
	"github.com/df07/go-irradiance-tracer/pkg/renderer"
	"github.com/df07/go-irradiance-tracer/pkg/scene"
	"github.com/muesli/termenv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run parses args, renders, and writes the image. Flags override values
// from the configuration file.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("irradiance-tracer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "TOML render configuration file")
	sceneName := fs.String("scene", "", "Scene id from -list, or a .yaml scene file")
	list := fs.Bool("list", false, "List the available scenes and exit")
	output := fs.String("out", "", "Output image (.png, .bmp or .tiff)")
	width := fs.Int("width", 0, "Image width")
	height := fs.Int("height", 0, "Image height")
	samples := fs.Int("samples", 0, "Stratified samples per pixel axis")
	bounces := fs.Int("bounces", -1, "Indirect bounces")
	workers := fs.Int("workers", -1, "Worker goroutines (0 = CPU count)")
	debug := fs.Bool("debug", false, "Verbose logging")
	quiet := fs.Bool("quiet", false, "No progress line")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *list {
		return listScenes(stdout)
	}

	file := config.Default()
	if *configPath != "" {
		var err error
		if file, err = config.LoadFile(*configPath); err != nil {
			return err
		}
	}

	// Explicit flags win over the file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scene":
			file.Scene = *sceneName
		case "out":
			file.Output = *output
		case "width":
			file.Image.Width = *width
		case "height":
			file.Image.Height = *height
		case "samples":
			file.Image.SamplesX, file.Image.SamplesY = *samples, *samples
		case "bounces":
			file.Render.Bounces = *bounces
		case "workers":
			file.Render.Workers = *workers
		}
	})
	if err := file.Validate(); err != nil {
		return err
	}

	logger := core.NewDefaultLogger(stderr, *debug)
	desc, err := createScene(file.Scene)
	if err != nil {
		return err
	}
	flat, err := desc.Flatten()
	if err != nil {
		return fmt.Errorf("flatten scene: %w", err)
	}

	cfg := file.RenderConfig()
	pt, err := renderer.NewPathTracer(flat, cfg, logger)
	if err != nil {
		return err
	}
	counts := flat.Counts()
	logger.Infof("scene %s: %d instances of %d meshes, %d triangles, %d lights",
		desc.Name, counts.Instances, counts.Meshes, counts.Triangles, counts.Lights)

	sink, err := renderer.NewFileSink(file.Output)
	if err != nil {
		return err
	}

	camera := scene.NewCamera(desc.Camera, float64(cfg.Width)/float64(cfg.Height))
	out := termenv.NewOutput(stdout)

	stopMonitor := func() {}
	if !*quiet {
		stopMonitor = monitorProgress(out, pt, 250*time.Millisecond)
	}
	result, err := pt.Render(ctx, camera)
	stopMonitor()
	if err != nil {
		return err
	}

	if err := sink.Write(result.Image); err != nil {
		return err
	}

	s := result.Stats
	fmt.Fprintf(stdout, "%s %s in %v (cache pass %v, final pass %v)\n",
		out.String("rendered").Foreground(termenv.ANSIGreen).Bold(),
		file.Output, s.TotalTime.Round(time.Millisecond),
		s.CachePassTime.Round(time.Millisecond), s.FinalPassTime.Round(time.Millisecond))
	fmt.Fprintf(stdout, "%d records (%d degenerate), cache hit rate %.1f%%\n",
		s.Records, s.DegenerateRecords, 100*s.HitRate())
	return nil
}

// scenesDir holds the YAML scenes reachable by "file:" ids
const scenesDir = "scenes"

// createScene loads a YAML scene file or resolves a scene id
func createScene(name string) (*scene.Description, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return scene.LoadFile(name)
	}
	return scene.Open(name, scenesDir)
}

func listScenes(w io.Writer) error {
	scenes, err := scene.ListScenes(scenesDir)
	if err != nil {
		return err
	}
	out := termenv.NewOutput(w)
	for _, s := range scenes {
		fmt.Fprintf(w, "%-20s %s\n", out.String(s.ID).Bold(), s.Description)
	}
	return nil
}

// monitorProgress redraws a progress line until the returned stop
// function is called
func monitorProgress(out *termenv.Output, pt *renderer.PathTracer, interval time.Duration) func() {
	done := make(chan struct{})
	finished := make(chan struct{})

	draw := func() {
		pct := out.String(fmt.Sprintf("%5.1f%%", 100*pt.Progress())).Foreground(termenv.ANSICyan)
		fmt.Fprintf(out, "\rrendering %s", pct)
	}

	go func() {
		defer close(finished)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				draw()
				fmt.Fprintln(out)
				return
			case <-ticker.C:
				draw()
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}
