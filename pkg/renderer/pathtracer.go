package renderer

import (
	"context"
	"fmt"
	"image"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/df07/go-irradiance-tracer/pkg/core"
	"github.com/df07/go-irradiance-tracer/pkg/scene"
	"github.com/google/uuid"
)

// finalPassSeedOffset keeps the tile random streams of the two passes apart
const finalPassSeedOffset = 1_000_003

// Result is a finished render
type Result struct {
	ID    uuid.UUID
	Image *image.RGBA
	Stats RenderStats
	Debug *DebugData
}

// PathTracer renders a flattened scene with an irradiance cache in two
// passes. One render runs at a time.
type PathTracer struct {
	scene  *scene.FlatScene
	config Config
	logger core.Logger

	busy    atomic.Bool
	current atomic.Pointer[RenderContext]

	mu   sync.Mutex
	last *Result
}

// NewPathTracer validates config and prepares the scene accelerators
func NewPathTracer(fs *scene.FlatScene, config Config, logger core.Logger) (*PathTracer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid render config: %w", err)
	}
	if logger == nil {
		logger = core.NopLogger()
	}

	for _, inst := range fs.Instances {
		if inst.BVH() == nil {
			fs.BuildAccelerators(rand.New(rand.NewSource(config.Seed)))
			break
		}
	}

	return &PathTracer{scene: fs, config: config, logger: logger}, nil
}

// Config returns the render configuration
func (pt *PathTracer) Config() Config {
	return pt.config
}

// Busy reports whether a render is running
func (pt *PathTracer) Busy() bool {
	return pt.busy.Load()
}

// Progress returns the completed share of the current or last render, in
// [0, 1]; 0 before the first render
func (pt *PathTracer) Progress() float64 {
	rc := pt.current.Load()
	if rc == nil {
		return 0
	}
	return rc.Progress()
}

// Trace casts a world space ray against the scene
func (pt *PathTracer) Trace(ray core.Ray) scene.RayCastInfo {
	return pt.scene.Trace(ray)
}

// DebugData returns the debug bundle of the last finished render, nil
// before the first one
func (pt *PathTracer) DebugData() *DebugData {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if pt.last == nil {
		return nil
	}
	return pt.last.Debug
}

// Render runs both passes and blocks until the image is done. The context
// is checked between passes only.
func (pt *PathTracer) Render(ctx context.Context, camera *scene.Camera) (*Result, error) {
	if !pt.busy.CompareAndSwap(false, true) {
		return nil, core.ErrBusy
	}
	defer pt.busy.Store(false)

	out := image.NewRGBA(image.Rect(0, 0, pt.config.Width, pt.config.Height))
	return pt.render(ctx, pt.start(camera, out))
}

// RenderScene starts a render into out and returns immediately. out must
// be a Width x Height image anchored at the origin. onFinish is called
// from the render goroutine once both passes are done; Busy reports false
// by then.
func (pt *PathTracer) RenderScene(camera *scene.Camera, out *image.RGBA, onFinish func(*Result, error)) error {
	b := out.Bounds()
	if b.Dx() != pt.config.Width || b.Dy() != pt.config.Height {
		return fmt.Errorf("output is %dx%d, render is %dx%d", b.Dx(), b.Dy(), pt.config.Width, pt.config.Height)
	}
	if b.Min != (image.Point{}) {
		return fmt.Errorf("output origin is %v, want (0,0)", b.Min)
	}
	if !pt.busy.CompareAndSwap(false, true) {
		return core.ErrBusy
	}

	// Progress reads the new render from here on
	rc := pt.start(camera, out)
	go func() {
		result, err := pt.render(context.Background(), rc)
		pt.busy.Store(false)
		if onFinish != nil {
			onFinish(result, err)
		}
	}()
	return nil
}

// start publishes a fresh render context, so Progress restarts at zero
func (pt *PathTracer) start(camera *scene.Camera, out *image.RGBA) *RenderContext {
	rc := newRenderContext(pt.scene, camera, pt.config, out, pt.logger)
	pt.current.Store(rc)
	return rc
}

func (pt *PathTracer) render(ctx context.Context, rc *RenderContext) (*Result, error) {
	cfg := pt.config
	out := rc.Output

	cw, ch := cfg.cacheResolution()
	cacheTiles := NewTileGrid(cw, ch, cfg.TileSize, cfg.Seed)
	finalTiles := NewTileGrid(cfg.Width, cfg.Height, cfg.TileSize, cfg.Seed+finalPassSeedOffset)

	pool := NewWorkerPool(rc, cfg.workers(), max(len(cacheTiles), len(finalTiles)))
	pool.Start()
	defer pool.Stop()

	stats := RenderStats{
		Width:       cfg.Width,
		Height:      cfg.Height,
		CacheWidth:  cw,
		CacheHeight: ch,
		Workers:     pool.GetNumWorkers(),
		Tiles:       len(finalTiles),
	}
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pt.logger.Infof("render %s: cache pass %dx%d, %d tiles on %d workers",
		rc.ID, cw, ch, len(cacheTiles), pool.GetNumWorkers())

	cacheResults := pool.RunPass(CachePass, cacheTiles)
	for _, r := range cacheResults {
		stats.CachePassTotals.Add(r.Stats)
		if err := rc.Cache.Merge(r.Cache); err != nil {
			pt.logger.Debugf("render %s: merge tile %d: %v", rc.ID, r.TaskID, err)
		}
	}
	rc.Cache.Freeze()
	stats.Records = stats.CachePassTotals.Records
	stats.DegenerateRecords = stats.CachePassTotals.Degenerate
	stats.CachePassTime = time.Since(start)
	pt.logger.Infof("render %s: cache pass done in %v, %d records (%d degenerate), %d octree nodes",
		rc.ID, stats.CachePassTime, rc.Cache.Len(), stats.DegenerateRecords, rc.Cache.Octree().Len())

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	finalStart := time.Now()
	for _, r := range pool.RunPass(FinalPass, finalTiles) {
		stats.FinalPassTotals.Add(r.Stats)
	}
	stats.CacheHits = stats.FinalPassTotals.CacheHits
	stats.CacheMisses = stats.FinalPassTotals.CacheMisses
	stats.PrimaryMisses = stats.FinalPassTotals.PrimaryMisses
	stats.FinalPassTime = time.Since(finalStart)
	stats.TotalTime = time.Since(start)
	pt.logger.Infof("render %s: final pass done in %v, cache hit rate %.1f%%",
		rc.ID, stats.FinalPassTime, 100*stats.HitRate())

	result := &Result{
		ID:    rc.ID,
		Image: out,
		Stats: stats,
		Debug: mergeDebug(rc.ID.String(), cacheResults, rc.Cache.Octree().Bounds()),
	}
	pt.mu.Lock()
	pt.last = result
	pt.mu.Unlock()
	return result, nil
}
