package renderer

import (
	"image"
	"sync/atomic"

	"github.com/df07/go-irradiance-tracer/pkg/core"
	"github.com/df07/go-irradiance-tracer/pkg/irradiance"
	"github.com/df07/go-irradiance-tracer/pkg/scene"
	"github.com/google/uuid"
)

// Render passes
const (
	CachePass = 1
	FinalPass = 2
)

// RenderContext is the state of one render invocation, shared read-only by
// its tile tasks except for the progress counter
type RenderContext struct {
	ID     uuid.UUID
	Scene  *scene.FlatScene
	Camera *scene.Camera
	Config Config
	Logger core.Logger

	// Cache is written only between the passes and frozen during the final pass
	Cache  *irradiance.Cache
	Output *image.RGBA

	weight    irradiance.WeightFunc
	completed atomic.Int64
	total     int64
}

func newRenderContext(fs *scene.FlatScene, camera *scene.Camera, config Config, out *image.RGBA, logger core.Logger) *RenderContext {
	weight, _ := weightFunc(config.Weight)
	cw, ch := config.cacheResolution()

	capacity := config.RecordCapacity
	if capacity <= 0 {
		capacity = cw * ch
	}
	cache := irradiance.NewCache(capacity, config.OctreeNodeCapacity)
	cache.Init(fs.Bounds())

	return &RenderContext{
		ID:     uuid.New(),
		Scene:  fs,
		Camera: camera,
		Config: config,
		Logger: logger,
		Cache:  cache,
		Output: out,
		weight: weight,
		total:  int64(cw*ch) + int64(config.Width*config.Height*config.SamplesX*config.SamplesY),
	}
}

// addProgress records finished samples
func (rc *RenderContext) addProgress(samples int) {
	rc.completed.Add(int64(samples))
}

// Progress returns the completed share of all samples of both passes
func (rc *RenderContext) Progress() float64 {
	if rc.total == 0 {
		return 1
	}
	return float64(rc.completed.Load()) / float64(rc.total)
}

// newTileCache creates the private cache a cache pass tile writes into
func (rc *RenderContext) newTileCache(tile *Tile) *irradiance.Cache {
	cache := irradiance.NewCache(tile.Bounds.Dx()*tile.Bounds.Dy(), 0)
	cache.Init(rc.Scene.Bounds())
	return cache
}
