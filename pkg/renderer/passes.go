package renderer

import (
	"math"

	"github.com/df07/go-irradiance-tracer/pkg/core"
)

// renderCacheTile runs the cache pass over one tile. Every primary hit
// goes through the interpolation fallback, which fills the tile's private
// cache. No pixels are written.
func (rc *RenderContext) renderCacheTile(task TileTask) TileResult {
	cw, ch := rc.Config.cacheResolution()
	cache := rc.newTileCache(task.Tile)
	stats := TileStats{}
	s := &shader{
		rc:      rc,
		cache:   cache,
		sampler: core.NewRandomSampler(task.Tile.Random),
		insert:  true,
		stats:   &stats,
		debug:   &tileDebug{},
	}

	bounds := task.Tile.Bounds
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			jitter := s.sampler.Get2D()
			ray := rc.Camera.Ray((float64(x)+jitter.X)/float64(cw), (float64(y)+jitter.Y)/float64(ch))
			info := rc.Scene.Trace(ray)
			stats.Samples++

			if info.Hit() && rc.Camera.InRange(info.T) {
				surf := rc.Scene.SurfaceAt(ray, info)
				s.debug.hits = append(s.debug.hits, surf.Point)
				s.approximateDiffuseInterreflection(surf.Point, surf.Normal, rc.Config.ErrorTolerance)
			}
			rc.addProgress(1)
		}
	}

	return TileResult{TaskID: task.TaskID, Stats: stats, Cache: cache, Debug: *s.debug}
}

// renderFinalTile shades one tile of the final image against the frozen
// cache and writes its pixels
func (rc *RenderContext) renderFinalTile(task TileTask) TileResult {
	cfg := rc.Config
	stats := TileStats{}
	s := &shader{
		rc:      rc,
		cache:   rc.Cache,
		sampler: core.NewRandomSampler(task.Tile.Random),
		stats:   &stats,
	}
	tolerance := cfg.ErrorTolerance * cfg.SmoothFactor
	samplesPerPixel := cfg.SamplesX * cfg.SamplesY

	bounds := task.Tile.Bounds
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var pixel PixelStats
			for sy := 0; sy < cfg.SamplesY; sy++ {
				for sx := 0; sx < cfg.SamplesX; sx++ {
					jitter := s.sampler.Get2D()
					u := (float64(x) + (float64(sx)+jitter.X)/float64(cfg.SamplesX)) / float64(cfg.Width)
					v := (float64(y) + (float64(sy)+jitter.Y)/float64(cfg.SamplesY)) / float64(cfg.Height)
					pixel.AddSample(s.finalSample(rc.Camera.Ray(u, v), tolerance))
				}
			}
			stats.Samples += samplesPerPixel
			rc.Output.SetRGBA(x, y, vec3ToColor(pixel.GetColor()))
			rc.addProgress(samplesPerPixel)
		}
	}
	return TileResult{TaskID: task.TaskID, Stats: stats}
}

// finalSample is the radiance of one primary ray of the final pass:
// direct light plus albedo/pi times the cached irradiance, sky on a miss
func (s *shader) finalSample(ray core.Ray, tolerance float64) core.Vec3 {
	info := s.rc.Scene.Trace(ray)
	if !info.Hit() || !s.rc.Camera.InRange(info.T) {
		s.stats.PrimaryMisses++
		return s.rc.Scene.SkyColor
	}

	surf := s.rc.Scene.SurfaceAt(ray, info)
	e := s.approximateDiffuseInterreflection(surf.Point, surf.Normal, tolerance)
	return s.lightsTerm(surf).Add(surf.Albedo.MultiplyVec(e).Multiply(1 / math.Pi))
}
