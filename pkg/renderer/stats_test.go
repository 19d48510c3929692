package renderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/df07/go-irradiance-tracer/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestCalculateAverageLuminance(t *testing.T) {
	// Red, green, blue and black; the luminance weights sum to one so the
	// average is a quarter
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 255, 0, 255})
	img.Set(0, 1, color.RGBA{0, 0, 255, 255})
	img.Set(1, 1, color.RGBA{0, 0, 0, 255})

	assert.InDelta(t, 0.25, CalculateAverageLuminance(img), 1e-4)
}

func TestCalculateAverageLuminance_White(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{255, 255, 255, 255})

	assert.InDelta(t, 1.0, CalculateAverageLuminance(img), 1e-4)
}

func TestCalculateAverageLuminance_Empty(t *testing.T) {
	assert.Zero(t, CalculateAverageLuminance(image.NewRGBA(image.Rectangle{})))
}

func TestPixelStats_Average(t *testing.T) {
	var ps PixelStats
	assert.Equal(t, core.Vec3{}, ps.GetColor())

	ps.AddSample(core.NewVec3(1, 0, 0))
	ps.AddSample(core.NewVec3(0, 1, 0))
	assert.Equal(t, core.NewVec3(0.5, 0.5, 0), ps.GetColor())
}

func TestRenderStats_HitRate(t *testing.T) {
	assert.Zero(t, RenderStats{}.HitRate())
	assert.InDelta(t, 0.75, RenderStats{CacheHits: 3, CacheMisses: 1}.HitRate(), 1e-12)
}

func TestTileStats_Add(t *testing.T) {
	a := TileStats{Samples: 1, Records: 2, CacheHits: 3}
	a.Add(TileStats{Samples: 10, Degenerate: 1, CacheMisses: 4, PrimaryMisses: 5})
	assert.Equal(t, TileStats{Samples: 11, Records: 2, Degenerate: 1, CacheHits: 3, CacheMisses: 4, PrimaryMisses: 5}, a)
}
