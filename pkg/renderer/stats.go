package renderer

import (
	"image"
	"time"

	"github.com/df07/go-irradiance-tracer/pkg/core"
)

// RenderStats contains statistics about a two-pass render
type RenderStats struct {
	Width, Height           int // Final image size
	CacheWidth, CacheHeight int // Cache pass image size
	Workers                 int
	Tiles                   int // Tiles of the final pass

	Records           int // Irradiance records generated in the cache pass
	DegenerateRecords int // Records the octree could not index
	PrimaryMisses     int // Final pass samples that hit nothing

	CacheHits   int // Final pass interpolations served from the cache
	CacheMisses int // Final pass interpolations that needed a fresh record

	// Summed tile counters of each pass; Samples is the number of primary
	// rays traced
	CachePassTotals TileStats
	FinalPassTotals TileStats

	CachePassTime time.Duration
	FinalPassTime time.Duration
	TotalTime     time.Duration
}

// HitRate is the share of final pass interpolations served by the cache
func (s RenderStats) HitRate() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total)
}

// TileStats are the counters of one tile task. They are summed after the
// pass barrier.
type TileStats struct {
	Samples       int
	Records       int
	Degenerate    int
	CacheHits     int
	CacheMisses   int
	PrimaryMisses int
}

// Add accumulates other into the stats
func (s *TileStats) Add(other TileStats) {
	s.Samples += other.Samples
	s.Records += other.Records
	s.Degenerate += other.Degenerate
	s.CacheHits += other.CacheHits
	s.CacheMisses += other.CacheMisses
	s.PrimaryMisses += other.PrimaryMisses
}

// PixelStats accumulates the sub-pixel samples of a single pixel
type PixelStats struct {
	ColorAccum  core.Vec3 // RGB accumulator for final result
	SampleCount int       // Number of samples taken
}

// AddSample adds a new color sample to the pixel statistics
func (ps *PixelStats) AddSample(color core.Vec3) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	ps.SampleCount++
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{}
	}
	return ps.ColorAccum.Multiply(1.0 / float64(ps.SampleCount))
}

// CalculateAverageLuminance returns the mean luminance of an 8-bit image,
// with channels mapped to [0, 1]
func CalculateAverageLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return 0
	}

	var sum float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			c := core.NewVec3(float64(r)/0xffff, float64(g)/0xffff, float64(b)/0xffff)
			sum += c.Luminance()
		}
	}
	return sum / float64(pixels)
}
