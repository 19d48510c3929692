package renderer

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/df07/go-irradiance-tracer/pkg/irradiance"
)

// Interpolation weight names accepted by Config.Weight
const (
	WeightWard      = "ward"
	WeightTabellion = "tabellion"
)

// Config contains the settings of a two-pass render
type Config struct {
	Width  int
	Height int

	SamplesX int // Stratified sub-pixel samples per row of a pixel
	SamplesY int

	NumBounces     int     // Indirect bounces behind each hemisphere sample
	ErrorTolerance float64 // Irradiance cache error tolerance
	SmoothFactor   float64 // Tolerance multiplier for the final pass
	CachePassScale int     // The cache pass renders at 1/CachePassScale resolution
	Weight         string  // Interpolation weight, WeightWard or WeightTabellion

	HemisphereTheta int // M, polar strata of an irradiance sample
	HemispherePhi   int // N, azimuthal strata of an irradiance sample

	TileSize   int
	NumWorkers int // 0 = use CPU count

	RecordCapacity     int // 0 = one record per cache pass pixel
	OctreeNodeCapacity int // 0 = derived from the record capacity

	Seed int64
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Width:           640,
		Height:          360,
		SamplesX:        1,
		SamplesY:        1,
		NumBounces:      1,
		ErrorTolerance:  1.0,
		SmoothFactor:    1.4,
		CachePassScale:  4,
		Weight:          WeightWard,
		HemisphereTheta: 8,
		HemispherePhi:   24,
		TileSize:        32,
		NumWorkers:      0,
		Seed:            42,
	}
}

// Validate reports every invalid setting
func (c Config) Validate() error {
	var errs []error
	positive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	positive("width", c.Width)
	positive("height", c.Height)
	positive("samples x", c.SamplesX)
	positive("samples y", c.SamplesY)
	positive("cache pass scale", c.CachePassScale)
	positive("hemisphere theta", c.HemisphereTheta)
	positive("hemisphere phi", c.HemispherePhi)
	positive("tile size", c.TileSize)

	if c.NumBounces < 0 {
		errs = append(errs, fmt.Errorf("bounces must not be negative, got %d", c.NumBounces))
	}
	if c.NumWorkers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.NumWorkers))
	}
	if c.ErrorTolerance <= 0 {
		errs = append(errs, fmt.Errorf("error tolerance must be positive, got %g", c.ErrorTolerance))
	}
	if c.SmoothFactor <= 0 {
		errs = append(errs, fmt.Errorf("smooth factor must be positive, got %g", c.SmoothFactor))
	}
	if c.RecordCapacity < 0 || c.OctreeNodeCapacity < 0 {
		errs = append(errs, errors.New("capacities must not be negative"))
	}
	if _, err := weightFunc(c.Weight); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// workers resolves the worker count
func (c Config) workers() int {
	if c.NumWorkers <= 0 {
		return runtime.NumCPU()
	}
	return c.NumWorkers
}

// cacheResolution is the image size of the cache pass
func (c Config) cacheResolution() (int, int) {
	return max(1, c.Width/c.CachePassScale), max(1, c.Height/c.CachePassScale)
}

func weightFunc(name string) (irradiance.WeightFunc, error) {
	switch name {
	case "", WeightWard:
		return irradiance.Weight0, nil
	case WeightTabellion:
		return irradiance.Weight1, nil
	}
	return nil, fmt.Errorf("unknown interpolation weight %q", name)
}
