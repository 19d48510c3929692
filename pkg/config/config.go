// Package config reads render settings from TOML files. Keys left out of a
// file keep their default values.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/df07/go-irradiance-tracer/pkg/renderer"
	"github.com/pelletier/go-toml/v2"
)

// Image holds the output resolution and sub-pixel sampling
type Image struct {
	Width    int `toml:"width"`
	Height   int `toml:"height"`
	SamplesX int `toml:"samples_x"`
	SamplesY int `toml:"samples_y"`
}

// Cache holds the irradiance cache settings
type Cache struct {
	Tolerance          float64 `toml:"tolerance"`
	Smoothing          float64 `toml:"smoothing"`
	PassScale          int     `toml:"pass_scale"`
	Weight             string  `toml:"weight"`
	HemisphereTheta    int     `toml:"hemisphere_theta"`
	HemispherePhi      int     `toml:"hemisphere_phi"`
	RecordCapacity     int     `toml:"record_capacity"`
	OctreeNodeCapacity int     `toml:"octree_node_capacity"`
}

// Render holds the path tracing and scheduling settings
type Render struct {
	Bounces  int   `toml:"bounces"`
	TileSize int   `toml:"tile_size"`
	Workers  int   `toml:"workers"`
	Seed     int64 `toml:"seed"`
}

// File is the layout of a render configuration file
type File struct {
	Scene  string `toml:"scene"`  // Built-in scene name or path to a YAML scene
	Output string `toml:"output"` // Image path; the extension picks the format
	Image  Image  `toml:"image"`
	Cache  Cache  `toml:"cache"`
	Render Render `toml:"render"`
}

// Default returns the file equivalent of renderer.DefaultConfig
func Default() File {
	d := renderer.DefaultConfig()
	return File{
		Scene:  "cornell",
		Output: "render.png",
		Image: Image{
			Width:    d.Width,
			Height:   d.Height,
			SamplesX: d.SamplesX,
			SamplesY: d.SamplesY,
		},
		Cache: Cache{
			Tolerance:          d.ErrorTolerance,
			Smoothing:          d.SmoothFactor,
			PassScale:          d.CachePassScale,
			Weight:             d.Weight,
			HemisphereTheta:    d.HemisphereTheta,
			HemispherePhi:      d.HemispherePhi,
			RecordCapacity:     d.RecordCapacity,
			OctreeNodeCapacity: d.OctreeNodeCapacity,
		},
		Render: Render{
			Bounces:  d.NumBounces,
			TileSize: d.TileSize,
			Workers:  d.NumWorkers,
			Seed:     d.Seed,
		},
	}
}

// Load decodes a TOML configuration over the defaults. Unknown keys are
// rejected.
func Load(r io.Reader) (File, error) {
	f := Default()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return File{}, fmt.Errorf("decode config: %s", strict.String())
		}
		return File{}, fmt.Errorf("decode config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// LoadFile reads a TOML configuration from path
func LoadFile(path string) (File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()
	return Load(fh)
}

// Validate checks the file-level settings and the resulting render config
func (f File) Validate() error {
	var errs []error
	if f.Scene == "" {
		errs = append(errs, errors.New("scene must not be empty"))
	}
	if f.Output == "" {
		errs = append(errs, errors.New("output must not be empty"))
	}
	if err := f.RenderConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// RenderConfig converts the file into renderer settings
func (f File) RenderConfig() renderer.Config {
	return renderer.Config{
		Width:              f.Image.Width,
		Height:             f.Image.Height,
		SamplesX:           f.Image.SamplesX,
		SamplesY:           f.Image.SamplesY,
		NumBounces:         f.Render.Bounces,
		ErrorTolerance:     f.Cache.Tolerance,
		SmoothFactor:       f.Cache.Smoothing,
		CachePassScale:     f.Cache.PassScale,
		Weight:             f.Cache.Weight,
		HemisphereTheta:    f.Cache.HemisphereTheta,
		HemispherePhi:      f.Cache.HemispherePhi,
		TileSize:           f.Render.TileSize,
		NumWorkers:         f.Render.Workers,
		RecordCapacity:     f.Cache.RecordCapacity,
		OctreeNodeCapacity: f.Cache.OctreeNodeCapacity,
		Seed:               f.Render.Seed,
	}
}

// Encode writes f as TOML
func (f File) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(f)
}
