package irradiance

import "github.com/df07/go-irradiance-tracer/pkg/core"

// Validity radius limits for a record
const (
	MinRadius = 0.1
	MaxRadius = 2.0
)

// Record is one cached irradiance sample. Gradients hold one vector per
// colour channel.
type Record struct {
	Position   core.Vec3
	Normal     core.Vec3
	Irradiance core.Vec3
	Radius     float64

	RotationalGradient    [3]core.Vec3
	TranslationalGradient [3]core.Vec3
}

// Extrapolate applies the first order gradient correction for a query at
// p with normal n, clamping each channel at zero
func (r *Record) Extrapolate(p, n core.Vec3) core.Vec3 {
	dp := p.Subtract(r.Position)
	axis := r.Normal.Cross(n)

	var out core.Vec3
	for c := 0; c < 3; c++ {
		e := r.Irradiance.Channel(c) +
			dp.Dot(r.TranslationalGradient[c]) +
			axis.Dot(r.RotationalGradient[c])
		if e < 0 {
			e = 0
		}
		out = out.WithChannel(c, e)
	}
	return out
}

// ClampRadius limits a validity radius to [MinRadius, MaxRadius]
func ClampRadius(r float64) float64 {
	if r < MinRadius {
		return MinRadius
	}
	if r > MaxRadius {
		return MaxRadius
	}
	return r
}
