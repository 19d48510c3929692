package irradiance

import (
	"math"

	"github.com/df07/go-irradiance-tracer/pkg/core"
)

// WeightFunc scores how well record r approximates irradiance at p with
// normal n. Non-positive weights reject the record.
type WeightFunc func(p, n core.Vec3, r *Record, tolerance float64) float64

// Weight0 is Ward's original weight,
// 1/(|p-p_i|/R_i + sqrt(1 - n.n_i)) - 1/tolerance
func Weight0(p, n core.Vec3, r *Record, tolerance float64) float64 {
	d := p.Subtract(r.Position).Length() / r.Radius
	a := math.Sqrt(math.Max(0, 1-n.Dot(r.Normal)))
	// Coincident samples get a large finite weight
	denom := math.Max(d+a, 1e-6)
	return 1/denom - 1/tolerance
}

// Normal divergence term of a 10 degree tilt; Weight1 reaches its
// tolerance there
var maxNormalDivergence = math.Sqrt(1 - math.Cos(10*math.Pi/180))

// Weight1 is the sharper linear weight of Tabellion and Lamorlette:
// 1 - max(eps_p, eps_n)/tolerance
func Weight1(p, n core.Vec3, r *Record, tolerance float64) float64 {
	ep := p.Subtract(r.Position).Length() / r.Radius
	en := math.Sqrt(math.Max(0, 1-n.Dot(r.Normal))) / maxNormalDivergence
	return 1 - math.Max(ep, en)/tolerance
}
