package core

import (
	"math"
	"math/rand"
)

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// Basis is an orthonormal frame around a surface normal
type Basis struct {
	Tangent, Bitangent, Normal Vec3
}

// NewBasis builds an orthonormal frame with Normal as its local +Z axis
func NewBasis(normal Vec3) Basis {
	var nt Vec3
	if math.Abs(normal.X) > 0.1 {
		nt = NewVec3(0, 1, 0)
	} else {
		nt = NewVec3(1, 0, 0)
	}
	tangent := nt.Cross(normal).Normalize()
	bitangent := normal.Cross(tangent)
	return Basis{Tangent: tangent, Bitangent: bitangent, Normal: normal}
}

// ToWorld maps local frame coordinates to world space
func (b Basis) ToWorld(x, y, z float64) Vec3 {
	return b.Tangent.Multiply(x).Add(b.Bitangent.Multiply(y)).Add(b.Normal.Multiply(z))
}

// SampleCosineHemisphere generates a cosine-weighted random direction in hemisphere around normal
func SampleCosineHemisphere(normal Vec3, sample Vec2) Vec3 {
	a := 2.0 * math.Pi * sample.X
	z := sample.Y
	r := math.Sqrt(z)

	return NewBasis(normal).ToWorld(r*math.Cos(a), r*math.Sin(a), math.Sqrt(1.0-z))
}

// StratifiedCosineAngles returns the polar and azimuthal angles of the
// cosine-weighted sample in cell (j, k) of an M x N theta/phi grid,
// jittered inside the cell by sample
func StratifiedCosineAngles(j, k, m, n int, sample Vec2) (theta, phi float64) {
	theta = math.Asin(math.Sqrt((float64(j) + sample.X) / float64(m)))
	phi = 2.0 * math.Pi * (float64(k) + sample.Y) / float64(n)
	return theta, phi
}
