package core

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleCosineHemisphere_StaysAboveSurface(t *testing.T) {
	sampler := NewRandomSampler(rand.New(rand.NewSource(7)))
	normals := []Vec3{
		NewVec3(0, 1, 0),
		NewVec3(1, 0, 0),
		NewVec3(0.3, -0.4, 0.866).Normalize(),
	}

	for _, n := range normals {
		for i := 0; i < 500; i++ {
			d := SampleCosineHemisphere(n, sampler.Get2D())
			assert.InDelta(t, 1.0, d.Length(), 1e-9)
			assert.GreaterOrEqual(t, d.Dot(n), -1e-9)
		}
	}
}

func TestSampleCosineHemisphere_MeanCosine(t *testing.T) {
	// E[cos] under a cosine-weighted distribution is 2/3
	sampler := NewRandomSampler(rand.New(rand.NewSource(11)))
	n := NewVec3(0, 0, 1)

	sum := 0.0
	const count = 20000
	for i := 0; i < count; i++ {
		sum += SampleCosineHemisphere(n, sampler.Get2D()).Dot(n)
	}
	assert.InDelta(t, 2.0/3.0, sum/count, 0.01)
}

func TestStratifiedCosineAngles_CoverHemisphere(t *testing.T) {
	const m, n = 4, 8

	theta, phi := StratifiedCosineAngles(0, 0, m, n, NewVec2(0, 0))
	assert.InDelta(t, 0.0, theta, 1e-12)
	assert.InDelta(t, 0.0, phi, 1e-12)

	theta, phi = StratifiedCosineAngles(m-1, n-1, m, n, NewVec2(1, 1))
	assert.InDelta(t, math.Pi/2, theta, 1e-12)
	assert.InDelta(t, 2*math.Pi, phi, 1e-12)
}

func TestBasis_IsOrthonormal(t *testing.T) {
	b := NewBasis(NewVec3(0.2, 0.9, -0.1).Normalize())

	assert.InDelta(t, 0.0, b.Tangent.Dot(b.Bitangent), 1e-12)
	assert.InDelta(t, 0.0, b.Tangent.Dot(b.Normal), 1e-12)
	assert.InDelta(t, 1.0, b.Bitangent.Length(), 1e-12)
	assert.InDelta(t, 0.0, b.ToWorld(0, 0, 1).Subtract(b.Normal).Length(), 1e-12)
}
