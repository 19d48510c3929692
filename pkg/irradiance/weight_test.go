package irradiance

import (
	"math"
	"testing"

	"github.com/df07/go-irradiance-tracer/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestWeights_DecreaseWithDistance(t *testing.T) {
	rec := &Record{Normal: up, Radius: 1}

	for name, weight := range map[string]WeightFunc{"Weight0": Weight0, "Weight1": Weight1} {
		t.Run(name, func(t *testing.T) {
			prev := math.Inf(1)
			for d := 0.01; d < 0.9; d += 0.05 {
				w := weight(core.NewVec3(d, 0, 0), up, rec, 1)
				assert.Less(t, w, prev, "distance %g", d)
				prev = w
			}
		})
	}
}

func TestWeight0_Cutoff(t *testing.T) {
	rec := &Record{Normal: up, Radius: 0.5}

	for _, tolerance := range []float64{0.5, 1, 1.4, 2} {
		// distance/R >= tolerance never contributes
		at := core.NewVec3(tolerance*rec.Radius, 0, 0)
		assert.LessOrEqual(t, Weight0(at, up, rec, tolerance), 1e-12)
		beyond := core.NewVec3(tolerance*rec.Radius*1.1, 0, 0)
		assert.Less(t, Weight0(beyond, up, rec, tolerance), 0.0)
		inside := core.NewVec3(tolerance*rec.Radius*0.5, 0, 0)
		assert.Greater(t, Weight0(inside, up, rec, tolerance), 0.0)
	}
}

func TestWeight0_NormalDivergence(t *testing.T) {
	rec := &Record{Normal: up, Radius: 1}
	p := core.NewVec3(0.1, 0, 0)

	aligned := Weight0(p, up, rec, 1)
	tilted := Weight0(p, core.NewVec3(0.3, 1, 0).Normalize(), rec, 1)
	assert.Greater(t, aligned, tilted)
}

func TestWeight0_CoincidentIsFinite(t *testing.T) {
	rec := &Record{Normal: up, Radius: 1}
	w := Weight0(core.Vec3{}, up, rec, 1)
	assert.False(t, math.IsInf(w, 0))
	assert.Greater(t, w, 0.0)
}

func TestWeight1_NormalLimit(t *testing.T) {
	rec := &Record{Normal: up, Radius: 1}

	// Ten degrees off reaches the cutoff at tolerance 1
	angle := 10 * math.Pi / 180
	n := core.NewVec3(math.Sin(angle), math.Cos(angle), 0)
	assert.InDelta(t, 0.0, Weight1(core.Vec3{}, n, rec, 1), 1e-9)
	assert.InDelta(t, 1.0, Weight1(core.Vec3{}, up, rec, 1), 1e-12)
}
