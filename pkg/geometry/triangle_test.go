package geometry

import (
	"testing"

	"github.com/df07/go-irradiance-tracer/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestTriangle_Intersect(t *testing.T) {
	// Triangle in the XY plane
	triangle := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0))

	tests := []struct {
		name      string
		ray       core.Ray
		shouldHit bool
		expectedT float64
	}{
		{
			name:      "Ray hits triangle center",
			ray:       core.NewRay(core.NewVec3(0.25, 0.25, -1), core.NewVec3(0, 0, 1)),
			shouldHit: true,
			expectedT: 1.0,
		},
		{
			name:      "Ray hits triangle edge",
			ray:       core.NewRay(core.NewVec3(0.5, 0, -1), core.NewVec3(0, 0, 1)),
			shouldHit: true,
			expectedT: 1.0,
		},
		{
			name:      "Ray misses triangle",
			ray:       core.NewRay(core.NewVec3(1, 1, -1), core.NewVec3(0, 0, 1)),
			shouldHit: false,
		},
		{
			name:      "Ray parallel to triangle",
			ray:       core.NewRay(core.NewVec3(0.25, 0.25, 0), core.NewVec3(1, 0, 0)),
			shouldHit: false,
		},
		{
			name:      "Ray hits from behind",
			ray:       core.NewRay(core.NewVec3(0.25, 0.25, 1), core.NewVec3(0, 0, -1)),
			shouldHit: true,
			expectedT: 1.0,
		},
		{
			name:      "Triangle behind ray origin",
			ray:       core.NewRay(core.NewVec3(0.25, 0.25, 1), core.NewVec3(0, 0, 1)),
			shouldHit: false,
		},
		{
			name:      "Unnormalized direction scales t",
			ray:       core.NewRay(core.NewVec3(0.25, 0.25, -2), core.NewVec3(0, 0, 4)),
			shouldHit: true,
			expectedT: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tHit, _, _ := triangle.Intersect(tt.ray)
			assert.Equal(t, tt.shouldHit, tHit > 0)
			if tt.shouldHit {
				assert.InDelta(t, tt.expectedT, tHit, 1e-9)
			}
		})
	}
}

func TestTriangle_Barycentrics(t *testing.T) {
	triangle := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0))
	_, u, v := triangle.Intersect(core.NewRay(core.NewVec3(0.2, 0.3, 1), core.NewVec3(0, 0, -1)))

	assert.InDelta(t, 0.2, u, 1e-9)
	assert.InDelta(t, 0.3, v, 1e-9)
}

func TestTriangle_NormalAndBounds(t *testing.T) {
	triangle := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(2, 0, 0), core.NewVec3(0, 3, 0))

	assert.Equal(t, core.NewVec3(0, 0, 1), triangle.Normal())
	assert.Equal(t, core.NewAABB(core.NewVec3(0, 0, 0), core.NewVec3(2, 3, 0)), triangle.BoundingBox())
	assert.InDelta(t, 0.0, triangle.Centroid().Subtract(core.NewVec3(2.0/3.0, 1, 0)).Length(), 1e-12)
}
