package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestAABB_Hit(t *testing.T) {
	box := NewAABB(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))

	tests := []struct {
		name      string
		ray       Ray
		shouldHit bool
	}{
		{"straight through", NewRay(NewVec3(0, 0, -5), NewVec3(0, 0, 1)), true},
		{"misses above", NewRay(NewVec3(0, 2, -5), NewVec3(0, 0, 1)), false},
		{"parallel inside slab", NewRay(NewVec3(0.5, 0.5, -5), NewVec3(0, 0, 1)), true},
		{"parallel outside slab", NewRay(NewVec3(1.5, 0, -5), NewVec3(0, 0, 1)), false},
		{"pointing away", NewRay(NewVec3(0, 0, -5), NewVec3(0, 0, -1)), false},
		{"origin inside", NewRay(NewVec3(0, 0, 0), NewVec3(1, 1, 0)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.shouldHit, box.Hit(tt.ray, 0, 1e9))
		})
	}
}

func TestAABB_UnionAndContains(t *testing.T) {
	a := NewAABB(NewVec3(0, 0, 0), NewVec3(1, 1, 1))
	b := NewAABB(NewVec3(2, -1, 0), NewVec3(3, 0.5, 4))
	u := a.Union(b)

	assert.True(t, u.Contains(a))
	assert.True(t, u.Contains(b))
	assert.False(t, a.Contains(u))
	assert.Equal(t, u, EmptyAABB().Union(a).Union(b))
	assert.True(t, u.ContainsPoint(NewVec3(2.5, 0, 3)))
}

func TestTransformAABB_Translation(t *testing.T) {
	box := NewAABB(NewVec3(0, 0, 0), NewVec3(1, 1, 1))
	moved := TransformAABB(mgl64.Translate3D(5, 0, -2), box)

	assert.InDelta(t, 5.0, moved.Min.X, 1e-12)
	assert.InDelta(t, 6.0, moved.Max.X, 1e-12)
	assert.InDelta(t, -2.0, moved.Min.Z, 1e-12)
}

func TestTransformRay_PreservesParameter(t *testing.T) {
	m := mgl64.Translate3D(1, 2, 3).Mul4(mgl64.Scale3D(2, 2, 2))
	r := NewRay(NewVec3(0, 0, 0), NewVec3(0, 0, 1))

	local := TransformRay(m.Inv(), r)
	world := r.At(4)
	assert.InDelta(t, 0.0, TransformPoint(m, local.At(4)).Subtract(world).Length(), 1e-9)
}
