package irradiance

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-irradiance-tracer/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var up = core.NewVec3(0, 1, 0)

func unitBounds() core.AABB {
	return core.NewAABB(core.Splat(-1), core.Splat(1))
}

func flatRecord(p core.Vec3, e float64) Record {
	return Record{Position: p, Normal: up, Irradiance: core.Splat(e), Radius: 0.5}
}

func TestCache_EmptyInterpolation(t *testing.T) {
	c := NewCache(8, 0)
	c.Init(unitBounds())

	e, w := c.Interpolate(core.Vec3{}, up, 1, nil)
	assert.Equal(t, core.Vec3{}, e)
	assert.Zero(t, w)
}

func TestCache_AddReturnsStoredRecord(t *testing.T) {
	c := NewCache(8, 0)
	c.Init(unitBounds())

	stored, err := c.Add(flatRecord(core.NewVec3(0.2, 0, 0), 1))
	require.NoError(t, err)
	assert.Same(t, &c.Records()[0], stored)
	assert.Equal(t, 1, c.Len())

	// Exact hit reproduces the record
	e, w := c.Interpolate(core.NewVec3(0.2, 0, 0), up, 1, nil)
	assert.Greater(t, w, 0.0)
	assert.InDelta(t, 1.0, e.X, 1e-9)
}

func TestCache_InterpolatesBetweenRecords(t *testing.T) {
	c := NewCache(8, 0)
	c.Init(unitBounds())
	_, err := c.Add(flatRecord(core.NewVec3(-0.1, 0, 0), 1))
	require.NoError(t, err)
	_, err = c.Add(flatRecord(core.NewVec3(0.1, 0, 0), 3))
	require.NoError(t, err)

	e, _ := c.Interpolate(core.Vec3{}, up, 1, nil)
	assert.InDelta(t, 2.0, e.Y, 1e-9)

	// Closer to the second record, closer to its value
	e, _ = c.Interpolate(core.NewVec3(0.08, 0, 0), up, 1, nil)
	assert.Greater(t, e.Y, 2.0)
	assert.Less(t, e.Y, 3.0)
}

func TestCache_RejectsRecordsInFront(t *testing.T) {
	c := NewCache(8, 0)
	c.Init(unitBounds())
	_, err := c.Add(flatRecord(core.NewVec3(0, 0.2, 0), 1))
	require.NoError(t, err)

	// The record sits above the query surface
	_, w := c.Interpolate(core.Vec3{}, up, 1, nil)
	assert.Zero(t, w)

	// Behind the query it is fine
	_, w = c.Interpolate(core.NewVec3(0, 0.3, 0), up, 1, nil)
	assert.Greater(t, w, 0.0)
}

func TestCache_RejectsDistantAndTurnedRecords(t *testing.T) {
	c := NewCache(8, 0)
	c.Init(unitBounds())
	_, err := c.Add(flatRecord(core.Vec3{}, 1))
	require.NoError(t, err)

	// Beyond tolerance * R
	_, w := c.Interpolate(core.NewVec3(0.6, 0, 0), up, 1, nil)
	assert.Zero(t, w)

	// Perpendicular normal
	_, w = c.Interpolate(core.NewVec3(0.05, 0, 0), core.NewVec3(1, 0, 0), 1, nil)
	assert.Zero(t, w)
}

func TestCache_TranslationalGradient(t *testing.T) {
	c := NewCache(8, 0)
	c.Init(unitBounds())
	rec := flatRecord(core.Vec3{}, 1)
	for ch := 0; ch < 3; ch++ {
		rec.TranslationalGradient[ch] = core.NewVec3(2, 0, 0)
	}
	_, err := c.Add(rec)
	require.NoError(t, err)

	e, _ := c.Interpolate(core.NewVec3(0.1, 0, 0), up, 1, nil)
	assert.InDelta(t, 1.2, e.X, 1e-9)

	// Extrapolation clamps at zero
	e, _ = c.Interpolate(core.NewVec3(-0.45, 0, 0), up, 1, nil)
	assert.GreaterOrEqual(t, e.X, 0.0)
}

func TestRecord_RotationalGradient(t *testing.T) {
	rec := flatRecord(core.Vec3{}, 1)
	rec.RotationalGradient[0] = core.NewVec3(0, 0, 1)

	tilted := core.NewVec3(0.1, 1, 0).Normalize()
	e := rec.Extrapolate(core.Vec3{}, tilted)

	// n_i x n points along -z for a tilt toward +x
	assert.Less(t, e.X, 1.0)
	assert.InDelta(t, 1.0, e.Y, 1e-12)
}

func TestCache_DegenerateRecordIsKept(t *testing.T) {
	c := NewCache(8, 0)
	c.Init(unitBounds())

	rec := flatRecord(core.Vec3{}, 1)
	rec.Radius = 100
	stored, err := c.Add(rec)

	assert.True(t, errors.Is(err, core.ErrDegenerateRecord))
	require.NotNil(t, stored)
	assert.Equal(t, 100.0, stored.Radius)
	assert.Equal(t, 1, c.Len())
}

func TestCache_CapacityExhaustion(t *testing.T) {
	c := NewCache(1, 0)
	c.Init(unitBounds())
	_, err := c.Add(flatRecord(core.Vec3{}, 1))
	require.NoError(t, err)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, core.ErrCapacityExhausted))
	}()
	_, _ = c.Add(flatRecord(core.Vec3{}, 1))
}

func TestCache_FreezeRejectsAdd(t *testing.T) {
	c := NewCache(4, 0)
	c.Init(unitBounds())
	c.Freeze()

	assert.True(t, c.Frozen())
	assert.Panics(t, func() { _, _ = c.Add(flatRecord(core.Vec3{}, 1)) })

	c.Init(unitBounds())
	assert.False(t, c.Frozen())
}

func TestCache_MergeKeepsOrder(t *testing.T) {
	a := NewCache(4, 0)
	a.Init(unitBounds())
	b := NewCache(4, 0)
	b.Init(unitBounds())
	_, _ = a.Add(flatRecord(core.NewVec3(0.5, 0, 0), 1))
	_, _ = b.Add(flatRecord(core.NewVec3(-0.5, 0, 0), 2))
	_, _ = b.Add(flatRecord(core.NewVec3(0, 0, 0.5), 3))

	merged := NewCache(8, 0)
	merged.Init(unitBounds())
	require.NoError(t, merged.Merge(a))
	require.NoError(t, merged.Merge(b))

	require.Equal(t, 3, merged.Len())
	assert.Equal(t, 1.0, merged.Records()[0].Irradiance.X)
	assert.Equal(t, 2.0, merged.Records()[1].Irradiance.X)
	assert.Equal(t, 3.0, merged.Records()[2].Irradiance.X)

	e, w := merged.Interpolate(core.NewVec3(-0.5, 0, 0), up, 1, nil)
	assert.Greater(t, w, 0.0)
	assert.InDelta(t, 2.0, e.X, 1e-9)
}

func TestRootSide(t *testing.T) {
	assert.Equal(t, 4*MaxRadius, RootSide(unitBounds()))
	assert.Equal(t, 4*MaxRadius, RootSide(core.EmptyAABB()))

	big := core.NewAABB(core.Vec3{}, core.NewVec3(20, 1, 1))
	assert.InDelta(t, 20.2, RootSide(big), 1e-9)
}

func TestClampRadius(t *testing.T) {
	assert.Equal(t, MinRadius, ClampRadius(0.01))
	assert.Equal(t, MaxRadius, ClampRadius(50))
	assert.Equal(t, 1.0, ClampRadius(1))
	assert.Equal(t, MaxRadius, ClampRadius(math.Inf(1)))
}
