package irradiance

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-irradiance-tracer/pkg/core"
)

// frontTolerance is how far a record may sit in front of the query point,
// along the averaged normal, before it is rejected
const frontTolerance = 1e-3

// Cache is a capacity-limited pool of irradiance records indexed by an
// octree. Adding is single writer; Interpolate may run concurrently once
// the cache is frozen.
type Cache struct {
	records  []Record
	capacity int
	maxNodes int
	octree   *Octree
	frozen   bool
}

// NewCache creates a cache for up to capacity records. A maxNodes of zero
// or less sizes the octree pool from the root cube in Init.
func NewCache(capacity, maxNodes int) *Cache {
	return &Cache{
		records:  make([]Record, 0, capacity),
		capacity: capacity,
		maxNodes: maxNodes,
	}
}

// RootSide returns the octree root edge for a scene: the largest extent of
// bounds with a small margin, never less than what the largest record
// radius needs
func RootSide(bounds core.AABB) float64 {
	side := 4 * MaxRadius
	if bounds.IsValid() {
		side = math.Max(side, bounds.Size().MaxComponent()*1.01)
	}
	return side
}

// Init empties the cache and sizes the octree root to cover bounds
func (c *Cache) Init(bounds core.AABB) {
	center := core.Vec3{}
	if bounds.IsValid() {
		center = bounds.Center()
	}
	side := RootSide(bounds)

	maxNodes := c.maxNodes
	if maxNodes <= 0 {
		maxNodes = c.capacity*Depth(side) + 1
	}

	c.records = c.records[:0]
	c.frozen = false
	c.octree = NewOctree(center, side, maxNodes)
}

// Add stores a record and indexes it. The returned pointer stays valid for
// the life of the cache. A degenerate insertion keeps the record in the
// pool, returns it, and reports ErrDegenerateRecord.
func (c *Cache) Add(record Record) (*Record, error) {
	if c.frozen {
		panic("irradiance: Add on a frozen cache")
	}
	if c.octree == nil {
		panic("irradiance: Add before Init")
	}
	if len(c.records) >= c.capacity {
		panic(fmt.Errorf("%w: irradiance record pool of %d records", core.ErrCapacityExhausted, c.capacity))
	}

	c.records = append(c.records, record)
	idx := int32(len(c.records) - 1)
	stored := &c.records[idx]
	if err := c.octree.Insert(idx, record.Position, record.Radius); err != nil {
		return stored, err
	}
	return stored, nil
}

// Interpolate blends every usable record around p. It returns the
// weighted irradiance and the summed weight; a zero weight means no
// record applies and the caller has to sample.
func (c *Cache) Interpolate(p, n core.Vec3, tolerance float64, weight WeightFunc) (core.Vec3, float64) {
	if c.octree == nil || len(c.records) == 0 {
		return core.Vec3{}, 0
	}
	if weight == nil {
		weight = Weight0
	}

	var sum core.Vec3
	var weightSum float64
	c.octree.Lookup(p, tolerance, func(idx int32) {
		r := &c.records[idx]

		// Reject records in front of p
		avgNormal := n.Add(r.Normal).Multiply(0.5)
		if p.Subtract(r.Position).Dot(avgNormal) < -frontTolerance {
			return
		}

		w := weight(p, n, r, tolerance)
		if w <= 0 {
			return
		}
		sum = sum.Add(r.Extrapolate(p, n).Multiply(w))
		weightSum += w
	})

	if weightSum <= 0 {
		return core.Vec3{}, 0
	}
	return sum.Multiply(1 / weightSum), weightSum
}

// Merge re-inserts the records of other, in order. It returns the
// degenerate insertions joined into one error.
func (c *Cache) Merge(other *Cache) error {
	var errs []error
	for i := range other.records {
		if _, err := c.Add(other.records[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Freeze makes the cache read-only
func (c *Cache) Freeze() {
	c.frozen = true
}

// Frozen reports whether Freeze was called since the last Init
func (c *Cache) Frozen() bool {
	return c.frozen
}

// Len returns the number of stored records
func (c *Cache) Len() int {
	return len(c.records)
}

// Capacity is the size of the record pool
func (c *Cache) Capacity() int {
	return c.capacity
}

// Records exposes the record pool
func (c *Cache) Records() []Record {
	return c.records
}

// Octree returns the spatial index, nil before Init
func (c *Cache) Octree() *Octree {
	return c.octree
}
