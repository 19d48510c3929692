package geometry

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/df07/go-irradiance-tracer/pkg/core"
)

// RayHit describes the closest intersection of a ray with a mesh
type RayHit struct {
	T        float64 // Ray parameter, <= 0 means no hit
	Submesh  int
	Triangle int
	U, V     float64 // Barycentrics of the hit point
}

// NoHit is the sentinel returned when a ray misses
var NoHit = RayHit{T: -1, Submesh: -1, Triangle: -1}

// Hit reports whether the ray hit anything
func (h RayHit) Hit() bool {
	return h.T > 0
}

// BVHNode is one node of the arena. Interior nodes have two children;
// leaves have Left == Right == -1 and own exactly one triangle.
type BVHNode struct {
	Box      core.AABB
	Left     int32
	Right    int32
	Submesh  int32
	Triangle int32
}

// IsLeaf reports whether the node owns a triangle
func (n *BVHNode) IsLeaf() bool {
	return n.Left < 0
}

// BVH is a per-mesh bounding volume hierarchy over triangles, stored as
// a flat node arena with index links
type BVH struct {
	mesh     *Mesh
	nodes    []BVHNode
	capacity int
}

// triangleRef is a build-time handle to one triangle of the mesh
type triangleRef struct {
	submesh, triangle int
	box               core.AABB
	centroid          core.Vec3
}

// NewBVH builds the hierarchy for every traceable triangle of mesh. The
// split axis at each level is drawn from random.
func NewBVH(mesh *Mesh, random *rand.Rand) *BVH {
	var refs []triangleRef
	for si := range mesh.Submeshes {
		sm := &mesh.Submeshes[si]
		for ti := 0; ti < sm.NumTriangles(); ti++ {
			tri := sm.Triangle(ti)
			refs = append(refs, triangleRef{
				submesh:  si,
				triangle: ti,
				box:      tri.BoundingBox(),
				centroid: tri.Centroid(),
			})
		}
	}

	bvh := &BVH{mesh: mesh}
	if len(refs) == 0 {
		return bvh
	}

	bvh.capacity = 2*len(refs) - 1
	bvh.nodes = make([]BVHNode, 0, bvh.capacity)
	bvh.build(refs, 0, len(refs), random)
	return bvh
}

// allocNode reserves a node in the arena, aborting if the pool is full
func (b *BVH) allocNode() int32 {
	if len(b.nodes) >= b.capacity {
		panic(fmt.Errorf("%w: bvh node pool of %d nodes", core.ErrCapacityExhausted, b.capacity))
	}
	b.nodes = append(b.nodes, BVHNode{Left: -1, Right: -1, Submesh: -1, Triangle: -1})
	return int32(len(b.nodes) - 1)
}

// build partitions refs[start:end) and returns the index of the subtree root
func (b *BVH) build(refs []triangleRef, start, end int, random *rand.Rand) int32 {
	idx := b.allocNode()

	if end-start == 1 {
		ref := refs[start]
		b.nodes[idx].Box = ref.box
		b.nodes[idx].Submesh = int32(ref.submesh)
		b.nodes[idx].Triangle = int32(ref.triangle)
		return idx
	}

	axis := random.Intn(3)
	span := refs[start:end]
	sort.Slice(span, func(i, j int) bool {
		return span[i].centroid.Axis(axis) < span[j].centroid.Axis(axis)
	})

	mid := start + (end-start)/2
	left := b.build(refs, start, mid, random)
	right := b.build(refs, mid, end, random)

	b.nodes[idx].Left = left
	b.nodes[idx].Right = right
	b.nodes[idx].Box = b.nodes[left].Box.Union(b.nodes[right].Box)
	return idx
}

// Mesh returns the mesh the hierarchy was built over
func (b *BVH) Mesh() *Mesh {
	return b.mesh
}

// Nodes exposes the node arena; index 0 is the root
func (b *BVH) Nodes() []BVHNode {
	return b.nodes
}

// Root returns the index of the root node, -1 for an empty hierarchy
func (b *BVH) Root() int32 {
	if len(b.nodes) == 0 {
		return -1
	}
	return 0
}

// Capacity is the size of the node pool
func (b *BVH) Capacity() int {
	return b.capacity
}

// Bounds returns the root box, or an empty box for a mesh without triangles
func (b *BVH) Bounds() core.AABB {
	if len(b.nodes) == 0 {
		return core.EmptyAABB()
	}
	return b.nodes[0].Box
}

// Trace returns the closest forward hit of an object space ray
func (b *BVH) Trace(ray core.Ray) RayHit {
	if len(b.nodes) == 0 {
		return NoHit
	}
	return b.traceNode(0, ray, math.Inf(1))
}

func (b *BVH) traceNode(idx int32, ray core.Ray, tMax float64) RayHit {
	node := &b.nodes[idx]
	if !node.Box.Hit(ray, 0, tMax) {
		return NoHit
	}

	if node.IsLeaf() {
		sm := &b.mesh.Submeshes[node.Submesh]
		t, u, v := sm.Triangle(int(node.Triangle)).Intersect(ray)
		if t <= 0 || t >= tMax {
			return NoHit
		}
		return RayHit{T: t, Submesh: int(node.Submesh), Triangle: int(node.Triangle), U: u, V: v}
	}

	closest := b.traceNode(node.Left, ray, tMax)
	if closest.Hit() {
		tMax = closest.T
	}
	if right := b.traceNode(node.Right, ray, tMax); right.Hit() {
		closest = right
	}
	return closest
}

// TraceVisibility reports whether anything blocks the ray in (0, tMax)
func (b *BVH) TraceVisibility(ray core.Ray, tMax float64) bool {
	if len(b.nodes) == 0 {
		return false
	}
	return b.anyHit(0, ray, tMax)
}

func (b *BVH) anyHit(idx int32, ray core.Ray, tMax float64) bool {
	node := &b.nodes[idx]
	if !node.Box.Hit(ray, 0, tMax) {
		return false
	}
	if node.IsLeaf() {
		sm := &b.mesh.Submeshes[node.Submesh]
		t, _, _ := sm.Triangle(int(node.Triangle)).Intersect(ray)
		return t > 0 && t < tMax
	}
	return b.anyHit(node.Left, ray, tMax) || b.anyHit(node.Right, ray, tMax)
}

// Depth returns the length of the longest root to leaf path
func (b *BVH) Depth() int {
	if len(b.nodes) == 0 {
		return 0
	}
	var walk func(idx int32) int
	walk = func(idx int32) int {
		n := &b.nodes[idx]
		if n.IsLeaf() {
			return 1
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}
