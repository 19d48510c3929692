package irradiance

import (
	"fmt"
	"math"

	"github.com/df07/go-irradiance-tracer/pkg/core"
)

// childOffsets are the directions from a node centre to its octant
// centres, indexed by the sign bits of p - centre (x=1, y=2, z=4)
var childOffsets = [8]core.Vec3{
	{X: -1, Y: -1, Z: -1},
	{X: 1, Y: -1, Z: -1},
	{X: -1, Y: 1, Z: -1},
	{X: 1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: 1, Y: -1, Z: 1},
	{X: -1, Y: 1, Z: 1},
	{X: 1, Y: 1, Z: 1},
}

// OctreeNode is a cube of the octree. SideLength is the full edge length.
type OctreeNode struct {
	Center     core.Vec3
	SideLength float64
	Children   [8]int32 // -1 when the octant is not allocated
	Records    []int32  // Indices into the owning cache's record pool
}

// Box returns the cube of the node
func (n *OctreeNode) Box() core.AABB {
	half := core.Splat(n.SideLength / 2)
	return core.NewAABB(n.Center.Subtract(half), n.Center.Add(half))
}

// Queue is the breadth-first work list handed to traversal visitors
type Queue struct {
	items []int32
	head  int
}

// Push schedules a node for a later visit
func (q *Queue) Push(idx int32) {
	q.items = append(q.items, idx)
}

// Pop removes the oldest scheduled node
func (q *Queue) Pop() int32 {
	idx := q.items[q.head]
	q.head++
	return idx
}

// Len returns the number of nodes still to visit
func (q *Queue) Len() int {
	return len(q.items) - q.head
}

// Octree indexes irradiance records by position and radius. Nodes live in
// a fixed-size arena; index 0 is the root.
type Octree struct {
	nodes    []OctreeNode
	maxNodes int
}

// NewOctree creates an octree with a root cube and room for maxNodes nodes
func NewOctree(center core.Vec3, side float64, maxNodes int) *Octree {
	o := &Octree{maxNodes: maxNodes}
	o.Reset(center, side)
	return o
}

// Reset drops every node and starts over from a new root cube
func (o *Octree) Reset(center core.Vec3, side float64) {
	o.nodes = make([]OctreeNode, 0, o.maxNodes)
	o.allocNode(center, side)
}

func (o *Octree) allocNode(center core.Vec3, side float64) int32 {
	if len(o.nodes) >= o.maxNodes {
		panic(fmt.Errorf("%w: octree node pool of %d nodes", core.ErrCapacityExhausted, o.maxNodes))
	}
	node := OctreeNode{Center: center, SideLength: side}
	for i := range node.Children {
		node.Children[i] = -1
	}
	o.nodes = append(o.nodes, node)
	return int32(len(o.nodes) - 1)
}

// Traverse walks the tree breadth first from the root. The visitor decides
// which children to push.
func (o *Octree) Traverse(visit func(q *Queue, idx int32)) {
	if len(o.nodes) == 0 {
		return
	}
	q := &Queue{}
	q.Push(0)
	for q.Len() > 0 {
		visit(q, q.Pop())
	}
}

func octant(center, p core.Vec3) int {
	i := 0
	if p.X >= center.X {
		i |= 1
	}
	if p.Y >= center.Y {
		i |= 2
	}
	if p.Z >= center.Z {
		i |= 4
	}
	return i
}

// Insert stores record idx at p in the first node along the descent whose
// side lies in [2R, 4R], allocating octants on the way. It returns
// ErrDegenerateRecord when no level fits.
func (o *Octree) Insert(idx int32, p core.Vec3, radius float64) error {
	err := fmt.Errorf("%w: radius %g does not fit under the root", core.ErrDegenerateRecord, radius)

	o.Traverse(func(q *Queue, n int32) {
		side := o.nodes[n].SideLength
		switch {
		case side > 4*radius:
			oct := octant(o.nodes[n].Center, p)
			child := o.nodes[n].Children[oct]
			if child < 0 {
				center := o.nodes[n].Center.Add(childOffsets[oct].Multiply(side / 4))
				child = o.allocNode(center, side/2)
				o.nodes[n].Children[oct] = child
			}
			q.Push(child)
		case side >= 2*radius:
			o.nodes[n].Records = append(o.nodes[n].Records, idx)
			err = nil
		default:
			err = fmt.Errorf("%w: radius %g, node side %g", core.ErrDegenerateRecord, radius, side)
		}
	})
	return err
}

// Lookup calls visit for every record stored in a node whose cube, grown
// by side*tolerance/2 on each side, contains p. A node failing the test
// prunes its whole subtree.
func (o *Octree) Lookup(p core.Vec3, tolerance float64, visit func(record int32)) {
	o.Traverse(func(q *Queue, n int32) {
		node := &o.nodes[n]
		reach := node.SideLength / 2 * (1 + tolerance)
		d := p.Subtract(node.Center)
		if math.Abs(d.X) > reach || math.Abs(d.Y) > reach || math.Abs(d.Z) > reach {
			return
		}

		for _, r := range node.Records {
			visit(r)
		}
		for _, c := range node.Children {
			if c >= 0 {
				q.Push(c)
			}
		}
	})
}

// Len returns the number of allocated nodes
func (o *Octree) Len() int {
	return len(o.nodes)
}

// Capacity is the size of the node pool
func (o *Octree) Capacity() int {
	return o.maxNodes
}

// Nodes exposes the node arena
func (o *Octree) Nodes() []OctreeNode {
	return o.nodes
}

// Bounds lists the cube of every allocated node
func (o *Octree) Bounds() []core.AABB {
	boxes := make([]core.AABB, len(o.nodes))
	for i := range o.nodes {
		boxes[i] = o.nodes[i].Box()
	}
	return boxes
}

// Depth returns the number of levels needed to reach the storage band of
// the smallest record radius from a root of the given side
func Depth(side float64) int {
	if side <= 4*MinRadius {
		return 1
	}
	return int(math.Ceil(math.Log2(side/(4*MinRadius)))) + 1
}
