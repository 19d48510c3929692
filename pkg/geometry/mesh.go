package geometry

import (
	"fmt"

	"github.com/df07/go-irradiance-tracer/pkg/core"
)

// Kind identifies the primitive layout of a submesh
type Kind int

const (
	Triangles Kind = iota
	Quads
	Lines
	PointCloud
)

func (k Kind) String() string {
	switch k {
	case Triangles:
		return "triangles"
	case Quads:
		return "quads"
	case Lines:
		return "lines"
	case PointCloud:
		return "points"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a kind name back to a Kind
func ParseKind(name string) (Kind, error) {
	switch name {
	case "", "triangles":
		return Triangles, nil
	case "quads":
		return Quads, nil
	case "lines":
		return Lines, nil
	case "points":
		return PointCloud, nil
	}
	return 0, fmt.Errorf("unknown geometry kind %q", name)
}

// indicesPerPrimitive is the index stride of one primitive of this kind
func (k Kind) indicesPerPrimitive() int {
	switch k {
	case Triangles:
		return 3
	case Quads:
		return 4
	case Lines:
		return 2
	default:
		return 1
	}
}

// trianglesPerPrimitive is how many traceable triangles one primitive yields
func (k Kind) trianglesPerPrimitive() int {
	switch k {
	case Triangles:
		return 1
	case Quads:
		return 2
	default:
		return 0
	}
}

// Vertex is one mesh vertex in object space
type Vertex struct {
	Position core.Vec3
	Normal   core.Vec3 // zero means "use the face normal"
	Tangent  core.Vec3
	UV       core.Vec2
}

// Submesh is a run of primitives of a single kind sharing one material
type Submesh struct {
	Kind          Kind
	Vertices      []Vertex
	Indices       []uint32
	MaterialIndex int
}

// NumPrimitives returns the number of primitives in the submesh
func (s *Submesh) NumPrimitives() int {
	if s.Kind == PointCloud && len(s.Indices) == 0 {
		return len(s.Vertices)
	}
	return len(s.Indices) / s.Kind.indicesPerPrimitive()
}

// Validate checks that the indices form whole primitives and reference
// existing vertices
func (s *Submesh) Validate() error {
	if stride := s.Kind.indicesPerPrimitive(); len(s.Indices)%stride != 0 {
		return fmt.Errorf("%d %s indices is not a multiple of %d", len(s.Indices), s.Kind, stride)
	}
	for _, idx := range s.Indices {
		if int(idx) >= len(s.Vertices) {
			return fmt.Errorf("index %d out of range (%d vertices)", idx, len(s.Vertices))
		}
	}
	return nil
}

// NumTriangles returns the number of traceable triangles. Lines and point
// clouds have none.
func (s *Submesh) NumTriangles() int {
	return s.NumPrimitives() * s.Kind.trianglesPerPrimitive()
}

// TriangleIndices returns the three vertex indices of traceable triangle i
func (s *Submesh) TriangleIndices(i int) [3]uint32 {
	switch s.Kind {
	case Quads:
		q := s.Indices[(i/2)*4 : (i/2)*4+4]
		if i%2 == 0 {
			return [3]uint32{q[0], q[1], q[2]}
		}
		return [3]uint32{q[0], q[2], q[3]}
	default:
		return [3]uint32{s.Indices[i*3], s.Indices[i*3+1], s.Indices[i*3+2]}
	}
}

// Triangle returns the object space positions of traceable triangle i
func (s *Submesh) Triangle(i int) Triangle {
	idx := s.TriangleIndices(i)
	return Triangle{
		V0: s.Vertices[idx[0]].Position,
		V1: s.Vertices[idx[1]].Position,
		V2: s.Vertices[idx[2]].Position,
	}
}

// TriangleVertices returns the full vertices of traceable triangle i
func (s *Submesh) TriangleVertices(i int) [3]Vertex {
	idx := s.TriangleIndices(i)
	return [3]Vertex{s.Vertices[idx[0]], s.Vertices[idx[1]], s.Vertices[idx[2]]}
}

// ShadingNormal returns the object space normal at barycentric (u, v) of
// triangle i, interpolated from vertex normals when the mesh has them
func (s *Submesh) ShadingNormal(i int, u, v float64) core.Vec3 {
	verts := s.TriangleVertices(i)
	if verts[0].Normal.IsZero() || verts[1].Normal.IsZero() || verts[2].Normal.IsZero() {
		return s.Triangle(i).Normal()
	}
	w := 1 - u - v
	return verts[0].Normal.Multiply(w).
		Add(verts[1].Normal.Multiply(u)).
		Add(verts[2].Normal.Multiply(v)).
		Normalize()
}

// Mesh is an object space triangle container shared by its instances
type Mesh struct {
	Name      string
	Submeshes []Submesh
}

// NumTriangles returns the traceable triangle count over all submeshes
func (m *Mesh) NumTriangles() int {
	total := 0
	for i := range m.Submeshes {
		total += m.Submeshes[i].NumTriangles()
	}
	return total
}

// Bounds returns the object space bounding box of all traceable triangles
func (m *Mesh) Bounds() core.AABB {
	box := core.EmptyAABB()
	for si := range m.Submeshes {
		sm := &m.Submeshes[si]
		for ti := 0; ti < sm.NumTriangles(); ti++ {
			box = box.Union(sm.Triangle(ti).BoundingBox())
		}
	}
	return box
}

// NewQuadMesh creates a single-quad mesh from four corners in counter
// clockwise order
func NewQuadMesh(name string, materialIndex int, p0, p1, p2, p3 core.Vec3) *Mesh {
	normal := p1.Subtract(p0).Cross(p2.Subtract(p0)).Normalize()
	verts := []Vertex{
		{Position: p0, Normal: normal, UV: core.NewVec2(0, 0)},
		{Position: p1, Normal: normal, UV: core.NewVec2(1, 0)},
		{Position: p2, Normal: normal, UV: core.NewVec2(1, 1)},
		{Position: p3, Normal: normal, UV: core.NewVec2(0, 1)},
	}
	return &Mesh{
		Name: name,
		Submeshes: []Submesh{{
			Kind:          Quads,
			Vertices:      verts,
			Indices:       []uint32{0, 1, 2, 3},
			MaterialIndex: materialIndex,
		}},
	}
}
