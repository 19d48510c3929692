package geometry

import "github.com/df07/go-irradiance-tracer/pkg/core"

// boxCorners are the corners of a unit box centered at the origin
var boxCorners = [8]core.Vec3{
	{X: -1, Y: -1, Z: -1}, // 0: left-bottom-back
	{X: 1, Y: -1, Z: -1},  // 1: right-bottom-back
	{X: 1, Y: 1, Z: -1},   // 2: right-top-back
	{X: -1, Y: 1, Z: -1},  // 3: left-top-back
	{X: -1, Y: -1, Z: 1},  // 4: left-bottom-front
	{X: 1, Y: -1, Z: 1},   // 5: right-bottom-front
	{X: 1, Y: 1, Z: 1},    // 6: right-top-front
	{X: -1, Y: 1, Z: 1},   // 7: left-top-front
}

// boxFaces index boxCorners counter clockwise seen from outside
var boxFaces = [6][4]int{
	{4, 5, 6, 7}, // front  +Z
	{1, 0, 3, 2}, // back   -Z
	{5, 1, 2, 6}, // right  +X
	{0, 4, 7, 3}, // left   -X
	{7, 6, 2, 3}, // top    +Y
	{0, 1, 5, 4}, // bottom -Y
}

// NewBoxMesh creates an axis-aligned box as one quad submesh with outward
// facing normals. Size holds half-extents, so (1,1,1) makes a 2x2x2 box.
// Rotated boxes are instances of this mesh.
func NewBoxMesh(name string, materialIndex int, center, size core.Vec3) *Mesh {
	sm := Submesh{Kind: Quads, MaterialIndex: materialIndex}

	for _, face := range boxFaces {
		var p [4]core.Vec3
		for i, c := range face {
			p[i] = center.Add(boxCorners[c].MultiplyVec(size))
		}
		normal := p[1].Subtract(p[0]).Cross(p[2].Subtract(p[0])).Normalize()

		base := uint32(len(sm.Vertices))
		uvs := [4]core.Vec2{core.NewVec2(0, 0), core.NewVec2(1, 0), core.NewVec2(1, 1), core.NewVec2(0, 1)}
		for i := range p {
			sm.Vertices = append(sm.Vertices, Vertex{Position: p[i], Normal: normal, UV: uvs[i]})
		}
		sm.Indices = append(sm.Indices, base, base+1, base+2, base+3)
	}

	return &Mesh{Name: name, Submeshes: []Submesh{sm}}
}
