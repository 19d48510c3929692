package scene

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/df07/go-irradiance-tracer/pkg/core"
	"github.com/df07/go-irradiance-tracer/pkg/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// MeshInstance places a shared mesh in the world
type MeshInstance struct {
	Name          string
	Mesh          *geometry.Mesh
	ObjectToWorld mgl64.Mat4
	WorldToObject mgl64.Mat4
	NormalMatrix  mgl64.Mat3
	WorldBounds   core.AABB

	// TriangleOffset is the index of this instance's first triangle in the
	// flat arrays; SubmeshOffsets are relative to it
	TriangleOffset int
	SubmeshOffsets []int

	bvh *geometry.BVH
}

// RayCastInfo is a world space hit against the flat scene
type RayCastInfo struct {
	geometry.RayHit
	Instance int // -1 when nothing was hit
}

// missInfo is returned for rays that hit nothing
var missInfo = RayCastInfo{RayHit: geometry.NoHit, Instance: -1}

// Surface is the shading data at a hit point
type Surface struct {
	Point    core.Vec3
	Normal   core.Vec3 // Shading normal, facing the incoming ray
	Albedo   core.Vec3
	Material int
}

// FlatScene is the read-only, world space scene consumed by tracing.
// Positions, Normals, Tangents and UVs hold three entries per triangle;
// MaterialIndices holds one.
type FlatScene struct {
	Name      string
	Instances []*MeshInstance
	Materials []Material
	Lights    []DirectionalLight
	SkyColor  core.Vec3

	Positions       []core.Vec3
	Normals         []core.Vec3
	Tangents        []core.Vec3
	UVs             []core.Vec2
	MaterialIndices []int

	bounds core.AABB
	bvhs   map[*geometry.Mesh]*geometry.BVH
}

func (fs *FlatScene) flattenNode(node *Node, parent mgl64.Mat4) error {
	world := parent.Mul4(node.Transform)

	if node.Mesh != nil && node.Mesh.NumTriangles() > 0 {
		if err := fs.addInstance(node, world); err != nil {
			return err
		}
	}
	for _, child := range node.Children {
		if err := fs.flattenNode(child, world); err != nil {
			return err
		}
	}
	return nil
}

func (fs *FlatScene) addInstance(node *Node, world mgl64.Mat4) error {
	if math.Abs(world.Det()) < 1e-12 {
		return fmt.Errorf("node %q has a singular transform", node.Name)
	}

	inst := &MeshInstance{
		Name:           node.Name,
		Mesh:           node.Mesh,
		ObjectToWorld:  world,
		WorldToObject:  world.Inv(),
		NormalMatrix:   world.Mat3().Inv().Transpose(),
		WorldBounds:    core.EmptyAABB(),
		TriangleOffset: len(fs.MaterialIndices),
	}

	local := 0
	for si := range node.Mesh.Submeshes {
		sm := &node.Mesh.Submeshes[si]
		inst.SubmeshOffsets = append(inst.SubmeshOffsets, local)
		if sm.MaterialIndex < 0 || sm.MaterialIndex >= len(fs.Materials) {
			return fmt.Errorf("node %q submesh %d: material index %d out of range", node.Name, si, sm.MaterialIndex)
		}

		for ti := 0; ti < sm.NumTriangles(); ti++ {
			verts := sm.TriangleVertices(ti)
			var p [3]core.Vec3
			for k, v := range verts {
				p[k] = core.TransformPoint(world, v.Position)
			}
			faceNormal := geometry.NewTriangle(p[0], p[1], p[2]).Normal()

			for k, v := range verts {
				n := faceNormal
				if !v.Normal.IsZero() {
					n = core.TransformNormal(inst.NormalMatrix, v.Normal)
				}
				fs.Positions = append(fs.Positions, p[k])
				fs.Normals = append(fs.Normals, n)
				fs.Tangents = append(fs.Tangents, core.TransformVector(world, v.Tangent))
				fs.UVs = append(fs.UVs, v.UV)
				inst.WorldBounds = inst.WorldBounds.Extend(p[k])
			}
			fs.MaterialIndices = append(fs.MaterialIndices, sm.MaterialIndex)
		}
		local += sm.NumTriangles()
	}

	fs.bounds = fs.bounds.Union(inst.WorldBounds)
	fs.Instances = append(fs.Instances, inst)
	return nil
}

// BuildAccelerators builds one BVH per distinct mesh. Instances sharing a
// mesh share its hierarchy.
func (fs *FlatScene) BuildAccelerators(random *rand.Rand) {
	fs.bvhs = make(map[*geometry.Mesh]*geometry.BVH)
	for _, inst := range fs.Instances {
		bvh, ok := fs.bvhs[inst.Mesh]
		if !ok {
			bvh = geometry.NewBVH(inst.Mesh, random)
			fs.bvhs[inst.Mesh] = bvh
		}
		inst.bvh = bvh
	}
}

// BVH returns the hierarchy of an instance, nil before BuildAccelerators
func (inst *MeshInstance) BVH() *geometry.BVH {
	return inst.bvh
}

// Bounds returns the world space bounds of all triangles
func (fs *FlatScene) Bounds() core.AABB {
	return fs.bounds
}

// NumTriangles returns the number of flattened triangles
func (fs *FlatScene) NumTriangles() int {
	return len(fs.MaterialIndices)
}

// Counts summarizes the scene
func (fs *FlatScene) Counts() Counts {
	return Counts{
		Instances: len(fs.Instances),
		Meshes:    len(fs.bvhs),
		Triangles: fs.NumTriangles(),
		Lights:    len(fs.Lights),
	}
}

// Trace returns the closest hit of a world space ray over all instances.
// Each instance is traced in object space; the ray direction is not
// renormalized so T stays a world space parameter.
func (fs *FlatScene) Trace(ray core.Ray) RayCastInfo {
	best := missInfo
	tMax := math.Inf(1)
	for i, inst := range fs.Instances {
		if !inst.WorldBounds.Hit(ray, 0, tMax) {
			continue
		}
		hit := inst.bvh.Trace(core.TransformRay(inst.WorldToObject, ray))
		if hit.Hit() && hit.T < tMax {
			tMax = hit.T
			best = RayCastInfo{RayHit: hit, Instance: i}
		}
	}
	return best
}

// TraceVisibility reports whether any geometry blocks ray within (0, tMax)
func (fs *FlatScene) TraceVisibility(ray core.Ray, tMax float64) bool {
	for _, inst := range fs.Instances {
		if !inst.WorldBounds.Hit(ray, 0, tMax) {
			continue
		}
		if inst.bvh.TraceVisibility(core.TransformRay(inst.WorldToObject, ray), tMax) {
			return true
		}
	}
	return false
}

// GlobalTriangle maps a hit to its index in the flat arrays
func (fs *FlatScene) GlobalTriangle(info RayCastInfo) int {
	inst := fs.Instances[info.Instance]
	return inst.TriangleOffset + inst.SubmeshOffsets[info.Submesh] + info.Triangle
}

// SurfaceAt resolves the shading data of a hit made by ray
func (fs *FlatScene) SurfaceAt(ray core.Ray, info RayCastInfo) Surface {
	g := fs.GlobalTriangle(info)
	w := 1 - info.U - info.V

	normal := fs.Normals[3*g].Multiply(w).
		Add(fs.Normals[3*g+1].Multiply(info.U)).
		Add(fs.Normals[3*g+2].Multiply(info.V)).
		Normalize()
	if normal.Dot(ray.Direction) > 0 {
		normal = normal.Negate()
	}

	mat := fs.MaterialIndices[g]
	return Surface{
		Point:    ray.At(info.T),
		Normal:   normal,
		Albedo:   fs.Materials[mat].Albedo,
		Material: mat,
	}
}
