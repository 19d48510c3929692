package scene

import (
	"fmt"

	"github.com/df07/go-irradiance-tracer/pkg/core"
	"github.com/df07/go-irradiance-tracer/pkg/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// Material is a flat surface description. Only Albedo takes part in
// shading; the other fields are carried for the preview renderer.
type Material struct {
	Name       string
	Albedo     core.Vec3
	Emissive   core.Vec3
	Roughness  float64
	Metallic   float64
	DiffuseMap string
}

// DirectionalLight is a light at infinity
type DirectionalLight struct {
	Direction core.Vec3 // Direction the light travels in
	Color     core.Vec3
}

// ToLight returns the unit vector from a surface toward the light
func (l DirectionalLight) ToLight() core.Vec3 {
	return l.Direction.Normalize().Negate()
}

// Node is one entry of the input scene graph. Transforms are relative to
// the parent node.
type Node struct {
	Name      string
	Transform mgl64.Mat4
	Mesh      *geometry.Mesh
	Children  []*Node
}

// NewNode creates a node with an identity transform
func NewNode(name string, mesh *geometry.Mesh, children ...*Node) *Node {
	return &Node{Name: name, Transform: mgl64.Ident4(), Mesh: mesh, Children: children}
}

// Description is the hierarchical scene handed over by the scene graph,
// before flattening
type Description struct {
	Name      string
	Root      *Node
	Materials []Material
	Lights    []DirectionalLight
	SkyColor  core.Vec3
	Camera    CameraConfig
}

// Flatten composes the node transforms and produces the flat scene
func (d *Description) Flatten() (*FlatScene, error) {
	if d.Root == nil {
		return nil, fmt.Errorf("scene %q has no root node", d.Name)
	}
	if len(d.Materials) == 0 {
		return nil, fmt.Errorf("scene %q has no materials", d.Name)
	}

	fs := &FlatScene{
		Name:      d.Name,
		Materials: d.Materials,
		Lights:    d.Lights,
		SkyColor:  d.SkyColor,
		bounds:    core.EmptyAABB(),
	}
	if err := fs.flattenNode(d.Root, mgl64.Ident4()); err != nil {
		return nil, err
	}
	return fs, nil
}

// Counts summarizes a flattened scene for logging
type Counts struct {
	Instances int
	Meshes    int
	Triangles int
	Lights    int
}
