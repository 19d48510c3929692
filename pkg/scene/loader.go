package scene

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/df07/go-irradiance-tracer/pkg/core"
	"github.com/df07/go-irradiance-tracer/pkg/geometry"
	"github.com/df07/go-irradiance-tracer/pkg/loaders"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// sceneFile is the YAML layout of a scene description
type sceneFile struct {
	Name      string         `yaml:"name"`
	Sky       [3]float64     `yaml:"sky"`
	Camera    cameraFile     `yaml:"camera"`
	Materials []materialFile `yaml:"materials"`
	Lights    []lightFile    `yaml:"lights"`
	Meshes    []meshFile     `yaml:"meshes"`
	Nodes     []nodeFile     `yaml:"nodes"`
}

type cameraFile struct {
	Position [3]float64 `yaml:"position"`
	Target   [3]float64 `yaml:"target"`
	Up       [3]float64 `yaml:"up"`
	Fov      float64    `yaml:"fov"`
	Near     float64    `yaml:"near"`
	Far      float64    `yaml:"far"`
}

type materialFile struct {
	Name       string     `yaml:"name"`
	Albedo     [3]float64 `yaml:"albedo"`
	Emissive   [3]float64 `yaml:"emissive"`
	Roughness  float64    `yaml:"roughness"`
	Metallic   float64    `yaml:"metallic"`
	DiffuseMap string     `yaml:"diffuseMap"`
}

type lightFile struct {
	Direction [3]float64 `yaml:"direction"`
	Color     [3]float64 `yaml:"color"`
}

type meshFile struct {
	Name      string       `yaml:"name"`
	Kind      string       `yaml:"kind"`
	Material  string       `yaml:"material"`
	File      string       `yaml:"file"` // PLY file, relative to the scene file
	Positions [][3]float64 `yaml:"positions"`
	Normals   [][3]float64 `yaml:"normals"`
	UVs       [][2]float64 `yaml:"uvs"`
	Indices   []uint32     `yaml:"indices"`
	Parts     []meshFile   `yaml:"parts"`
}

type nodeFile struct {
	Name      string     `yaml:"name"`
	Mesh      string     `yaml:"mesh"`
	Translate [3]float64 `yaml:"translate"`
	Rotate    [3]float64 `yaml:"rotate"` // Euler angles in degrees, XYZ order
	Scale     []float64  `yaml:"scale"`
	Children  []nodeFile `yaml:"children"`
}

func vec(a [3]float64) core.Vec3 {
	return core.NewVec3(a[0], a[1], a[2])
}

// LoadFile reads a YAML scene description from path
func LoadFile(path string) (*Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()
	return load(f, filepath.Dir(path))
}

// Load decodes a YAML scene description. Mesh files are resolved against
// the working directory.
func Load(r io.Reader) (*Description, error) {
	return load(r, ".")
}

func load(r io.Reader, baseDir string) (*Description, error) {
	var file sceneFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}

	d := &Description{
		Name:     file.Name,
		SkyColor: vec(file.Sky),
		Camera: CameraConfig{
			Position: vec(file.Camera.Position),
			Target:   vec(file.Camera.Target),
			Up:       vec(file.Camera.Up),
			VFov:     file.Camera.Fov,
			Near:     file.Camera.Near,
			Far:      file.Camera.Far,
		},
	}
	if d.Camera.Up.IsZero() {
		d.Camera.Up = core.NewVec3(0, 1, 0)
	}
	if d.Camera.VFov == 0 {
		d.Camera.VFov = 40
	}

	materialIndex := make(map[string]int)
	for i, m := range file.Materials {
		materialIndex[m.Name] = i
		d.Materials = append(d.Materials, Material{
			Name:       m.Name,
			Albedo:     vec(m.Albedo),
			Emissive:   vec(m.Emissive),
			Roughness:  m.Roughness,
			Metallic:   m.Metallic,
			DiffuseMap: m.DiffuseMap,
		})
	}

	for _, l := range file.Lights {
		d.Lights = append(d.Lights, DirectionalLight{Direction: vec(l.Direction), Color: vec(l.Color)})
	}

	meshes := make(map[string]*geometry.Mesh)
	for _, mf := range file.Meshes {
		mesh := &geometry.Mesh{Name: mf.Name}
		parts := mf.Parts
		if len(parts) == 0 {
			parts = []meshFile{mf}
		}
		for _, part := range parts {
			if part.File != "" {
				loaded, err := loadMeshFile(part, baseDir, materialIndex)
				if err != nil {
					return nil, fmt.Errorf("mesh %q: %w", mf.Name, err)
				}
				mesh.Submeshes = append(mesh.Submeshes, loaded.Submeshes...)
				continue
			}
			sm, err := decodeSubmesh(part, materialIndex)
			if err != nil {
				return nil, fmt.Errorf("mesh %q: %w", mf.Name, err)
			}
			mesh.Submeshes = append(mesh.Submeshes, sm)
		}
		meshes[mf.Name] = mesh
	}

	root := NewNode("root", nil)
	for _, nf := range file.Nodes {
		child, err := decodeNode(nf, meshes)
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, child)
	}
	d.Root = root
	return d, nil
}

func decodeSubmesh(mf meshFile, materialIndex map[string]int) (geometry.Submesh, error) {
	kind, err := geometry.ParseKind(mf.Kind)
	if err != nil {
		return geometry.Submesh{}, err
	}
	mat, ok := materialIndex[mf.Material]
	if !ok {
		return geometry.Submesh{}, fmt.Errorf("unknown material %q", mf.Material)
	}

	sm := geometry.Submesh{Kind: kind, Indices: mf.Indices, MaterialIndex: mat}
	for i, p := range mf.Positions {
		v := geometry.Vertex{Position: vec(p)}
		if i < len(mf.Normals) {
			v.Normal = vec(mf.Normals[i]).Normalize()
		}
		if i < len(mf.UVs) {
			v.UV = core.NewVec2(mf.UVs[i][0], mf.UVs[i][1])
		}
		sm.Vertices = append(sm.Vertices, v)
	}
	if err := sm.Validate(); err != nil {
		return geometry.Submesh{}, err
	}
	return sm, nil
}

// loadMeshFile reads a PLY mesh. Inline geometry is not allowed next to it.
func loadMeshFile(mf meshFile, baseDir string, materialIndex map[string]int) (*geometry.Mesh, error) {
	if len(mf.Positions) > 0 || len(mf.Indices) > 0 {
		return nil, fmt.Errorf("file %q given together with inline geometry", mf.File)
	}
	mat, ok := materialIndex[mf.Material]
	if !ok {
		return nil, fmt.Errorf("unknown material %q", mf.Material)
	}

	path := mf.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	data, err := loaders.LoadPLY(path)
	if err != nil {
		return nil, err
	}
	return data.Mesh(mf.Name, mat), nil
}

func decodeNode(nf nodeFile, meshes map[string]*geometry.Mesh) (*Node, error) {
	node := NewNode(nf.Name, nil)
	if nf.Mesh != "" {
		mesh, ok := meshes[nf.Mesh]
		if !ok {
			return nil, fmt.Errorf("node %q: unknown mesh %q", nf.Name, nf.Mesh)
		}
		node.Mesh = mesh
	}

	scale := mgl64.Vec3{1, 1, 1}
	switch len(nf.Scale) {
	case 0:
	case 1:
		scale = mgl64.Vec3{nf.Scale[0], nf.Scale[0], nf.Scale[0]}
	case 3:
		scale = mgl64.Vec3{nf.Scale[0], nf.Scale[1], nf.Scale[2]}
	default:
		return nil, fmt.Errorf("node %q: scale needs 1 or 3 values", nf.Name)
	}

	rotation := mgl64.AnglesToQuat(
		mgl64.DegToRad(nf.Rotate[0]), mgl64.DegToRad(nf.Rotate[1]), mgl64.DegToRad(nf.Rotate[2]), mgl64.XYZ)
	node.Transform = mgl64.Translate3D(nf.Translate[0], nf.Translate[1], nf.Translate[2]).
		Mul4(rotation.Mat4()).
		Mul4(mgl64.Scale3D(scale[0], scale[1], scale[2]))

	for _, cf := range nf.Children {
		child, err := decodeNode(cf, meshes)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}
