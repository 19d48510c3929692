package scene

import (
	"fmt"
	"sort"

	"github.com/df07/go-irradiance-tracer/pkg/core"
	"github.com/df07/go-irradiance-tracer/pkg/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// builtins maps scene names to their constructors
var builtins = map[string]func() *Description{
	"quad":     NewQuadScene,
	"open-box": NewOpenBoxScene,
	"cornell":  NewCornellScene,
}

// Builtin returns a built-in scene description by name
func Builtin(name string) (*Description, error) {
	ctor, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q (available: %v)", name, BuiltinNames())
	}
	return ctor(), nil
}

// BuiltinNames lists the built-in scenes in sorted order
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newQuad creates a quad from a corner and two edge vectors. The front
// face normal is u x v.
func newQuad(name string, materialIndex int, corner, u, v core.Vec3) *geometry.Mesh {
	return geometry.NewQuadMesh(name, materialIndex,
		corner, corner.Add(u), corner.Add(u).Add(v), corner.Add(v))
}

// NewQuadScene creates a unit quad facing +Y lit by one directional light
// under a black sky
func NewQuadScene() *Description {
	floor := newQuad("floor", 0,
		core.NewVec3(-0.5, 0, 0.5), core.NewVec3(1, 0, 0), core.NewVec3(0, 0, -1))

	return &Description{
		Name:      "quad",
		Root:      NewNode("root", nil, NewNode("floor", floor)),
		Materials: []Material{{Name: "grey", Albedo: core.NewVec3(0.8, 0.8, 0.8)}},
		Lights: []DirectionalLight{{
			Direction: core.NewVec3(-0.3, -1, -0.2),
			Color:     core.NewVec3(1, 1, 1),
		}},
		SkyColor: core.Vec3{},
		Camera: CameraConfig{
			Position: core.NewVec3(0, 1.5, 1.5),
			Target:   core.NewVec3(0, 0, 0),
			Up:       core.NewVec3(0, 1, 0),
			VFov:     40,
			Near:     0.01,
			Far:      100,
		},
	}
}

// boxWalls returns the floor, back, left and right walls of a 2x2x2 box
// spanning x,z in [-1, 1] and y in [0, 2], all facing inward
func boxWalls(white, left, right int) []*Node {
	return []*Node{
		NewNode("floor", newQuad("floor", white,
			core.NewVec3(-1, 0, 1), core.NewVec3(2, 0, 0), core.NewVec3(0, 0, -2))),
		NewNode("back", newQuad("back", white,
			core.NewVec3(-1, 0, -1), core.NewVec3(2, 0, 0), core.NewVec3(0, 2, 0))),
		NewNode("left", newQuad("left", left,
			core.NewVec3(-1, 0, 1), core.NewVec3(0, 0, -2), core.NewVec3(0, 2, 0))),
		NewNode("right", newQuad("right", right,
			core.NewVec3(1, 0, -1), core.NewVec3(0, 0, 2), core.NewVec3(0, 2, 0))),
	}
}

func boxCamera() CameraConfig {
	return CameraConfig{
		Position: core.NewVec3(0, 1, 4),
		Target:   core.NewVec3(0, 1, 0),
		Up:       core.NewVec3(0, 1, 0),
		VFov:     40,
		Near:     0.01,
		Far:      100,
	}
}

// NewOpenBoxScene creates a white diffuse box without ceiling or front
// wall, lit by a sun from above and a black sky
func NewOpenBoxScene() *Description {
	return &Description{
		Name:      "open-box",
		Root:      NewNode("box", nil, boxWalls(0, 0, 0)...),
		Materials: []Material{{Name: "white", Albedo: core.NewVec3(0.75, 0.75, 0.75)}},
		Lights: []DirectionalLight{{
			Direction: core.NewVec3(0.4, -1, -0.3),
			Color:     core.NewVec3(1.5, 1.5, 1.5),
		}},
		Camera: boxCamera(),
	}
}

// NewCornellScene creates a Cornell-style box with coloured side walls, a
// ceiling with a square skylight, and two blocks on the floor
func NewCornellScene() *Description {
	const white, red, green = 0, 1, 2

	walls := boxWalls(white, red, green)

	// Ceiling facing down, built from four strips around a 0.8 wide opening
	ceiling := &geometry.Mesh{Name: "ceiling"}
	strips := [][2]core.Vec3{
		{core.NewVec3(-1, 2, -1), core.NewVec3(1, 2, -0.4)},
		{core.NewVec3(-1, 2, 0.4), core.NewVec3(1, 2, 1)},
		{core.NewVec3(-1, 2, -0.4), core.NewVec3(-0.4, 2, 0.4)},
		{core.NewVec3(0.4, 2, -0.4), core.NewVec3(1, 2, 0.4)},
	}
	for _, s := range strips {
		lo, hi := s[0], s[1]
		strip := newQuad("strip", white,
			core.NewVec3(lo.X, 2, lo.Z), core.NewVec3(hi.X-lo.X, 0, 0), core.NewVec3(0, 0, hi.Z-lo.Z))
		ceiling.Submeshes = append(ceiling.Submeshes, strip.Submeshes...)
	}
	walls = append(walls, NewNode("ceiling", ceiling))

	// A unit cube mesh shared by both blocks through instancing
	cube := geometry.NewBoxMesh("cube", white, core.Vec3{}, core.Splat(0.5))
	tall := NewNode("tall-block", cube)
	tall.Transform = mgl64.Translate3D(-0.35, 0.6, -0.3).
		Mul4(mgl64.HomogRotate3DY(mgl64.DegToRad(20))).
		Mul4(mgl64.Scale3D(0.55, 1.2, 0.55))
	short := NewNode("short-block", cube)
	short.Transform = mgl64.Translate3D(0.4, 0.3, 0.35).
		Mul4(mgl64.HomogRotate3DY(mgl64.DegToRad(-18))).
		Mul4(mgl64.Scale3D(0.55, 0.6, 0.55))
	walls = append(walls, tall, short)

	return &Description{
		Name: "cornell",
		Root: NewNode("cornell", nil, walls...),
		Materials: []Material{
			{Name: "white", Albedo: core.NewVec3(0.73, 0.73, 0.73)},
			{Name: "red", Albedo: core.NewVec3(0.65, 0.05, 0.05)},
			{Name: "green", Albedo: core.NewVec3(0.12, 0.45, 0.15)},
		},
		Lights: []DirectionalLight{{
			Direction: core.NewVec3(0.15, -1, 0.1),
			Color:     core.NewVec3(6, 5.6, 5),
		}},
		SkyColor: core.NewVec3(0.15, 0.2, 0.3),
		Camera:   boxCamera(),
	}
}
