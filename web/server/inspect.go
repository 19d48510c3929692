package server

import (
	"fmt"
	"net/http"

	"github.com/df07/go-irradiance-tracer/pkg/core"
	"github.com/df07/go-irradiance-tracer/pkg/renderer"
	"github.com/df07/go-irradiance-tracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit       bool           `json:"hit"`
	Instance  string         `json:"instance,omitempty"`
	Mesh      string         `json:"mesh,omitempty"`
	Triangle  int            `json:"triangle"` // Index in the flattened triangle arrays, -1 on a miss
	Point     [3]float64     `json:"point"`
	Normal    [3]float64     `json:"normal"`
	Distance  float64        `json:"distance"`
	InRange   bool           `json:"inRange"` // Between the camera near and far planes
	Material  string         `json:"material,omitempty"`
	Albedo    [3]float64     `json:"albedo"`
	Color     string         `json:"color,omitempty"`
	SceneInfo map[string]any `json:"scene"`
}

// handleInspect casts a ray through the center of a pixel and reports the
// surface it hits
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	params, err := parseSceneParams(values)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	x, err := parseIntParam(values, "x", 0, 0, params.Width-1)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	y, err := parseIntParam(values, "y", 0, 0, params.Height-1)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	desc, flat, err := s.loadScene(params.Scene, renderer.DefaultConfig().Seed)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	camera := scene.NewCamera(desc.Camera, float64(params.Width)/float64(params.Height))
	writeJSON(w, http.StatusOK, inspectPixel(flat, camera, params, x, y))
}

// inspectPixel traces the pixel center without jitter
func inspectPixel(flat *scene.FlatScene, camera *scene.Camera, params SceneParams, x, y int) InspectResponse {
	counts := flat.Counts()
	resp := InspectResponse{
		Triangle: -1,
		SceneInfo: map[string]any{
			"name":      flat.Name,
			"instances": counts.Instances,
			"meshes":    counts.Meshes,
			"triangles": counts.Triangles,
			"lights":    counts.Lights,
		},
	}

	ray := camera.Ray((float64(x)+0.5)/float64(params.Width), (float64(y)+0.5)/float64(params.Height))
	info := flat.Trace(ray)
	if !info.Hit() {
		return resp
	}

	surface := flat.SurfaceAt(ray, info)
	inst := flat.Instances[info.Instance]
	mat := flat.Materials[surface.Material]

	resp.Hit = true
	resp.Instance = inst.Name
	resp.Mesh = inst.Mesh.Name
	resp.Triangle = flat.GlobalTriangle(info)
	resp.Point = toArray(surface.Point)
	resp.Normal = toArray(surface.Normal)
	resp.Distance = info.T
	resp.InRange = camera.InRange(info.T)
	resp.Material = mat.Name
	resp.Albedo = toArray(mat.Albedo)
	resp.Color = hexColor(mat.Albedo)
	return resp
}

func toArray(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// hexColor formats a [0, 1] color as #rrggbb
func hexColor(c core.Vec3) string {
	clamp := func(x float64) int {
		return int(min(max(x, 0), 1) * 255)
	}
	return fmt.Sprintf("#%02x%02x%02x", clamp(c.X), clamp(c.Y), clamp(c.Z))
}
