package renderer

import "github.com/df07/go-irradiance-tracer/pkg/core"

// DebugRay is one hemisphere sample of an irradiance record. T is -1 for
// a ray that left the scene.
type DebugRay struct {
	Origin    core.Vec3 `json:"origin"`
	Direction core.Vec3 `json:"direction"`
	T         float64   `json:"t"`
}

// DebugData is the visualization bundle of a finished render
type DebugData struct {
	RenderID       string      `json:"renderId"`
	SampleHits     []core.Vec3 `json:"sampleHits"`     // Cache pass primary hit positions, in tile order
	OctreeBounds   []core.AABB `json:"octreeBounds"`   // Cubes of the merged octree
	HemisphereRays []DebugRay  `json:"hemisphereRays"` // Samples of the first generated record
}

// tileDebug is collected by one cache pass tile
type tileDebug struct {
	hits []core.Vec3
	rays []DebugRay // Hemisphere of the tile's first record
}

// mergeDebug assembles the bundle from the tile results in tile order
func mergeDebug(id string, results []TileResult, bounds []core.AABB) *DebugData {
	data := &DebugData{RenderID: id, OctreeBounds: bounds}
	for _, r := range results {
		data.SampleHits = append(data.SampleHits, r.Debug.hits...)
		if data.HemisphereRays == nil && len(r.Debug.rays) > 0 {
			data.HemisphereRays = r.Debug.rays
		}
	}
	return data
}
