package renderer

import (
	"errors"
	"math"

	"github.com/df07/go-irradiance-tracer/pkg/core"
	"github.com/df07/go-irradiance-tracer/pkg/irradiance"
	"github.com/df07/go-irradiance-tracer/pkg/scene"
)

// shader evaluates radiance for one tile task. It owns the tile's sampler
// and cache view, so it is never shared between goroutines.
type shader struct {
	rc      *RenderContext
	cache   *irradiance.Cache
	sampler core.Sampler
	insert  bool // Fresh records go into the cache (cache pass only)
	stats   *TileStats
	debug   *tileDebug
}

// lightsTerm is the reflected radiance from the directional lights, one
// shadow ray each
func (s *shader) lightsTerm(surf scene.Surface) core.Vec3 {
	var sum core.Vec3
	for _, light := range s.rc.Scene.Lights {
		toLight := light.ToLight()
		cosine := surf.Normal.Dot(toLight)
		if cosine <= 0 {
			continue
		}
		shadow := core.OffsetRay(surf.Point, surf.Normal, toLight)
		if s.rc.Scene.TraceVisibility(shadow, math.Inf(1)) {
			continue
		}
		sum = sum.Add(light.Color.Multiply(cosine))
	}
	return surf.Albedo.MultiplyVec(sum).Multiply(1 / math.Pi)
}

// skyTerm estimates the reflected constant sky with one cosine-weighted
// visibility sample
func (s *shader) skyTerm(surf scene.Surface) core.Vec3 {
	sky := s.rc.Scene.SkyColor
	dir := core.SampleCosineHemisphere(surf.Normal, s.sampler.Get2D())
	if sky.IsZero() {
		return core.Vec3{}
	}
	if s.rc.Scene.TraceVisibility(core.OffsetRay(surf.Point, surf.Normal, dir), math.Inf(1)) {
		return core.Vec3{}
	}
	return surf.Albedo.MultiplyVec(sky)
}

// direct is the depth 0 shading of a surface
func (s *shader) direct(surf scene.Surface) core.Vec3 {
	return s.lightsTerm(surf).Add(s.skyTerm(surf))
}

// shade returns the radiance leaving surf with depth indirect bounces
func (s *shader) shade(surf scene.Surface, depth int) core.Vec3 {
	color := s.direct(surf)
	if depth > 0 {
		color = color.Add(s.bounce(surf, depth))
	}
	return color
}

// bounce follows one cosine-weighted direction. Sky is already counted by
// direct, so an escaping ray adds nothing.
func (s *shader) bounce(surf scene.Surface, depth int) core.Vec3 {
	dir := core.SampleCosineHemisphere(surf.Normal, s.sampler.Get2D())
	ray := core.OffsetRay(surf.Point, surf.Normal, dir)
	info := s.rc.Scene.Trace(ray)
	if !info.Hit() {
		return core.Vec3{}
	}
	return surf.Albedo.MultiplyVec(s.shade(s.rc.Scene.SurfaceAt(ray, info), depth-1))
}

// radiance returns the radiance arriving along ray and the hit distance,
// +Inf when the ray escapes to the sky. A negative depth shades hits black.
func (s *shader) radiance(ray core.Ray, depth int) (core.Vec3, float64) {
	info := s.rc.Scene.Trace(ray)
	if !info.Hit() {
		return s.rc.Scene.SkyColor, math.Inf(1)
	}
	if depth < 0 {
		return core.Vec3{}, info.T
	}
	return s.shade(s.rc.Scene.SurfaceAt(ray, info), depth), info.T
}

// sampleIrradianceRecord integrates incoming radiance over the hemisphere
// around (p, n) on a stratified M x N cosine-weighted grid and derives the
// validity radius and the Ward-Heckbert gradients
func (s *shader) sampleIrradianceRecord(p, n core.Vec3) irradiance.Record {
	cfg := s.rc.Config
	m, nPhi := cfg.HemisphereTheta, cfg.HemispherePhi
	basis := core.NewBasis(n)

	radiance := make([]core.Vec3, m*nPhi)
	dist := make([]float64, m*nPhi) // +Inf for rays that escaped
	collectRays := s.debug != nil && s.debug.rays == nil
	var rays []DebugRay

	var sum core.Vec3
	var invDist float64
	for j := 0; j < m; j++ {
		for k := 0; k < nPhi; k++ {
			theta, phi := core.StratifiedCosineAngles(j, k, m, nPhi, s.sampler.Get2D())
			sinTheta := math.Sin(theta)
			dir := basis.ToWorld(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), math.Cos(theta))
			ray := core.OffsetRay(p, n, dir)

			idx := j*nPhi + k
			radiance[idx], dist[idx] = s.radiance(ray, cfg.NumBounces-1)
			sum = sum.Add(radiance[idx])

			t := -1.0
			if !math.IsInf(dist[idx], 1) {
				t = dist[idx]
				invDist += 1 / t
			}
			if collectRays {
				rays = append(rays, DebugRay{Origin: ray.Origin, Direction: dir, T: t})
			}
		}
	}
	if collectRays {
		s.debug.rays = rays
	}

	count := float64(m * nPhi)
	radius := irradiance.MaxRadius
	if invDist > 0 {
		radius = irradiance.ClampRadius(count / invDist)
	}

	record := irradiance.Record{
		Position:   p,
		Normal:     n,
		Irradiance: sum.Multiply(math.Pi / count),
		Radius:     radius,
	}
	record.RotationalGradient, record.TranslationalGradient = hemisphereGradients(basis, m, nPhi, radiance, dist)
	return record
}

// hemisphereGradients computes the rotational and translational irradiance
// gradients of a stratified hemisphere, one vector per colour channel, by
// finite differences between neighbouring cells
func hemisphereGradients(basis core.Basis, m, n int, radiance []core.Vec3, dist []float64) (rot, trans [3]core.Vec3) {
	at := func(j, k int) int { return j*n + ((k + n) % n) }
	dPhi := 2 * math.Pi / float64(n)

	for k := 0; k < n; k++ {
		phi := (float64(k) + 0.5) * dPhi
		phiMinus := float64(k) * dPhi
		u := basis.ToWorld(math.Cos(phi), math.Sin(phi), 0)
		v := basis.ToWorld(-math.Sin(phi), math.Cos(phi), 0)
		vMinus := basis.ToWorld(-math.Sin(phiMinus), math.Cos(phiMinus), 0)

		// Rotation: sum over theta of -tan(theta_j) L_jk along v_k
		var rotSum core.Vec3
		for j := 0; j < m; j++ {
			theta := math.Asin(math.Sqrt((float64(j) + 0.5) / float64(m)))
			rotSum = rotSum.Add(radiance[at(j, k)].Multiply(-math.Tan(theta)))
		}

		// Translation across theta boundaries, along u_k
		var thetaSum core.Vec3
		for j := 1; j < m; j++ {
			thetaMinus := math.Asin(math.Sqrt(float64(j) / float64(m)))
			sinT, cosT := math.Sin(thetaMinus), math.Cos(thetaMinus)
			r := math.Min(dist[at(j, k)], dist[at(j-1, k)])
			diff := radiance[at(j, k)].Subtract(radiance[at(j-1, k)])
			thetaSum = thetaSum.Add(diff.Multiply(sinT * cosT * cosT / r))
		}

		// Translation across phi boundaries, along v_k-
		var phiSum core.Vec3
		for j := 0; j < m; j++ {
			sinMinus := math.Sqrt(float64(j) / float64(m))
			sinPlus := math.Sqrt(float64(j+1) / float64(m))
			r := math.Min(dist[at(j, k)], dist[at(j, k-1)])
			diff := radiance[at(j, k)].Subtract(radiance[at(j, k-1)])
			phiSum = phiSum.Add(diff.Multiply((sinPlus - sinMinus) / r))
		}

		for c := 0; c < 3; c++ {
			rot[c] = rot[c].Add(v.Multiply(rotSum.Channel(c)))
			trans[c] = trans[c].Add(u.Multiply(dPhi * thetaSum.Channel(c))).Add(vMinus.Multiply(phiSum.Channel(c)))
		}
	}

	scale := math.Pi / float64(m*n)
	for c := 0; c < 3; c++ {
		rot[c] = rot[c].Multiply(scale)
	}
	return rot, trans
}

// approximateDiffuseInterreflection returns the irradiance at (p, n) from
// the cache, falling back to a fresh record when nothing applies. The
// fresh record is stored only when the shader inserts.
func (s *shader) approximateDiffuseInterreflection(p, n core.Vec3, tolerance float64) core.Vec3 {
	e, weight := s.cache.Interpolate(p, n, tolerance, s.rc.weight)
	if weight > 0 {
		s.stats.CacheHits++
		return e
	}
	s.stats.CacheMisses++

	record := s.sampleIrradianceRecord(p, n)
	if !s.insert {
		return record.Irradiance
	}

	stored, err := s.cache.Add(record)
	s.stats.Records++
	if err != nil {
		if !errors.Is(err, core.ErrDegenerateRecord) {
			panic(err)
		}
		s.stats.Degenerate++
		s.rc.Logger.Warnf("render %s: %v", s.rc.ID, err)
	}
	return stored.Irradiance
}
