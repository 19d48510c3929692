package core

import "github.com/go-gl/mathgl/mgl64"

// ToMGL converts v to a mathgl vector
func (v Vec3) ToMGL() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// Vec3FromMGL converts a mathgl vector to a Vec3
func Vec3FromMGL(v mgl64.Vec3) Vec3 {
	return Vec3{X: v[0], Y: v[1], Z: v[2]}
}

// TransformPoint applies the affine matrix m to point p
func TransformPoint(m mgl64.Mat4, p Vec3) Vec3 {
	return Vec3FromMGL(mgl64.TransformCoordinate(p.ToMGL(), m))
}

// TransformVector applies the linear part of m to direction d
func TransformVector(m mgl64.Mat4, d Vec3) Vec3 {
	return Vec3FromMGL(mgl64.TransformNormal(d.ToMGL(), m))
}

// TransformNormal transforms a surface normal with the normal matrix
// (inverse transpose of the upper 3x3 of the object to world matrix)
func TransformNormal(normalMatrix mgl64.Mat3, n Vec3) Vec3 {
	return Vec3FromMGL(normalMatrix.Mul3x1(n.ToMGL())).Normalize()
}

// TransformRay maps a ray with m without renormalizing the direction, so
// hit distances stay comparable between the two spaces
func TransformRay(m mgl64.Mat4, r Ray) Ray {
	return Ray{Origin: TransformPoint(m, r.Origin), Direction: TransformVector(m, r.Direction)}
}

// TransformAABB returns the world box enclosing the eight transformed corners
func TransformAABB(m mgl64.Mat4, box AABB) AABB {
	out := EmptyAABB()
	for i := 0; i < 8; i++ {
		corner := Vec3{box.Min.X, box.Min.Y, box.Min.Z}
		if i&1 != 0 {
			corner.X = box.Max.X
		}
		if i&2 != 0 {
			corner.Y = box.Max.Y
		}
		if i&4 != 0 {
			corner.Z = box.Max.Z
		}
		out = out.Extend(TransformPoint(m, corner))
	}
	return out
}
