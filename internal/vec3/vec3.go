// Package vec3 provides the small amount of 3D vector arithmetic
// shared by the cluster and overdraw passes (face normals, cone tests,
// ray/triangle intersection). It has no dependency on the rest of this
// module so that those passes, and the root package's public Vector3
// type, can all build on the same representation without an import
// cycle.
package vec3

import "math"

// Vec3 is a point or direction in 3-space.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(w Vec3) Vec3    { return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }
func (v Vec3) Sub(w Vec3) Vec3    { return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(w Vec3) float64 { return v.X*w.X + v.Y*w.Y + v.Z*w.Z }

func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

func (v Vec3) Length() float64 { return math.Sqrt(v.Dot(v)) }

func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l < 1e-20 {
		return v
	}
	return v.Scale(1 / l)
}

func (v Vec3) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// Min returns the component-wise minimum of v and w.
func Min(v, w Vec3) Vec3 {
	return Vec3{math.Min(v.X, w.X), math.Min(v.Y, w.Y), math.Min(v.Z, w.Z)}
}

// Max returns the component-wise maximum of v and w.
func Max(v, w Vec3) Vec3 {
	return Vec3{math.Max(v.X, w.X), math.Max(v.Y, w.Y), math.Max(v.Z, w.Z)}
}

// FaceNormal returns the unnormalized normal of the triangle (a,b,c)
// following a counter-clockwise-front convention; callers that treat
// clockwise as front negate the result.
func FaceNormal(a, b, c Vec3) Vec3 {
	return b.Sub(a).Cross(c.Sub(a))
}
