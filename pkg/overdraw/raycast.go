package overdraw

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/chazu/tootle/internal/vec3"
)

// Winding records which vertex order faces the camera, mirroring the
// convention a mesh's index buffer was authored with.
type Winding int

const (
	ClockwiseFront Winding = iota
	CounterClockwiseFront
)

type rayHit struct {
	t    float64
	face int
}

// intersectTriangle is the Moller-Trumbore ray/triangle test.
func intersectTriangle(origin, dir, a, b, c vec3.Vec3) (t float64, hit bool) {
	const eps = 1e-9
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	h := dir.Cross(e2)
	det := e1.Dot(h)
	if math.Abs(det) < eps {
		return 0, false
	}
	f := 1 / det
	s := origin.Sub(a)
	u := f * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := f * dir.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = f * e2.Dot(q)
	if t < eps {
		return 0, false
	}
	return t, true
}

// isFrontFacing reports whether a triangle with the given (unnormalized,
// CCW-assumed) face normal is front-facing to a ray travelling along
// dir, under winding.
func isFrontFacing(normal, dir vec3.Vec3, winding Winding) bool {
	d := normal.Dot(dir)
	if winding == CounterClockwiseFront {
		return d < 0
	}
	return d > 0
}

func computeFaceNormals(positions []vec3.Vec3, indices []uint32) []vec3.Vec3 {
	faceCount := len(indices) / 3
	out := make([]vec3.Vec3, faceCount)
	for f := 0; f < faceCount; f++ {
		a := positions[indices[f*3]]
		b := positions[indices[f*3+1]]
		c := positions[indices[f*3+2]]
		out[f] = vec3.FaceNormal(a, b, c)
	}
	return out
}

// orthonormalBasis picks an arbitrary right/up pair perpendicular to d,
// for building an orthographic ray grid facing along -d.
func orthonormalBasis(d vec3.Vec3) (right, up vec3.Vec3) {
	ref := vec3.Vec3{X: 0, Y: 1, Z: 0}
	if math.Abs(d.Dot(ref)) > 0.99 {
		ref = vec3.Vec3{X: 1, Y: 0, Z: 0}
	}
	right = d.Cross(ref).Normalize()
	up = right.Cross(d).Normalize()
	return right, up
}

// castRay finds every front-facing triangle the ray (origin, dir) hits,
// broad-phased through idx. pad widens the query box by the grid
// cell's footprint so a ray passing near a box edge still finds it.
func castRay(idx *bvh, positions []vec3.Vec3, indices []uint32, faceNormals []vec3.Vec3, origin, dir vec3.Vec3, winding Winding, pad float64) []rayHit {
	far := origin.Add(dir.Scale(4))
	lo := vec3.Min(origin, far)
	hi := vec3.Max(origin, far)
	rect, err := rtreego.NewRect(
		rtreego.Point{lo.X - pad, lo.Y - pad, lo.Z - pad},
		[]float64{hi.X - lo.X + 2*pad, hi.Y - lo.Y + 2*pad, hi.Z - lo.Z + 2*pad},
	)
	if err != nil {
		return nil
	}

	var hits []rayHit
	for _, f := range idx.candidates(rect) {
		a := positions[indices[f*3]]
		b := positions[indices[f*3+1]]
		c := positions[indices[f*3+2]]
		t, ok := intersectTriangle(origin, dir, a, b, c)
		if !ok {
			continue
		}
		if !isFrontFacing(faceNormals[f], dir, winding) {
			continue
		}
		hits = append(hits, rayHit{t: t, face: f})
	}
	return hits
}
