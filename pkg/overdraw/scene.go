package overdraw

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/tootle/internal/vec3"
)

func toV3(p vec3.Vec3) v3.Vec   { return v3.Vec{X: p.X, Y: p.Y, Z: p.Z} }
func fromV3(p v3.Vec) vec3.Vec3 { return vec3.Vec3{X: p.X, Y: p.Y, Z: p.Z} }

// normalizeScene rigidly scales and translates positions into the unit
// sphere: uniform scale by 1/max-extent, then translate so the
// bounding-box center sits at the origin. The bounding-box min/max
// reduction is expressed with sdfx's v3.Vec rather than this package's
// own vec3.Vec3 type, repurposing the geometry kernel's extent
// arithmetic for the one step in this pipeline that is naturally a box
// reduction rather than a per-triangle loop.
func normalizeScene(positions []vec3.Vec3) (scaled []vec3.Vec3, scale float64, center vec3.Vec3) {
	if len(positions) == 0 {
		return nil, 1, vec3.Vec3{}
	}

	lo, hi := toV3(positions[0]), toV3(positions[0])
	for _, p := range positions[1:] {
		v := toV3(p)
		lo = lo.Min(v)
		hi = hi.Max(v)
	}

	mid := lo.Add(hi).MulScalar(0.5)
	ext := hi.Sub(lo)
	maxExtent := math.Max(ext.X, math.Max(ext.Y, ext.Z))
	if maxExtent < 1e-12 {
		maxExtent = 1
	}
	s := 1 / maxExtent

	center = fromV3(mid)
	scaled = make([]vec3.Vec3, len(positions))
	for i, p := range positions {
		scaled[i] = p.Sub(center).Scale(s)
	}
	return scaled, s, center
}
