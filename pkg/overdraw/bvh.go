package overdraw

import (
	"github.com/dhconnelly/rtreego"

	"github.com/chazu/tootle/internal/vec3"
)

const bvhDims = 3

// triangleBox is the rtreego.Spatial wrapper around one triangle's
// bounding box.
type triangleBox struct {
	face int
	rect rtreego.Rect
}

func (t *triangleBox) Bounds() rtreego.Rect { return t.rect }

// bvh indexes every triangle's bounding box so the per-pixel ray cast
// can cull the narrow-phase intersection test down to the handful of
// triangles whose box actually overlaps the ray's footprint, instead
// of testing every triangle in the mesh. It plays the same broad-phase
// role a top-down SAH BVH would; inserting each triangle's box into an
// R-tree gets us there without hand-rolling tree construction.
type bvh struct {
	tree *rtreego.Rtree
}

func triangleRect(a, b, c vec3.Vec3) (rtreego.Rect, error) {
	lo := vec3.Min(vec3.Min(a, b), c)
	hi := vec3.Max(vec3.Max(a, b), c)
	const eps = 1e-6
	origin := rtreego.Point{lo.X - eps, lo.Y - eps, lo.Z - eps}
	lengths := []float64{hi.X - lo.X + 2*eps, hi.Y - lo.Y + 2*eps, hi.Z - lo.Z + 2*eps}
	return rtreego.NewRect(origin, lengths)
}

func buildBVH(positions []vec3.Vec3, indices []uint32) (*bvh, error) {
	faceCount := len(indices) / 3
	tree := rtreego.NewTree(bvhDims, 25, 50)

	for f := 0; f < faceCount; f++ {
		a := positions[indices[f*3]]
		b := positions[indices[f*3+1]]
		c := positions[indices[f*3+2]]
		rect, err := triangleRect(a, b, c)
		if err != nil {
			return nil, err
		}
		tree.Insert(&triangleBox{face: f, rect: rect})
	}
	return &bvh{tree: tree}, nil
}

// candidates returns every triangle whose bounding box intersects rect.
func (b *bvh) candidates(rect rtreego.Rect) []int {
	hits := b.tree.SearchIntersect(rect)
	out := make([]int, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(*triangleBox).face)
	}
	return out
}
