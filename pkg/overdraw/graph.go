// Package overdraw builds a directed overdraw graph between triangle
// clusters and orders those clusters to minimize back-to-front
// repainting.
package overdraw

import (
	"fmt"
	"sort"
	"sync"

	"github.com/chazu/tootle/internal/vec3"
)

// Strategy selects how the overdraw graph is computed.
type Strategy int

const (
	Auto Strategy = iota
	Raytrace
	Fast
)

func (s Strategy) String() string {
	switch s {
	case Raytrace:
		return "raytrace"
	case Fast:
		return "fast"
	default:
		return "auto"
	}
}

// RaytraceClusterThreshold is the cluster count above which Auto
// selects Raytrace instead of Fast.
const RaytraceClusterThreshold = 225

// DefaultGridSize is the side length of the per-viewpoint orthographic
// ray grid used by Raytrace.
const DefaultGridSize = 256

// Edge is one directed overdraw relationship: From lies in front of To
// more often than the reverse, so drawing From first lets To's hidden
// fragments be rejected. Cost is that surplus, in ray samples (or
// fast-strategy votes).
type Edge struct {
	From, To, Cost int
}

// Options configures BuildGraph.
type Options struct {
	Strategy Strategy
	GridSize int // 0 means DefaultGridSize
	Workers  int // 0 or 1 means sequential
}

func newMatrix(n int) [][]int {
	m := make([][]int, n)
	for i := range m {
		m[i] = make([]int, n)
	}
	return m
}

// BuildGraph computes the directed overdraw graph among clusters 0..
// clusterCount-1, viewed from viewpoints. It returns the raw
// cluster-by-cluster overdraw count matrix and the derived edge list.
func BuildGraph(positions []float64, vertexCount int, indices []uint32, faceCluster []int, clusterCount int, viewpoints []vec3.Vec3, winding Winding, opt Options) (counts [][]int, edges []Edge, err error) {
	if len(positions) != vertexCount*3 {
		return nil, nil, fmt.Errorf("overdraw: positions length %d, want %d for %d vertices", len(positions), vertexCount*3, vertexCount)
	}
	if len(indices)%3 != 0 {
		return nil, nil, fmt.Errorf("overdraw: index buffer length %d is not a multiple of 3", len(indices))
	}
	if clusterCount == 0 {
		return newMatrix(0), nil, nil
	}
	if len(viewpoints) == 0 {
		return nil, nil, fmt.Errorf("overdraw: no viewpoints supplied")
	}

	pts := make([]vec3.Vec3, vertexCount)
	for i := 0; i < vertexCount; i++ {
		pts[i] = vec3.Vec3{X: positions[i*3], Y: positions[i*3+1], Z: positions[i*3+2]}
	}

	gridSize := opt.GridSize
	if gridSize == 0 {
		gridSize = DefaultGridSize
	}

	strategy := opt.Strategy
	if strategy == Auto {
		if clusterCount > RaytraceClusterThreshold {
			strategy = Raytrace
		} else {
			strategy = Fast
		}
	}

	switch strategy {
	case Raytrace:
		counts, err = raytraceGraph(pts, indices, faceCluster, clusterCount, viewpoints, winding, gridSize, opt.Workers)
	case Fast:
		counts = fastGraph(pts, indices, faceCluster, clusterCount, viewpoints, winding)
	default:
		return nil, nil, fmt.Errorf("overdraw: unknown strategy %d", strategy)
	}
	if err != nil {
		return nil, nil, err
	}

	return counts, deriveEdges(counts, clusterCount), nil
}

func deriveEdges(counts [][]int, clusterCount int) []Edge {
	var edges []Edge
	for i := 0; i < clusterCount; i++ {
		for j := i + 1; j < clusterCount; j++ {
			switch {
			case counts[i][j] > counts[j][i]:
				edges = append(edges, Edge{From: i, To: j, Cost: counts[i][j] - counts[j][i]})
			case counts[j][i] > counts[i][j]:
				edges = append(edges, Edge{From: j, To: i, Cost: counts[j][i] - counts[i][j]})
			}
		}
	}
	return edges
}

// raytraceGraph casts an orthographic ray grid from every viewpoint and
// accumulates, per pixel, which cluster painted over which.
func raytraceGraph(positions []vec3.Vec3, indices []uint32, faceCluster []int, clusterCount int, viewpoints []vec3.Vec3, winding Winding, gridSize, workers int) ([][]int, error) {
	scaled, _, _ := normalizeScene(positions)
	idx, err := buildBVH(scaled, indices)
	if err != nil {
		return nil, err
	}
	faceNormals := computeFaceNormals(scaled, indices)

	results := make([][][]int, len(viewpoints))
	cast := func(i int) {
		results[i] = castViewpoint(idx, scaled, indices, faceNormals, faceCluster, clusterCount, viewpoints[i], gridSize, winding)
	}

	if workers <= 1 {
		for i := range viewpoints {
			cast(i)
		}
	} else {
		var wg sync.WaitGroup
		jobs := make(chan int)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					cast(i)
				}
			}()
		}
		for i := range viewpoints {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}

	// Sum in viewpoint index order regardless of which worker computed
	// which slot, so the result is identical to the sequential path.
	counts := newMatrix(clusterCount)
	for _, r := range results {
		for i := 0; i < clusterCount; i++ {
			for j := 0; j < clusterCount; j++ {
				counts[i][j] += r[i][j]
			}
		}
	}
	return counts, nil
}

func castViewpoint(idx *bvh, positions []vec3.Vec3, indices []uint32, faceNormals []vec3.Vec3, faceCluster []int, clusterCount int, d vec3.Vec3, gridSize int, winding Winding) [][]int {
	counts := newMatrix(clusterCount)
	right, up := orthonormalBasis(d)
	cell := 2.0 / float64(gridSize)

	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			u := -1 + (float64(i)+0.5)*cell
			v := -1 + (float64(j)+0.5)*cell
			origin := d.Scale(2).Add(right.Scale(u)).Add(up.Scale(v))
			dir := d.Scale(-1)

			hits := castRay(idx, positions, indices, faceNormals, origin, dir, winding, cell)
			if len(hits) < 2 {
				continue
			}
			sort.Slice(hits, func(a, b int) bool {
				if hits[a].t != hits[b].t {
					return hits[a].t < hits[b].t
				}
				return hits[a].face < hits[b].face
			})
			for k := 0; k+1 < len(hits); k++ {
				from := faceCluster[hits[k].face]
				to := faceCluster[hits[k+1].face]
				counts[from][to]++
			}
		}
	}
	return counts
}

// clusterBounds computes each cluster's centroid, bounding-sphere
// radius, and average face normal, for the Fast strategy's analytic
// approximation.
func clusterBounds(positions []vec3.Vec3, indices []uint32, faceCluster []int, clusterCount int) (centers []vec3.Vec3, radii []float64, normals []vec3.Vec3) {
	sums := make([]vec3.Vec3, clusterCount)
	counts := make([]int, clusterCount)
	normalSums := make([]vec3.Vec3, clusterCount)
	seen := make([]map[uint32]bool, clusterCount)
	for i := range seen {
		seen[i] = map[uint32]bool{}
	}

	faceCount := len(indices) / 3
	for f := 0; f < faceCount; f++ {
		c := faceCluster[f]
		verts := [3]uint32{indices[f*3], indices[f*3+1], indices[f*3+2]}
		a, b, cc := positions[verts[0]], positions[verts[1]], positions[verts[2]]
		normalSums[c] = normalSums[c].Add(vec3.FaceNormal(a, b, cc))
		for _, v := range verts {
			if !seen[c][v] {
				seen[c][v] = true
				sums[c] = sums[c].Add(positions[v])
				counts[c]++
			}
		}
	}

	centers = make([]vec3.Vec3, clusterCount)
	normals = make([]vec3.Vec3, clusterCount)
	for c := 0; c < clusterCount; c++ {
		if counts[c] > 0 {
			centers[c] = sums[c].Scale(1 / float64(counts[c]))
		}
		normals[c] = normalSums[c].Normalize()
	}

	radii = make([]float64, clusterCount)
	for f := 0; f < faceCount; f++ {
		c := faceCluster[f]
		verts := [3]uint32{indices[f*3], indices[f*3+1], indices[f*3+2]}
		for _, v := range verts {
			d := positions[v].Sub(centers[c]).Length()
			if d > radii[c] {
				radii[c] = d
			}
		}
	}
	return centers, radii, normals
}

// facesViewpoint reports whether a cluster with the given (CCW-assumed,
// averaged) normal faces toward a camera positioned in direction d from
// the scene, under winding. This mirrors isFrontFacing's convention but
// is expressed in terms of the viewpoint direction d rather than the
// ray direction (dir = -d): for a CounterClockwiseFront mesh the
// geometric outward normal matches normal as computed, so facing the
// camera means normal.Dot(d) > 0; for ClockwiseFront the outward normal
// is normal's negation, flipping the sign of the test.
func facesViewpoint(normal, d vec3.Vec3, winding Winding) bool {
	dot := normal.Dot(d)
	if winding == CounterClockwiseFront {
		return dot > 0
	}
	return dot < 0
}

// fastGraph scores cluster pairs by projected bounding-sphere overlap
// along each viewpoint instead of casting the full ray grid; its
// counts are per-viewpoint occlusion votes rather than per-pixel
// fragment counts, which is a coarser but much cheaper signal for
// ordering.
func fastGraph(positions []vec3.Vec3, indices []uint32, faceCluster []int, clusterCount int, viewpoints []vec3.Vec3, winding Winding) [][]int {
	centers, radii, normals := clusterBounds(positions, indices, faceCluster, clusterCount)
	counts := newMatrix(clusterCount)

	for _, d := range viewpoints {
		depth := make([]float64, clusterCount)
		proj := make([]vec3.Vec3, clusterCount)
		for c := 0; c < clusterCount; c++ {
			depth[c] = centers[c].Dot(d)
			proj[c] = centers[c].Sub(d.Scale(depth[c]))
		}
		for i := 0; i < clusterCount; i++ {
			if !facesViewpoint(normals[i], d, winding) {
				continue // back-facing clusters can't occlude from this view
			}
			for j := 0; j < clusterCount; j++ {
				if i == j || depth[i] <= depth[j] {
					continue
				}
				if proj[i].Sub(proj[j]).Length() <= radii[i]+radii[j] {
					counts[i][j]++
				}
			}
		}
	}
	return counts
}

// Measure estimates average and maximum per-pixel overdraw depth
// (fragments behind the nearest front-facing hit) across viewpoints,
// for reporting rather than clustering.
func Measure(positions []float64, vertexCount int, indices []uint32, viewpoints []vec3.Vec3, winding Winding, gridSize int) (avg, max float64, err error) {
	if len(positions) != vertexCount*3 {
		return 0, 0, fmt.Errorf("overdraw: positions length %d, want %d for %d vertices", len(positions), vertexCount*3, vertexCount)
	}
	if len(viewpoints) == 0 {
		return 0, 0, fmt.Errorf("overdraw: no viewpoints supplied")
	}
	if gridSize == 0 {
		gridSize = DefaultGridSize
	}

	pts := make([]vec3.Vec3, vertexCount)
	for i := 0; i < vertexCount; i++ {
		pts[i] = vec3.Vec3{X: positions[i*3], Y: positions[i*3+1], Z: positions[i*3+2]}
	}
	scaled, _, _ := normalizeScene(pts)
	idx, err := buildBVH(scaled, indices)
	if err != nil {
		return 0, 0, err
	}
	faceNormals := computeFaceNormals(scaled, indices)

	var total float64
	var sampleCount int
	var maxOverdraw float64

	for _, d := range viewpoints {
		right, up := orthonormalBasis(d)
		cell := 2.0 / float64(gridSize)
		for i := 0; i < gridSize; i++ {
			for j := 0; j < gridSize; j++ {
				u := -1 + (float64(i)+0.5)*cell
				v := -1 + (float64(j)+0.5)*cell
				origin := d.Scale(2).Add(right.Scale(u)).Add(up.Scale(v))
				dir := d.Scale(-1)
				hits := castRay(idx, scaled, indices, faceNormals, origin, dir, winding, cell)
				if len(hits) == 0 {
					continue
				}
				overdraw := float64(len(hits) - 1)
				total += overdraw
				sampleCount++
				if overdraw > maxOverdraw {
					maxOverdraw = overdraw
				}
			}
		}
	}
	if sampleCount == 0 {
		return 0, 0, nil
	}
	return total / float64(sampleCount), maxOverdraw, nil
}
