// This file composes the mesh, vcache, cluster, overdraw, and vmem
// subpackages into the library's named end-to-end entry points. Every
// entry point validates its Mesh argument up front and returns a
// *Error with an appropriate Kind on failure.
package tootle

import (
	"github.com/samber/lo"

	"github.com/chazu/tootle/internal/vec3"
	"github.com/chazu/tootle/pkg/cluster"
	"github.com/chazu/tootle/pkg/overdraw"
	"github.com/chazu/tootle/pkg/vcache"
	"github.com/chazu/tootle/pkg/vmem"
)

func toVCacheStrategy(s VCacheStrategy) vcache.Strategy {
	switch s {
	case LinearStrips:
		return vcache.LinearStrip
	case GenericFIFO:
		return vcache.GenericFIFO
	case Tipsy:
		return vcache.Tipsy
	default:
		return vcache.Auto
	}
}

func toVCacheParams(p TipsyParams) vcache.TipsyParams {
	return vcache.TipsyParams{
		PositionExponent: p.PositionExponent,
		ValenceBoost:     p.ValenceBoost,
		CachePeakRank:    p.CachePeakRank,
	}
}

func toClusterParams(p ClusterParams) cluster.Params {
	return cluster.Params{Alpha: p.Alpha, Lambda: p.Lambda}
}

func toOverdrawStrategy(s OverdrawStrategy) overdraw.Strategy {
	switch s {
	case Raytrace:
		return overdraw.Raytrace
	case Fast:
		return overdraw.Fast
	default:
		return overdraw.Auto
	}
}

func toOverdrawWinding(w Winding) overdraw.Winding {
	if w == CounterClockwiseFront {
		return overdraw.CounterClockwiseFront
	}
	return overdraw.ClockwiseFront
}

func flattenPositions(vb VertexBuffer) []float64 {
	n := vb.Count()
	out := make([]float64, n*3)
	for i := 0; i < n; i++ {
		p := vb.Position(i)
		out[i*3], out[i*3+1], out[i*3+2] = p.X, p.Y, p.Z
	}
	return out
}

func toVec3Slice(vs []Vector3) []vec3.Vec3 {
	return lo.Map(vs, func(v Vector3, _ int) vec3.Vec3 {
		return vec3.Vec3{X: v.X, Y: v.Y, Z: v.Z}
	})
}

// viewpointsOrDefault returns vs deduplicated, or DefaultViewpoints() if
// the caller left vs empty. Callers occasionally pass the same viewpoint
// more than once (e.g. when building vs from several camera rigs that
// happen to share a position); deduplicating keeps overdraw graph
// construction from casting the same ray grid twice.
func viewpointsOrDefault(vs []Vector3) []vec3.Vec3 {
	if len(vs) == 0 {
		return toVec3Slice(DefaultViewpoints())
	}
	return toVec3Slice(lo.Uniq(vs))
}

// withIndices returns a shallow copy of m with Indices replaced.
func (m Mesh) withIndices(indices []uint32) Mesh {
	out := m
	out.Indices = indices
	return out
}

// OptimizeVCache reorders m.Indices to improve post-transform vertex
// cache locality, using whichever of the three vertex-cache strategies
// opt.VCacheStrategy selects. It returns the updated mesh and a
// FaceRemap from old to new face index.
func OptimizeVCache(m Mesh, opt Options) (Mesh, FaceRemap, error) {
	if err := m.validate(); err != nil {
		return Mesh{}, nil, err
	}
	if !opt.VCacheStrategy.valid() {
		return Mesh{}, nil, Errorf(NotInitialized, "vcache strategy %d is not a recognized value", int(opt.VCacheStrategy))
	}
	opt = opt.withDefaults()

	newIndices, remap, err := vcache.Optimize(m.Indices, m.VertexCount(), opt.CacheSize, toVCacheStrategy(opt.VCacheStrategy), toVCacheParams(opt.Tipsy))
	if err != nil {
		return Mesh{}, nil, Errorf(InvalidArgument, "optimize vertex cache", err)
	}
	opt.logf("tootle: vcache optimize: %d faces, cache size %d", m.FaceCount(), opt.CacheSize)
	return m.withIndices(newIndices), FaceRemap(remap), nil
}

// ClusterMesh partitions m's (already cache-optimized) index buffer
// into view-coherent clusters, grouping triangles that share a surface
// normal and draw with similar local cache efficiency. It does not
// reorder Indices.
func ClusterMesh(m Mesh, opt Options) (FaceCluster, []int, error) {
	if err := m.validate(); err != nil {
		return nil, nil, err
	}
	opt = opt.withDefaults()

	faceCluster, clusterStart, err := cluster.Cluster(flattenPositions(m.Vertices), m.Indices, m.VertexCount(), opt.CacheSize, opt.RequestedClusterCount, toClusterParams(opt.Cluster))
	if err != nil {
		return nil, nil, Errorf(InvalidArgument, "cluster mesh", err)
	}
	opt.logf("tootle: clustered %d faces into %d clusters", m.FaceCount(), FaceCluster(faceCluster).ClusterCount())
	return FaceCluster(faceCluster), clusterStart, nil
}

// VCacheClusters runs OptimizeVCache followed by ClusterMesh, the
// common two-stage preprocessing pass before overdraw ordering.
func VCacheClusters(m Mesh, opt Options) (Mesh, FaceCluster, []int, error) {
	optimized, _, err := OptimizeVCache(m, opt)
	if err != nil {
		return Mesh{}, nil, nil, err
	}
	faceCluster, clusterStart, err := ClusterMesh(optimized, opt)
	if err != nil {
		return Mesh{}, nil, nil, err
	}
	return optimized, faceCluster, clusterStart, nil
}

// OptimizeOverdraw reorders m's clusters (identified by faceCluster)
// for front-to-back draw coherence: it builds a directed overdraw graph
// between clusters, finds a draw order that keeps occluders ahead of
// what they occlude, and rewrites the index buffer to that order. It
// returns the reordered mesh and the face remap from the pre-reorder
// order to the new one.
func OptimizeOverdraw(m Mesh, faceCluster FaceCluster, opt Options) (Mesh, FaceRemap, error) {
	if err := m.validate(); err != nil {
		return Mesh{}, nil, err
	}
	if len(faceCluster) != m.FaceCount() {
		return Mesh{}, nil, Errorf(InvalidArgument, "faceCluster length %d, want %d", len(faceCluster), m.FaceCount())
	}
	if !opt.OverdrawStrategy.valid() {
		return Mesh{}, nil, Errorf(NotInitialized, "overdraw strategy %d is not a recognized value", int(opt.OverdrawStrategy))
	}
	opt = opt.withDefaults()
	clusterCount := faceCluster.ClusterCount()
	viewpoints := viewpointsOrDefault(m.Viewpoints)

	_, edges, err := overdraw.BuildGraph(
		flattenPositions(m.Vertices), m.VertexCount(), m.Indices,
		[]int(faceCluster), clusterCount, viewpoints, toOverdrawWinding(m.Winding),
		overdraw.Options{Strategy: toOverdrawStrategy(opt.OverdrawStrategy), GridSize: RayGridSize, Workers: opt.Workers},
	)
	if err != nil {
		return Mesh{}, nil, Errorf(InvalidArgument, "build overdraw graph", err)
	}

	order := overdraw.SolveOrder(clusterCount, edges)
	newIndices, remap := overdraw.ApplyClusterOrder(m.Indices, []int(faceCluster), order)
	opt.logf("tootle: overdraw: %d clusters, %d directed edges", clusterCount, len(edges))
	return m.withIndices(newIndices), FaceRemap(remap), nil
}

// FastOptimizeVCacheAndCluster runs VCacheClusters, giving callers that
// only want the vertex-cache and clustering stages - skipping the
// overdraw pass entirely - a dedicated name for it.
func FastOptimizeVCacheAndCluster(m Mesh, opt Options) (Mesh, FaceCluster, error) {
	optimized, faceCluster, _, err := VCacheClusters(m, opt)
	if err != nil {
		return Mesh{}, nil, err
	}
	return optimized, faceCluster, nil
}

// Optimize runs the full pipeline: vertex-cache optimization,
// clustering, and overdraw-coherent cluster ordering.
func Optimize(m Mesh, opt Options) (Mesh, FaceCluster, error) {
	optimized, faceCluster, _, err := VCacheClusters(m, opt)
	if err != nil {
		return Mesh{}, nil, err
	}
	reordered, remap, err := OptimizeOverdraw(optimized, faceCluster, opt)
	if err != nil {
		return Mesh{}, nil, err
	}
	remappedCluster := make(FaceCluster, len(faceCluster))
	for old, nw := range remap {
		remappedCluster[nw] = faceCluster[old]
	}
	return reordered, remappedCluster, nil
}

// FastOptimize skips the overdraw stage entirely; it is equivalent to
// FastOptimizeVCacheAndCluster, kept as a separate name for callers who
// want the full-pipeline naming symmetry of Optimize/FastOptimize.
func FastOptimize(m Mesh, opt Options) (Mesh, FaceCluster, error) {
	return FastOptimizeVCacheAndCluster(m, opt)
}

// OptimizeVertexMemory reindexes m's vertex buffer into first-reference
// order: vertex i keeps its original position but is renumbered to the
// order in which Indices first reaches it, so a hardware vertex fetcher
// reads the buffer sequentially instead of jumping around. It returns
// the updated mesh and the old-to-new vertex remap.
func OptimizeVertexMemory(m Mesh) (Mesh, VertexRemap, error) {
	if err := m.validate(); err != nil {
		return Mesh{}, nil, err
	}

	newIndices, remap, err := vmem.Optimize(m.Indices, m.VertexCount())
	if err != nil {
		return Mesh{}, nil, Errorf(InvalidArgument, "optimize vertex memory", err)
	}
	newData, err := vmem.Permute(m.Vertices.Data, m.Vertices.Stride, m.VertexCount(), remap)
	if err != nil {
		return Mesh{}, nil, Errorf(InternalError, "permute vertex buffer", err)
	}

	out := m
	out.Indices = newIndices
	out.Vertices = VertexBuffer{Data: newData, Stride: m.Vertices.Stride}
	return out, VertexRemap(remap), nil
}

// MeasureCacheEfficiency reports the ACMR of m.Indices under a FIFO
// cache of the given size (or DefaultCacheSize if 0).
func MeasureCacheEfficiency(m Mesh, cacheSize int) (float64, error) {
	if err := m.validate(); err != nil {
		return 0, err
	}
	if cacheSize == 0 {
		cacheSize = DefaultCacheSize
	}
	acmr, err := vcache.Measure(m.Indices, cacheSize)
	if err != nil {
		return 0, Errorf(InvalidArgument, "measure cache efficiency", err)
	}
	return acmr, nil
}

// MeasureOverdraw reports the average and maximum per-pixel overdraw
// depth of m across its viewpoints (or DefaultViewpoints() if none are
// set).
func MeasureOverdraw(m Mesh) (avg, max float64, err error) {
	if err := m.validate(); err != nil {
		return 0, 0, err
	}
	viewpoints := viewpointsOrDefault(m.Viewpoints)
	avg, max, err = overdraw.Measure(flattenPositions(m.Vertices), m.VertexCount(), m.Indices, viewpoints, toOverdrawWinding(m.Winding), RayGridSize)
	if err != nil {
		return 0, 0, Errorf(InvalidArgument, "measure overdraw", err)
	}
	return avg, max, nil
}

// Report summarizes the effect of a pipeline run, returned by
// OptimizeAndReport.
type Report struct {
	ACMRBefore     float64
	ACMRAfter      float64
	ClusterCount   int
	OverdrawBefore float64
	OverdrawAfter  float64
}

// OptimizeAndReport runs Optimize and measures before/after cache and
// overdraw efficiency, for callers that want both the optimized mesh
// and a summary of what changed.
func OptimizeAndReport(m Mesh, opt Options) (Mesh, FaceCluster, Report, error) {
	opt = opt.withDefaults()

	before, err := MeasureCacheEfficiency(m, opt.CacheSize)
	if err != nil {
		return Mesh{}, nil, Report{}, err
	}
	overdrawBefore, _, err := MeasureOverdraw(m)
	if err != nil {
		return Mesh{}, nil, Report{}, err
	}

	optimized, faceCluster, err := Optimize(m, opt)
	if err != nil {
		return Mesh{}, nil, Report{}, err
	}

	after, err := MeasureCacheEfficiency(optimized, opt.CacheSize)
	if err != nil {
		return Mesh{}, nil, Report{}, err
	}
	overdrawAfter, _, err := MeasureOverdraw(optimized)
	if err != nil {
		return Mesh{}, nil, Report{}, err
	}

	report := Report{
		ACMRBefore:     before,
		ACMRAfter:      after,
		ClusterCount:   faceCluster.ClusterCount(),
		OverdrawBefore: overdrawBefore,
		OverdrawAfter:  overdrawAfter,
	}
	opt.logf("tootle: report: ACMR %.3f -> %.3f, overdraw %.3f -> %.3f, %d clusters", before, after, overdrawBefore, overdrawAfter, report.ClusterCount)
	return optimized, faceCluster, report, nil
}
