package vcache

import (
	"math"

	"github.com/samber/lo"

	"github.com/chazu/tootle/pkg/mesh"
)

// linearStrip greedily extends a strip of edge-adjacent triangles,
// reseeding from the lowest-index unvisited triangle whenever the
// strip runs out of adjacent faces. It is the cheapest of the three
// strategies: no scoring, just an adjacency walk.
func linearStrip(indices []uint32, vertexCount int) ([]uint32, []int, error) {
	topo, err := mesh.Build(indices, vertexCount)
	if err != nil {
		return nil, nil, err
	}
	faceCount := len(indices) / 3
	visited := make([]bool, faceCount)
	order := make([]int, 0, faceCount)

	cur := 0
	for len(order) < faceCount {
		if cur == -1 || visited[cur] {
			cur = -1
			for f := 0; f < faceCount; f++ {
				if !visited[f] {
					cur = f
					break
				}
			}
			if cur == -1 {
				break
			}
		}

		visited[cur] = true
		order = append(order, cur)

		next := -1
		for _, nb := range topo.AdjacentFaces(cur) {
			if !visited[nb] && (next == -1 || nb < next) {
				next = nb
			}
		}
		cur = next
	}

	newIndices, faceRemap := buildOutputs(indices, order)
	return newIndices, faceRemap, nil
}

// candidatesTouchingCache returns, without duplicates, every
// not-yet-emitted face that touches a vertex currently in cache.
func candidatesTouchingCache(topo *mesh.Topology, cache *fifoCache, emitted []bool) []int {
	var touching []int
	for _, v := range cache.entries {
		for _, f := range topo.VertexTriangles(int(v)) {
			if !emitted[f] {
				touching = append(touching, f)
			}
		}
	}
	return lo.Uniq(touching)
}

// genericFIFOGreedy picks, among candidates touching the current
// cache, the triangle that minimizes immediate misses against the
// exact FIFO cache model. Provided as a reference/fallback; it
// rebuilds and rescans the candidate set on every step, so it is not
// amortized O(T).
func genericFIFOGreedy(indices []uint32, vertexCount, cacheSize int) ([]uint32, []int, error) {
	topo, err := mesh.Build(indices, vertexCount)
	if err != nil {
		return nil, nil, err
	}
	faceCount := len(indices) / 3
	emitted := make([]bool, faceCount)
	cache := newFIFOCache(cacheSize)
	order := make([]int, 0, faceCount)
	nextSeed := 0

	faceVerts := func(f int) [3]uint32 {
		return [3]uint32{indices[f*3], indices[f*3+1], indices[f*3+2]}
	}

	for len(order) < faceCount {
		candidates := candidatesTouchingCache(topo, cache, emitted)
		if len(candidates) == 0 {
			for nextSeed < faceCount && emitted[nextSeed] {
				nextSeed++
			}
			candidates = []int{nextSeed}
		}

		best := -1
		bestMisses := -1
		for _, f := range candidates {
			misses := cache.CountMisses(faceVerts(f))
			if best == -1 || misses < bestMisses || (misses == bestMisses && f < best) {
				best, bestMisses = f, misses
			}
		}

		order = append(order, best)
		emitted[best] = true
		cache.AccessTriangle(faceVerts(best))
	}

	newIndices, faceRemap := buildOutputs(indices, order)
	return newIndices, faceRemap, nil
}

// tipsyState holds the per-run mutable state for the Tipsy strategy.
type tipsyState struct {
	topo      *mesh.Topology
	cache     *fifoCache
	remaining []int
	emitted   []bool
	indices   []uint32
	params    TipsyParams
	cacheSize int
}

func (st *tipsyState) faceVerts(f int) [3]uint32 {
	return [3]uint32{st.indices[f*3], st.indices[f*3+1], st.indices[f*3+2]}
}

// vertexScore combines a cache-position term (how recently, and how
// near the top, v last entered the cache) with a valence term (vertices
// with fewer remaining unprocessed triangles score higher, to finish
// off low-valence vertices before they're evicted for good).
func (st *tipsyState) vertexScore(v uint32) float64 {
	position := 0.0
	if rank, found := st.cache.Rank(v); found {
		peakRank := st.params.CachePeakRank
		if rank < peakRank {
			position = tipsyPeak
		} else if denom := float64(st.cacheSize - peakRank); denom > 0 {
			x := 1 - float64(rank-peakRank)/denom
			if x > 0 {
				position = math.Pow(x, st.params.PositionExponent)
			}
		}
	}

	valence := 0.0
	if r := st.remaining[v]; r > 0 {
		valence = st.params.ValenceBoost * math.Pow(float64(r), -0.5)
	}

	return position + valence
}

// faceScore is the sum of its three vertices' scores.
func (st *tipsyState) faceScore(f int) float64 {
	face := st.faceVerts(f)
	return st.vertexScore(face[0]) + st.vertexScore(face[1]) + st.vertexScore(face[2])
}

// tipsy is the primary vertex-cache strategy, named for Tipsy (Sander,
// Nehab, and Barczak, SIGGRAPH/I3D 2007): a greedy walk that always
// emits the highest-scoring candidate triangle. A triangle becomes a
// candidate once it shares a vertex with an emitted triangle or with a
// vertex that triangle evicted, and stays one until it is emitted.
// Every step rescores all current candidates, so the walk is not
// linear-time.
func tipsy(indices []uint32, vertexCount, cacheSize int, params TipsyParams) ([]uint32, []int, error) {
	topo, err := mesh.Build(indices, vertexCount)
	if err != nil {
		return nil, nil, err
	}
	faceCount := len(indices) / 3

	st := &tipsyState{
		topo:      topo,
		cache:     newFIFOCache(cacheSize),
		remaining: make([]int, vertexCount),
		emitted:   make([]bool, faceCount),
		indices:   indices,
		params:    params,
		cacheSize: cacheSize,
	}
	for v := 0; v < vertexCount; v++ {
		st.remaining[v] = len(topo.VertexTriangles(v))
	}

	candidates := make(map[int]bool)
	order := make([]int, 0, faceCount)
	nextSeed := 0

	for len(order) < faceCount {
		best := -1
		bestScore := math.Inf(-1)
		for f := range candidates {
			s := st.faceScore(f)
			if s > bestScore || (s == bestScore && f < best) {
				best, bestScore = f, s
			}
		}

		if best == -1 {
			for nextSeed < faceCount && st.emitted[nextSeed] {
				nextSeed++
			}
			if nextSeed >= faceCount {
				break
			}
			best = nextSeed
		}

		order = append(order, best)
		st.emitted[best] = true
		delete(candidates, best)

		face := st.faceVerts(best)
		for _, v := range face {
			st.remaining[v]--
		}
		evicted := st.cache.AccessTriangle(face)

		dirty := make(map[int]bool)
		for _, v := range face {
			for _, f2 := range topo.VertexTriangles(int(v)) {
				if !st.emitted[f2] {
					dirty[f2] = true
				}
			}
		}
		for _, v := range evicted {
			for _, f2 := range topo.VertexTriangles(int(v)) {
				if !st.emitted[f2] {
					dirty[f2] = true
				}
			}
		}
		for f2 := range dirty {
			candidates[f2] = true
		}
	}

	newIndices, faceRemap := buildOutputs(indices, order)
	return newIndices, faceRemap, nil
}
