// Package cluster partitions a cache-optimized triangle list into
// contiguous, view-coherent clusters. A cluster is approximately
// convex in world space and its inner vertex-cache efficiency is kept
// within a bounded slack of the whole mesh's baseline.
package cluster

import (
	"fmt"

	"github.com/chazu/tootle/internal/vec3"
	"github.com/chazu/tootle/pkg/vcache"
)

// Params holds the clustering admission constants: Alpha is the
// normal-cone threshold a new triangle's face normal must clear
// against the running cluster average to be eligible, and Lambda is
// the slack allowed in a cluster's local ACMR relative to the whole
// mesh's baseline.
type Params struct {
	Alpha  float64 // cone threshold in [0,1]; default 0.75
	Lambda float64 // local ACMR slack; default 0.5
}

// DefaultParams returns the tuned defaults used when a caller leaves
// Params unset.
func DefaultParams() Params {
	return Params{Alpha: 0.75, Lambda: 0.5}
}

// clusterCache is a minimal FIFO cache used only to evaluate the local
// ACMR admission test; it does not need the full vcache.Measure
// machinery since it must answer "how many misses would admitting
// this triangle add" without necessarily committing to them.
type clusterCache struct {
	capacity int
	entries  []uint32
}

func newClusterCache(capacity int) *clusterCache {
	return &clusterCache{capacity: capacity, entries: make([]uint32, 0, capacity)}
}

func (c *clusterCache) contains(v uint32) bool {
	for _, e := range c.entries {
		if e == v {
			return true
		}
	}
	return false
}

// wouldMiss reports how many of face's vertices are not currently
// cached, without mutating the cache.
func (c *clusterCache) wouldMiss(face [3]uint32) int {
	n := 0
	seen := map[uint32]bool{}
	for _, v := range face {
		if seen[v] {
			continue
		}
		seen[v] = true
		if !c.contains(v) {
			n++
		}
	}
	return n
}

// access inserts face's vertices and returns how many were misses.
func (c *clusterCache) access(face [3]uint32) int {
	misses := 0
	for _, v := range face {
		if c.contains(v) {
			continue
		}
		misses++
		c.entries = append([]uint32{v}, c.entries...)
		if len(c.entries) > c.capacity {
			c.entries = c.entries[:c.capacity]
		}
	}
	return misses
}

func position(positions []float64, v uint32) vec3.Vec3 {
	i := int(v) * 3
	return vec3.Vec3{X: positions[i], Y: positions[i+1], Z: positions[i+2]}
}

// Cluster partitions indices (assumed already cache-optimized) into
// contiguous clusters. requestedClusterCount, if > 0, caps the number
// of clusters by force-admitting triangles into the last allowed
// cluster once the cap is reached; 0 lets the admission test decide
// the count on its own, driven by Alpha and Lambda.
//
// Returns faceCluster (cluster id per triangle, in the input order)
// and clusterStart (length clusterCount+1, clusterStart[c] is the
// first triangle of cluster c and clusterStart[clusterCount] == T).
func Cluster(positions []float64, indices []uint32, vertexCount, cacheSize int, requestedClusterCount int, params Params) (faceCluster []int, clusterStart []int, err error) {
	if len(indices)%3 != 0 {
		return nil, nil, fmt.Errorf("cluster: index buffer length %d is not a multiple of 3", len(indices))
	}
	if len(positions) != vertexCount*3 {
		return nil, nil, fmt.Errorf("cluster: positions length %d, want %d for %d vertices", len(positions), vertexCount*3, vertexCount)
	}
	faceCount := len(indices) / 3
	if faceCount == 0 {
		return []int{}, []int{0}, nil
	}
	if params == (Params{}) {
		params = DefaultParams()
	}

	baseline, err := vcache.Measure(indices, cacheSize)
	if err != nil {
		return nil, nil, err
	}

	faceCluster = make([]int, faceCount)
	clusterStart = []int{0}

	clusterID := 0
	var normalSum vec3.Vec3
	cache := newClusterCache(cacheSize)
	clusterTriangles := 0
	clusterMisses := 0

	for f := 0; f < faceCount; f++ {
		verts := [3]uint32{indices[f*3], indices[f*3+1], indices[f*3+2]}
		n := vec3.FaceNormal(position(positions, verts[0]), position(positions, verts[1]), position(positions, verts[2])).Normalize()

		admit := clusterTriangles == 0
		if !admit {
			avgNormal := normalSum.Normalize()
			if avgNormal.Dot(n) >= params.Alpha {
				misses := cache.wouldMiss(verts)
				candidateACMR := float64(clusterMisses+misses) / float64(clusterTriangles+1)
				if baseline <= 0 || candidateACMR <= (1+params.Lambda)*baseline {
					admit = true
				}
			}
		}
		if !admit && requestedClusterCount > 0 && clusterID+1 >= requestedClusterCount {
			admit = true // out of clusters to spend; force into the last one
		}

		if !admit {
			clusterStart = append(clusterStart, f)
			clusterID++
			normalSum = vec3.Vec3{}
			cache = newClusterCache(cacheSize)
			clusterTriangles = 0
			clusterMisses = 0
		}

		faceCluster[f] = clusterID
		normalSum = normalSum.Add(n)
		clusterMisses += cache.access(verts)
		clusterTriangles++
	}

	clusterStart = append(clusterStart, faceCount)
	return faceCluster, clusterStart, nil
}
