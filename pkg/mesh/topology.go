// Package mesh builds the vertex/triangle adjacency ("topology") that
// the cache optimizer and clusterer need, in O(T) time and space over
// an index buffer. It has no notion of vertex positions: topology is
// purely a function of the index buffer and the vertex count.
package mesh

import (
	"fmt"

	"github.com/samber/lo"
)

// EdgeKey is the undirected pair (min(a,b), max(a,b)) that two
// triangles must share to be considered edge-adjacent.
type EdgeKey struct {
	Lo, Hi uint32
}

// MakeEdgeKey builds the canonical EdgeKey for an edge (a,b).
func MakeEdgeKey(a, b uint32) EdgeKey {
	if a < b {
		return EdgeKey{a, b}
	}
	return EdgeKey{b, a}
}

// Topology is the derived adjacency for one index buffer. A face's
// three edges are numbered 0 (v0,v1), 1 (v1,v2), 2 (v2,v0).
type Topology struct {
	FaceCount   int
	VertexCount int

	// vertexFaces[v] is the set of triangle indices that reference v.
	vertexFaces [][]int

	// adjacency[f][e] is the set of *other* triangles sharing face f's
	// edge e. Degenerate edges (the two endpoints equal) contribute no
	// adjacency. A non-manifold edge shared by more than two triangles
	// keeps every match as adjacent rather than picking a single
	// canonical neighbor.
	adjacency [][3][]int
}

// Build constructs a Topology from an index buffer in O(T) time: one
// pass to bucket vertex->triangle membership and the three half-edges
// per triangle by EdgeKey, then one pass pairing bucket members.
func Build(indices []uint32, vertexCount int) (*Topology, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("mesh: index buffer length %d is not a multiple of 3", len(indices))
	}
	faceCount := len(indices) / 3

	t := &Topology{
		FaceCount:   faceCount,
		VertexCount: vertexCount,
		vertexFaces: make([][]int, vertexCount),
		adjacency:   make([][3][]int, faceCount),
	}

	for f := 0; f < faceCount; f++ {
		verts := [3]uint32{indices[f*3], indices[f*3+1], indices[f*3+2]}
		for _, v := range verts {
			if int(v) >= vertexCount {
				return nil, fmt.Errorf("mesh: index %d out of range for %d vertices", v, vertexCount)
			}
		}
		// A degenerate triangle repeats a vertex across its three
		// slots; record f in vertexFaces at most once per vertex so
		// VertexTriangles stays a set.
		for i, v := range verts {
			dup := false
			for j := 0; j < i; j++ {
				if verts[j] == v {
					dup = true
					break
				}
			}
			if !dup {
				t.vertexFaces[v] = append(t.vertexFaces[v], f)
			}
		}
	}

	type halfEdge struct {
		face int
		edge int
	}
	buckets := make(map[EdgeKey][]halfEdge, faceCount*3)
	for f := 0; f < faceCount; f++ {
		v0, v1, v2 := indices[f*3], indices[f*3+1], indices[f*3+2]
		edges := [3][2]uint32{{v0, v1}, {v1, v2}, {v2, v0}}
		for e, ab := range edges {
			if ab[0] == ab[1] {
				continue // degenerate edge contributes no adjacency
			}
			key := MakeEdgeKey(ab[0], ab[1])
			buckets[key] = append(buckets[key], halfEdge{face: f, edge: e})
		}
	}

	for _, members := range buckets {
		if len(members) < 2 {
			continue
		}
		for _, m := range members {
			for _, other := range members {
				if other.face == m.face {
					continue // no self-loops
				}
				t.adjacency[m.face][m.edge] = append(t.adjacency[m.face][m.edge], other.face)
			}
		}
	}

	return t, nil
}

// VertexTriangles returns the (unordered) set of triangle indices that
// reference vertex v.
func (t *Topology) VertexTriangles(v int) []int {
	return t.vertexFaces[v]
}

// EdgeAdjacency returns, for each of face f's three edges, the set of
// other faces sharing that edge. A manifold mesh has at most one
// neighbor per edge; non-manifold input may have more, and all are
// returned.
func (t *Topology) EdgeAdjacency(f int) [3][]int {
	return t.adjacency[f]
}

// AdjacentFaces returns the union, without duplicates, of every face
// adjacent to f across all three edges.
func (t *Topology) AdjacentFaces(f int) []int {
	var all []int
	for _, edge := range t.adjacency[f] {
		all = append(all, edge...)
	}
	return lo.Uniq(all)
}
