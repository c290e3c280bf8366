package overdraw

import "github.com/samber/lo"

// SolveOrder orders clusters 0..clusterCount-1 to minimize the total
// cost carried by backward edges: repeatedly place the remaining
// cluster whose outgoing cost minus incoming cost is largest (it most
// wants to be painted early), ties broken by lower id, then remove its
// edges from the running tallies and repeat. This is the standard
// greedy minimum-feedback-arc-set heuristic; it does not guarantee an
// optimal ordering.
func SolveOrder(clusterCount int, edges []Edge) []int {
	outCost := make([]int, clusterCount)
	inCost := make([]int, clusterCount)
	for _, e := range edges {
		outCost[e.From] += e.Cost
		inCost[e.To] += e.Cost
	}

	remaining := make([]bool, clusterCount)
	for i := range remaining {
		remaining[i] = true
	}
	remainingEdges := append([]Edge(nil), edges...)

	order := make([]int, 0, clusterCount)
	for len(order) < clusterCount {
		best := -1
		bestScore := 0
		for c := 0; c < clusterCount; c++ {
			if !remaining[c] {
				continue
			}
			score := outCost[c] - inCost[c]
			if best == -1 || score > bestScore {
				best, bestScore = c, score
			}
		}

		order = append(order, best)
		remaining[best] = false

		kept := remainingEdges[:0]
		for _, e := range remainingEdges {
			if e.From == best || e.To == best {
				outCost[e.From] -= e.Cost
				inCost[e.To] -= e.Cost
				continue
			}
			kept = append(kept, e)
		}
		remainingEdges = kept
	}
	return order
}

// ApplyClusterOrder rewrites indices so faces are grouped by cluster in
// the given order, preserving each cluster's original relative face
// order. It returns the rewritten index buffer and the face remap
// (faceRemap[oldFace] = newFace).
func ApplyClusterOrder(indices []uint32, faceCluster []int, order []int) (newIndices []uint32, faceRemap []int) {
	faceCount := len(faceCluster)
	faces := make([]int, faceCount)
	for f := range faces {
		faces[f] = f
	}
	buckets := lo.GroupBy(faces, func(f int) int { return faceCluster[f] })

	newIndices = make([]uint32, 0, len(indices))
	faceRemap = make([]int, faceCount)

	newFace := 0
	for _, c := range order {
		for _, f := range buckets[c] {
			newIndices = append(newIndices, indices[f*3], indices[f*3+1], indices[f*3+2])
			faceRemap[f] = newFace
			newFace++
		}
	}
	return newIndices, faceRemap
}
