// Package vmem reindexes a mesh's vertex buffer into first-reference
// order: vertex 0 becomes whichever vertex the (cache- and
// cluster-optimized) index buffer touches first, vertex 1 the next
// newly-seen vertex, and so on. This turns the GPU's sequential vertex
// fetch into a forward streaming read instead of scattering across the
// original vertex buffer.
package vmem

import "fmt"

// Optimize computes a vertex remap from first-reference order and
// returns the remapped index buffer alongside it. remap[oldIndex] =
// newIndex; vertices never referenced by indices are pushed to the end
// of the remap space in ascending original-id order, so the returned
// buffer stays dense and the caller can still permute unreferenced
// vertex attributes consistently.
//
// remap is a bijection on [0, vertexCount): every old id maps to
// exactly one new id and vice versa.
func Optimize(indices []uint32, vertexCount int) (newIndices []uint32, remap []int, err error) {
	if len(indices)%3 != 0 {
		return nil, nil, fmt.Errorf("vmem: index buffer length %d is not a multiple of 3", len(indices))
	}
	for _, v := range indices {
		if int(v) >= vertexCount {
			return nil, nil, fmt.Errorf("vmem: index %d out of range for %d vertices", v, vertexCount)
		}
	}

	remap = make([]int, vertexCount)
	for i := range remap {
		remap[i] = -1
	}

	next := 0
	for _, v := range indices {
		if remap[v] == -1 {
			remap[v] = next
			next++
		}
	}
	for v := 0; v < vertexCount; v++ {
		if remap[v] == -1 {
			remap[v] = next
			next++
		}
	}

	newIndices = make([]uint32, len(indices))
	for i, v := range indices {
		newIndices[i] = uint32(remap[v])
	}
	return newIndices, remap, nil
}

// Permute reorders a flat, stride-major vertex buffer according to
// remap: the vertex that was at old index i moves to remap[i].
func Permute(data []float32, stride, vertexCount int, remap []int) ([]float32, error) {
	if len(data) != stride*vertexCount {
		return nil, fmt.Errorf("vmem: vertex buffer length %d, want %d for stride %d and %d vertices", len(data), stride*vertexCount, stride, vertexCount)
	}
	if len(remap) != vertexCount {
		return nil, fmt.Errorf("vmem: remap length %d, want %d", len(remap), vertexCount)
	}

	out := make([]float32, len(data))
	for oldV := 0; oldV < vertexCount; oldV++ {
		newV := remap[oldV]
		copy(out[newV*stride:newV*stride+stride], data[oldV*stride:oldV*stride+stride])
	}
	return out, nil
}
