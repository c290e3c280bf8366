package vmem

import "testing"

func assertBijection(t *testing.T, remap []int) {
	t.Helper()
	seen := make([]bool, len(remap))
	for _, nv := range remap {
		if nv < 0 || nv >= len(remap) || seen[nv] {
			t.Fatalf("remap is not a permutation: %v", remap)
		}
		seen[nv] = true
	}
}

func TestOptimizeFirstReferenceOrder(t *testing.T) {
	// Vertex 2 is touched first, then 0, then 1 in face order.
	indices := []uint32{2, 0, 1, 2, 1, 0}
	newIndices, remap, err := Optimize(indices, 3)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if remap[2] != 0 || remap[0] != 1 || remap[1] != 2 {
		t.Fatalf("remap = %v, want [1 2 0]", remap)
	}
	want := []uint32{0, 1, 2, 0, 2, 1}
	for i, v := range want {
		if newIndices[i] != v {
			t.Fatalf("newIndices = %v, want %v", newIndices, want)
		}
	}
	assertBijection(t, remap)
}

func TestOptimizeUnreferencedVerticesGoLast(t *testing.T) {
	// Vertex 1 is never referenced; it must land at the end of the
	// remap space, after the two vertices that are referenced.
	indices := []uint32{2, 0, 2}
	newIndices, remap, err := Optimize(indices, 3)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if remap[2] != 0 || remap[0] != 1 || remap[1] != 2 {
		t.Fatalf("remap = %v, want [1 2 0]", remap)
	}
	_ = newIndices
	assertBijection(t, remap)
}

func TestOptimizeIsIdempotentOnAlreadyFirstReferenceOrder(t *testing.T) {
	indices := []uint32{0, 1, 2, 0, 2, 3}
	_, remap, err := Optimize(indices, 4)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	for v, nv := range remap {
		if v != nv {
			t.Fatalf("remap = %v, want identity for an already-first-reference-ordered buffer", remap)
		}
	}
}

func TestPermuteMovesAttributesToNewSlots(t *testing.T) {
	// 2 floats/vertex, 3 vertices; remap reverses the order.
	data := []float32{1, 1, 2, 2, 3, 3}
	remap := []int{2, 1, 0}
	out, err := Permute(data, 2, 3, remap)
	if err != nil {
		t.Fatalf("Permute() error = %v", err)
	}
	want := []float32{3, 3, 2, 2, 1, 1}
	for i, v := range want {
		if out[i] != v {
			t.Fatalf("out = %v, want %v", out, want)
		}
	}
}

func TestOptimizeRejectsOutOfRangeIndex(t *testing.T) {
	if _, _, err := Optimize([]uint32{0, 1, 5}, 3); err == nil {
		t.Fatal("Optimize() error = nil, want error for out-of-range index")
	}
}

func TestPermuteRejectsLengthMismatch(t *testing.T) {
	if _, err := Permute([]float32{1, 2, 3}, 2, 3, []int{0, 1, 2}); err == nil {
		t.Fatal("Permute() error = nil, want error for buffer/stride/count mismatch")
	}
}
