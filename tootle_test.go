package tootle

import "testing"

func vbuf(positions [][3]float32) VertexBuffer {
	data := make([]float32, 0, len(positions)*3)
	for _, p := range positions {
		data = append(data, p[0], p[1], p[2])
	}
	return VertexBuffer{Data: data, Stride: 3}
}

func TestOptimizeVCacheSingleTriangle(t *testing.T) {
	m := Mesh{
		Vertices: vbuf([][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}),
		Indices:  []uint32{0, 1, 2},
		Winding:  CounterClockwiseFront,
	}
	optimized, remap, err := OptimizeVCache(m, Options{})
	if err != nil {
		t.Fatalf("OptimizeVCache() error = %v", err)
	}
	if len(optimized.Indices) != 3 || len(remap) != 1 {
		t.Fatalf("optimized = %+v remap = %v", optimized, remap)
	}
	acmr, err := MeasureCacheEfficiency(optimized, DefaultCacheSize)
	if err != nil {
		t.Fatalf("MeasureCacheEfficiency() error = %v", err)
	}
	if acmr != 3.0 {
		t.Errorf("ACMR = %v, want 3.0 for a single cold triangle", acmr)
	}
}

func TestClusterMeshTwoDisjointTrianglesSplit(t *testing.T) {
	m := Mesh{
		Vertices: vbuf([][3]float32{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
			{0, 0, 1}, {0, 1, 1}, {1, 0, 1},
		}),
		Indices: []uint32{0, 1, 2, 3, 4, 5},
		Winding: CounterClockwiseFront,
	}
	faceCluster, _, err := ClusterMesh(m, Options{})
	if err != nil {
		t.Fatalf("ClusterMesh() error = %v", err)
	}
	if faceCluster[0] == faceCluster[1] {
		t.Errorf("faceCluster = %v, want opposing-normal triangles split", faceCluster)
	}
}

func TestFastOptimizePlanarGridSingleCluster(t *testing.T) {
	const n = 4
	var verts [][3]float32
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			verts = append(verts, [3]float32{float32(x), float32(y), 0})
		}
	}
	var indices []uint32
	for y := 0; y < n-1; y++ {
		for x := 0; x < n-1; x++ {
			v00 := uint32(y*n + x)
			v10 := uint32(y*n + x + 1)
			v01 := uint32((y+1)*n + x)
			v11 := uint32((y+1)*n + x + 1)
			indices = append(indices, v00, v10, v11, v00, v11, v01)
		}
	}
	m := Mesh{Vertices: vbuf(verts), Indices: indices, Winding: CounterClockwiseFront}

	_, faceCluster, err := FastOptimize(m, Options{})
	if err != nil {
		t.Fatalf("FastOptimize() error = %v", err)
	}
	if faceCluster.ClusterCount() != 1 {
		t.Errorf("cluster count = %d, want 1 for a coplanar grid", faceCluster.ClusterCount())
	}
}

func TestOptimizeOverdrawFacingTrianglesFrontFirst(t *testing.T) {
	// The index buffer deliberately lists the far triangle (face 0)
	// before the near one (face 1); OptimizeOverdraw must still move
	// the near cluster to the front.
	m := Mesh{
		Vertices: vbuf([][3]float32{
			{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, // near, vertices 0-2
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, // far, vertices 3-5
		}),
		Indices:    []uint32{3, 4, 5, 0, 1, 2},
		Winding:    CounterClockwiseFront,
		Viewpoints: []Vector3{{X: 0, Y: 0, Z: 1}},
	}
	faceCluster := FaceCluster{1, 0} // face 0 (far) -> cluster 1, face 1 (near) -> cluster 0

	reordered, remap, err := OptimizeOverdraw(m, faceCluster, Options{OverdrawStrategy: Raytrace})
	if err != nil {
		t.Fatalf("OptimizeOverdraw() error = %v", err)
	}
	if reordered.Face(0) != [3]uint32{0, 1, 2} {
		t.Errorf("first face after reorder = %v, want the near triangle's original indices", reordered.Face(0))
	}
	if remap[1] != 0 {
		t.Errorf("remap = %v, want old face 1 (near) to land at new face 0", remap)
	}
}

func TestOptimizeVertexMemoryRoundTrip(t *testing.T) {
	m := Mesh{
		Vertices: vbuf([][3]float32{{9, 9, 9}, {0, 0, 0}, {1, 0, 0}, {0, 1, 0}}),
		Indices:  []uint32{1, 2, 3, 1, 3, 2},
		Winding:  CounterClockwiseFront,
	}
	optimized, remap, err := OptimizeVertexMemory(m)
	if err != nil {
		t.Fatalf("OptimizeVertexMemory() error = %v", err)
	}
	if remap[1] != 0 || remap[2] != 1 || remap[3] != 2 {
		t.Fatalf("remap = %v, want referenced vertices 1, 2, 3 renumbered 0, 1, 2 in first-use order", remap)
	}
	// Vertex 0 is never referenced by Indices, so it must land last.
	if remap[0] != 3 {
		t.Errorf("remap[0] = %d, want 3 (unreferenced vertex pushed to the end)", remap[0])
	}
	if optimized.Vertices.Position(3) != (Vector3{X: 9, Y: 9, Z: 9}) {
		t.Errorf("optimized vertex 3 = %v, want the original vertex 0's position", optimized.Vertices.Position(3))
	}
}

func TestOptimizeAndReportEndToEnd(t *testing.T) {
	const n = 4
	var verts [][3]float32
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			verts = append(verts, [3]float32{float32(x), float32(y), 0})
		}
	}
	var indices []uint32
	for y := 0; y < n-1; y++ {
		for x := 0; x < n-1; x++ {
			v00 := uint32(y*n + x)
			v10 := uint32(y*n + x + 1)
			v01 := uint32((y+1)*n + x)
			v11 := uint32((y+1)*n + x + 1)
			indices = append(indices, v00, v10, v11, v00, v11, v01)
		}
	}
	m := Mesh{Vertices: vbuf(verts), Indices: indices, Winding: CounterClockwiseFront}

	optimized, faceCluster, report, err := OptimizeAndReport(m, Options{})
	if err != nil {
		t.Fatalf("OptimizeAndReport() error = %v", err)
	}
	if report.ACMRAfter > report.ACMRBefore+1e-9 {
		t.Errorf("report = %+v, want ACMR to not regress", report)
	}
	if optimized.FaceCount() != m.FaceCount() {
		t.Errorf("optimized face count = %d, want %d", optimized.FaceCount(), m.FaceCount())
	}
	if faceCluster.ClusterCount() == 0 {
		t.Error("faceCluster.ClusterCount() = 0, want at least one cluster")
	}
}

func TestValidateRejectsOutOfRangeIndex(t *testing.T) {
	m := Mesh{
		Vertices: vbuf([][3]float32{{0, 0, 0}, {1, 0, 0}}),
		Indices:  []uint32{0, 1, 5},
	}
	if _, _, err := OptimizeVCache(m, Options{}); !IsKind(err, InvalidArgument) {
		t.Fatalf("OptimizeVCache() error = %v, want InvalidArgument", err)
	}
}
