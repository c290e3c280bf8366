// Package tootle re-orders the triangles and vertices of an indexed
// triangle mesh to improve post-transform vertex cache locality and
// reduce overdraw when the mesh is later rasterized.
//
// The package is organized as a pipeline of passes, each owned by a
// subpackage: mesh (topology), vcache (cache simulation and
// optimization), cluster (view-coherent clustering), overdraw (overdraw
// graph construction and cluster ordering), and vmem (vertex memory
// reordering). This root package composes them into the named
// orchestrators of the library surface and holds the types shared
// across all of them.
package tootle
