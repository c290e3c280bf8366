package tootle

import (
	"math"
	"sync"
)

// DefaultViewpointCount is the size of the built-in viewpoint table used
// by overdraw passes when the caller supplies no viewpoints of its own.
const DefaultViewpointCount = 128

var (
	defaultViewpointsOnce sync.Once
	defaultViewpoints     []Vector3
)

// DefaultViewpoints returns the library's built-in set of
// DefaultViewpointCount unit directions, approximately uniformly spread
// over the sphere via a spherical Fibonacci lattice. The table is built
// once, lazily, and the returned slice must not be mutated by callers.
//
// This implementation builds the table algorithmically rather than
// shipping a fixed baked-in list, so it stays free of any particular
// sample count or distribution baked into the source.
func DefaultViewpoints() []Vector3 {
	defaultViewpointsOnce.Do(func() {
		defaultViewpoints = sphericalFibonacciLattice(DefaultViewpointCount)
	})
	return defaultViewpoints
}

// sphericalFibonacciLattice generates n approximately-uniform unit
// vectors on the sphere using the golden-ratio spiral construction.
func sphericalFibonacciLattice(n int) []Vector3 {
	if n <= 0 {
		return nil
	}
	const goldenRatio = 1.618033988749895
	pts := make([]Vector3, n)
	for i := 0; i < n; i++ {
		t := float64(i) / goldenRatio
		_, frac := math.Modf(t)
		phi := 2 * math.Pi * frac

		// z is linear in i so successive points spread evenly from
		// pole to pole; this is the standard Fibonacci-lattice mapping.
		z := 1 - (2*float64(i)+1)/float64(n)
		r := math.Sqrt(math.Max(0, 1-z*z))

		pts[i] = Vector3{
			X: r * math.Cos(phi),
			Y: r * math.Sin(phi),
			Z: z,
		}
	}
	return pts
}
