package vcache

import "fmt"

// Strategy selects which of Optimize's three reordering algorithms
// runs.
type Strategy int

const (
	// Auto picks LinearStrip when cacheSize <= 6, Tipsy otherwise:
	// small caches get little benefit from Tipsy's scoring overhead, so
	// the cheaper strip walk wins.
	Auto Strategy = iota
	LinearStrip
	GenericFIFO
	Tipsy
)

func (s Strategy) String() string {
	switch s {
	case Auto:
		return "Auto"
	case LinearStrip:
		return "LinearStrip"
	case GenericFIFO:
		return "GenericFIFO"
	case Tipsy:
		return "Tipsy"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// TipsyParams holds the tuning constants behind the Tipsy strategy
// (named for Sander, Nehab, and Barczak's linear-time vertex cache
// optimization, SIGGRAPH/I3D 2007), exposed as knobs rather than
// hardcoded since they were only ever folklore-tuned defaults.
type TipsyParams struct {
	// PositionExponent is the exponent in the position-term falloff
	// past the cache peak. Default 1.5.
	PositionExponent float64
	// ValenceBoost is K in the valence term K * remaining^-0.5.
	// Default 2.0.
	ValenceBoost float64
	// CachePeakRank is how many of the most-recent cache ranks share
	// the constant peak score. Default 3.
	CachePeakRank int
}

// DefaultTipsyParams returns the tuned defaults used when a caller
// leaves TipsyParams unset.
func DefaultTipsyParams() TipsyParams {
	return TipsyParams{PositionExponent: 1.5, ValenceBoost: 2.0, CachePeakRank: 3}
}

// tipsyPeak is the constant score given to the CachePeakRank
// most-recent vertices.
const tipsyPeak = 0.75

func resolveAuto(cacheSize int) Strategy {
	if cacheSize <= 6 {
		return LinearStrip
	}
	return Tipsy
}

// Optimize produces a new index permutation containing the same
// triangles (as unordered triples) in an order that lowers simulated
// ACMR, plus the old->new face index mapping.
func Optimize(indices []uint32, vertexCount, cacheSize int, strategy Strategy, params TipsyParams) ([]uint32, []int, error) {
	if cacheSize < 1 {
		return nil, nil, fmt.Errorf("vcache: cache size %d must be >= 1", cacheSize)
	}
	if len(indices)%3 != 0 {
		return nil, nil, fmt.Errorf("vcache: index buffer length %d is not a multiple of 3", len(indices))
	}
	if len(indices) == 0 {
		return []uint32{}, []int{}, nil
	}
	if params == (TipsyParams{}) {
		params = DefaultTipsyParams()
	}

	resolved := strategy
	if resolved == Auto {
		resolved = resolveAuto(cacheSize)
	}

	switch resolved {
	case LinearStrip:
		return linearStrip(indices, vertexCount)
	case GenericFIFO:
		return genericFIFOGreedy(indices, vertexCount, cacheSize)
	case Tipsy:
		return tipsy(indices, vertexCount, cacheSize, params)
	default:
		return nil, nil, fmt.Errorf("vcache: unknown strategy %v", strategy)
	}
}

// buildOutputs turns a face visitation order into a new index buffer
// and the old->new face remap that Optimize returns.
func buildOutputs(indices []uint32, order []int) ([]uint32, []int) {
	faceCount := len(order)
	newIndices := make([]uint32, 0, faceCount*3)
	faceRemap := make([]int, faceCount)
	for newIdx, oldFace := range order {
		newIndices = append(newIndices, indices[oldFace*3], indices[oldFace*3+1], indices[oldFace*3+2])
		faceRemap[oldFace] = newIdx
	}
	return newIndices, faceRemap
}
