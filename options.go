package tootle

import "log"

// VCacheStrategy selects which of the three interchangeable vertex
// cache optimization passes reorders the index buffer.
type VCacheStrategy int

const (
	// AutoStrategy picks LinearStrips when cacheSize <= 6, Tipsy
	// otherwise: small caches get little benefit from Tipsy's scoring
	// overhead, so a cheap strip walk wins.
	AutoStrategy VCacheStrategy = iota
	LinearStrips
	GenericFIFO
	Tipsy
)

func (s VCacheStrategy) valid() bool {
	return s >= AutoStrategy && s <= Tipsy
}

// OverdrawStrategy selects which of the two overdraw-graph builders
// runs.
type OverdrawStrategy int

const (
	// AutoOverdraw picks Raytrace when the cluster count exceeds
	// RaytraceClusterThreshold, Fast otherwise.
	AutoOverdraw OverdrawStrategy = iota
	Raytrace
	Fast
)

func (s OverdrawStrategy) valid() bool {
	return s >= AutoOverdraw && s <= Fast
}

// RaytraceClusterThreshold is the cluster count above which
// AutoOverdraw selects Raytrace over the cheaper Fast approximation.
const RaytraceClusterThreshold = 225

// RayGridSize is the default R in the R x R orthographic ray grid cast
// per viewpoint by the Raytrace overdraw strategy.
const RayGridSize = 256

// TipsyParams holds the tuning constants behind the Tipsy vertex cache
// strategy (named for Sander, Nehab, and Barczak's linear-time vertex
// cache optimization, SIGGRAPH/I3D 2007), exposed as knobs rather than
// hardcoded since they were only ever folklore-tuned defaults.
type TipsyParams struct {
	PositionExponent float64 // exponent in the position-term falloff; default 1.5
	ValenceBoost     float64 // K in the valence term; default 2.0
	CachePeakRank    int     // most-recent ranks that share the constant peak; default 3
}

// DefaultTipsyParams returns the tuned defaults used when a caller
// leaves TipsyParams unset.
func DefaultTipsyParams() TipsyParams {
	return TipsyParams{
		PositionExponent: 1.5,
		ValenceBoost:     2.0,
		CachePeakRank:    3,
	}
}

// ClusterParams holds the clustering admission constants: Alpha is the
// normal-cone threshold new triangles must satisfy to join a cluster,
// and Lambda is the slack allowed in a cluster's local vertex-cache
// efficiency relative to the whole mesh's baseline.
type ClusterParams struct {
	Alpha  float64 // cone threshold in [0,1]; default 0.75
	Lambda float64 // local ACMR slack; default 0.5
}

// DefaultClusterParams returns the tuned defaults used when a caller
// leaves ClusterParams unset.
func DefaultClusterParams() ClusterParams {
	return ClusterParams{Alpha: 0.75, Lambda: 0.5}
}

// DefaultCacheSize is the default FIFO vertex cache capacity assumed
// when a caller leaves Options.CacheSize unset.
const DefaultCacheSize = 12

// Options bundles the optional knobs accepted by the pipeline's
// orchestrator functions. The zero value is valid and selects every
// documented default.
type Options struct {
	CacheSize             int
	VCacheStrategy        VCacheStrategy
	OverdrawStrategy      OverdrawStrategy
	Tipsy                 TipsyParams
	Cluster               ClusterParams
	RequestedClusterCount int // 0 means "let the clusterer decide"
	Workers               int // 0 or 1 means sequential overdraw graph build
	Logger                *log.Logger
}

// withDefaults returns a copy of o with every zero field replaced by
// its documented default.
func (o Options) withDefaults() Options {
	if o.CacheSize == 0 {
		o.CacheSize = DefaultCacheSize
	}
	if o.Tipsy == (TipsyParams{}) {
		o.Tipsy = DefaultTipsyParams()
	}
	if o.Cluster == (ClusterParams{}) {
		o.Cluster = DefaultClusterParams()
	}
	return o
}

func (o Options) logf(format string, args ...any) {
	if o.Logger != nil {
		o.Logger.Printf(format, args...)
	}
}
