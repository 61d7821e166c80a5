// Package costmodel gives every edge type its traversal rule: whether
// it advances time by a fixed offset or a schedule-derived one,
// whether it counts as a transfer boundary, whether it contributes to
// walk distance, and whether the per-leg walk/transfer budget resets
// on traversal.
//
// Grounded on impactsolutionsas-passbi_core/internal/routing/strategy.go's
// per-edge-type Strategy.EdgeCost switch, generalized from a single
// scalar cost into a full transition-rule table, resolved by a static
// map rather than per-edge virtual dispatch.
package costmodel

import "github.com/antigravity/transit-planner/internal/graph"

// rule captures the fixed behavior of one edge type.
type rule struct {
	isTransferBoundary bool // crossing into a BOARD increments nTransfers
	isWalk             bool // contributes to walkDistanceOnCurrentLeg
	isTransferWalk     bool // contributes to the transfer-walk budget instead
	resetsLeg          bool // entry/exit resets the per-leg walk budget
}

var rules = map[graph.EdgeType]rule{
	graph.HIGHWAY:                      {isWalk: true},
	graph.ENTER_PT:                     {resetsLeg: true},
	graph.EXIT_PT:                      {resetsLeg: true},
	graph.ENTER_TIME_EXPANDED_NETWORK:  {resetsLeg: true},
	graph.LEAVE_TIME_EXPANDED_NETWORK:  {resetsLeg: true},
	graph.STOP_NODE_MARKER:             {},
	graph.STOP_ENTER_NODE:              {},
	graph.STOP_EXIT_NODE:               {},
	graph.HOP:                          {},
	graph.DWELL:                        {},
	graph.BOARD:                        {isTransferBoundary: true, resetsLeg: true},
	graph.ALIGHT:                       {resetsLeg: true},
	graph.OVERNIGHT:                    {},
	graph.TRANSFER:                     {isTransferWalk: true},
	graph.WAIT:                         {},
	graph.WAIT_ARRIVAL:                 {},
}

// WalkSpeedMetersPerSecond converts a km/h walk-speed preference into
// m/s for HIGHWAY/TRANSFER time computation.
func WalkSpeedMetersPerSecond(kmh float64) float64 {
	return kmh * 1000.0 / 3600.0
}

// TimeDelta returns the time, in seconds, to traverse edge e starting
// at currentTime (absolute seconds since epoch), given a walk speed in
// m/s. Schedule-bound edges (BOARD, WAIT) must be resolved by the
// caller against the time-expanded graph before calling this — for
// those types e.Time already holds the precomputed delta for the
// specific traversal (see package explorer).
func TimeDelta(e graph.Edge, walkSpeedMPS float64) int64 {
	switch e.Type {
	case graph.HIGHWAY, graph.TRANSFER:
		if walkSpeedMPS <= 0 {
			return int64(e.Time)
		}
		return int64(e.Distance / walkSpeedMPS)
	case graph.OVERNIGHT:
		return 86400
	default:
		return int64(e.Time)
	}
}

// IsTransferBoundary reports whether crossing e increments nTransfers.
func IsTransferBoundary(t graph.EdgeType) bool { return rules[t].isTransferBoundary }

// IsWalk reports whether e contributes to walkDistanceOnCurrentLeg.
func IsWalk(t graph.EdgeType) bool { return rules[t].isWalk }

// IsTransferWalk reports whether e contributes to the transfer-walk budget.
func IsTransferWalk(t graph.EdgeType) bool { return rules[t].isTransferWalk }

// ResetsLeg reports whether traversing e resets the per-leg walk budget.
func ResetsLeg(t graph.EdgeType) bool { return rules[t].resetsLeg }

// Budgets holds the per-query walk-distance limits.
type Budgets struct {
	MaxWalkDistancePerLeg     float64 // meters; 0 means unbounded
	MaxTransferDistancePerLeg float64 // meters; 0 means unbounded
}

// Exceeds reports whether accumulated walk/transfer-walk distance
// after traversing an edge of type t would violate the budget.
func (b Budgets) Exceeds(t graph.EdgeType, walkSoFar, transferWalkSoFar float64) bool {
	if IsWalk(t) && b.MaxWalkDistancePerLeg > 0 && walkSoFar > b.MaxWalkDistancePerLeg {
		return true
	}
	if IsTransferWalk(t) && b.MaxTransferDistancePerLeg > 0 && transferWalkSoFar > b.MaxTransferDistancePerLeg {
		return true
	}
	return false
}
