// Package labelsetting implements the multi-criteria, Dijkstra-like
// search that is the core of this repository: a priority queue of open
// labels ordered lexicographically by (time, transfer count), and a
// per-node Pareto front of closed labels that prunes dominated
// alternatives as the search progresses.
//
// Grounded on the teacher's round-based internal/routing/raptor.go
// (the backtracking label shape: fromStop/routeID/tripID/boardTime
// back-pointers) and impactsolutionsas-passbi_core's
// internal/routing/astar.go (the container/heap open-set pattern),
// generalized from a single scalar cost into the criterion vector
// described by the per-node Pareto front.
package labelsetting

import "github.com/antigravity/transit-planner/internal/graph"

// Label is the single mutable object of the search. Labels live in a
// flat arena allocated per query; Parent is an index into that arena
// rather than a pointer, so the whole arena can be dropped at once
// when the query ends.
type Label struct {
	Node graph.NodeID
	// Time is the absolute instant reached at Node, in seconds since
	// the graph's Epoch.Reference. It decreases along a reverse search.
	Time int64

	NTransfers int

	WalkDistanceOnCurrentLeg         float64
	TransferWalkDistanceOnCurrentLeg float64

	// FirstPtDepartureTime is the instant of the first boarding on the
	// path. HasFirstDeparture is false until that boarding happens,
	// standing in for the "nullable" field described in the data model.
	FirstPtDepartureTime int64
	HasFirstDeparture    bool

	// Parent is the arena index of the predecessor label, or -1 for a
	// start label.
	Parent int32
	// ParentEdge is the edge consumed to reach this label from Parent,
	// consulted by package reconstruct.
	ParentEdge graph.Edge
}

// Config fixes which criteria are active for one search, derived from
// the request hints.
type Config struct {
	IgnoreTransfers bool
	ProfileQuery    bool
	Reverse         bool
}

// signedTime returns the time criterion in "smaller is better" form:
// a reverse search prefers labels closer to the target instant, i.e.
// the largest Time, so it is negated to fit the same comparison as
// the forward case.
func (l *Label) signedTime(reverse bool) int64 {
	if reverse {
		return -l.Time
	}
	return l.Time
}

// signedFirstDeparture returns the profile-query departure criterion
// in "smaller is better" form. Given two labels with an otherwise
// equal arrival, the one that departs later leaves the traveler more
// slack and is treated as dominant; in forward mode that means a
// larger FirstPtDepartureTime is better, so it is negated here to
// match the "smaller is better" convention used everywhere else.
func (l *Label) signedFirstDeparture(reverse bool) int64 {
	if !l.HasFirstDeparture {
		return 0
	}
	if reverse {
		return l.FirstPtDepartureTime
	}
	return -l.FirstPtDepartureTime
}

// dominates reports whether a weakly-as-good-on-every-active-criterion
// and strictly-better-on-at-least-one than b, per Config.
func dominates(a, b *Label, cfg Config) bool {
	strictlyBetter := false

	at, bt := a.signedTime(cfg.Reverse), b.signedTime(cfg.Reverse)
	if at > bt {
		return false
	}
	if at < bt {
		strictlyBetter = true
	}

	if !cfg.IgnoreTransfers {
		if a.NTransfers > b.NTransfers {
			return false
		}
		if a.NTransfers < b.NTransfers {
			strictlyBetter = true
		}
	}

	if a.WalkDistanceOnCurrentLeg > b.WalkDistanceOnCurrentLeg {
		return false
	}
	if a.WalkDistanceOnCurrentLeg < b.WalkDistanceOnCurrentLeg {
		strictlyBetter = true
	}

	if a.TransferWalkDistanceOnCurrentLeg > b.TransferWalkDistanceOnCurrentLeg {
		return false
	}
	if a.TransferWalkDistanceOnCurrentLeg < b.TransferWalkDistanceOnCurrentLeg {
		strictlyBetter = true
	}

	if cfg.ProfileQuery {
		ad, bd := a.signedFirstDeparture(cfg.Reverse), b.signedFirstDeparture(cfg.Reverse)
		if ad > bd {
			return false
		}
		if ad < bd {
			strictlyBetter = true
		}
	}

	return strictlyBetter
}

// equalVector reports whether a and b tie on every active criterion.
func equalVector(a, b *Label, cfg Config) bool {
	if a.signedTime(cfg.Reverse) != b.signedTime(cfg.Reverse) {
		return false
	}
	if !cfg.IgnoreTransfers && a.NTransfers != b.NTransfers {
		return false
	}
	if a.WalkDistanceOnCurrentLeg != b.WalkDistanceOnCurrentLeg {
		return false
	}
	if a.TransferWalkDistanceOnCurrentLeg != b.TransferWalkDistanceOnCurrentLeg {
		return false
	}
	if cfg.ProfileQuery && a.signedFirstDeparture(cfg.Reverse) != b.signedFirstDeparture(cfg.Reverse) {
		return false
	}
	return true
}
