package labelsetting

import (
	"container/heap"

	"github.com/antigravity/transit-planner/internal/costmodel"
	"github.com/antigravity/transit-planner/internal/explorer"
	"github.com/antigravity/transit-planner/internal/graph"
)

// Params configures one search.
type Params struct {
	Explorer *explorer.Explorer
	Start    graph.NodeID
	Dest     graph.NodeID

	// StartTimes seeds one root label per entry. A point query passes a
	// single instant; a profile query passes every candidate departure
	// in the window planner derived from an initial point-query pass
	// (see SUPPLEMENTED FEATURES: the window's upper bound is only known
	// after that first pass completes). This is the search's "generator
	// of labels" entry point described for coroutine-like lazy streams:
	// a plain loop over a caller-supplied seed set rather than true lazy
	// re-seeding mid-search.
	StartTimes []int64

	Config Config

	Budgets costmodel.Budgets

	// LimitSolutions caps emitted solutions; 0 means unbounded.
	LimitSolutions int
	// MaxVisitedNodes bounds the pop count; exceeding it ends the search
	// with Result.Exhausted set rather than an error.
	MaxVisitedNodes int
}

// Result is everything a search produced: the label arena (so
// reconstruct can walk Parent chains) and the indices of emitted
// solution labels, in emission order.
type Result struct {
	Arena        []Label
	Solutions    []int32
	VisitedNodes int
	Exhausted    bool
}

// Search runs the main loop described for LabelSetting: pop the
// minimum open label, emit it if it reached Dest, otherwise expand its
// explorer edges and update the Pareto front at each neighbor.
func Search(p Params) *Result {
	arena := make([]Label, 0, 256)
	fronts := make(map[graph.NodeID][]int32)
	pq := &queue{}
	heap.Init(pq)
	seq := 0

	push := func(idx int32, l *Label) {
		heap.Push(pq, &queueItem{
			idx:        idx,
			signedTime: l.signedTime(p.Config.Reverse),
			transfers:  l.NTransfers,
			seq:        seq,
		})
		seq++
	}

	newLabel := func(l Label) int32 {
		idx := int32(len(arena))
		arena = append(arena, l)
		return idx
	}

	for _, st := range p.StartTimes {
		idx := newLabel(Label{Node: p.Start, Time: st, Parent: -1})
		fronts[p.Start] = append(fronts[p.Start], idx)
		push(idx, &arena[idx])
	}

	var solutions []int32
	visited := 0

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*queueItem)
		if !frontContains(fronts[arena[item.idx].Node], item.idx) {
			continue // evicted since it was pushed
		}

		visited++
		if visited > p.MaxVisitedNodes {
			return &Result{Arena: arena, Solutions: solutions, VisitedNodes: visited, Exhausted: true}
		}

		lbl := &arena[item.idx]
		if lbl.Node == p.Dest {
			solutions = append(solutions, item.idx)
			if p.LimitSolutions > 0 && len(solutions) >= p.LimitSolutions {
				break
			}
			continue
		}

		for _, tr := range p.Explorer.Edges(lbl.Node, lbl.Time) {
			succ, ok := applyTransition(lbl, item.idx, tr, p)
			if !ok {
				continue
			}
			idx := newLabel(succ)
			if insertIntoFront(arena, fronts, succ.Node, idx, p.Config) {
				push(idx, &arena[idx])
			} else {
				arena = arena[:len(arena)-1] // rejected, reclaim the slot
			}
		}
	}

	return &Result{Arena: arena, Solutions: solutions, VisitedNodes: visited}
}

// applyTransition computes the successor label for crossing tr out of
// (or into, if reversed) lbl, applying the cost model's transfer
// counting, walk-budget accumulation, and budget rejection. parentIdx
// is lbl's own arena index, recorded on the successor for backtracking.
func applyTransition(lbl *Label, parentIdx int32, tr explorer.Transition, p Params) (Label, bool) {
	succ := Label{
		Node:                             tr.Neighbor,
		Time:                             lbl.Time + tr.TimeDelta,
		NTransfers:                       lbl.NTransfers,
		WalkDistanceOnCurrentLeg:         lbl.WalkDistanceOnCurrentLeg,
		TransferWalkDistanceOnCurrentLeg: lbl.TransferWalkDistanceOnCurrentLeg,
		FirstPtDepartureTime:             lbl.FirstPtDepartureTime,
		HasFirstDeparture:                lbl.HasFirstDeparture,
		Parent:                           parentIdx,
		ParentEdge:                       tr.Edge,
	}

	t := tr.Edge.Type
	if costmodel.ResetsLeg(t) {
		succ.WalkDistanceOnCurrentLeg = 0
		succ.TransferWalkDistanceOnCurrentLeg = 0
	}
	if costmodel.IsWalk(t) {
		succ.WalkDistanceOnCurrentLeg += tr.DistanceDelta
	}
	if costmodel.IsTransferWalk(t) {
		succ.TransferWalkDistanceOnCurrentLeg += tr.DistanceDelta
	}
	if p.Budgets.Exceeds(t, succ.WalkDistanceOnCurrentLeg, succ.TransferWalkDistanceOnCurrentLeg) {
		return Label{}, false
	}

	if costmodel.IsTransferBoundary(t) {
		succ.NTransfers++
		if !succ.HasFirstDeparture {
			// The explorer lands a BOARD transition on the departure
			// node at the scheduled departure instant, so succ.Time
			// already is the boarding time.
			succ.FirstPtDepartureTime = succ.Time
			succ.HasFirstDeparture = true
		}
	}

	return succ, true
}

// frontContains reports whether idx is still a member of front.
func frontContains(front []int32, idx int32) bool {
	for _, i := range front {
		if i == idx {
			return true
		}
	}
	return false
}

// insertIntoFront applies the Pareto-front update rule: reject a
// dominated newcomer outright; otherwise evict anything the newcomer
// dominates, break exact ties in favor of the first label seen unless
// ProfileQuery keeps both, and insert.
func insertIntoFront(arena []Label, fronts map[graph.NodeID][]int32, node graph.NodeID, newIdx int32, cfg Config) bool {
	front := fronts[node]
	newLbl := &arena[newIdx]

	for _, i := range front {
		if dominates(&arena[i], newLbl, cfg) {
			return false
		}
	}

	survivors := front[:0:0]
	tieBlocked := false
	for _, i := range front {
		e := &arena[i]
		if dominates(newLbl, e, cfg) {
			continue
		}
		if equalVector(e, newLbl, cfg) && !cfg.ProfileQuery {
			tieBlocked = true
		}
		survivors = append(survivors, i)
	}
	if tieBlocked {
		fronts[node] = survivors
		return false
	}

	fronts[node] = append(survivors, newIdx)
	return true
}
