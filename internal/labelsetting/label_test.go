package labelsetting

import "testing"

func TestDominates_StrictlyBetterOnTimeOnly(t *testing.T) {
	cfg := Config{}
	a := &Label{Time: 100}
	b := &Label{Time: 200}

	if !dominates(a, b, cfg) {
		t.Fatalf("expected earlier-arriving label to dominate")
	}
	if dominates(b, a, cfg) {
		t.Fatalf("later-arriving label must not dominate an earlier one")
	}
}

func TestDominates_WorseOnOneCriterionBlocksDomination(t *testing.T) {
	cfg := Config{}
	// a arrives earlier but walked further: neither dominates.
	a := &Label{Time: 100, WalkDistanceOnCurrentLeg: 500}
	b := &Label{Time: 200, WalkDistanceOnCurrentLeg: 100}

	if dominates(a, b, cfg) {
		t.Fatalf("a should not dominate: worse on walk distance")
	}
	if dominates(b, a, cfg) {
		t.Fatalf("b should not dominate: worse on time")
	}
}

func TestDominates_EqualVectorDoesNotDominate(t *testing.T) {
	cfg := Config{}
	a := &Label{Time: 100, NTransfers: 1}
	b := &Label{Time: 100, NTransfers: 1}

	if dominates(a, b, cfg) || dominates(b, a, cfg) {
		t.Fatalf("identical criterion vectors must not dominate each other")
	}
	if !equalVector(a, b, cfg) {
		t.Fatalf("expected equalVector to report a tie")
	}
}

func TestDominates_IgnoreTransfersDropsTheTransferDimension(t *testing.T) {
	// Without IgnoreTransfers, fewer transfers at the same arrival time
	// dominates. With it set, the extra transfer is irrelevant and the
	// two labels tie instead.
	a := &Label{Time: 100, NTransfers: 0}
	b := &Label{Time: 100, NTransfers: 1}

	if !dominates(a, b, Config{}) {
		t.Fatalf("fewer transfers at equal time should dominate when transfers are a criterion")
	}
	if dominates(a, b, Config{IgnoreTransfers: true}) {
		t.Fatalf("transfer count must not factor into dominance once ignored")
	}
	if !equalVector(a, b, Config{IgnoreTransfers: true}) {
		t.Fatalf("expected a tie once the transfer dimension is dropped")
	}
}

func TestDominates_ReverseSearchPrefersLaterTime(t *testing.T) {
	cfg := Config{Reverse: true}
	// In a reverse search, arriving later (closer to the anchor) is
	// better, since the search walks backward from the target instant.
	later := &Label{Time: 200}
	earlier := &Label{Time: 100}

	if !dominates(later, earlier, cfg) {
		t.Fatalf("later label should dominate in reverse search")
	}
	if dominates(earlier, later, cfg) {
		t.Fatalf("earlier label must not dominate in reverse search")
	}
}

func TestDominates_ProfileQueryPrefersLaterFirstDeparture(t *testing.T) {
	cfg := Config{ProfileQuery: true}
	// Same arrival, same transfers and walk, but b leaves later and so
	// gives the traveler more slack: b should dominate a.
	a := &Label{Time: 100, FirstPtDepartureTime: 10, HasFirstDeparture: true}
	b := &Label{Time: 100, FirstPtDepartureTime: 50, HasFirstDeparture: true}

	if !dominates(b, a, cfg) {
		t.Fatalf("later first-departure label should dominate at equal arrival")
	}
	if dominates(a, b, cfg) {
		t.Fatalf("earlier first-departure label must not dominate")
	}
	if dominates(a, b, Config{}) || dominates(b, a, Config{}) {
		t.Fatalf("without ProfileQuery the departure dimension must not affect dominance")
	}
}
