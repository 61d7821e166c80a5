package graph

import "time"

// BoardEvent is one candidate departure a WAIT/BOARD lookup can land
// on: trip T's departure node at some stop, with its scheduled
// time-of-day (seconds since the feed's reference midnight, which may
// exceed 86400 for a trip that runs past midnight) and the service
// days it is valid on.
type BoardEvent struct {
	DepNode  NodeID
	StopSeq  int32
	TripID   int32
	TimeOfDay int32
	ValidOn  DayBitset
}

// Boarding groups the BoardEvents for one route at one stop, sorted by
// TimeOfDay ascending so GraphExplorer can binary-search the earliest
// valid departure at or after a given time.
type Boarding struct {
	RouteID int32
	Events  []BoardEvent
}

// AlightEvent is the reverse-search analog of BoardEvent: a candidate
// arrival a WAIT_ARRIVAL lookup can land on when searching backward
// from a target instant.
type AlightEvent struct {
	ArrNode   NodeID
	StopSeq   int32
	TripID    int32
	TimeOfDay int32
	ValidOn   DayBitset
}

// Alighting groups the AlightEvents for one route at one stop, sorted
// by TimeOfDay ascending.
type Alighting struct {
	RouteID int32
	Events  []AlightEvent
}

// Epoch returns the reference midnight against which all TimeOfDay
// values and ServiceDay indices are computed.
type Epoch struct {
	Reference time.Time
}

// DayOf converts an absolute instant to a ServiceDay relative to e.
func (e Epoch) DayOf(t time.Time) ServiceDay {
	d := t.Sub(e.Reference)
	days := int64(d.Hours()) / 24
	if days < 0 {
		days = 0
	}
	return ServiceDay(days)
}

// At resolves a (day, timeOfDaySeconds) pair to an absolute instant.
func (e Epoch) At(day ServiceDay, secondsOfDay int32) time.Time {
	return e.Reference.Add(time.Duration(day)*24*time.Hour + time.Duration(secondsOfDay)*time.Second)
}
