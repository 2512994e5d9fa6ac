/*
Package replication re-positions a source calendar's events onto a target
calendar with a different date range.

PURPOSE:
  Copying a semester's events to next semester cannot reuse the same dates:
  the ranges differ, holidays move and the evaluation period shifts. The
  engine keeps each event at the same *relative* position among the days
  that can host an event, resolves collisions deterministically and scores
  how far each placement drifted from its ideal slot.

PIPELINE (per run):
  1. BuildWorkableSpace(source), BuildWorkableSpace(target)
  2. NewFactor(len(target space), len(source space))
  3. For each non-system source event, ascending by date:
       MapIndex -> OccupancyMap.FindNearestFree -> Score
  4. Result{Placed, Unplaced}

KEY CONCEPTS IN THIS FILE (types.go):
  - CalendarDescriptor: Engine view of one calendar (range, cutoff, occupied days)
  - Placement / UnplacedRecord / Result: Run output
  - UnplacedReason: Fixed set of causes an event could not be placed

DESIGN PRINCIPLES:
  1. Pure: no I/O, no clocks, no state across calls
  2. Deterministic: same inputs produce an identical Result
  3. Greedy: first-fit per event, never revisits earlier placements

SEE ALSO:
  - engine.go: The orchestrator
  - strategy.go: Strategy selection by calendar type
  - service.go: Store-backed preview/apply
*/
package replication

import "github.com/itrascastro/itrascastro.github.io-sub001/calendar"

// =============================================================================
// CALENDAR DESCRIPTOR - Engine input for one calendar
// =============================================================================

// CalendarDescriptor is immutable for the duration of one run.
type CalendarDescriptor struct {
	StartDate calendar.Date
	EndDate   calendar.Date

	// EvaluationCutoff bounds the workable space. Zero means EndDate.
	EvaluationCutoff calendar.Date

	// OccupiedDates are days already taken by a system event.
	OccupiedDates calendar.DateSet
}

// Cutoff returns the effective last day of the workable space.
func (d CalendarDescriptor) Cutoff() calendar.Date {
	if d.EvaluationCutoff.IsZero() || d.EvaluationCutoff.After(d.EndDate) {
		return d.EndDate
	}
	return d.EvaluationCutoff
}

func (d CalendarDescriptor) validate(role string) error {
	if d.StartDate.IsZero() {
		return &InputError{Field: role + ".start_date", Reason: "missing"}
	}
	if d.EndDate.IsZero() {
		return &InputError{Field: role + ".end_date", Reason: "missing"}
	}
	return nil
}

// =============================================================================
// RESULT TYPES
// =============================================================================

// Placement is one successfully placed event.
type Placement struct {
	Event        calendar.Event
	OriginalDate calendar.Date
	NewDate      calendar.Date
	Confidence   int
}

type UnplacedReason string

const (
	ReasonNotInSourceSpace      UnplacedReason = "event date not in source workable space"
	ReasonNoFreeSlot            UnplacedReason = "no free slot available"
	ReasonNoDestinationCapacity UnplacedReason = "destination has no workable space"
)

// UnplacedRecord is an event the engine could not place. Not a failure.
type UnplacedRecord struct {
	Event  calendar.Event
	Reason UnplacedReason
}

// Result is owned by the caller; nothing in it is shared with the engine.
type Result struct {
	Placed   []Placement
	Unplaced []UnplacedRecord
}
