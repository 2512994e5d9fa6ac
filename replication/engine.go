package replication

import (
	"sort"

	"github.com/itrascastro/itrascastro.github.io-sub001/calendar"
)

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Replicate places every non-system source event onto the target calendar.
//
// Events are processed in ascending date order (stable for same-day events).
// That order is what makes the backward bias of the slot search preserve
// chronology, so it must not change.
//
// Unplaceable events are collected in Result.Unplaced. Errors are reserved for
// invalid input (ErrInvalidInput) and broken invariants (ErrInvariantViolation).
func Replicate(source CalendarDescriptor, events []calendar.Event, target CalendarDescriptor) (*Result, error) {
	if err := source.validate("source"); err != nil {
		return nil, err
	}
	if err := target.validate("target"); err != nil {
		return nil, err
	}
	if events == nil {
		return nil, &InputError{Field: "events", Reason: "missing"}
	}

	ordered := userEventsByDate(events)
	result := &Result{
		Placed:   []Placement{},
		Unplaced: []UnplacedRecord{},
	}

	srcSpace := BuildWorkableSpace(source)
	dstSpace := BuildWorkableSpace(target)

	if dstSpace.Len() == 0 {
		for _, ev := range ordered {
			result.Unplaced = append(result.Unplaced, UnplacedRecord{Event: ev, Reason: ReasonNoDestinationCapacity})
		}
		return result, nil
	}

	// An empty source space leaves the factor undefined; every event then
	// falls through the source lookup below.
	factor, _ := NewFactor(dstSpace.Len(), srcSpace.Len())
	occupancy := NewOccupancyMap(dstSpace.Len())

	for _, ev := range ordered {
		srcIndex, ok := srcSpace.IndexOf(ev.Date)
		if !ok {
			result.Unplaced = append(result.Unplaced, UnplacedRecord{Event: ev, Reason: ReasonNotInSourceSpace})
			continue
		}

		ideal := MapIndex(srcIndex, factor)
		final, ok := occupancy.FindNearestFree(ideal)
		if !ok {
			result.Unplaced = append(result.Unplaced, UnplacedRecord{Event: ev, Reason: ReasonNoFreeSlot})
			continue
		}

		occupancy.Occupy(final)
		result.Placed = append(result.Placed, Placement{
			Event:        ev,
			OriginalDate: ev.Date,
			NewDate:      dstSpace.At(final),
			Confidence:   Score(ideal, final, factor),
		})
	}

	if err := checkPlacements(result.Placed); err != nil {
		return nil, err
	}
	return result, nil
}

// userEventsByDate drops system events and sorts the rest by date, keeping
// input order for same-day events. Events are cloned so the result shares no
// maps with the caller's input.
func userEventsByDate(events []calendar.Event) []calendar.Event {
	out := make([]calendar.Event, 0, len(events))
	for _, ev := range events {
		if ev.IsSystem {
			continue
		}
		out = append(out, ev.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func checkPlacements(placed []Placement) error {
	for _, p := range placed {
		if p.NewDate.IsWeekend() {
			return &InvariantError{EventID: p.Event.ID, Date: p.NewDate, Detail: "weekend"}
		}
	}
	return nil
}
