package replication

import (
	"sort"

	"github.com/itrascastro/itrascastro.github.io-sub001/calendar"
)

// WorkableSpace is the ascending, duplicate-free list of days of one calendar
// that can host a replicated event. It may be empty.
type WorkableSpace struct {
	dates []calendar.Date
}

// BuildWorkableSpace keeps every weekday between the start date and the
// evaluation cutoff (inclusive) that no system event occupies.
func BuildWorkableSpace(desc CalendarDescriptor) WorkableSpace {
	span := calendar.DateRange{Start: desc.StartDate, End: desc.Cutoff()}
	var dates []calendar.Date
	for _, day := range span.Days() {
		if day.IsWeekend() {
			continue
		}
		if desc.OccupiedDates.Contains(day) {
			continue
		}
		dates = append(dates, day)
	}
	return WorkableSpace{dates: dates}
}

func (w WorkableSpace) Len() int { return len(w.dates) }

func (w WorkableSpace) At(i int) calendar.Date { return w.dates[i] }

// IndexOf finds d by exact match.
func (w WorkableSpace) IndexOf(d calendar.Date) (int, bool) {
	i := sort.Search(len(w.dates), func(i int) bool {
		return w.dates[i].AfterOrEqual(d)
	})
	if i < len(w.dates) && w.dates[i].Equal(d) {
		return i, true
	}
	return 0, false
}

// Dates returns a copy of the space.
func (w WorkableSpace) Dates() []calendar.Date {
	out := make([]calendar.Date, len(w.dates))
	copy(out, w.dates)
	return out
}
