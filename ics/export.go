package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/itrascastro/itrascastro.github.io-sub001/calendar"
)

const productID = "-//Academic Calendar//Replication Engine//CA"

// Export renders a calendar as an iCalendar document. Every event becomes an
// all-day VEVENT whose UID is the event id, with its category name in
// CATEGORIES. System events carry X-CALENDAR-SYSTEM so a re-import keeps
// them read-only.
func Export(cal calendar.Calendar, categories []calendar.Category, events []calendar.Event) string {
	names := make(map[calendar.CategoryID]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	out := ical.NewCalendar()
	out.SetMethod(ical.MethodPublish)
	out.SetProductId(productID)
	out.SetXWRCalName(cal.Name)

	stamp := cal.CreatedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}

	for _, ev := range events {
		ve := out.AddEvent(string(ev.ID))
		ve.SetDtStampTime(stamp.UTC())
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		ve.SetAllDayStartAt(ev.Date.Time())
		ve.SetAllDayEndAt(ev.Date.AddDays(1).Time())
		if name := names[ev.CategoryID]; name != "" && !ev.IsSystem {
			ve.AddProperty(ical.ComponentPropertyCategories, name)
		} else if ev.CategoryID != "" {
			// System categories are exported by id so they map back on import.
			ve.AddProperty(ical.ComponentPropertyCategories, string(ev.CategoryID))
		}
		if ev.IsSystem {
			ve.SetProperty(PropertySystem, "TRUE")
		}
	}

	return out.Serialize()
}
