// Package ics imports and exports calendars in iCalendar format and keeps
// holiday feeds in sync.
package ics

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

// PropertySystem marks events owned by the application (holidays, PAF).
const PropertySystem ical.ComponentProperty = "X-CALENDAR-SYSTEM"

// ParsedEvent is the normalized representation of a VEVENT. Recurrence
// expansion operates on this type.
type ParsedEvent struct {
	UID         string
	Summary     string
	Description string
	Categories  []string
	System      bool

	Start  time.Time
	AllDay bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID (if present)
	IsOverride bool
}

// Parse parses a single ICS payload into a list of ParsedEvent.
//
//   - All-day events are detected by VALUE=DATE or a date-only DTSTART.
//   - RRULE/EXDATE/RECURRENCE-ID are recorded, not expanded; see Expand.
//   - A broken VEVENT is logged and skipped, the rest still parse.
func Parse(body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]ParsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(comp)
		if perr != nil {
			log.Printf("[ICS] Skipping VEVENT: %v", perr)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyCategories) {
		for _, c := range strings.Split(p.Value, ",") {
			if c = strings.TrimSpace(c); c != "" {
				out.Categories = append(out.Categories, c)
			}
		}
	}
	if p := ve.GetProperty(PropertySystem); p != nil {
		out.System = strings.EqualFold(strings.TrimSpace(p.Value), "TRUE")
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return out, errors.New("missing DTSTART in " + out.UID)
	}
	if isDateValue(dtStart.Value, dtStart.ICalParameters) {
		start, err := parseICSTime(dtStart.Value)
		if err != nil {
			return out, err
		}
		out.Start = start
		out.AllDay = true
	} else {
		// The library resolves TZID for date-times.
		start, err := ve.GetStartAt()
		if err != nil {
			if start, err = parseICSTime(dtStart.Value); err != nil {
				return out, err
			}
		}
		out.Start = start
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if ridProp := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); ridProp != nil {
		if t, err := parseICSTime(ridProp.Value); err == nil {
			out.Recurrence = &t
			out.IsOverride = true
		}
	}

	return out, nil
}

func isDateValue(value string, params map[string][]string) bool {
	if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(value, "T")
}

// parseICSTime parses a basic ICS date or date-time. Date-only and floating
// values are read as UTC, which is what all-day events need.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.Parse("20060102T150405", v)
	}
	return time.Parse("20060102", v)
}
