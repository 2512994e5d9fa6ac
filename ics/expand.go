package ics

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/itrascastro/itrascastro.github.io-sub001/calendar"
)

const defaultMaxOccurrencesPerEvent = 1000

// Occurrence is one concrete day of a (possibly recurring) event.
type Occurrence struct {
	UID         string
	Summary     string
	Description string
	Category    string
	System      bool
	Date        calendar.Date
}

// ExpandResult wraps the expanded occurrences and the UIDs that hit the cap.
type ExpandResult struct {
	Occurrences     []Occurrence
	TruncatedEvents []string
}

// Expand turns parsed events into per-day occurrences inside rng. It handles
// single events, RRULE recurrences, EXDATE removals and RECURRENCE-ID
// overrides. maxPerEvent <= 0 uses the default cap.
func Expand(events []ParsedEvent, rng calendar.DateRange, maxPerEvent int) ExpandResult {
	var result ExpandResult
	if maxPerEvent <= 0 {
		maxPerEvent = defaultMaxOccurrencesPerEvent
	}

	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)
	var uids []string
	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
			continue
		}
		if _, seen := baseByUID[ev.UID]; !seen {
			uids = append(uids, ev.UID)
		}
		baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
	}

	for _, uid := range uids {
		for _, ev := range baseByUID[uid] {
			occ, hitCap := expandEvent(ev, overridesByUID[uid], rng, maxPerEvent)
			if hitCap {
				result.TruncatedEvents = append(result.TruncatedEvents, uid)
				log.Printf("[ICS] Truncated occurrences for %s at %d", uid, maxPerEvent)
			}
			result.Occurrences = append(result.Occurrences, occ...)
		}
	}

	sort.SliceStable(result.Occurrences, func(i, j int) bool {
		return result.Occurrences[i].Date.Before(result.Occurrences[j].Date)
	})
	return result
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, rng calendar.DateRange, maxPerEvent int) ([]Occurrence, bool) {
	if ev.RawRRule == "" {
		day := calendar.DateOf(ev.Start)
		if o, ok := findOverride(overrides, ev.Start); ok {
			ev, day = o, calendar.DateOf(o.Start)
		}
		if !rng.Contains(day) {
			return nil, false
		}
		return []Occurrence{makeOccurrence(ev, day)}, false
	}

	opt, err := rrule.StrToROption(ev.RawRRule)
	if err != nil {
		log.Printf("[ICS] Failed to parse RRULE %q for %s: %v", ev.RawRRule, ev.UID, err)
		return nil, false
	}
	opt.Dtstart = ev.Start
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		log.Printf("[ICS] Invalid RRULE %q for %s: %v", ev.RawRRule, ev.UID, err)
		return nil, false
	}

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(alignExDate(ex, ev))
	}

	loc := ev.Start.Location()
	rangeStart := time.Date(rng.Start.Year(), rng.Start.Month(), rng.Start.Day(), 0, 0, 0, 0, loc)
	rangeEnd := time.Date(rng.End.Year(), rng.End.Month(), rng.End.Day(), 23, 59, 59, 0, loc)
	times := set.Between(rangeStart, rangeEnd, true)

	hitCap := false
	if len(times) > maxPerEvent {
		times = times[:maxPerEvent]
		hitCap = true
	}

	out := make([]Occurrence, 0, len(times))
	for _, t := range times {
		base, day := ev, calendar.DateOf(t)
		if o, ok := findOverride(overrides, t); ok {
			base, day = o, calendar.DateOf(o.Start)
			if !rng.Contains(day) {
				continue
			}
		}
		out = append(out, makeOccurrence(base, day))
	}
	return out, hitCap
}

// alignExDate moves an all-day EXDATE onto the event's start time of day so
// the rrule set matches it exactly.
func alignExDate(ex time.Time, ev ParsedEvent) time.Time {
	loc := ev.Start.Location()
	if ev.AllDay {
		return time.Date(ex.Year(), ex.Month(), ex.Day(), ev.Start.Hour(), ev.Start.Minute(), ev.Start.Second(), 0, loc)
	}
	return ex.In(loc)
}

// findOverride matches RECURRENCE-ID against an occurrence by day.
func findOverride(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	day := calendar.DateOf(start)
	for _, ov := range overrides {
		if ov.Recurrence != nil && calendar.DateOf(*ov.Recurrence).Equal(day) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

func makeOccurrence(ev ParsedEvent, day calendar.Date) Occurrence {
	occ := Occurrence{
		UID:         ev.UID,
		Summary:     ev.Summary,
		Description: ev.Description,
		System:      ev.System,
		Date:        day,
	}
	if len(ev.Categories) > 0 {
		occ.Category = ev.Categories[0]
	}
	return occ
}

// =============================================================================
// CONVERSION TO CALENDAR EVENTS
// =============================================================================

// ImportOptions controls how occurrences become calendar events.
type ImportOptions struct {
	// CategoryID, when set, overrides the occurrence category.
	CategoryID calendar.CategoryID
	// System forces every event to be a system event (feeds).
	System bool
	// IDPrefix namespaces generated ids, e.g. "feed-".
	IDPrefix string
}

// ToEvents converts occurrences inside cal's range into events of cal.
// Ids are derived from UID and day so re-importing updates in place.
func ToEvents(cal calendar.Calendar, occs []Occurrence, opts ImportOptions) []calendar.Event {
	events := make([]calendar.Event, 0, len(occs))
	for _, occ := range occs {
		if !cal.Range.Contains(occ.Date) {
			continue
		}
		title := occ.Summary
		if title == "" {
			title = occ.UID
		}
		categoryID := opts.CategoryID
		if categoryID == "" {
			categoryID = CategoryIDFor(occ.Category)
		}
		events = append(events, calendar.Event{
			ID:          calendar.EventID(fmt.Sprintf("%s%s-%s", opts.IDPrefix, sanitizeID(occ.UID), occ.Date)),
			CalendarID:  cal.ID,
			CategoryID:  categoryID,
			Title:       title,
			Description: occ.Description,
			Date:        occ.Date,
			IsSystem:    opts.System || occ.System,
		})
	}
	return events
}

// CategoryIDFor derives a category id from an ICS category name. Names that
// already look like ids (system categories) are kept.
func CategoryIDFor(name string) calendar.CategoryID {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "SYS_CAT_") {
		return calendar.CategoryID(name)
	}
	return calendar.CategoryID("cat-" + sanitizeID(strings.ToLower(name)))
}

func sanitizeID(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
