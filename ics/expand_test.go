package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itrascastro/itrascastro.github.io-sub001/calendar"
)

var autumn = calendar.DateRange{
	Start: calendar.MustParseDate("2025-09-01"),
	End:   calendar.MustParseDate("2025-12-19"),
}

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func occurrenceDates(occs []Occurrence) []string {
	out := make([]string, len(occs))
	for i, o := range occs {
		out[i] = o.Date.String()
	}
	return out
}

func TestExpand_SingleEvents(t *testing.T) {
	events := []ParsedEvent{
		{UID: "late", Summary: "Late", Start: utcDay(2025, 11, 1), AllDay: true},
		{UID: "early", Summary: "Early", Start: utcDay(2025, 9, 11), AllDay: true, Categories: []string{"Festiu", "X"}},
		{UID: "outside", Summary: "Outside", Start: utcDay(2026, 3, 1), AllDay: true},
	}

	res := Expand(events, autumn, 0)

	assert.Equal(t, []string{"2025-09-11", "2025-11-01"}, occurrenceDates(res.Occurrences))
	assert.Equal(t, "Festiu", res.Occurrences[0].Category)
	assert.Empty(t, res.TruncatedEvents)
}

func TestExpand_WeeklyWithExDateAndOverride(t *testing.T) {
	// GIVEN: A weekly series with one excluded week and one moved occurrence
	moved := utcDay(2025, 9, 22)
	events := []ParsedEvent{
		{
			UID: "tut", Summary: "Tutoria", Start: utcDay(2025, 9, 1), AllDay: true,
			RawRRule: "FREQ=WEEKLY;COUNT=5",
			ExDates:  []time.Time{utcDay(2025, 9, 8)},
		},
		{
			UID: "tut", Summary: "Tutoria (moved)", Start: utcDay(2025, 9, 23), AllDay: true,
			Recurrence: &moved, IsOverride: true,
		},
	}

	// WHEN: Expanding
	res := Expand(events, autumn, 0)

	// THEN: Excluded week gone, override replaces its day
	assert.Equal(t, []string{"2025-09-01", "2025-09-15", "2025-09-23", "2025-09-29"}, occurrenceDates(res.Occurrences))
	assert.Equal(t, "Tutoria (moved)", res.Occurrences[2].Summary)
}

func TestExpand_ClipsToRange(t *testing.T) {
	events := []ParsedEvent{{
		UID: "daily", Start: utcDay(2025, 8, 25), AllDay: true, RawRRule: "FREQ=DAILY;COUNT=10",
	}}

	res := Expand(events, autumn, 0)

	require.NotEmpty(t, res.Occurrences)
	assert.Equal(t, "2025-09-01", res.Occurrences[0].Date.String())
	assert.Len(t, res.Occurrences, 3)
}

func TestExpand_CapsOccurrences(t *testing.T) {
	events := []ParsedEvent{{
		UID: "forever", Start: utcDay(2025, 9, 1), AllDay: true, RawRRule: "FREQ=DAILY",
	}}

	res := Expand(events, autumn, 5)

	assert.Len(t, res.Occurrences, 5)
	assert.Equal(t, []string{"forever"}, res.TruncatedEvents)
}

func TestExpand_InvalidRRuleIsSkipped(t *testing.T) {
	events := []ParsedEvent{
		{UID: "bad", Start: utcDay(2025, 9, 1), AllDay: true, RawRRule: "FREQ=SOMETIMES"},
		{UID: "good", Start: utcDay(2025, 9, 2), AllDay: true},
	}

	res := Expand(events, autumn, 0)

	require.Len(t, res.Occurrences, 1)
	assert.Equal(t, "good", res.Occurrences[0].UID)
}

// =============================================================================
// TO EVENTS
// =============================================================================

func TestToEvents(t *testing.T) {
	cal := calendar.Calendar{ID: "fp-2025", Type: calendar.TypeFP, Range: autumn}
	occs := []Occurrence{
		{UID: "all saints@feed", Summary: "Tots Sants", Category: "Festiu", Date: calendar.MustParseDate("2025-11-01")},
		{UID: "no-title", Date: calendar.MustParseDate("2025-11-03"), System: true},
		{UID: "outside", Summary: "Later", Date: calendar.MustParseDate("2026-02-01")},
	}

	t.Run("derived ids and categories", func(t *testing.T) {
		events := ToEvents(cal, occs, ImportOptions{IDPrefix: "ics-"})

		require.Len(t, events, 2)
		assert.Equal(t, calendar.EventID("ics-all-saints-feed-2025-11-01"), events[0].ID)
		assert.Equal(t, calendar.CategoryID("cat-festiu"), events[0].CategoryID)
		assert.Equal(t, calendar.CalendarID("fp-2025"), events[0].CalendarID)
		assert.False(t, events[0].IsSystem)

		assert.Equal(t, "no-title", events[1].Title)
		assert.True(t, events[1].IsSystem)
	})

	t.Run("forced category and system flag", func(t *testing.T) {
		events := ToEvents(cal, occs, ImportOptions{CategoryID: "SYS_CAT_FESTIU", System: true, IDPrefix: "feed-"})

		require.Len(t, events, 2)
		for _, ev := range events {
			assert.Equal(t, calendar.CategoryID("SYS_CAT_FESTIU"), ev.CategoryID)
			assert.True(t, ev.IsSystem)
		}
	})
}

func TestCategoryIDFor(t *testing.T) {
	assert.Equal(t, calendar.CategoryID(""), CategoryIDFor("  "))
	assert.Equal(t, calendar.CategoryID("SYS_CAT_PAF"), CategoryIDFor("SYS_CAT_PAF"))
	assert.Equal(t, calendar.CategoryID("cat-lab-work"), CategoryIDFor("Lab Work"))
}
