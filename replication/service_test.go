package replication_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itrascastro/itrascastro.github.io-sub001/calendar"
	"github.com/itrascastro/itrascastro.github.io-sub001/calendar/store"
	"github.com/itrascastro/itrascastro.github.io-sub001/factory"
	"github.com/itrascastro/itrascastro.github.io-sub001/replication"
	"github.com/itrascastro/itrascastro.github.io-sub001/study"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

func loadJSON(t *testing.T, s calendar.Store, js string) {
	t.Helper()
	doc, err := factory.NewCalendarFactory().ParseCalendar(js)
	require.NoError(t, err)
	require.NoError(t, doc.Save(context.Background(), s))
}

// setupSemesters stores an FP source with user events and an empty FP target.
func setupSemesters(t *testing.T) (*store.Memory, *replication.Service) {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()

	source := study.SemesterJSON("fp-2025", "FP 2025-26 S1", "fp", "2025-09-15", "2026-01-30",
		[]string{"2025-10-13", "2025-12-08"}, "2026-01-19")
	source = study.WithEventsJSON(source, []map[string]string{
		{"id": "lab-1", "title": "Lab 1", "date": "2025-09-17"},
		{"id": "exam-1", "title": "Partial exam", "date": "2025-11-12"},
		{"id": "after-paf", "title": "Review", "date": "2026-01-21"},
	})
	loadJSON(t, mem, source)

	target := study.SemesterJSON("fp-2026", "FP 2026-27 S1", "fp", "2026-09-14", "2027-01-29",
		[]string{"2026-10-12", "2026-12-08"}, "2027-01-18")
	loadJSON(t, mem, target)

	// A user category on the source, referenced by one event
	require.NoError(t, calendar.AddCategory(ctx, mem, calendar.Category{
		ID: "cat-lab", CalendarID: "fp-2025", Name: "Lab", Color: "#388e3c",
	}))
	require.NoError(t, calendar.AddEvent(ctx, mem, calendar.Event{
		ID: "lab-2", CalendarID: "fp-2025", CategoryID: "cat-lab", Title: "Lab 2",
		Date: calendar.MustParseDate("2025-10-08"),
	}))

	svc := replication.NewService(mem)
	n := 0
	svc.NewID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return mem, svc
}

// =============================================================================
// PREVIEW
// =============================================================================

func TestService_Preview(t *testing.T) {
	// GIVEN: Two FP semesters
	mem, svc := setupSemesters(t)
	ctx := context.Background()

	// WHEN: Previewing
	plan, err := svc.Preview(ctx, "fp-2025", "fp-2026")

	// THEN: Study strategy, events before PAF placed, the one after PAF not
	require.NoError(t, err)
	assert.Equal(t, "study", plan.Strategy)
	assert.Len(t, plan.Result.Placed, 3)
	require.Len(t, plan.Result.Unplaced, 1)
	assert.Equal(t, calendar.EventID("after-paf"), plan.Result.Unplaced[0].Event.ID)
	assert.Equal(t, replication.ReasonNotInSourceSpace, plan.Result.Unplaced[0].Reason)

	// Nothing written
	events, err := mem.ListEvents(ctx, "fp-2026")
	require.NoError(t, err)
	for _, ev := range events {
		assert.True(t, ev.IsSystem)
	}

	// Placements avoid target holidays and stay before the target PAF
	for _, p := range plan.Result.Placed {
		assert.True(t, p.NewDate.IsWorkday())
		assert.True(t, p.NewDate.BeforeOrEqual(calendar.MustParseDate("2027-01-18")))
		assert.NotEqual(t, calendar.MustParseDate("2026-10-12"), p.NewDate)
	}
}

func TestService_Preview_GenericCalendarUnresolved(t *testing.T) {
	// GIVEN: A generic source calendar
	mem, svc := setupSemesters(t)
	loadJSON(t, mem, study.SemesterJSON("meetings", "Meetings", "other", "2025-09-01", "2026-06-30", nil, ""))

	// WHEN: Previewing onto a study calendar
	_, err := svc.Preview(context.Background(), "meetings", "fp-2026")

	// THEN: No strategy exists for the pair
	require.Error(t, err)
	assert.ErrorIs(t, err, replication.ErrStrategyUnresolved)
	var se *replication.StrategyError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, calendar.TypeOther, se.Source)
}

func TestService_Preview_MissingCalendar(t *testing.T) {
	_, svc := setupSemesters(t)

	_, err := svc.Preview(context.Background(), "fp-2025", "nope")

	require.Error(t, err)
	assert.True(t, calendar.IsNotFound(err))
}

// =============================================================================
// APPLY
// =============================================================================

func TestService_Replicate_WritesEventsAndRun(t *testing.T) {
	// GIVEN: Two FP semesters
	mem, svc := setupSemesters(t)
	ctx := context.Background()

	// WHEN: Replicating
	plan, created, err := svc.Replicate(ctx, "fp-2025", "fp-2026")

	// THEN: One new event per placement, fresh ids, origin recorded
	require.NoError(t, err)
	require.Len(t, created, len(plan.Result.Placed))
	for i, ev := range created {
		p := plan.Result.Placed[i]
		assert.Equal(t, calendar.CalendarID("fp-2026"), ev.CalendarID)
		assert.Equal(t, p.NewDate, ev.Date)
		assert.NotEqual(t, p.Event.ID, ev.ID)
		assert.Equal(t, string(p.Event.ID), ev.Metadata[replication.MetadataReplicatedFrom])
		assert.False(t, ev.IsSystem)
	}

	stored, err := mem.ListEvents(ctx, "fp-2026")
	require.NoError(t, err)
	userCount := 0
	for _, ev := range stored {
		if !ev.IsSystem {
			userCount++
		}
	}
	assert.Equal(t, len(created), userCount)

	// The source category followed its event
	cat, err := mem.GetCategory(ctx, "fp-2026", "cat-lab")
	require.NoError(t, err)
	assert.Equal(t, "Lab", cat.Name)

	// Source untouched
	srcEvents, err := mem.ListEvents(ctx, "fp-2025")
	require.NoError(t, err)
	for _, ev := range srcEvents {
		assert.Equal(t, calendar.CalendarID("fp-2025"), ev.CalendarID)
	}

	// Run recorded
	runs, err := mem.ListReplicationRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, calendar.CalendarID("fp-2025"), runs[0].SourceID)
	assert.Equal(t, calendar.CalendarID("fp-2026"), runs[0].TargetID)
	assert.Equal(t, 3, runs[0].PlacedCount)
	assert.Equal(t, 1, runs[0].UnplacedCount)
}


func TestService_Replicate_TwiceDoesNotDuplicate(t *testing.T) {
	// GIVEN: A replication already applied once
	mem, svc := setupSemesters(t)
	ctx := context.Background()
	_, first, err := svc.Replicate(ctx, "fp-2025", "fp-2026")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// WHEN: Running the same replication again
	plan, second, err := svc.Replicate(ctx, "fp-2025", "fp-2026")

	// THEN: Nothing new is written and the skipped sources are reported
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Empty(t, plan.Result.Placed)
	assert.Len(t, plan.AlreadyReplicated, len(first))

	stored, err := mem.ListEvents(ctx, "fp-2026")
	require.NoError(t, err)
	userCount := 0
	for _, ev := range stored {
		if !ev.IsSystem {
			userCount++
		}
	}
	assert.Equal(t, len(first), userCount)

	// AND: A source event added later is still picked up
	require.NoError(t, calendar.AddEvent(ctx, mem, calendar.Event{
		ID: "lab-3", CalendarID: "fp-2025", Title: "Lab 3",
		Date: calendar.MustParseDate("2025-10-22"),
	}))
	plan, third, err := svc.Replicate(ctx, "fp-2025", "fp-2026")
	require.NoError(t, err)
	require.Len(t, third, 1)
	assert.Equal(t, "lab-3", third[0].Metadata[replication.MetadataReplicatedFrom])
	assert.Len(t, plan.AlreadyReplicated, len(first))
}
func TestService_Apply_NilPlan(t *testing.T) {
	_, svc := setupSemesters(t)

	_, err := svc.Apply(context.Background(), nil)

	assert.ErrorIs(t, err, replication.ErrInvalidInput)
}

// =============================================================================
// DESCRIPTORS
// =============================================================================

func TestDescriptorFor(t *testing.T) {
	cal := calendar.Calendar{
		ID:    "c1",
		Type:  calendar.TypeFP,
		Range: calendar.DateRange{Start: calendar.MustParseDate("2025-09-15"), End: calendar.MustParseDate("2026-01-30")},
	}
	events := []calendar.Event{
		{ID: "h1", Date: calendar.MustParseDate("2025-10-13"), IsSystem: true, CategoryID: study.CategoryHoliday},
		{ID: "paf", Date: calendar.MustParseDate("2026-01-19"), IsSystem: true, CategoryID: study.CategoryEvaluation},
		{ID: "u1", Date: calendar.MustParseDate("2025-10-14")},
	}

	t.Run("study calendar uses PAF cutoff", func(t *testing.T) {
		desc := replication.DescriptorFor(cal, events)
		assert.Equal(t, calendar.MustParseDate("2026-01-19"), desc.Cutoff())
		assert.True(t, desc.OccupiedDates.Contains(calendar.MustParseDate("2025-10-13")))
		assert.False(t, desc.OccupiedDates.Contains(calendar.MustParseDate("2025-10-14")))
	})

	t.Run("study calendar without PAF ends at end date", func(t *testing.T) {
		desc := replication.DescriptorFor(cal, events[:1])
		assert.Equal(t, cal.Range.End, desc.Cutoff())
	})

	t.Run("generic calendar ignores PAF", func(t *testing.T) {
		other := cal
		other.Type = calendar.TypeOther
		desc := replication.DescriptorFor(other, events)
		assert.Equal(t, cal.Range.End, desc.Cutoff())
	})
}
