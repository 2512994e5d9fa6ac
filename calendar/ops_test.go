package calendar_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itrascastro/itrascastro.github.io-sub001/calendar"
	"github.com/itrascastro/itrascastro.github.io-sub001/calendar/store"
)

func setupCalendar(t *testing.T) (*store.Memory, calendar.Calendar) {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemory()
	cal := calendar.Calendar{
		ID:    "fp-2025",
		Name:  "FP 2025-26 S1",
		Type:  calendar.TypeFP,
		Range: calendar.DateRange{Start: calendar.MustParseDate("2025-09-15"), End: calendar.MustParseDate("2026-01-30")},
	}
	require.NoError(t, calendar.CreateCalendar(ctx, s, cal))
	require.NoError(t, s.SaveCategory(ctx, calendar.Category{
		ID: "SYS_CAT_FESTIU", CalendarID: cal.ID, Name: "Festiu", IsSystem: true,
	}))
	require.NoError(t, s.SaveEvent(ctx, calendar.Event{
		ID: "festiu-1", CalendarID: cal.ID, CategoryID: "SYS_CAT_FESTIU", Title: "Festiu",
		Date: calendar.MustParseDate("2025-10-13"), IsSystem: true,
	}))
	require.NoError(t, calendar.AddCategory(ctx, s, calendar.Category{ID: "cat-lab", CalendarID: cal.ID, Name: "Lab"}))
	return s, cal
}

func TestCreateCalendar_Validation(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()

	err := calendar.CreateCalendar(ctx, s, calendar.Calendar{ID: "c", Name: "C"})
	assert.ErrorIs(t, err, calendar.ErrMissingDates)
	assert.True(t, calendar.IsClientError(err))

	err = calendar.CreateCalendar(ctx, s, calendar.Calendar{
		ID: "c", Name: "C",
		Range: calendar.DateRange{Start: calendar.MustParseDate("2026-01-01"), End: calendar.MustParseDate("2025-01-01")},
	})
	assert.ErrorIs(t, err, calendar.ErrInvalidDateRange)

	var fe *calendar.FieldError
	err = calendar.CreateCalendar(ctx, s, calendar.Calendar{ID: "c"})
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "name", fe.Field)
}

func TestAddEvent(t *testing.T) {
	s, cal := setupCalendar(t)
	ctx := context.Background()

	t.Run("inside range", func(t *testing.T) {
		err := calendar.AddEvent(ctx, s, calendar.Event{
			ID: "lab-1", CalendarID: cal.ID, CategoryID: "cat-lab", Title: "Lab 1",
			Date: calendar.MustParseDate("2025-09-17"),
		})
		require.NoError(t, err)
	})

	t.Run("outside range", func(t *testing.T) {
		err := calendar.AddEvent(ctx, s, calendar.Event{
			ID: "late", CalendarID: cal.ID, Title: "Late", Date: calendar.MustParseDate("2026-02-02"),
		})
		assert.ErrorIs(t, err, calendar.ErrEventOutOfRange)
		var oor *calendar.OutOfRangeError
		require.ErrorAs(t, err, &oor)
		assert.Equal(t, cal.ID, oor.CalendarID)
	})

	t.Run("unknown category", func(t *testing.T) {
		err := calendar.AddEvent(ctx, s, calendar.Event{
			ID: "x", CalendarID: cal.ID, CategoryID: "cat-missing", Title: "X",
			Date: calendar.MustParseDate("2025-09-17"),
		})
		assert.True(t, calendar.IsNotFound(err))
	})

	t.Run("unknown calendar", func(t *testing.T) {
		err := calendar.AddEvent(ctx, s, calendar.Event{
			ID: "x", CalendarID: "nope", Title: "X", Date: calendar.MustParseDate("2025-09-17"),
		})
		assert.ErrorIs(t, err, calendar.ErrCalendarNotFound)
	})

	t.Run("cannot overwrite system event", func(t *testing.T) {
		err := calendar.AddEvent(ctx, s, calendar.Event{
			ID: "festiu-1", CalendarID: cal.ID, Title: "Mine now", Date: calendar.MustParseDate("2025-10-13"),
		})
		assert.ErrorIs(t, err, calendar.ErrSystemReadOnly)
		assert.True(t, calendar.IsConflict(err))
	})

	t.Run("missing title", func(t *testing.T) {
		err := calendar.AddEvent(ctx, s, calendar.Event{ID: "y", CalendarID: cal.ID, Date: calendar.MustParseDate("2025-09-17")})
		assert.ErrorIs(t, err, calendar.ErrMissingField)
	})
}

func TestAddEvent_DuplicateIDKeepsOriginal(t *testing.T) {
	// GIVEN: A stored user event
	s, cal := setupCalendar(t)
	ctx := context.Background()
	require.NoError(t, calendar.AddEvent(ctx, s, calendar.Event{
		ID: "ev-1", CalendarID: cal.ID, Title: "Original", Date: calendar.MustParseDate("2025-09-17"),
	}))

	// WHEN: Creating another event with the same id
	err := calendar.AddEvent(ctx, s, calendar.Event{
		ID: "ev-1", CalendarID: cal.ID, Title: "Clobbered", Date: calendar.MustParseDate("2025-10-02"),
	})

	// THEN: Conflict, the stored event is untouched
	assert.ErrorIs(t, err, calendar.ErrEventExists)
	assert.True(t, calendar.IsConflict(err))
	stored, err := s.GetEvent(ctx, cal.ID, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, "Original", stored.Title)
	assert.Equal(t, calendar.MustParseDate("2025-09-17"), stored.Date)
}

func TestUpdateEvent(t *testing.T) {
	s, cal := setupCalendar(t)
	ctx := context.Background()
	require.NoError(t, calendar.AddEvent(ctx, s, calendar.Event{
		ID: "ev-1", CalendarID: cal.ID, Title: "Original", Date: calendar.MustParseDate("2025-09-17"),
	}))

	require.NoError(t, calendar.UpdateEvent(ctx, s, calendar.Event{
		ID: "ev-1", CalendarID: cal.ID, Title: "Edited", Date: calendar.MustParseDate("2025-10-01"),
	}))
	stored, err := s.GetEvent(ctx, cal.ID, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, "Edited", stored.Title)

	err = calendar.UpdateEvent(ctx, s, calendar.Event{
		ID: "ghost", CalendarID: cal.ID, Title: "X", Date: calendar.MustParseDate("2025-10-01"),
	})
	assert.ErrorIs(t, err, calendar.ErrEventNotFound)

	err = calendar.UpdateEvent(ctx, s, calendar.Event{
		ID: "festiu-1", CalendarID: cal.ID, Title: "Mine", Date: calendar.MustParseDate("2025-10-13"),
	})
	assert.ErrorIs(t, err, calendar.ErrSystemReadOnly)

	err = calendar.UpdateEvent(ctx, s, calendar.Event{
		ID: "ev-1", CalendarID: cal.ID, Title: "Late", Date: calendar.MustParseDate("2026-03-02"),
	})
	assert.ErrorIs(t, err, calendar.ErrEventOutOfRange)
}

func TestMoveEvent(t *testing.T) {
	s, cal := setupCalendar(t)
	ctx := context.Background()
	require.NoError(t, calendar.AddEvent(ctx, s, calendar.Event{
		ID: "lab-1", CalendarID: cal.ID, Title: "Lab 1", Date: calendar.MustParseDate("2025-09-17"),
	}))

	// GIVEN: A user event
	// WHEN: Moving it inside the range
	moved, err := calendar.MoveEvent(ctx, s, cal.ID, "lab-1", calendar.MustParseDate("2025-09-24"))

	// THEN: The stored date changes
	require.NoError(t, err)
	assert.Equal(t, calendar.MustParseDate("2025-09-24"), moved.Date)
	stored, err := s.GetEvent(ctx, cal.ID, "lab-1")
	require.NoError(t, err)
	assert.Equal(t, calendar.MustParseDate("2025-09-24"), stored.Date)

	// Outside the range is rejected and nothing changes
	_, err = calendar.MoveEvent(ctx, s, cal.ID, "lab-1", calendar.MustParseDate("2026-03-01"))
	assert.ErrorIs(t, err, calendar.ErrEventOutOfRange)
	stored, _ = s.GetEvent(ctx, cal.ID, "lab-1")
	assert.Equal(t, calendar.MustParseDate("2025-09-24"), stored.Date)

	// System events do not move
	_, err = calendar.MoveEvent(ctx, s, cal.ID, "festiu-1", calendar.MustParseDate("2025-10-14"))
	assert.ErrorIs(t, err, calendar.ErrSystemReadOnly)

	_, err = calendar.MoveEvent(ctx, s, cal.ID, "ghost", calendar.MustParseDate("2025-10-14"))
	assert.ErrorIs(t, err, calendar.ErrEventNotFound)
}

func TestRemoveEvent(t *testing.T) {
	s, cal := setupCalendar(t)
	ctx := context.Background()
	require.NoError(t, calendar.AddEvent(ctx, s, calendar.Event{
		ID: "lab-1", CalendarID: cal.ID, Title: "Lab 1", Date: calendar.MustParseDate("2025-09-17"),
	}))

	require.NoError(t, calendar.RemoveEvent(ctx, s, cal.ID, "lab-1"))
	_, err := s.GetEvent(ctx, cal.ID, "lab-1")
	assert.ErrorIs(t, err, calendar.ErrEventNotFound)

	assert.ErrorIs(t, calendar.RemoveEvent(ctx, s, cal.ID, "festiu-1"), calendar.ErrSystemReadOnly)
}

func TestCategories(t *testing.T) {
	s, cal := setupCalendar(t)
	ctx := context.Background()

	// System categories are read-only
	err := calendar.AddCategory(ctx, s, calendar.Category{ID: "SYS_CAT_FESTIU", CalendarID: cal.ID, Name: "Mine"})
	assert.ErrorIs(t, err, calendar.ErrSystemReadOnly)
	assert.ErrorIs(t, calendar.RemoveCategory(ctx, s, cal.ID, "SYS_CAT_FESTIU"), calendar.ErrSystemReadOnly)

	// Ids are not reused
	err = calendar.AddCategory(ctx, s, calendar.Category{ID: "cat-lab", CalendarID: cal.ID, Name: "Other"})
	assert.ErrorIs(t, err, calendar.ErrCategoryExists)
	stored, err := s.GetCategory(ctx, cal.ID, "cat-lab")
	require.NoError(t, err)
	assert.Equal(t, "Lab", stored.Name)

	// A category in use cannot be removed
	require.NoError(t, calendar.AddEvent(ctx, s, calendar.Event{
		ID: "lab-1", CalendarID: cal.ID, CategoryID: "cat-lab", Title: "Lab 1",
		Date: calendar.MustParseDate("2025-09-17"),
	}))
	err = calendar.RemoveCategory(ctx, s, cal.ID, "cat-lab")
	assert.True(t, errors.Is(err, calendar.ErrCategoryInUse))

	// Once unused it can
	require.NoError(t, calendar.RemoveEvent(ctx, s, cal.ID, "lab-1"))
	require.NoError(t, calendar.RemoveCategory(ctx, s, cal.ID, "cat-lab"))
	_, err = s.GetCategory(ctx, cal.ID, "cat-lab")
	assert.ErrorIs(t, err, calendar.ErrCategoryNotFound)
}

func TestSystemDates(t *testing.T) {
	events := []calendar.Event{
		{Date: calendar.MustParseDate("2025-10-13"), IsSystem: true},
		{Date: calendar.MustParseDate("2025-10-14")},
		{Date: calendar.MustParseDate("2025-12-08"), IsSystem: true},
	}
	set := calendar.SystemDates(events)
	assert.Len(t, set, 2)
	assert.False(t, set.Contains(calendar.MustParseDate("2025-10-14")))
}
