package calendar

import (
	"context"
	"fmt"
)

// =============================================================================
// USER-FACING CRUD RULES
// =============================================================================
// Stores are dumb persistence. These helpers enforce what a user may do:
// ranges must hold, events stay inside their calendar, system entries are
// read-only.

// CreateCalendar validates and persists a new calendar.
func CreateCalendar(ctx context.Context, s Store, cal Calendar) error {
	if err := cal.Validate(); err != nil {
		return err
	}
	return s.SaveCalendar(ctx, cal)
}

// AddCategory creates a user category on an existing calendar.
func AddCategory(ctx context.Context, s Store, cat Category) error {
	if cat.ID == "" {
		return &FieldError{Field: "id", Err: ErrMissingField}
	}
	if cat.Name == "" {
		return &FieldError{Field: "name", Err: ErrMissingField}
	}
	if _, err := s.GetCalendar(ctx, cat.CalendarID); err != nil {
		return err
	}
	switch existing, err := s.GetCategory(ctx, cat.CalendarID, cat.ID); {
	case err == nil && existing.IsSystem:
		return ErrSystemReadOnly
	case err == nil:
		return fmt.Errorf("%w: %s", ErrCategoryExists, cat.ID)
	case !IsNotFound(err):
		return err
	}
	cat.IsSystem = false
	return s.SaveCategory(ctx, cat)
}

// RemoveCategory deletes a user category that no event references.
func RemoveCategory(ctx context.Context, s Store, calID CalendarID, id CategoryID) error {
	cat, err := s.GetCategory(ctx, calID, id)
	if err != nil {
		return err
	}
	if cat.IsSystem {
		return ErrSystemReadOnly
	}
	events, err := s.ListEvents(ctx, calID)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if ev.CategoryID == id {
			return fmt.Errorf("%w: %s", ErrCategoryInUse, id)
		}
	}
	return s.DeleteCategory(ctx, calID, id)
}

// AddEvent validates and creates a user event. The id must be free.
func AddEvent(ctx context.Context, s Store, ev Event) error {
	if err := checkEventFields(ev); err != nil {
		return err
	}
	switch existing, err := s.GetEvent(ctx, ev.CalendarID, ev.ID); {
	case err == nil && existing.IsSystem:
		return ErrSystemReadOnly
	case err == nil:
		return fmt.Errorf("%w: %s", ErrEventExists, ev.ID)
	case !IsNotFound(err):
		return err
	}
	if err := checkEventPlacement(ctx, s, ev); err != nil {
		return err
	}
	ev.IsSystem = false
	return s.SaveEvent(ctx, ev)
}

// UpdateEvent replaces an existing user event.
func UpdateEvent(ctx context.Context, s Store, ev Event) error {
	if err := checkEventFields(ev); err != nil {
		return err
	}
	existing, err := s.GetEvent(ctx, ev.CalendarID, ev.ID)
	if err != nil {
		return err
	}
	if existing.IsSystem {
		return ErrSystemReadOnly
	}
	if err := checkEventPlacement(ctx, s, ev); err != nil {
		return err
	}
	ev.IsSystem = false
	return s.SaveEvent(ctx, ev)
}

// MoveEvent changes the date of a user event (drag and drop).
func MoveEvent(ctx context.Context, s Store, calID CalendarID, id EventID, to Date) (*Event, error) {
	ev, err := s.GetEvent(ctx, calID, id)
	if err != nil {
		return nil, err
	}
	if ev.IsSystem {
		return nil, ErrSystemReadOnly
	}
	ev.Date = to
	if err := checkEventPlacement(ctx, s, *ev); err != nil {
		return nil, err
	}
	if err := s.SaveEvent(ctx, *ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// RemoveEvent deletes a user event.
func RemoveEvent(ctx context.Context, s Store, calID CalendarID, id EventID) error {
	ev, err := s.GetEvent(ctx, calID, id)
	if err != nil {
		return err
	}
	if ev.IsSystem {
		return ErrSystemReadOnly
	}
	return s.DeleteEvent(ctx, calID, id)
}

func checkEventFields(ev Event) error {
	if ev.ID == "" {
		return &FieldError{Field: "id", Err: ErrMissingField}
	}
	if ev.Title == "" {
		return &FieldError{Field: "title", Err: ErrMissingField}
	}
	return nil
}

func checkEventPlacement(ctx context.Context, s Store, ev Event) error {
	if ev.Date.IsZero() {
		return &FieldError{Field: "date", Err: ErrMissingField}
	}
	cal, err := s.GetCalendar(ctx, ev.CalendarID)
	if err != nil {
		return err
	}
	if !cal.Range.Contains(ev.Date) {
		return &OutOfRangeError{CalendarID: cal.ID, Date: ev.Date, Range: cal.Range}
	}
	if ev.CategoryID != "" {
		if _, err := s.GetCategory(ctx, ev.CalendarID, ev.CategoryID); err != nil {
			return err
		}
	}
	return nil
}
