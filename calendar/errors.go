/*
errors.go - Centralized error types for the calendar domain

PURPOSE:
  All calendar error types in one place for consistency and discoverability.
  The replication engine and the API layer wrap or map these errors.

ERROR CATEGORIES:
  1. Validation errors - Malformed dates, ranges, events outside their calendar
  2. Lookup errors - Calendars, categories or events that do not exist
  3. Ownership errors - System entries that users may not touch, ids
     already taken

USAGE:
    if errors.Is(err, calendar.ErrSystemReadOnly) {
        // 409 in the API
    }

SEE ALSO:
  - store.go: Store implementations return the lookup errors
  - ops.go: CRUD rules returning the validation and ownership errors
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package calendar

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate is returned when a date string is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")

	// ErrMissingDates is returned when a calendar lacks a start or end date.
	ErrMissingDates = errors.New("calendar start and end dates are required")

	// ErrInvalidDateRange is returned when a range ends before it starts.
	ErrInvalidDateRange = errors.New("invalid date range: end before start")

	// ErrInvalidType is returned for an unknown calendar type.
	ErrInvalidType = errors.New("invalid calendar type")

	// ErrEventOutOfRange is returned when an event date is outside its calendar.
	ErrEventOutOfRange = errors.New("event date outside calendar range")

	// ErrMissingField is returned when a required field is empty.
	ErrMissingField = errors.New("missing required field")

	// ErrCalendarNotFound is returned when a referenced calendar doesn't exist.
	ErrCalendarNotFound = errors.New("calendar not found")

	// ErrCategoryNotFound is returned when a referenced category doesn't exist.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrEventNotFound is returned when a referenced event doesn't exist.
	ErrEventNotFound = errors.New("event not found")

	// ErrSystemReadOnly is returned when a user edits a system category or event.
	ErrSystemReadOnly = errors.New("system entries are read-only")

	// ErrCategoryInUse is returned when deleting a category that still has events.
	ErrCategoryInUse = errors.New("category still has events")

	// ErrEventExists is returned when creating an event whose id is taken.
	ErrEventExists = errors.New("event already exists")

	// ErrCategoryExists is returned when creating a category whose id is taken.
	ErrCategoryExists = errors.New("category already exists")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FieldError names the offending field of a validation failure.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// OutOfRangeError reports an event date that falls outside its calendar.
type OutOfRangeError struct {
	CalendarID CalendarID
	Date       Date
	Range      DateRange
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("date %s outside calendar %s range %s", e.Date, e.CalendarID, e.Range)
}

func (e *OutOfRangeError) Unwrap() error {
	return ErrEventOutOfRange
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCalendarNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrEventNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrMissingDates) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrInvalidType) ||
		errors.Is(err, ErrEventOutOfRange) ||
		errors.Is(err, ErrMissingField)
}

// IsConflict returns true if the request clashes with existing state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrSystemReadOnly) ||
		errors.Is(err, ErrCategoryInUse) ||
		errors.Is(err, ErrEventExists) ||
		errors.Is(err, ErrCategoryExists)
}
