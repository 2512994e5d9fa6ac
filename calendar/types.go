/*
Package calendar provides the academic calendar domain model.

PURPOSE:
  Calendars, categories and events as edited by users, plus the persistence
  interface shared by the in-memory and SQLite stores. The replication engine
  reads these types; it never writes them.

KEY CONCEPTS IN THIS FILE (types.go):
  - Type: Which family a calendar belongs to (study calendars vs. generic)
  - Calendar: A named date range
  - Category: A label with a color; system categories are owned by the app
  - Event: A single-day entry; system events occupy a day (holidays, PAF...)

DESIGN PRINCIPLES:
  1. Day granularity: every event sits on exactly one Date
  2. Type Safety: strong ID types prevent mixing calendar/event IDs
  3. Ownership: system categories/events are read-only to users

USAGE:
  cal := calendar.Calendar{
      ID:    "fp-2025-s1",
      Name:  "FP 2025-26 S1",
      Type:  calendar.TypeFP,
      Range: calendar.DateRange{Start: calendar.NewDate(2025, 9, 15), End: calendar.NewDate(2026, 1, 30)},
  }

SEE ALSO:
  - date.go: Date, DateRange, DateSet
  - store.go: Persistence interface
  - ops.go: CRUD rules on top of a Store
*/
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type CalendarID string
type CategoryID string
type EventID string

// =============================================================================
// CALENDAR TYPE
// =============================================================================

// Type selects the replication policy a calendar takes part in.
type Type string

const (
	TypeFP    Type = "fp"    // Vocational training semester
	TypeBTX   Type = "btx"   // Baccalaureate semester
	TypeOther Type = "other" // Any non-study calendar
)

// IsStudy reports whether the calendar follows a teaching period with an
// evaluation cutoff.
func (t Type) IsStudy() bool {
	return t == TypeFP || t == TypeBTX
}

func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeFP:
		return TypeFP, nil
	case TypeBTX:
		return TypeBTX, nil
	case TypeOther, "":
		return TypeOther, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

// =============================================================================
// CALENDAR, CATEGORY, EVENT
// =============================================================================

type Calendar struct {
	ID        CalendarID
	Name      string
	Type      Type
	Range     DateRange
	CreatedAt time.Time
}

// Validate checks the fields a calendar cannot exist without.
func (c Calendar) Validate() error {
	if c.ID == "" {
		return &FieldError{Field: "id", Err: ErrMissingField}
	}
	if c.Name == "" {
		return &FieldError{Field: "name", Err: ErrMissingField}
	}
	if err := c.Range.Validate(); err != nil {
		return &FieldError{Field: "range", Err: err}
	}
	if _, err := ParseType(string(c.Type)); err != nil {
		return &FieldError{Field: "type", Err: err}
	}
	return nil
}

type Category struct {
	ID         CategoryID
	CalendarID CalendarID
	Name       string
	Color      string
	IsSystem   bool
}

type Event struct {
	ID          EventID
	CalendarID  CalendarID
	CategoryID  CategoryID
	Title       string
	Description string
	Date        Date
	IsSystem    bool
	Metadata    map[string]string
}

// Clone returns a copy that shares no maps with e.
func (e Event) Clone() Event {
	out := e
	if e.Metadata != nil {
		out.Metadata = make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// =============================================================================
// REPLICATION RUN - Audit record of an applied replication
// =============================================================================

type ReplicationRun struct {
	ID            string
	SourceID      CalendarID
	TargetID      CalendarID
	Strategy      string
	PlacedCount   int
	UnplacedCount int
	CreatedAt     time.Time
}

// SystemDates returns the days holding at least one system event.
func SystemDates(events []Event) DateSet {
	set := NewDateSet()
	for _, ev := range events {
		if ev.IsSystem {
			set.Add(ev.Date)
		}
	}
	return set
}
