/*
store.go - Persistence interface for calendars, categories and events

PURPOSE:
  Defines the interface between the calendar domain and the database.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  Store: Calendars, categories, events and replication run records

LOOKUP CONTRACT:
  Get* methods return the matching Err*NotFound sentinel when the row does
  not exist, never (nil, nil).

ATOMIC BATCHES:
  SaveEvents() ensures all-or-nothing semantics. Applying a replication
  writes every placed event in one batch so a failure never leaves a target
  calendar half replicated.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - calendar/store/memory.go: In-memory for testing

SEE ALSO:
  - ops.go: CRUD rules layered on a Store
  - replication/service.go: Reads source events, writes placed events
*/
package calendar

import "context"

// Store handles persistence of the calendar model.
type Store interface {
	// SaveCalendar inserts or updates a calendar.
	SaveCalendar(ctx context.Context, cal Calendar) error
	GetCalendar(ctx context.Context, id CalendarID) (*Calendar, error)
	ListCalendars(ctx context.Context) ([]Calendar, error)
	// DeleteCalendar removes a calendar with all its categories and events.
	DeleteCalendar(ctx context.Context, id CalendarID) error

	SaveCategory(ctx context.Context, cat Category) error
	GetCategory(ctx context.Context, calID CalendarID, id CategoryID) (*Category, error)
	ListCategories(ctx context.Context, calID CalendarID) ([]Category, error)
	DeleteCategory(ctx context.Context, calID CalendarID, id CategoryID) error

	SaveEvent(ctx context.Context, ev Event) error
	// SaveEvents persists multiple events atomically.
	SaveEvents(ctx context.Context, evs []Event) error
	GetEvent(ctx context.Context, calID CalendarID, id EventID) (*Event, error)
	// ListEvents returns the calendar's events ordered by date, then insertion.
	ListEvents(ctx context.Context, calID CalendarID) ([]Event, error)
	DeleteEvent(ctx context.Context, calID CalendarID, id EventID) error

	SaveReplicationRun(ctx context.Context, run ReplicationRun) error
	ListReplicationRuns(ctx context.Context) ([]ReplicationRun, error)
}
