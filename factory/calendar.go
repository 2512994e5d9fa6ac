/*
Package factory provides JSON to Go calendar conversion.

PURPOSE:
  Converts JSON calendar documents into calendar.Calendar, Category and Event
  values, and back. This is the import/export format of the editor: a user
  can download a calendar, keep it in version control and load it again.

JSON SCHEMA:
  {
    "id": "fp-2025-s1",
    "name": "FP 2025-26 S1",
    "type": "fp",
    "start_date": "2025-09-15",
    "end_date": "2026-01-30",
    "categories": [
      {"id": "cat-lab", "name": "Lab", "color": "#388e3c"}
    ],
    "events": [
      {"id": "ev-1", "category_id": "cat-lab", "title": "Lab 1", "date": "2025-09-17"},
      {"id": "paf-1", "category_id": "SYS_CAT_PAF", "title": "PAF1", "date": "2026-01-19", "system": true}
    ]
  }

KEY FEATURES:
  - Validates dates, ranges and category references
  - Study calendars (fp, btx) always carry the system categories
  - Unique ids for categories and events

USAGE:
  f := NewCalendarFactory()
  doc, err := f.ParseCalendar(jsonString)
  err = doc.Save(ctx, store)

  // Domain presets
  jsonStr := study.SemesterJSON("fp-2025-s1", "FP S1", "fp", "2025-09-15", "2026-01-30", nil, "2026-01-19")

SEE ALSO:
  - calendar/types.go: Domain types
  - study/presets.go: Study calendar presets
  - api/handlers.go: Import/export endpoints
*/
package factory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/itrascastro/itrascastro.github.io-sub001/calendar"
	"github.com/itrascastro/itrascastro.github.io-sub001/study"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// CalendarJSON is the JSON representation of a calendar with its contents.
type CalendarJSON struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	StartDate  string         `json:"start_date"`
	EndDate    string         `json:"end_date"`
	Categories []CategoryJSON `json:"categories,omitempty"`
	Events     []EventJSON    `json:"events,omitempty"`
}

type CategoryJSON struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color,omitempty"`
	System bool   `json:"system,omitempty"`
}

type EventJSON struct {
	ID          string            `json:"id"`
	CategoryID  string            `json:"category_id,omitempty"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Date        string            `json:"date"`
	System      bool              `json:"system,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Document is a parsed calendar ready to persist.
type Document struct {
	Calendar   calendar.Calendar
	Categories []calendar.Category
	Events     []calendar.Event
}

// =============================================================================
// CALENDAR FACTORY
// =============================================================================

// CalendarFactory converts JSON documents to Go structs.
type CalendarFactory struct{}

func NewCalendarFactory() *CalendarFactory {
	return &CalendarFactory{}
}

// ParseCalendar parses a JSON string into a Document.
func (f *CalendarFactory) ParseCalendar(jsonStr string) (*Document, error) {
	var cj CalendarJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return nil, fmt.Errorf("failed to parse calendar JSON: %w", err)
	}
	return f.FromJSON(cj)
}

// FromJSON converts CalendarJSON to a validated Document.
func (f *CalendarFactory) FromJSON(cj CalendarJSON) (*Document, error) {
	calType, err := calendar.ParseType(cj.Type)
	if err != nil {
		return nil, err
	}
	start, err := parseDateField("start_date", cj.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDateField("end_date", cj.EndDate)
	if err != nil {
		return nil, err
	}

	cal := calendar.Calendar{
		ID:    calendar.CalendarID(cj.ID),
		Name:  cj.Name,
		Type:  calType,
		Range: calendar.DateRange{Start: start, End: end},
	}
	if err := cal.Validate(); err != nil {
		return nil, err
	}

	doc := &Document{Calendar: cal}

	seenCategories := make(map[calendar.CategoryID]bool)
	for _, c := range cj.Categories {
		cat := calendar.Category{
			ID:         calendar.CategoryID(c.ID),
			CalendarID: cal.ID,
			Name:       c.Name,
			Color:      c.Color,
			IsSystem:   c.System,
		}
		if cat.ID == "" {
			return nil, &calendar.FieldError{Field: "categories.id", Err: calendar.ErrMissingField}
		}
		if seenCategories[cat.ID] {
			return nil, fmt.Errorf("duplicate category id %q", cat.ID)
		}
		seenCategories[cat.ID] = true
		doc.Categories = append(doc.Categories, cat)
	}

	// Study calendars always carry their system categories
	if calType.IsStudy() {
		for _, sys := range study.SystemCategories(cal.ID) {
			if !seenCategories[sys.ID] {
				seenCategories[sys.ID] = true
				doc.Categories = append(doc.Categories, sys)
			}
		}
	}

	seenEvents := make(map[calendar.EventID]bool)
	for _, e := range cj.Events {
		ev, err := parseEvent(cal, e)
		if err != nil {
			return nil, err
		}
		if seenEvents[ev.ID] {
			return nil, fmt.Errorf("duplicate event id %q", ev.ID)
		}
		if ev.CategoryID != "" && !seenCategories[ev.CategoryID] {
			return nil, fmt.Errorf("event %s: %w: %s", ev.ID, calendar.ErrCategoryNotFound, ev.CategoryID)
		}
		seenEvents[ev.ID] = true
		doc.Events = append(doc.Events, ev)
	}

	return doc, nil
}

// ToJSON converts a Document to CalendarJSON.
func (f *CalendarFactory) ToJSON(doc Document) CalendarJSON {
	cj := CalendarJSON{
		ID:        string(doc.Calendar.ID),
		Name:      doc.Calendar.Name,
		Type:      string(doc.Calendar.Type),
		StartDate: doc.Calendar.Range.Start.String(),
		EndDate:   doc.Calendar.Range.End.String(),
	}
	for _, c := range doc.Categories {
		cj.Categories = append(cj.Categories, CategoryJSON{
			ID:     string(c.ID),
			Name:   c.Name,
			Color:  c.Color,
			System: c.IsSystem,
		})
	}
	for _, e := range doc.Events {
		cj.Events = append(cj.Events, EventJSON{
			ID:          string(e.ID),
			CategoryID:  string(e.CategoryID),
			Title:       e.Title,
			Description: e.Description,
			Date:        e.Date.String(),
			System:      e.IsSystem,
			Metadata:    e.Metadata,
		})
	}
	return cj
}

// =============================================================================
// PERSISTENCE HELPERS
// =============================================================================

// Save writes the calendar, its categories and its events. If anything after
// the calendar row fails, the calendar is deleted again so no half-imported
// document is left behind.
func (d *Document) Save(ctx context.Context, s calendar.Store) error {
	if err := s.SaveCalendar(ctx, d.Calendar); err != nil {
		return fmt.Errorf("save calendar: %w", err)
	}
	if err := d.saveContents(ctx, s); err != nil {
		if delErr := s.DeleteCalendar(ctx, d.Calendar.ID); delErr != nil {
			return errors.Join(err, fmt.Errorf("rollback calendar %s: %w", d.Calendar.ID, delErr))
		}
		return err
	}
	return nil
}

func (d *Document) saveContents(ctx context.Context, s calendar.Store) error {
	for _, cat := range d.Categories {
		if err := s.SaveCategory(ctx, cat); err != nil {
			return fmt.Errorf("save category %s: %w", cat.ID, err)
		}
	}
	if len(d.Events) > 0 {
		if err := s.SaveEvents(ctx, d.Events); err != nil {
			return fmt.Errorf("save events: %w", err)
		}
	}
	return nil
}

// LoadDocument reads a calendar with all its contents.
func LoadDocument(ctx context.Context, s calendar.Store, id calendar.CalendarID) (*Document, error) {
	cal, err := s.GetCalendar(ctx, id)
	if err != nil {
		return nil, err
	}
	cats, err := s.ListCategories(ctx, id)
	if err != nil {
		return nil, err
	}
	events, err := s.ListEvents(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Document{Calendar: *cal, Categories: cats, Events: events}, nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseDateField(field, value string) (calendar.Date, error) {
	if value == "" {
		return calendar.Date{}, &calendar.FieldError{Field: field, Err: calendar.ErrMissingDates}
	}
	d, err := calendar.ParseDate(value)
	if err != nil {
		return calendar.Date{}, &calendar.FieldError{Field: field, Err: err}
	}
	return d, nil
}

func parseEvent(cal calendar.Calendar, e EventJSON) (calendar.Event, error) {
	if e.ID == "" {
		return calendar.Event{}, &calendar.FieldError{Field: "events.id", Err: calendar.ErrMissingField}
	}
	if e.Title == "" {
		return calendar.Event{}, &calendar.FieldError{Field: "events.title", Err: calendar.ErrMissingField}
	}
	date, err := parseDateField("events.date", e.Date)
	if err != nil {
		return calendar.Event{}, err
	}
	if !cal.Range.Contains(date) {
		return calendar.Event{}, &calendar.OutOfRangeError{CalendarID: cal.ID, Date: date, Range: cal.Range}
	}
	return calendar.Event{
		ID:          calendar.EventID(e.ID),
		CalendarID:  cal.ID,
		CategoryID:  calendar.CategoryID(e.CategoryID),
		Title:       e.Title,
		Description: e.Description,
		Date:        date,
		IsSystem:    e.System,
		Metadata:    e.Metadata,
	}, nil
}
