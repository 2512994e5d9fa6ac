// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/itrascastro/itrascastro.github.io-sub001/calendar"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	calendars  map[calendar.CalendarID]calendar.Calendar
	categories map[categoryKey]calendar.Category
	events     map[eventKey]storedEvent
	runs       []calendar.ReplicationRun
	seq        int
}

type categoryKey struct {
	CalendarID calendar.CalendarID
	ID         calendar.CategoryID
}

type eventKey struct {
	CalendarID calendar.CalendarID
	ID         calendar.EventID
}

// storedEvent remembers insertion order so same-day events list stably.
type storedEvent struct {
	event calendar.Event
	seq   int
}

func NewMemory() *Memory {
	return &Memory{
		calendars:  make(map[calendar.CalendarID]calendar.Calendar),
		categories: make(map[categoryKey]calendar.Category),
		events:     make(map[eventKey]storedEvent),
	}
}

func (m *Memory) SaveCalendar(_ context.Context, cal calendar.Calendar) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.calendars[cal.ID]; ok && cal.CreatedAt.IsZero() {
		cal.CreatedAt = existing.CreatedAt
	}
	m.calendars[cal.ID] = cal
	return nil
}

func (m *Memory) GetCalendar(_ context.Context, id calendar.CalendarID) (*calendar.Calendar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cal, ok := m.calendars[id]
	if !ok {
		return nil, calendar.ErrCalendarNotFound
	}
	return &cal, nil
}

func (m *Memory) ListCalendars(_ context.Context) ([]calendar.Calendar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]calendar.Calendar, 0, len(m.calendars))
	for _, cal := range m.calendars {
		result = append(result, cal)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *Memory) DeleteCalendar(_ context.Context, id calendar.CalendarID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.calendars[id]; !ok {
		return calendar.ErrCalendarNotFound
	}
	delete(m.calendars, id)
	for k := range m.categories {
		if k.CalendarID == id {
			delete(m.categories, k)
		}
	}
	for k := range m.events {
		if k.CalendarID == id {
			delete(m.events, k)
		}
	}
	return nil
}

func (m *Memory) SaveCategory(_ context.Context, cat calendar.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.calendars[cat.CalendarID]; !ok {
		return calendar.ErrCalendarNotFound
	}
	m.categories[categoryKey{cat.CalendarID, cat.ID}] = cat
	return nil
}

func (m *Memory) GetCategory(_ context.Context, calID calendar.CalendarID, id calendar.CategoryID) (*calendar.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cat, ok := m.categories[categoryKey{calID, id}]
	if !ok {
		return nil, calendar.ErrCategoryNotFound
	}
	return &cat, nil
}

func (m *Memory) ListCategories(_ context.Context, calID calendar.CalendarID) ([]calendar.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []calendar.Category
	for k, cat := range m.categories {
		if k.CalendarID == calID {
			result = append(result, cat)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *Memory) DeleteCategory(_ context.Context, calID calendar.CalendarID, id calendar.CategoryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := categoryKey{calID, id}
	if _, ok := m.categories[k]; !ok {
		return calendar.ErrCategoryNotFound
	}
	delete(m.categories, k)
	return nil
}

func (m *Memory) SaveEvent(_ context.Context, ev calendar.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveEventLocked(ev)
}

// SaveEvents adds multiple events atomically.
func (m *Memory) SaveEvents(_ context.Context, evs []calendar.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check all calendars first (atomic check)
	for _, ev := range evs {
		if _, ok := m.calendars[ev.CalendarID]; !ok {
			return calendar.ErrCalendarNotFound
		}
	}
	for _, ev := range evs {
		if err := m.saveEventLocked(ev); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) saveEventLocked(ev calendar.Event) error {
	if _, ok := m.calendars[ev.CalendarID]; !ok {
		return calendar.ErrCalendarNotFound
	}
	k := eventKey{ev.CalendarID, ev.ID}
	seq := m.seq
	if existing, ok := m.events[k]; ok {
		seq = existing.seq
	} else {
		m.seq++
	}
	m.events[k] = storedEvent{event: ev.Clone(), seq: seq}
	return nil
}

func (m *Memory) GetEvent(_ context.Context, calID calendar.CalendarID, id calendar.EventID) (*calendar.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	se, ok := m.events[eventKey{calID, id}]
	if !ok {
		return nil, calendar.ErrEventNotFound
	}
	ev := se.event.Clone()
	return &ev, nil
}

func (m *Memory) ListEvents(_ context.Context, calID calendar.CalendarID) ([]calendar.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored []storedEvent
	for k, se := range m.events {
		if k.CalendarID == calID {
			stored = append(stored, se)
		}
	}
	sort.Slice(stored, func(i, j int) bool {
		if !stored[i].event.Date.Equal(stored[j].event.Date) {
			return stored[i].event.Date.Before(stored[j].event.Date)
		}
		return stored[i].seq < stored[j].seq
	})
	result := make([]calendar.Event, len(stored))
	for i, se := range stored {
		result[i] = se.event.Clone()
	}
	return result, nil
}

func (m *Memory) DeleteEvent(_ context.Context, calID calendar.CalendarID, id calendar.EventID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := eventKey{calID, id}
	if _, ok := m.events[k]; !ok {
		return calendar.ErrEventNotFound
	}
	delete(m.events, k)
	return nil
}

func (m *Memory) SaveReplicationRun(_ context.Context, run calendar.ReplicationRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

// ListReplicationRuns returns runs newest first.
func (m *Memory) ListReplicationRuns(_ context.Context) ([]calendar.ReplicationRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]calendar.ReplicationRun, len(m.runs))
	for i, run := range m.runs {
		result[len(m.runs)-1-i] = run
	}
	return result, nil
}

var _ calendar.Store = (*Memory)(nil)
