/*
handlers.go - HTTP API handlers for the calendar editor backend

PURPOSE:
  Exposes calendars, categories, events, import/export and the replication
  engine via REST API. Handles HTTP request/response, JSON serialization,
  and delegates to the calendar, factory, ics and replication packages.

ENDPOINTS:
  Calendars:
    GET    /api/calendars                       List calendars
    POST   /api/calendars                       Create calendar
    POST   /api/calendars/import                Import JSON document
    GET    /api/calendars/{id}                  Get calendar
    DELETE /api/calendars/{id}                  Delete calendar and contents
    GET    /api/calendars/{id}/export.json      Export JSON document
    GET    /api/calendars/{id}/export.ics       Export iCalendar
    POST   /api/calendars/{id}/import.ics       Import iCalendar events

  Categories and events:
    GET/POST     /api/calendars/{id}/categories
    DELETE       /api/calendars/{id}/categories/{categoryID}
    GET/POST     /api/calendars/{id}/events
    PUT/DELETE   /api/calendars/{id}/events/{eventID}

  Replication:
    POST   /api/replications/preview            Compute placements, write nothing
    POST   /api/replications                    Replicate and write
    GET    /api/replications/runs               Applied replication history

  Feeds:
    POST   /api/feeds/sync                      Sync holiday feeds now

  Scenarios:
    GET    /api/scenarios                       List demo scenarios
    POST   /api/scenarios/load                  Load a demo scenario

ERROR HANDLING:
  Errors are returned as JSON {error, details} with a status derived from
  the error chain (see statusFor):
  - 400: Validation errors, invalid input
  - 404: Calendar, category or event not found
  - 409: System entries are read-only, category in use, duplicate ids
  - 422: No replication strategy for the calendar type pair
  - 500: Invariant violations and internal errors

SECURITY NOTE:
  No authentication. The editor is a single-user tool.

SEE ALSO:
  - dto.go: Request/response data structures
  - scheduler.go: Holiday feed sync
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/itrascastro/itrascastro.github.io-sub001/calendar"
	"github.com/itrascastro/itrascastro.github.io-sub001/factory"
	"github.com/itrascastro/itrascastro.github.io-sub001/ics"
	"github.com/itrascastro/itrascastro.github.io-sub001/replication"
)

// maxICSBody caps uploaded ICS documents.
const maxICSBody = 10 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       calendar.Store
	Factory     *factory.CalendarFactory
	Replication *replication.Service
	// Feeds is optional; without it /api/feeds/sync reports zero feeds.
	Feeds *FeedScheduler

	NewID func() string
	Now   func() time.Time

	// Track currently loaded scenario
	scenarioMu      sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store calendar.Store) *Handler {
	return &Handler{
		Store:       store,
		Factory:     factory.NewCalendarFactory(),
		Replication: replication.NewService(store),
		NewID:       uuid.NewString,
		Now:         time.Now,
	}
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// ListCalendars returns all calendars.
func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	cals, err := h.Store.ListCalendars(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list calendars", err)
		return
	}

	dtos := make([]CalendarDTO, len(cals))
	for i, c := range cals {
		dtos[i] = toCalendarDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCalendar returns a single calendar.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	cal, err := h.Store.GetCalendar(r.Context(), calendarID(r))
	if err != nil {
		writeDomainError(w, "Failed to get calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, toCalendarDTO(*cal))
}

// CreateCalendar creates an empty calendar. Study calendars get their
// system categories.
func (h *Handler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	var req CreateCalendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		req.ID = h.NewID()
	}

	doc, err := h.Factory.FromJSON(factory.CalendarJSON{
		ID:        req.ID,
		Name:      req.Name,
		Type:      req.Type,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid calendar", err)
		return
	}

	h.saveDocument(w, r, doc)
}

// ImportCalendar creates a calendar from a JSON document.
func (h *Handler) ImportCalendar(w http.ResponseWriter, r *http.Request) {
	var cj factory.CalendarJSON
	if err := json.NewDecoder(r.Body).Decode(&cj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	doc, err := h.Factory.FromJSON(cj)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid calendar document", err)
		return
	}

	h.saveDocument(w, r, doc)
}

func (h *Handler) saveDocument(w http.ResponseWriter, r *http.Request, doc *factory.Document) {
	ctx := r.Context()

	if _, err := h.Store.GetCalendar(ctx, doc.Calendar.ID); err == nil {
		writeError(w, http.StatusConflict, "Calendar already exists", fmt.Errorf("calendar %s", doc.Calendar.ID))
		return
	} else if !calendar.IsNotFound(err) {
		writeError(w, http.StatusInternalServerError, "Failed to check calendar", err)
		return
	}

	doc.Calendar.CreatedAt = h.Now().UTC()
	if err := doc.Save(ctx, h.Store); err != nil {
		writeDomainError(w, "Failed to save calendar", err)
		return
	}

	writeJSON(w, http.StatusCreated, toCalendarDTO(doc.Calendar))
}

// DeleteCalendar removes a calendar with its categories and events.
func (h *Handler) DeleteCalendar(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteCalendar(r.Context(), calendarID(r)); err != nil {
		writeDomainError(w, "Failed to delete calendar", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportJSON returns the calendar as a JSON document.
func (h *Handler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := factory.LoadDocument(r.Context(), h.Store, calendarID(r))
	if err != nil {
		writeDomainError(w, "Failed to load calendar", err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(doc.Calendar.ID)+".json"))
	writeJSON(w, http.StatusOK, h.Factory.ToJSON(*doc))
}

// ExportICS returns the calendar as an iCalendar file.
func (h *Handler) ExportICS(w http.ResponseWriter, r *http.Request) {
	doc, err := factory.LoadDocument(r.Context(), h.Store, calendarID(r))
	if err != nil {
		writeDomainError(w, "Failed to load calendar", err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(doc.Calendar.ID)+".ics"))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, ics.Export(doc.Calendar, doc.Categories, doc.Events))
}

// ImportICS adds the events of an uploaded iCalendar file to a calendar.
// Recurring events are expanded within the calendar range. Categories named
// in the file are created when missing.
func (h *Handler) ImportICS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cal, err := h.Store.GetCalendar(ctx, calendarID(r))
	if err != nil {
		writeDomainError(w, "Failed to get calendar", err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxICSBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	parsed, err := ics.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid iCalendar document", err)
		return
	}

	expanded := ics.Expand(parsed, cal.Range, 0)
	events := ics.ToEvents(*cal, expanded.Occurrences, ics.ImportOptions{IDPrefix: "ics-"})

	if err := h.ensureImportCategories(r, *cal, expanded.Occurrences); err != nil {
		writeDomainError(w, "Failed to create categories", err)
		return
	}
	if len(events) > 0 {
		if err := h.Store.SaveEvents(ctx, events); err != nil {
			writeDomainError(w, "Failed to save events", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, ICSImportResponse{
		Imported:  len(events),
		Truncated: expanded.TruncatedEvents,
	})
}

func (h *Handler) ensureImportCategories(r *http.Request, cal calendar.Calendar, occs []ics.Occurrence) error {
	ctx := r.Context()
	for _, occ := range occs {
		id := ics.CategoryIDFor(occ.Category)
		if id == "" {
			continue
		}
		if _, err := h.Store.GetCategory(ctx, cal.ID, id); err == nil {
			continue
		} else if !calendar.IsNotFound(err) {
			return err
		}
		cat := calendar.Category{ID: id, CalendarID: cal.ID, Name: occ.Category, IsSystem: occ.System}
		if err := h.Store.SaveCategory(ctx, cat); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// CATEGORY HANDLERS
// =============================================================================

// ListCategories returns the categories of a calendar.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := calendarID(r)
	if _, err := h.Store.GetCalendar(ctx, id); err != nil {
		writeDomainError(w, "Failed to get calendar", err)
		return
	}

	cats, err := h.Store.ListCategories(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list categories", err)
		return
	}
	dtos := make([]CategoryDTO, len(cats))
	for i, c := range cats {
		dtos[i] = toCategoryDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCategory adds a user category.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		req.ID = "cat-" + h.NewID()
	}

	cat := calendar.Category{
		ID:         calendar.CategoryID(req.ID),
		CalendarID: calendarID(r),
		Name:       req.Name,
		Color:      req.Color,
	}
	if err := calendar.AddCategory(r.Context(), h.Store, cat); err != nil {
		writeDomainError(w, "Failed to create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryDTO(cat))
}

// DeleteCategory removes an unused user category.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	catID := calendar.CategoryID(chi.URLParam(r, "categoryID"))
	if err := calendar.RemoveCategory(r.Context(), h.Store, calendarID(r), catID); err != nil {
		writeDomainError(w, "Failed to delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// EVENT HANDLERS
// =============================================================================

// ListEvents returns the events of a calendar ordered by date.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := calendarID(r)
	if _, err := h.Store.GetCalendar(ctx, id); err != nil {
		writeDomainError(w, "Failed to get calendar", err)
		return
	}

	events, err := h.Store.ListEvents(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events", err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

// CreateEvent adds a user event.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if req.ID == "" {
		req.ID = h.NewID()
	}

	ev := calendar.Event{
		ID:          calendar.EventID(req.ID),
		CalendarID:  calendarID(r),
		CategoryID:  calendar.CategoryID(req.CategoryID),
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
	}
	if err := calendar.AddEvent(r.Context(), h.Store, ev); err != nil {
		writeDomainError(w, "Failed to create event", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(ev))
}

// UpdateEvent edits or moves a user event.
// PUT /api/calendars/{id}/events/{eventID}
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	calID := calendarID(r)
	evID := calendar.EventID(chi.URLParam(r, "eventID"))

	var req UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var date calendar.Date
	if req.Date != nil {
		d, err := calendar.ParseDate(*req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		date = d
	}

	// Date only: drag and drop
	if req.Date != nil && req.Title == nil && req.Description == nil && req.CategoryID == nil {
		moved, err := calendar.MoveEvent(ctx, h.Store, calID, evID, date)
		if err != nil {
			writeDomainError(w, "Failed to move event", err)
			return
		}
		writeJSON(w, http.StatusOK, toEventDTO(*moved))
		return
	}

	ev, err := h.Store.GetEvent(ctx, calID, evID)
	if err != nil {
		writeDomainError(w, "Failed to get event", err)
		return
	}
	if ev.IsSystem {
		writeDomainError(w, "Failed to update event", calendar.ErrSystemReadOnly)
		return
	}
	if req.Date != nil {
		ev.Date = date
	}
	if req.Title != nil {
		ev.Title = *req.Title
	}
	if req.Description != nil {
		ev.Description = *req.Description
	}
	if req.CategoryID != nil {
		ev.CategoryID = calendar.CategoryID(*req.CategoryID)
	}

	if err := calendar.UpdateEvent(ctx, h.Store, *ev); err != nil {
		writeDomainError(w, "Failed to update event", err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTO(*ev))
}

// DeleteEvent removes a user event.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	evID := calendar.EventID(chi.URLParam(r, "eventID"))
	if err := calendar.RemoveEvent(r.Context(), h.Store, calendarID(r), evID); err != nil {
		writeDomainError(w, "Failed to delete event", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPLICATION HANDLERS
// =============================================================================

// PreviewReplication computes the placements without writing.
// POST /api/replications/preview
func (h *Handler) PreviewReplication(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReplicationRequest(w, r)
	if !ok {
		return
	}

	plan, err := h.Replication.Preview(r.Context(), calendar.CalendarID(req.SourceID), calendar.CalendarID(req.TargetID))
	if err != nil {
		writeDomainError(w, "Failed to preview replication", err)
		return
	}
	writeJSON(w, http.StatusOK, toPreviewDTO(plan))
}

// ApplyReplication replicates source events into the target calendar.
// POST /api/replications
func (h *Handler) ApplyReplication(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReplicationRequest(w, r)
	if !ok {
		return
	}

	plan, created, err := h.Replication.Replicate(r.Context(), calendar.CalendarID(req.SourceID), calendar.CalendarID(req.TargetID))
	if err != nil {
		writeDomainError(w, "Failed to apply replication", err)
		return
	}
	writeJSON(w, http.StatusCreated, ReplicationApplyResponse{
		ReplicationPreviewDTO: toPreviewDTO(plan),
		Created:               toEventDTOs(created),
	})
}

// ListReplicationRuns returns the applied replications, newest first.
func (h *Handler) ListReplicationRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListReplicationRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list replication runs", err)
		return
	}
	dtos := make([]ReplicationRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func decodeReplicationRequest(w http.ResponseWriter, r *http.Request) (ReplicationRequest, bool) {
	var req ReplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return req, false
	}
	if req.SourceID == "" || req.TargetID == "" {
		writeError(w, http.StatusBadRequest, "source_id and target_id are required", nil)
		return req, false
	}
	return req, true
}

// =============================================================================
// FEED HANDLERS
// =============================================================================

// SyncFeeds runs a holiday feed sync immediately.
// POST /api/feeds/sync
func (h *Handler) SyncFeeds(w http.ResponseWriter, r *http.Request) {
	if h.Feeds == nil {
		writeJSON(w, http.StatusOK, FeedSyncResponse{})
		return
	}
	report := h.Feeds.SyncNow(r.Context())
	writeJSON(w, http.StatusOK, FeedSyncResponse{
		Feeds:  report.Feeds,
		Events: report.Events,
		Errors: report.Errors,
	})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func calendarID(r *http.Request) calendar.CalendarID {
	return calendar.CalendarID(chi.URLParam(r, "id"))
}

// statusFor maps a domain error chain to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, replication.ErrStrategyUnresolved):
		return http.StatusUnprocessableEntity
	case errors.Is(err, replication.ErrInvalidInput):
		return http.StatusBadRequest
	case calendar.IsNotFound(err):
		return http.StatusNotFound
	case calendar.IsConflict(err):
		return http.StatusConflict
	case calendar.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
