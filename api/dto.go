/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Calendars:    CalendarDTO, CreateCalendarRequest
  Categories:   CategoryDTO, CreateCategoryRequest
  Events:       EventDTO, CreateEventRequest, UpdateEventRequest
  Replication:  ReplicationRequest, ReplicationPreviewDTO, PlacementDTO,
                UnplacedDTO, ReplicationApplyResponse, ReplicationRunDTO
  Feeds:        FeedSyncResponse

VALIDATION:
  Validation is done in handlers and the calendar package, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/calendar.go: CalendarJSON import/export type
*/
package api

import (
	"time"

	"github.com/itrascastro/itrascastro.github.io-sub001/calendar"
	"github.com/itrascastro/itrascastro.github.io-sub001/replication"
)

// =============================================================================
// CALENDARS, CATEGORIES, EVENTS
// =============================================================================

type CalendarDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateCalendarRequest creates an empty calendar. ID is generated when
// omitted.
type CreateCalendarRequest struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type CategoryDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color,omitempty"`
	IsSystem bool   `json:"is_system"`
}

type CreateCategoryRequest struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type EventDTO struct {
	ID          string            `json:"id"`
	CalendarID  string            `json:"calendar_id"`
	CategoryID  string            `json:"category_id,omitempty"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Date        string            `json:"date"`
	IsSystem    bool              `json:"is_system"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type CreateEventRequest struct {
	ID          string `json:"id,omitempty"`
	CategoryID  string `json:"category_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
}

// UpdateEventRequest edits a user event. A body with only a date is a move.
type UpdateEventRequest struct {
	Date        *string `json:"date,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	CategoryID  *string `json:"category_id,omitempty"`
}

// ICSImportResponse summarizes an ICS import.
type ICSImportResponse struct {
	Imported  int      `json:"imported"`
	Truncated []string `json:"truncated,omitempty"`
}

// =============================================================================
// REPLICATION
// =============================================================================

type ReplicationRequest struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

type PlacementDTO struct {
	Event        EventDTO `json:"event"`
	OriginalDate string   `json:"original_date"`
	NewDate      string   `json:"new_date"`
	Confidence   int      `json:"confidence"`
}

type UnplacedDTO struct {
	Event  EventDTO `json:"event"`
	Reason string   `json:"reason"`
}

type ReplicationPreviewDTO struct {
	SourceID string         `json:"source_id"`
	TargetID string         `json:"target_id"`
	Strategy string         `json:"strategy"`
	Placed   []PlacementDTO `json:"placed"`
	Unplaced []UnplacedDTO  `json:"unplaced"`
	// Source event ids skipped because the target already holds a copy.
	AlreadyReplicated []string `json:"already_replicated,omitempty"`
}

type ReplicationApplyResponse struct {
	ReplicationPreviewDTO
	Created []EventDTO `json:"created"`
}

type ReplicationRunDTO struct {
	ID            string `json:"id"`
	SourceID      string `json:"source_id"`
	TargetID      string `json:"target_id"`
	Strategy      string `json:"strategy"`
	PlacedCount   int    `json:"placed_count"`
	UnplacedCount int    `json:"unplaced_count"`
	CreatedAt     string `json:"created_at"`
}

// =============================================================================
// FEEDS AND ERRORS
// =============================================================================

type FeedSyncResponse struct {
	Feeds  int      `json:"feeds"`
	Events int      `json:"events"`
	Errors []string `json:"errors,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toCalendarDTO(c calendar.Calendar) CalendarDTO {
	dto := CalendarDTO{
		ID:        string(c.ID),
		Name:      c.Name,
		Type:      string(c.Type),
		StartDate: c.Range.Start.String(),
		EndDate:   c.Range.End.String(),
	}
	if !c.CreatedAt.IsZero() {
		dto.CreatedAt = c.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toCategoryDTO(c calendar.Category) CategoryDTO {
	return CategoryDTO{
		ID:       string(c.ID),
		Name:     c.Name,
		Color:    c.Color,
		IsSystem: c.IsSystem,
	}
}

func toEventDTO(e calendar.Event) EventDTO {
	return EventDTO{
		ID:          string(e.ID),
		CalendarID:  string(e.CalendarID),
		CategoryID:  string(e.CategoryID),
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date.String(),
		IsSystem:    e.IsSystem,
		Metadata:    e.Metadata,
	}
}

func toEventDTOs(events []calendar.Event) []EventDTO {
	dtos := make([]EventDTO, len(events))
	for i, e := range events {
		dtos[i] = toEventDTO(e)
	}
	return dtos
}

func toPreviewDTO(plan *replication.Plan) ReplicationPreviewDTO {
	dto := ReplicationPreviewDTO{
		SourceID: string(plan.Source.ID),
		TargetID: string(plan.Target.ID),
		Strategy: plan.Strategy,
		Placed:   make([]PlacementDTO, len(plan.Result.Placed)),
		Unplaced: make([]UnplacedDTO, len(plan.Result.Unplaced)),
	}
	for i, p := range plan.Result.Placed {
		dto.Placed[i] = PlacementDTO{
			Event:        toEventDTO(p.Event),
			OriginalDate: p.OriginalDate.String(),
			NewDate:      p.NewDate.String(),
			Confidence:   p.Confidence,
		}
	}
	for i, u := range plan.Result.Unplaced {
		dto.Unplaced[i] = UnplacedDTO{
			Event:  toEventDTO(u.Event),
			Reason: string(u.Reason),
		}
	}
	for _, id := range plan.AlreadyReplicated {
		dto.AlreadyReplicated = append(dto.AlreadyReplicated, string(id))
	}
	return dto
}

func toRunDTO(r calendar.ReplicationRun) ReplicationRunDTO {
	return ReplicationRunDTO{
		ID:            r.ID,
		SourceID:      string(r.SourceID),
		TargetID:      string(r.TargetID),
		Strategy:      r.Strategy,
		PlacedCount:   r.PlacedCount,
		UnplacedCount: r.UnplacedCount,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
}
