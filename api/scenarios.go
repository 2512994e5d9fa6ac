/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	semesters for demos. Each scenario creates a source calendar full of
	user events and an empty target, ready for a replication preview.

AVAILABLE SCENARIOS:

	fp-next-year:     FP semester copied onto next year's semester
	btx-compressed:   Long BTX semester squeezed into a shorter one
	generic-calendar: Generic calendar, no replication strategy (422)

HOW SCENARIOS WORK:
 1. Reset database (delete every calendar)
 2. Build calendar JSON with the study presets
 3. Parse through the calendar factory
 4. Save the documents

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "fp-next-year"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - study/presets.go: Semester JSON presets
  - factory/calendar.go: JSON to calendar conversion
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/itrascastro/itrascastro.github.io-sub001/study"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "fp-next-year",
		Name:        "FP Next Year",
		Description: "FP semester with labs and exams, replicated onto next year's semester",
		Category:    "study",
	},
	{
		ID:          "btx-compressed",
		Name:        "BTX Compressed",
		Description: "Long BTX semester replicated into a shorter one (factor < 1)",
		Category:    "study",
	},
	{
		ID:          "generic-calendar",
		Name:        "Generic Calendar",
		Description: "Generic calendars have no replication strategy",
		Category:    "other",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	current := h.currentScenario
	h.scenarioMu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	docs, ok := scenarioDocuments(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	ctx := r.Context()
	if err := h.resetCalendars(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	if err := h.loadDocuments(ctx, docs); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.scenarioMu.Lock()
	h.currentScenario = req.ScenarioID
	h.scenarioMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "loaded",
		"scenario": req.ScenarioID,
	})
}

// ResetDatabase deletes every calendar.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.resetCalendars(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.scenarioMu.Lock()
	h.currentScenario = ""
	h.scenarioMu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) resetCalendars(ctx context.Context) error {
	cals, err := h.Store.ListCalendars(ctx)
	if err != nil {
		return err
	}
	for _, c := range cals {
		if err := h.Store.DeleteCalendar(ctx, c.ID); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadDocuments(ctx context.Context, jsonDocs []string) error {
	for _, js := range jsonDocs {
		doc, err := h.Factory.ParseCalendar(js)
		if err != nil {
			return err
		}
		doc.Calendar.CreatedAt = h.Now().UTC()
		if err := doc.Save(ctx, h.Store); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SCENARIO DOCUMENTS
// =============================================================================

func scenarioDocuments(id string) ([]string, bool) {
	switch id {
	case "fp-next-year":
		return fpNextYearScenario(), true
	case "btx-compressed":
		return btxCompressedScenario(), true
	case "generic-calendar":
		return genericScenario(), true
	default:
		return nil, false
	}
}

func fpNextYearScenario() []string {
	source := study.SemesterJSON("fp-2025-s1", "FP 2025-26 S1", "fp",
		"2025-09-15", "2026-01-30",
		[]string{"2025-10-13", "2025-11-03", "2025-12-08"}, "2026-01-19")
	source = withLabCategory(source)
	source = study.WithEventsJSON(source, []map[string]string{
		{"id": "fp-lab-1", "title": "Lab 1", "date": "2025-09-17", "category_id": "cat-lab"},
		{"id": "fp-lab-2", "title": "Lab 2", "date": "2025-10-08", "category_id": "cat-lab"},
		{"id": "fp-exam-1", "title": "Partial exam", "date": "2025-11-12", "category_id": "cat-exam"},
		{"id": "fp-lab-3", "title": "Lab 3", "date": "2025-12-03", "category_id": "cat-lab"},
		{"id": "fp-exam-2", "title": "Final project", "date": "2026-01-14", "category_id": "cat-exam"},
	})

	target := study.SemesterJSON("fp-2026-s1", "FP 2026-27 S1", "fp",
		"2026-09-14", "2027-01-29",
		[]string{"2026-10-12", "2026-12-08"}, "2027-01-18")

	return []string{source, target}
}

func btxCompressedScenario() []string {
	source := study.SemesterJSON("btx-2025-s2", "BTX 2025-26 S2", "btx",
		"2026-02-02", "2026-06-19",
		[]string{"2026-03-19", "2026-04-06", "2026-05-01"}, "2026-06-08")
	source = withLabCategory(source)
	source = study.WithEventsJSON(source, []map[string]string{
		{"id": "btx-unit-1", "title": "Unit 1 delivery", "date": "2026-02-13", "category_id": "cat-lab"},
		{"id": "btx-unit-2", "title": "Unit 2 delivery", "date": "2026-03-13", "category_id": "cat-lab"},
		{"id": "btx-exam-1", "title": "Midterm", "date": "2026-04-15", "category_id": "cat-exam"},
		{"id": "btx-unit-3", "title": "Unit 3 delivery", "date": "2026-05-15", "category_id": "cat-lab"},
	})

	target := study.SemesterJSON("btx-2026-summer", "BTX 2026 Summer", "btx",
		"2026-06-29", "2026-07-31", nil, "2026-07-27")

	return []string{source, target}
}

func genericScenario() []string {
	other := study.SemesterJSON("other-2025", "Department meetings", "other",
		"2025-09-01", "2026-06-30", nil, "")
	other = study.WithEventsJSON(other, []map[string]string{
		{"id": "meet-1", "title": "Kickoff", "date": "2025-09-03"},
	})
	target := study.SemesterJSON("fp-2025-s1", "FP 2025-26 S1", "fp",
		"2025-09-15", "2026-01-30", nil, "2026-01-19")
	return []string{other, target}
}

// withLabCategory adds the user categories referenced by scenario events.
func withLabCategory(presetJSON string) string {
	var cj map[string]interface{}
	if err := json.Unmarshal([]byte(presetJSON), &cj); err != nil {
		return presetJSON
	}
	cj["categories"] = []map[string]interface{}{
		{"id": "cat-lab", "name": "Lab", "color": "#388e3c"},
		{"id": "cat-exam", "name": "Exam", "color": "#f57c00"},
	}
	b, _ := json.MarshalIndent(cj, "", "  ")
	return string(b)
}
