package study

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itrascastro/itrascastro.github.io-sub001/calendar"
)

func sysEvent(id string, cat calendar.CategoryID, title, date string) calendar.Event {
	return calendar.Event{ID: calendar.EventID(id), CategoryID: cat, Title: title, Date: calendar.MustParseDate(date), IsSystem: true}
}

func TestEvaluationCutoff(t *testing.T) {
	tests := []struct {
		name   string
		events []calendar.Event
		want   string
		found  bool
	}{
		{
			name:   "no events",
			events: nil,
			found:  false,
		},
		{
			name:   "holidays only",
			events: []calendar.Event{sysEvent("h", CategoryHoliday, "Festiu", "2025-10-13")},
			found:  false,
		},
		{
			name: "earliest PAF wins",
			events: []calendar.Event{
				sysEvent("paf2", CategoryEvaluation, "PAF2", "2026-01-26"),
				sysEvent("paf1", CategoryEvaluation, "PAF1", "2026-01-19"),
			},
			want:  "2026-01-19",
			found: true,
		},
		{
			name:   "title prefix without category",
			events: []calendar.Event{sysEvent("x", CategoryInstitutional, " paf 1 ", "2026-01-20")},
			want:   "2026-01-20",
			found:  true,
		},
		{
			name: "user events are ignored",
			events: []calendar.Event{
				{ID: "u", CategoryID: CategoryEvaluation, Title: "PAF mock", Date: calendar.MustParseDate("2025-11-01")},
			},
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := EvaluationCutoff(tt.events)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, calendar.MustParseDate(tt.want), got)
			}
		})
	}
}

func TestSystemCategories(t *testing.T) {
	cats := SystemCategories("fp-2025")

	require.Len(t, cats, 3)
	ids := map[calendar.CategoryID]bool{}
	for _, c := range cats {
		assert.True(t, c.IsSystem)
		assert.Equal(t, calendar.CalendarID("fp-2025"), c.CalendarID)
		assert.NotEmpty(t, c.Color)
		ids[c.ID] = true
	}
	assert.True(t, ids[CategoryHoliday])
	assert.True(t, ids[CategoryEvaluation])
	assert.True(t, ids[CategoryInstitutional])
}

func TestSemesterJSON(t *testing.T) {
	js := SemesterJSON("s1", "S1", "fp", "2025-09-15", "2026-01-30", []string{"2025-10-13"}, "2026-01-19")
	js = WithEventsJSON(js, []map[string]string{{"id": "lab-1", "title": "Lab", "date": "2025-09-17"}})

	var doc struct {
		ID     string `json:"id"`
		Type   string `json:"type"`
		Events []struct {
			ID       string `json:"id"`
			Category string `json:"category_id"`
			System   bool   `json:"system"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal([]byte(js), &doc))

	assert.Equal(t, "s1", doc.ID)
	assert.Equal(t, "fp", doc.Type)
	require.Len(t, doc.Events, 3)
	assert.Equal(t, "s1-festiu-1", doc.Events[0].ID)
	assert.Equal(t, string(CategoryHoliday), doc.Events[0].Category)
	assert.Equal(t, "s1-paf1", doc.Events[1].ID)
	assert.True(t, doc.Events[1].System)
	assert.Equal(t, "lab-1", doc.Events[2].ID)
	assert.False(t, doc.Events[2].System)
}

func TestSemesterJSON_WithoutPAF(t *testing.T) {
	js := SemesterJSON("s1", "S1", "btx", "2025-09-15", "2026-01-30", nil, "")

	var doc struct {
		Events []json.RawMessage `json:"events"`
	}
	require.NoError(t, json.Unmarshal([]byte(js), &doc))
	assert.Empty(t, doc.Events)
}

func TestWithEventsJSON_MalformedPresetPanics(t *testing.T) {
	// GIVEN: A preset that is not a JSON object
	broken := `{"id": "s1", "events": [`

	// WHEN/THEN: Appending events panics instead of dropping them
	assert.Panics(t, func() {
		WithEventsJSON(broken, []map[string]string{{"id": "lab-1", "title": "Lab", "date": "2025-09-17"}})
	})
	assert.NotPanics(t, func() {
		WithEventsJSON(`{"id": "s1"}`, nil)
	})
}
