/*
Package study provides study-calendar preset documents.

These functions build JSON calendar documents (the factory package format)
for typical semesters. They construct JSON directly to avoid an import cycle
with the factory package.

USAGE:
  jsonStr := study.SemesterJSON("fp-2025-s1", "FP 2025-26 S1", "fp",
      "2025-09-15", "2026-01-30", []string{"2025-10-13", "2025-12-08"}, "2026-01-19")
  doc, err := factory.NewCalendarFactory().ParseCalendar(jsonStr)
*/
package study

import (
	"encoding/json"
	"fmt"
)

// SemesterJSON returns JSON for a study semester with its holidays and, when
// pafDate is not empty, the PAF event that closes the teaching period.
func SemesterJSON(id, name, calType, startDate, endDate string, holidays []string, pafDate string) string {
	events := make([]map[string]interface{}, 0, len(holidays)+1)
	for i, day := range holidays {
		events = append(events, map[string]interface{}{
			"id":          fmt.Sprintf("%s-festiu-%d", id, i+1),
			"category_id": string(CategoryHoliday),
			"title":       "Festiu",
			"date":        day,
			"system":      true,
		})
	}
	if pafDate != "" {
		events = append(events, map[string]interface{}{
			"id":          id + "-paf1",
			"category_id": string(CategoryEvaluation),
			"title":       "PAF1",
			"date":        pafDate,
			"system":      true,
		})
	}

	cj := map[string]interface{}{
		"id":         id,
		"name":       name,
		"type":       calType,
		"start_date": startDate,
		"end_date":   endDate,
		"events":     events,
	}
	b, _ := json.MarshalIndent(cj, "", "  ")
	return string(b)
}

// WithEventsJSON appends user events to a preset document. Each entry is
// {id, title, date[, category_id]}. It is meant for built-in documents and
// panics if presetJSON is not a JSON object.
func WithEventsJSON(presetJSON string, userEvents []map[string]string) string {
	var cj map[string]interface{}
	if err := json.Unmarshal([]byte(presetJSON), &cj); err != nil {
		panic(fmt.Sprintf("study: preset document: %v", err))
	}
	events, _ := cj["events"].([]interface{})
	for _, ue := range userEvents {
		ev := map[string]interface{}{}
		for k, v := range ue {
			ev[k] = v
		}
		events = append(events, ev)
	}
	cj["events"] = events
	b, _ := json.MarshalIndent(cj, "", "  ")
	return string(b)
}
