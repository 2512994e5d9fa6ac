// Package study implements study-calendar specifics: the system categories
// every FP/BTX calendar carries and detection of the evaluation boundary (PAF)
// that ends the teaching period.
package study

import (
	"strings"

	"github.com/itrascastro/itrascastro.github.io-sub001/calendar"
)

// =============================================================================
// SYSTEM CATEGORIES
// =============================================================================

const (
	CategoryHoliday       calendar.CategoryID = "SYS_CAT_FESTIU"
	CategoryEvaluation    calendar.CategoryID = "SYS_CAT_PAF"
	CategoryInstitutional calendar.CategoryID = "SYS_CAT_IOC"
)

// SystemCategories returns the read-only categories of a study calendar.
func SystemCategories(calID calendar.CalendarID) []calendar.Category {
	return []calendar.Category{
		{ID: CategoryHoliday, CalendarID: calID, Name: "Festiu", Color: "#d32f2f", IsSystem: true},
		{ID: CategoryEvaluation, CalendarID: calID, Name: "PAF", Color: "#7b1fa2", IsSystem: true},
		{ID: CategoryInstitutional, CalendarID: calID, Name: "IOC", Color: "#1976d2", IsSystem: true},
	}
}

// =============================================================================
// EVALUATION CUTOFF (PAF DETECTION)
// =============================================================================

// evaluationPrefix marks PAF events imported without the PAF category.
const evaluationPrefix = "PAF"

// IsEvaluationBoundary reports whether ev is a final evaluation (PAF) event.
func IsEvaluationBoundary(ev calendar.Event) bool {
	if !ev.IsSystem {
		return false
	}
	if ev.CategoryID == CategoryEvaluation {
		return true
	}
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(ev.Title)), evaluationPrefix)
}

// EvaluationCutoff returns the earliest PAF date among events. The bool is
// false when the calendar has no PAF; callers then fall back to the end date.
func EvaluationCutoff(events []calendar.Event) (calendar.Date, bool) {
	var cutoff calendar.Date
	found := false
	for _, ev := range events {
		if !IsEvaluationBoundary(ev) {
			continue
		}
		if !found || ev.Date.Before(cutoff) {
			cutoff = ev.Date
			found = true
		}
	}
	return cutoff, found
}
