package replication

import (
	"errors"
	"fmt"

	"github.com/itrascastro/itrascastro.github.io-sub001/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned when a run is missing calendar dates or the
	// event list. The engine refuses to run on partial data.
	ErrInvalidInput = errors.New("invalid replication input")

	// ErrInvariantViolation is returned when a placement breaks a guarantee of
	// the algorithm itself (a weekend date). It signals a defect, never bad data.
	ErrInvariantViolation = errors.New("replication invariant violated")

	// ErrStrategyUnresolved is returned when no replication policy exists for a
	// pair of calendar types.
	ErrStrategyUnresolved = errors.New("no replication strategy for calendar types")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid replication input: %s %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

type InvariantError struct {
	EventID calendar.EventID
	Date    calendar.Date
	Detail  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("replication invariant violated: event %s placed on %s (%s)", e.EventID, e.Date, e.Detail)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}

type StrategyError struct {
	Source calendar.Type
	Target calendar.Type
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("no replication strategy for %s -> %s calendars", e.Source, e.Target)
}

func (e *StrategyError) Unwrap() error {
	return ErrStrategyUnresolved
}
