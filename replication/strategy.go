package replication

import "github.com/itrascastro/itrascastro.github.io-sub001/calendar"

// =============================================================================
// STRATEGY SELECTION
// =============================================================================

// Strategy is a replication policy for a pair of calendar types.
type Strategy interface {
	Name() string
	Replicate(source CalendarDescriptor, events []calendar.Event, target CalendarDescriptor) (*Result, error)
}

// StudyStrategy replicates between study calendars: weekdays only, at most
// one event per destination day within a run, bounded by the evaluation cutoff.
type StudyStrategy struct{}

func (StudyStrategy) Name() string { return "study" }

func (StudyStrategy) Replicate(source CalendarDescriptor, events []calendar.Event, target CalendarDescriptor) (*Result, error) {
	return Replicate(source, events, target)
}

var _ Strategy = StudyStrategy{}

// SelectStrategy picks the policy for a source/target type pair.
// Pairs involving a generic calendar have no policy yet.
func SelectStrategy(source, target calendar.Type) (Strategy, error) {
	if source.IsStudy() && target.IsStudy() {
		return StudyStrategy{}, nil
	}
	return nil, &StrategyError{Source: source, Target: target}
}
