package replication

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/itrascastro/itrascastro.github.io-sub001/calendar"
	"github.com/itrascastro/itrascastro.github.io-sub001/study"
)

// =============================================================================
// SERVICE - Store-backed preview and apply
// =============================================================================

// MetadataReplicatedFrom is set on every event written by Apply.
const MetadataReplicatedFrom = "replicated_from"

// Plan is a computed replication not yet written to the target calendar.
type Plan struct {
	Source   calendar.Calendar
	Target   calendar.Calendar
	Strategy string
	Result   *Result
	// AlreadyReplicated lists source events with a copy in the target from
	// an earlier apply. They are left out of Result.
	AlreadyReplicated []calendar.EventID

	sourceCategories []calendar.Category
}

// Service runs replications between stored calendars.
type Service struct {
	Store calendar.Store
	Now   func() time.Time
	NewID func() string
}

func NewService(store calendar.Store) *Service {
	return &Service{
		Store: store,
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

// Preview computes where every source event would land on the target.
// Nothing is written.
func (s *Service) Preview(ctx context.Context, sourceID, targetID calendar.CalendarID) (*Plan, error) {
	source, sourceEvents, err := s.load(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("load source calendar: %w", err)
	}
	target, targetEvents, err := s.load(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("load target calendar: %w", err)
	}

	strategy, err := SelectStrategy(source.Type, target.Type)
	if err != nil {
		return nil, err
	}

	pending, done := withoutReplicated(sourceEvents, targetEvents)
	result, err := strategy.Replicate(DescriptorFor(*source, sourceEvents), pending, DescriptorFor(*target, targetEvents))
	if err != nil {
		return nil, err
	}

	cats, err := s.Store.ListCategories(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("load source categories: %w", err)
	}

	log.Printf("[Replication] Preview %s -> %s (%s): %d placed, %d unplaced, %d already replicated",
		sourceID, targetID, strategy.Name(), len(result.Placed), len(result.Unplaced), len(done))

	return &Plan{
		Source:            *source,
		Target:            *target,
		Strategy:          strategy.Name(),
		Result:            result,
		AlreadyReplicated: done,
		sourceCategories:  cats,
	}, nil
}

// Apply writes every placement into the target calendar under a fresh id.
// Categories the target lacks are copied from the source first. Events are
// written in one atomic batch.
func (s *Service) Apply(ctx context.Context, plan *Plan) ([]calendar.Event, error) {
	if plan == nil || plan.Result == nil {
		return nil, &InputError{Field: "plan", Reason: "missing"}
	}
	targetID := plan.Target.ID

	if err := s.copyMissingCategories(ctx, plan); err != nil {
		return nil, err
	}

	created := make([]calendar.Event, 0, len(plan.Result.Placed))
	for _, p := range plan.Result.Placed {
		ev := p.Event.Clone()
		ev.ID = calendar.EventID(s.NewID())
		ev.CalendarID = targetID
		ev.Date = p.NewDate
		ev.IsSystem = false
		if ev.Metadata == nil {
			ev.Metadata = make(map[string]string)
		}
		ev.Metadata[MetadataReplicatedFrom] = string(p.Event.ID)
		created = append(created, ev)
	}

	if len(created) > 0 {
		if err := s.Store.SaveEvents(ctx, created); err != nil {
			return nil, fmt.Errorf("save replicated events: %w", err)
		}
	}

	run := calendar.ReplicationRun{
		ID:            fmt.Sprintf("run-%s", s.NewID()),
		SourceID:      plan.Source.ID,
		TargetID:      targetID,
		Strategy:      plan.Strategy,
		PlacedCount:   len(plan.Result.Placed),
		UnplacedCount: len(plan.Result.Unplaced),
		CreatedAt:     s.Now().UTC(),
	}
	if err := s.Store.SaveReplicationRun(ctx, run); err != nil {
		// Events are already written; the audit record is best effort.
		log.Printf("[Replication] Error recording run %s: %v", run.ID, err)
	}

	log.Printf("[Replication] Applied %s -> %s: %d events created", plan.Source.ID, targetID, len(created))
	return created, nil
}

// Replicate previews and applies in one step.
func (s *Service) Replicate(ctx context.Context, sourceID, targetID calendar.CalendarID) (*Plan, []calendar.Event, error) {
	plan, err := s.Preview(ctx, sourceID, targetID)
	if err != nil {
		return nil, nil, err
	}
	created, err := s.Apply(ctx, plan)
	if err != nil {
		return plan, nil, err
	}
	return plan, created, nil
}

// DescriptorFor builds the engine view of a stored calendar. Days holding a
// system event are occupied. Study calendars end their workable space at the
// PAF; without one (or for generic calendars) the end date is used.
func DescriptorFor(cal calendar.Calendar, events []calendar.Event) CalendarDescriptor {
	desc := CalendarDescriptor{
		StartDate:     cal.Range.Start,
		EndDate:       cal.Range.End,
		OccupiedDates: calendar.SystemDates(events),
	}
	if cal.Type.IsStudy() {
		if cutoff, ok := study.EvaluationCutoff(events); ok {
			desc.EvaluationCutoff = cutoff
		}
	}
	return desc
}

// withoutReplicated drops source events that already have a copy in the
// target, matched through MetadataReplicatedFrom. Running the same
// replication twice therefore writes nothing new.
func withoutReplicated(source, target []calendar.Event) (pending []calendar.Event, done []calendar.EventID) {
	copied := make(map[string]bool)
	for _, ev := range target {
		if from, ok := ev.Metadata[MetadataReplicatedFrom]; ok {
			copied[from] = true
		}
	}
	pending = make([]calendar.Event, 0, len(source))
	for _, ev := range source {
		if !ev.IsSystem && copied[string(ev.ID)] {
			done = append(done, ev.ID)
			continue
		}
		pending = append(pending, ev)
	}
	return pending, done
}

func (s *Service) load(ctx context.Context, id calendar.CalendarID) (*calendar.Calendar, []calendar.Event, error) {
	cal, err := s.Store.GetCalendar(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	events, err := s.Store.ListEvents(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if events == nil {
		events = []calendar.Event{}
	}
	return cal, events, nil
}

func (s *Service) copyMissingCategories(ctx context.Context, plan *Plan) error {
	needed := make(map[calendar.CategoryID]bool)
	for _, p := range plan.Result.Placed {
		if p.Event.CategoryID != "" {
			needed[p.Event.CategoryID] = true
		}
	}
	for _, cat := range plan.sourceCategories {
		if !needed[cat.ID] {
			continue
		}
		_, err := s.Store.GetCategory(ctx, plan.Target.ID, cat.ID)
		if err == nil {
			continue
		}
		if !calendar.IsNotFound(err) {
			return err
		}
		cat.CalendarID = plan.Target.ID
		if err := s.Store.SaveCategory(ctx, cat); err != nil {
			return fmt.Errorf("copy category %s: %w", cat.ID, err)
		}
	}
	return nil
}
