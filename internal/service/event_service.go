package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deptevents/event-registration/internal/config"
	"github.com/deptevents/event-registration/internal/domain"
	"github.com/deptevents/event-registration/internal/events"
	"github.com/deptevents/event-registration/internal/repository"
	"github.com/deptevents/event-registration/internal/schedule"
)

// EventService manages scheduled events and renders them into views.
type EventService struct {
	events           repository.EventRepository
	dispatcher       events.Dispatcher
	builder          *schedule.Builder
	loc              *time.Location
	listLimit        int
	completionWindow time.Duration
	logger           *zap.Logger
	now              func() time.Time
}

// EventDependencies bundles collaborators of the event service.
type EventDependencies struct {
	EventRepo  repository.EventRepository
	Dispatcher events.Dispatcher
	Location   *time.Location
	Logger     *zap.Logger
	Clock      func() time.Time
}

// EventInput describes a new event.
type EventInput struct {
	Name            string
	SchoolName      *string
	Day             time.Time
	StartPeriod     int
	EndPeriod       int
	MaxUserJoined   int
	NumberOfStudent int
}

// EventPatch carries optional event changes.
type EventPatch struct {
	Name            *string
	SchoolName      *string
	Day             *time.Time
	StartPeriod     *int
	EndPeriod       *int
	MaxUserJoined   *int
	NumberOfStudent *int
}

// NewEventService constructs the service.
func NewEventService(cfg config.Config, deps EventDependencies) *EventService {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{
		events:           deps.EventRepo,
		dispatcher:       deps.Dispatcher,
		builder:          schedule.NewBuilder(loc, nil),
		loc:              loc,
		listLimit:        cfg.Schedule.ListLimit,
		completionWindow: cfg.Schedule.CompletionWindow(),
		logger:           logger,
		now:              clock,
	}
}

// Location returns the timezone used to place class periods.
func (s *EventService) Location() *time.Location {
	return s.loc
}

// Create stores a new ongoing, unlocked event.
func (s *EventService) Create(ctx context.Context, input EventInput) (*domain.Event, error) {
	event := &domain.Event{
		Name:            strings.TrimSpace(input.Name),
		SchoolName:      optional(strings.TrimSpace(deref(input.SchoolName))),
		Day:             dateOnly(input.Day, s.loc),
		StartPeriod:     input.StartPeriod,
		EndPeriod:       input.EndPeriod,
		MaxUserJoined:   input.MaxUserJoined,
		NumberOfStudent: input.NumberOfStudent,
		Status:          domain.EventStatusOngoing,
	}
	if err := validateEvent(event); err != nil {
		return nil, err
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// Update applies an admin patch. Capacity may not drop below the number of
// current participants; the repository checks this under the event row lock.
func (s *EventService) Update(ctx context.Context, id int64, patch EventPatch) (*domain.Event, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	event := current.Event

	if patch.Name != nil {
		event.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.SchoolName != nil {
		event.SchoolName = optional(strings.TrimSpace(*patch.SchoolName))
	}
	if patch.Day != nil {
		event.Day = dateOnly(*patch.Day, s.loc)
	}
	if patch.StartPeriod != nil {
		event.StartPeriod = *patch.StartPeriod
	}
	if patch.EndPeriod != nil {
		event.EndPeriod = *patch.EndPeriod
	}
	if patch.MaxUserJoined != nil {
		event.MaxUserJoined = *patch.MaxUserJoined
	}
	if patch.NumberOfStudent != nil {
		event.NumberOfStudent = *patch.NumberOfStudent
	}
	if err := validateEvent(&event); err != nil {
		return nil, err
	}
	if err := s.events.Update(ctx, &event); err != nil {
		return nil, s.eventErr(err)
	}
	return &event, nil
}

// Delete soft-deletes an event.
func (s *EventService) Delete(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, domain.EventStatusDeleted)
}

// SetLocked toggles whether new participants may join.
func (s *EventService) SetLocked(ctx context.Context, id int64, locked bool) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.events.SetLocked(ctx, id, locked); err != nil {
		return s.eventErr(err)
	}
	return nil
}

// Finish closes an event manually.
func (s *EventService) Finish(ctx context.Context, id int64) error {
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if current.Event.Status == domain.EventStatusFinished {
		return nil
	}
	if err := s.setStatus(ctx, id, domain.EventStatusFinished); err != nil {
		return err
	}
	s.publishFinished(ctx, &current.Event)
	return nil
}

// ListViews renders the visible events for a viewer. detail localizes the
// period label and may be nil.
func (s *EventService) ListViews(ctx context.Context, viewerID *int64, detail schedule.PeriodDetailFunc) ([]schedule.EventView, error) {
	list, err := s.events.ListWithParticipants(ctx, repository.EventFilter{
		Statuses: []domain.EventStatus{domain.EventStatusOngoing, domain.EventStatusFinished},
		Limit:    s.listLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	views, err := s.viewBuilder(detail).BuildAll(list, viewerID, s.now())
	if err != nil {
		return nil, mapErr(err)
	}
	return views, nil
}

// GetView renders a single visible event for a viewer.
func (s *EventService) GetView(ctx context.Context, id int64, viewerID *int64, detail schedule.PeriodDetailFunc) (schedule.EventView, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return schedule.EventView{}, err
	}
	view, err := s.viewBuilder(detail).Build(&current.Event, current.Participants, viewerID, s.now())
	if err != nil {
		return schedule.EventView{}, mapErr(err)
	}
	return view, nil
}

// FinishEnded marks ongoing events as finished once their end instant plus
// the completion window has passed. It returns the number of events closed.
func (s *EventService) FinishEnded(ctx context.Context) (int, error) {
	now := s.now()
	cutoff := now.Add(-s.completionWindow)
	candidates, err := s.events.ListOngoingUntil(ctx, dateOnly(cutoff, s.loc))
	if err != nil {
		return 0, fmt.Errorf("list ongoing events: %w", err)
	}

	finished := 0
	var errs []error
	for i := range candidates {
		event := &candidates[i]
		if !schedule.HasEnded(event, cutoff, s.loc) {
			continue
		}
		if err := s.events.SetStatus(ctx, event.ID, domain.EventStatusFinished); err != nil {
			errs = append(errs, fmt.Errorf("finish event %d: %w", event.ID, err))
			continue
		}
		finished++
		s.logger.Info("event finished", zap.Int64("event_id", event.ID), zap.String("name", event.Name))
		s.publishFinished(ctx, event)
	}
	return finished, errors.Join(errs...)
}

func (s *EventService) viewBuilder(detail schedule.PeriodDetailFunc) *schedule.Builder {
	if detail == nil {
		return s.builder
	}
	return schedule.NewBuilder(s.loc, detail)
}

// load fetches a non-deleted event with its participants.
func (s *EventService) load(ctx context.Context, id int64) (*domain.EventWithParticipants, error) {
	current, err := s.events.GetWithParticipants(ctx, id)
	if err != nil {
		return nil, s.eventErr(err)
	}
	if current.Event.Status == domain.EventStatusDeleted {
		return nil, mapErr(domain.ErrEventNotFound)
	}
	return current, nil
}

func (s *EventService) setStatus(ctx context.Context, id int64, status domain.EventStatus) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.events.SetStatus(ctx, id, status); err != nil {
		return s.eventErr(err)
	}
	return nil
}

func (s *EventService) eventErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return mapErr(domain.ErrEventNotFound)
	}
	return mapErr(err)
}

func (s *EventService) publishFinished(ctx context.Context, event *domain.Event) {
	if s.dispatcher == nil {
		return
	}
	id := event.ID
	if err := s.dispatcher.Publish(ctx, events.Event{
		Type:    events.EventEventFinished,
		EventID: &id,
		Payload: events.EventFinishedPayload{
			Name:   event.Name,
			EndsAt: schedule.EndInstant(event.Day, event.EndPeriod, s.loc),
		},
	}); err != nil {
		s.logger.Warn("publish event_finished failed", zap.Int64("event_id", id), zap.Error(err))
	}
}

func validateEvent(event *domain.Event) error {
	switch {
	case event.Name == "":
		return validationErr("name", "name is required")
	case event.Day.IsZero():
		return validationErr("day", "day is required")
	case event.StartPeriod < domain.MinPeriod || event.StartPeriod > domain.MaxPeriod:
		return validationErr("start_period", fmt.Sprintf("start period must be between %d and %d", domain.MinPeriod, domain.MaxPeriod))
	case event.EndPeriod < domain.MinPeriod || event.EndPeriod > domain.MaxPeriod:
		return validationErr("end_period", fmt.Sprintf("end period must be between %d and %d", domain.MinPeriod, domain.MaxPeriod))
	case event.EndPeriod < event.StartPeriod:
		return validationErr("end_period", "end period must not precede start period")
	case event.MaxUserJoined < 1:
		return validationErr("max_user_joined", "capacity must be at least 1")
	case event.NumberOfStudent < 0:
		return validationErr("number_of_student", "number of students must not be negative")
	}
	return nil
}

// dateOnly truncates t to midnight of its calendar day in loc.
func dateOnly(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
