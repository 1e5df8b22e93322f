package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deptevents/event-registration/internal/domain"
	"github.com/deptevents/event-registration/internal/events"
	"github.com/deptevents/event-registration/internal/repository"
	"github.com/deptevents/event-registration/internal/schedule"
)

// JoinRecorder receives join outcomes.
type JoinRecorder interface {
	RecordJoin()
	RecordJoinRejected(reason string)
}

// ParticipationService handles joining, leaving and attendance.
type ParticipationService struct {
	events         repository.EventRepository
	participations repository.ParticipationRepository
	dispatcher     events.Dispatcher
	recorder       JoinRecorder
	loc            *time.Location
	logger         *zap.Logger
	now            func() time.Time
}

// ParticipationDependencies bundles collaborators of the participation service.
type ParticipationDependencies struct {
	EventRepo         repository.EventRepository
	ParticipationRepo repository.ParticipationRepository
	Dispatcher        events.Dispatcher
	Recorder          JoinRecorder
	Location          *time.Location
	Logger            *zap.Logger
	Clock             func() time.Time
}

// NewParticipationService constructs the service.
func NewParticipationService(deps ParticipationDependencies) *ParticipationService {
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
	return &ParticipationService{
		events:         deps.EventRepo,
		participations: deps.ParticipationRepo,
		dispatcher:     deps.Dispatcher,
		recorder:       deps.Recorder,
		loc:            loc,
		logger:         logger,
		now:            clock,
	}
}

// Join registers the user for the event in the given role. The checks run
// while the repository holds the event row lock.
func (s *ParticipationService) Join(ctx context.Context, eventID, userID int64, role domain.ParticipationRole) (*domain.Participation, error) {
	if !role.Valid() {
		return nil, validationErr("role", "role must be instructor or teaching_assistant")
	}
	participation := &domain.Participation{
		EventID: eventID,
		UserID:  userID,
		Role:    role,
		Status:  domain.AttendanceRegistered,
	}
	now := s.now()
	err := s.participations.Join(ctx, participation, func(event *domain.Event, count int) error {
		return s.checkJoin(event, count, now)
	})
	if err != nil {
		mapped := mapErr(err)
		s.recordRejected(mapped)
		return nil, mapped
	}
	if s.recorder != nil {
		s.recorder.RecordJoin()
	}
	s.publish(ctx, events.EventParticipationJoined, participation)
	return participation, nil
}

func (s *ParticipationService) checkJoin(event *domain.Event, count int, now time.Time) error {
	switch {
	case event.Status != domain.EventStatusOngoing:
		if event.Status == domain.EventStatusDeleted {
			return domain.ErrEventNotFound
		}
		return domain.ErrEventClosed
	case event.IsLocked:
		return domain.ErrEventLocked
	case schedule.HasEnded(event, now, s.loc):
		return domain.ErrEventEnded
	case count >= event.MaxUserJoined:
		return domain.ErrEventFull
	}
	return nil
}

// Leave removes the user's registration before the event ends.
func (s *ParticipationService) Leave(ctx context.Context, eventID, userID int64) error {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Status != domain.EventStatusOngoing {
		return mapErr(domain.ErrEventClosed)
	}
	if schedule.HasEnded(event, s.now(), s.loc) {
		return mapErr(domain.ErrEventEnded)
	}
	participation, err := s.loadParticipation(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if participation.Status == domain.AttendanceAttended {
		return mapErr(domain.ErrAlreadyAttended)
	}
	if err := s.participations.Delete(ctx, eventID, userID); err != nil {
		return s.participationErr(err)
	}
	s.publish(ctx, events.EventParticipationLeft, participation)
	return nil
}

// Complete lets a participant confirm attendance once the event has ended
// and before it is finished.
func (s *ParticipationService) Complete(ctx context.Context, eventID, userID int64) (*domain.Participation, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != domain.EventStatusOngoing {
		return nil, mapErr(domain.ErrEventClosed)
	}
	if !schedule.HasEnded(event, s.now(), s.loc) {
		return nil, mapErr(domain.ErrEventNotEnded)
	}
	participation, err := s.loadParticipation(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if participation.Status == domain.AttendanceAttended {
		return nil, mapErr(domain.ErrAlreadyAttended)
	}
	return s.setStatus(ctx, participation, domain.AttendanceAttended)
}

// AdminSetAttendance sets the attendance status of any participant.
func (s *ParticipationService) AdminSetAttendance(ctx context.Context, eventID, userID int64, status domain.AttendanceStatus) (*domain.Participation, error) {
	if !status.Valid() {
		return nil, validationErr("status", "status must be registered or attended")
	}
	if _, err := s.loadEvent(ctx, eventID); err != nil {
		return nil, err
	}
	participation, err := s.loadParticipation(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if participation.Status == status {
		return participation, nil
	}
	return s.setStatus(ctx, participation, status)
}

// ListForUser returns the user's participations, newest first.
func (s *ParticipationService) ListForUser(ctx context.Context, userID int64) ([]domain.Participation, error) {
	return s.participations.ListByUser(ctx, userID)
}

func (s *ParticipationService) setStatus(ctx context.Context, participation *domain.Participation, status domain.AttendanceStatus) (*domain.Participation, error) {
	if err := s.participations.UpdateStatus(ctx, participation.EventID, participation.UserID, status); err != nil {
		return nil, s.participationErr(err)
	}
	participation.Status = status
	s.publish(ctx, events.EventAttendanceMarked, participation)
	return participation, nil
}

func (s *ParticipationService) loadEvent(ctx context.Context, eventID int64) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mapErr(domain.ErrEventNotFound)
		}
		return nil, err
	}
	if event.Status == domain.EventStatusDeleted {
		return nil, mapErr(domain.ErrEventNotFound)
	}
	return event, nil
}

func (s *ParticipationService) loadParticipation(ctx context.Context, eventID, userID int64) (*domain.Participation, error) {
	participation, err := s.participations.Get(ctx, eventID, userID)
	if err != nil {
		return nil, s.participationErr(err)
	}
	return participation, nil
}

func (s *ParticipationService) participationErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return mapErr(domain.ErrNotJoined)
	}
	return err
}

var joinRejectReasons = []struct {
	err    error
	reason string
}{
	{domain.ErrEventNotFound, "not_found"},
	{domain.ErrEventClosed, "closed"},
	{domain.ErrEventLocked, "locked"},
	{domain.ErrEventEnded, "ended"},
	{domain.ErrEventFull, "full"},
	{domain.ErrAlreadyJoined, "duplicate"},
}

func (s *ParticipationService) recordRejected(err error) {
	if s.recorder == nil {
		return
	}
	reason := "error"
	for _, entry := range joinRejectReasons {
		if errors.Is(err, entry.err) {
			reason = entry.reason
			break
		}
	}
	s.recorder.RecordJoinRejected(reason)
}

func (s *ParticipationService) publish(ctx context.Context, eventType events.EventType, participation *domain.Participation) {
	if s.dispatcher == nil {
		return
	}
	eventID, userID := participation.EventID, participation.UserID
	if err := s.dispatcher.Publish(ctx, events.Event{
		Type:    eventType,
		ActorID: &userID,
		EventID: &eventID,
		Payload: events.ParticipationPayload{
			UserID: userID,
			Role:   participation.Role,
			Status: participation.Status,
		},
	}); err != nil {
		s.logger.Warn("publish participation event failed",
			zap.String("type", string(eventType)),
			zap.Int64("event_id", eventID),
			zap.Error(err))
	}
}
