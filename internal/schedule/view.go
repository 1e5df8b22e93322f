package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deptevents/event-registration/internal/domain"
)

// ErrInvalidInput is returned for a missing or malformed event.
var ErrInvalidInput = errors.New("invalid event input")

// Placeholder is shown when an event has no instructor or no assistant.
const Placeholder = "---"

const dayLayout = "02/01/2006"

// EventView is the presentation projection of one event for one viewer.
type EventView struct {
	EventID          int64                     `json:"event_id"`
	DayStr           string                    `json:"day_str"`
	TimeStr          string                    `json:"time_str"`
	TimeStrRaw       string                    `json:"time_str_raw"`
	PeriodDetail     string                    `json:"period_detail"`
	StartPeriod      int                       `json:"start_period"`
	EndPeriod        int                       `json:"end_period"`
	SchoolName       string                    `json:"school_name"`
	Name             string                    `json:"name"`
	StudentCount     int                       `json:"student_count"`
	Instructors      string                    `json:"instructors"`
	TAs              string                    `json:"tas"`
	IsJoined         bool                      `json:"is_joined"`
	UserRole         *domain.ParticipationRole `json:"user_role"`
	AttendanceStatus *domain.AttendanceStatus  `json:"attendance_status"`
	IsEnded          bool                      `json:"is_ended"`
	EndsAt           time.Time                 `json:"ends_at"`
	CurrentCount     int                       `json:"current_count"`
	MaxUserJoined    int                       `json:"max_user_joined"`
	IsFull           bool                      `json:"is_full"`
	IsLocked         bool                      `json:"is_locked"`
	Status           domain.EventStatus        `json:"status"`
}

// PeriodDetailFunc renders the "(Period 1-2)" label. It lets callers localize
// the text without the builder knowing about languages.
type PeriodDetailFunc func(start, end int) string

// DefaultPeriodDetail renders the label in English.
func DefaultPeriodDetail(start, end int) string {
	return fmt.Sprintf("(Period %d-%d)", start, end)
}

// Builder projects events into views. The zero value uses UTC and the English
// period label.
type Builder struct {
	Location     *time.Location
	PeriodDetail PeriodDetailFunc
}

// NewBuilder returns a builder for loc.
func NewBuilder(loc *time.Location, detail PeriodDetailFunc) *Builder {
	return &Builder{Location: loc, PeriodDetail: detail}
}

// Build derives the view of event for viewerID at now. A nil viewerID means
// an anonymous caller: name lists and capacity flags are still computed but the
// join fields stay at their zero values.
func (b *Builder) Build(event *domain.Event, participants []domain.Participation, viewerID *int64, now time.Time) (EventView, error) {
	if err := validate(event); err != nil {
		return EventView{}, err
	}

	var instructors, tas []string
	var mine *domain.Participation
	for i := range participants {
		p := &participants[i]
		if viewerID != nil && mine == nil && p.UserID == *viewerID {
			mine = p
		}
		if p.User == nil {
			continue
		}
		switch p.Role {
		case domain.ParticipationRoleInstructor:
			instructors = append(instructors, p.User.FullName)
		case domain.ParticipationRoleTeachingAssistant:
			tas = append(tas, p.User.FullName)
		}
	}

	endsAt := EndInstant(event.Day, event.EndPeriod, b.location())
	count := len(participants)

	view := EventView{
		EventID:       event.ID,
		DayStr:        event.Day.Format(dayLayout),
		TimeStr:       PeriodStartLabel(event.StartPeriod) + " - " + PeriodStartLabel(event.EndPeriod+1),
		TimeStrRaw:    PeriodStartLabel(event.StartPeriod) + " - " + PeriodStartLabel(event.EndPeriod),
		PeriodDetail:  b.periodDetail(event.StartPeriod, event.EndPeriod),
		StartPeriod:   event.StartPeriod,
		EndPeriod:     event.EndPeriod,
		SchoolName:    event.SchoolDisplayName(),
		Name:          event.Name,
		StudentCount:  event.NumberOfStudent,
		Instructors:   joinNames(instructors),
		TAs:           joinNames(tas),
		IsEnded:       now.After(endsAt),
		EndsAt:        endsAt,
		CurrentCount:  count,
		MaxUserJoined: event.MaxUserJoined,
		IsFull:        count >= event.MaxUserJoined,
		IsLocked:      event.IsLocked,
		Status:        event.Status,
	}
	if mine != nil {
		role := mine.Role
		status := mine.Status
		view.IsJoined = true
		view.UserRole = &role
		view.AttendanceStatus = &status
	}
	return view, nil
}

// BuildAll builds a view for every event, stopping at the first malformed one.
func (b *Builder) BuildAll(events []domain.EventWithParticipants, viewerID *int64, now time.Time) ([]EventView, error) {
	views := make([]EventView, 0, len(events))
	for i := range events {
		view, err := b.Build(&events[i].Event, events[i].Participants, viewerID, now)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", events[i].Event.ID, err)
		}
		views = append(views, view)
	}
	return views, nil
}

func (b *Builder) location() *time.Location {
	if b == nil || b.Location == nil {
		return time.UTC
	}
	return b.Location
}

func (b *Builder) periodDetail(start, end int) string {
	if b == nil || b.PeriodDetail == nil {
		return DefaultPeriodDetail(start, end)
	}
	return b.PeriodDetail(start, end)
}

func validate(event *domain.Event) error {
	switch {
	case event == nil:
		return fmt.Errorf("%w: missing event", ErrInvalidInput)
	case event.Day.IsZero():
		return fmt.Errorf("%w: missing day", ErrInvalidInput)
	case event.MaxUserJoined < 1:
		return fmt.Errorf("%w: capacity must be at least 1", ErrInvalidInput)
	case event.EndPeriod < event.StartPeriod:
		return fmt.Errorf("%w: end period before start period", ErrInvalidInput)
	}
	return nil
}

func joinNames(names []string) string {
	if len(names) == 0 {
		return Placeholder
	}
	return strings.Join(names, ", ")
}
