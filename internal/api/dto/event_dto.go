package dto

import (
	"time"

	"github.com/deptevents/event-registration/internal/domain"
)

// DayLayout is the wire format of event days.
const DayLayout = "2006-01-02"

// EventCreateRequest payload for new events.
type EventCreateRequest struct {
	Name            string  `json:"name"`
	SchoolName      *string `json:"school_name"`
	Day             string  `json:"day_start"`
	StartPeriod     int     `json:"start_period"`
	EndPeriod       int     `json:"end_period"`
	MaxUserJoined   int     `json:"max_user_joined"`
	NumberOfStudent int     `json:"number_of_student"`
}

// EventUpdateRequest carries optional event changes.
type EventUpdateRequest struct {
	Name            *string `json:"name"`
	SchoolName      *string `json:"school_name"`
	Day             *string `json:"day_start"`
	StartPeriod     *int    `json:"start_period"`
	EndPeriod       *int    `json:"end_period"`
	MaxUserJoined   *int    `json:"max_user_joined"`
	NumberOfStudent *int    `json:"number_of_student"`
}

// JoinRequest selects the role to join an event with.
type JoinRequest struct {
	Role string `json:"role"`
}

// AttendanceRequest sets a participant's attendance.
type AttendanceRequest struct {
	Status string `json:"status"`
}

// EventResponse is the admin projection of a stored event.
type EventResponse struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	SchoolName      *string   `json:"school_name"`
	Day             string    `json:"day_start"`
	StartPeriod     int       `json:"start_period"`
	EndPeriod       int       `json:"end_period"`
	MaxUserJoined   int       `json:"max_user_joined"`
	NumberOfStudent int       `json:"number_of_student"`
	Status          string    `json:"status"`
	IsLocked        bool      `json:"is_locked"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewEventResponse maps an event.
func NewEventResponse(event *domain.Event) EventResponse {
	return EventResponse{
		ID:              event.ID,
		Name:            event.Name,
		SchoolName:      event.SchoolName,
		Day:             event.Day.Format(DayLayout),
		StartPeriod:     event.StartPeriod,
		EndPeriod:       event.EndPeriod,
		MaxUserJoined:   event.MaxUserJoined,
		NumberOfStudent: event.NumberOfStudent,
		Status:          string(event.Status),
		IsLocked:        event.IsLocked,
		CreatedAt:       event.CreatedAt,
		UpdatedAt:       event.UpdatedAt,
	}
}

// ParticipationResponse is the projection of one join row.
type ParticipationResponse struct {
	EventID   int64     `json:"event_id"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// NewParticipationResponse maps a participation.
func NewParticipationResponse(p *domain.Participation) ParticipationResponse {
	return ParticipationResponse{
		EventID:   p.EventID,
		UserID:    p.UserID,
		Role:      string(p.Role),
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
	}
}

// NewParticipationResponses maps a list of participations.
func NewParticipationResponses(list []domain.Participation) []ParticipationResponse {
	result := make([]ParticipationResponse, 0, len(list))
	for i := range list {
		result = append(result, NewParticipationResponse(&list[i]))
	}
	return result
}
