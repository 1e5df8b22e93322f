package events

import (
	"time"

	"github.com/deptevents/event-registration/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered         EventType = "user_registered"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventParticipationJoined    EventType = "participation_joined"
	EventParticipationLeft      EventType = "participation_left"
	EventAttendanceMarked       EventType = "attendance_marked"
	EventEventFinished          EventType = "event_finished"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   *int64      `json:"actor_id,omitempty"`
	EventID   *int64      `json:"event_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload carries the verification link to mail.
type UserRegisteredPayload struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	VerifyURL string    `json:"verify_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PasswordResetRequestedPayload carries the reset token to mail.
type PasswordResetRequestedPayload struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ParticipationPayload describes a join, leave or attendance change.
type ParticipationPayload struct {
	UserID int64                    `json:"user_id"`
	Role   domain.ParticipationRole `json:"role"`
	Status domain.AttendanceStatus  `json:"status"`
}

// EventFinishedPayload is emitted by the finish sweeper.
type EventFinishedPayload struct {
	Name   string    `json:"name"`
	EndsAt time.Time `json:"ends_at"`
}
