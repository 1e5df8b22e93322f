package domain

import "time"

// ParticipationRole is the role a user takes in an event.
type ParticipationRole string

const (
	ParticipationRoleInstructor        ParticipationRole = "instructor"
	ParticipationRoleTeachingAssistant ParticipationRole = "teaching_assistant"
)

// Valid reports whether the role is known.
func (r ParticipationRole) Valid() bool {
	return r == ParticipationRoleInstructor || r == ParticipationRoleTeachingAssistant
}

// AttendanceStatus tracks whether a participant actually attended.
type AttendanceStatus string

const (
	AttendanceRegistered AttendanceStatus = "registered"
	AttendanceAttended   AttendanceStatus = "attended"
)

// Valid reports whether the status is known.
func (s AttendanceStatus) Valid() bool {
	return s == AttendanceRegistered || s == AttendanceAttended
}

// Participation links one user to one event. At most one row exists per
// (event, user) pair.
type Participation struct {
	EventID   int64
	UserID    int64
	Role      ParticipationRole
	Status    AttendanceStatus
	User      *UserSnapshot
	CreatedAt time.Time
	UpdatedAt time.Time
}
