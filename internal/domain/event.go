package domain

import "time"

// EventStatus enumerates lifecycle states for events. Deletion is a status,
// rows are never removed.
type EventStatus string

const (
	EventStatusOngoing  EventStatus = "ongoing"
	EventStatusFinished EventStatus = "finished"
	EventStatusDeleted  EventStatus = "deleted"
)

// Valid reports whether the status is known.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusOngoing, EventStatusFinished, EventStatusDeleted:
		return true
	}
	return false
}

const (
	MinPeriod = 1
	MaxPeriod = 12
)

// Event is one scheduled class session spanning a range of periods on a day.
type Event struct {
	ID              int64
	Name            string
	SchoolName      *string
	Day             time.Time
	StartPeriod     int
	EndPeriod       int
	MaxUserJoined   int
	NumberOfStudent int
	Status          EventStatus
	IsLocked        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SchoolDisplayName returns the school name or an empty string.
func (e *Event) SchoolDisplayName() string {
	if e == nil || e.SchoolName == nil {
		return ""
	}
	return *e.SchoolName
}

// Joinable reports whether the status and lock flag allow new participations.
// Capacity and end time are checked separately.
func (e *Event) Joinable() bool {
	return e.Status == EventStatusOngoing && !e.IsLocked
}

// EventWithParticipants is an event together with its fully loaded
// participation rows.
type EventWithParticipants struct {
	Event        Event
	Participants []Participation
}
