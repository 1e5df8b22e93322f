package domain

import "errors"

// Domain errors.
var (
	ErrEventNotFound      = errors.New("event not found")
	ErrEventClosed        = errors.New("event is not open for registration")
	ErrEventLocked        = errors.New("event is locked")
	ErrEventEnded         = errors.New("event has already ended")
	ErrEventNotEnded      = errors.New("event has not ended yet")
	ErrEventFull          = errors.New("event is full")
	ErrAlreadyJoined      = errors.New("user already joined this event")
	ErrNotJoined          = errors.New("user has not joined this event")
	ErrAlreadyAttended    = errors.New("attendance already recorded")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotVerified = errors.New("account not verified")
	ErrTokenInvalid       = errors.New("token expired or used")
	ErrUserNotFound       = errors.New("user not found")
	ErrCapacityBelowCount = errors.New("capacity cannot be lower than the number of participants")
)
