package service

import (
	"errors"
	"net/http"

	"github.com/deptevents/event-registration/internal/domain"
	"github.com/deptevents/event-registration/internal/schedule"
	apperrors "github.com/deptevents/event-registration/pkg/util/errorutil"
)

var errorStatus = []struct {
	err    error
	code   string
	status int
}{
	{domain.ErrEventNotFound, "NOT_FOUND", http.StatusNotFound},
	{domain.ErrUserNotFound, "NOT_FOUND", http.StatusNotFound},
	{domain.ErrNotJoined, "NOT_FOUND", http.StatusNotFound},
	{domain.ErrEventClosed, "CONFLICT", http.StatusConflict},
	{domain.ErrEventLocked, "CONFLICT", http.StatusConflict},
	{domain.ErrEventEnded, "CONFLICT", http.StatusConflict},
	{domain.ErrEventNotEnded, "CONFLICT", http.StatusConflict},
	{domain.ErrEventFull, "CONFLICT", http.StatusConflict},
	{domain.ErrAlreadyJoined, "CONFLICT", http.StatusConflict},
	{domain.ErrAlreadyAttended, "CONFLICT", http.StatusConflict},
	{domain.ErrEmailTaken, "CONFLICT", http.StatusConflict},
	{domain.ErrCapacityBelowCount, "CONFLICT", http.StatusConflict},
	{domain.ErrInvalidCredentials, "UNAUTHORIZED", http.StatusUnauthorized},
	{domain.ErrAccountNotVerified, "FORBIDDEN", http.StatusForbidden},
	{domain.ErrTokenInvalid, "VALIDATION_FAILED", http.StatusBadRequest},
	{schedule.ErrInvalidInput, "VALIDATION_FAILED", http.StatusBadRequest},
}

// mapErr converts domain sentinels into DomainErrors carrying an HTTP status.
// Other errors pass through untouched.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return err
	}
	for _, entry := range errorStatus {
		if errors.Is(err, entry.err) {
			return apperrors.Wrap(err, entry.code, entry.status)
		}
	}
	return err
}

func validationErr(field, message string) error {
	return apperrors.NewValidationError(message, map[string]any{"field": field})
}
