package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deptevents/event-registration/internal/domain"
)

func baseEvent() *domain.Event {
	school := "THCS Le Loi"
	return &domain.Event{
		ID:              1,
		Name:            "Robotics",
		SchoolName:      &school,
		Day:             time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
		StartPeriod:     1,
		EndPeriod:       1,
		MaxUserJoined:   30,
		NumberOfStudent: 40,
		Status:          domain.EventStatusOngoing,
	}
}

func participant(userID int64, name string, role domain.ParticipationRole, status domain.AttendanceStatus) domain.Participation {
	return domain.Participation{
		EventID: 1,
		UserID:  userID,
		Role:    role,
		Status:  status,
		User:    &domain.UserSnapshot{ID: userID, FullName: name},
	}
}

func ptr[T any](v T) *T { return &v }

func at(hour, minute int) time.Time {
	return time.Date(2024, time.March, 10, hour, minute, 0, 0, time.UTC)
}

func TestBuildEmptyEventBeforeStart(t *testing.T) {
	b := NewBuilder(time.UTC, nil)

	view, err := b.Build(baseEvent(), nil, ptr(int64(5)), at(7, 0))
	require.NoError(t, err)

	assert.False(t, view.IsEnded)
	assert.False(t, view.IsFull)
	assert.Equal(t, Placeholder, view.Instructors)
	assert.Equal(t, Placeholder, view.TAs)
	assert.Equal(t, 0, view.CurrentCount)
	assert.False(t, view.IsJoined)
	assert.Nil(t, view.UserRole)
	assert.Nil(t, view.AttendanceStatus)
}

func TestBuildEndedAfterLastPeriod(t *testing.T) {
	b := NewBuilder(time.UTC, nil)

	view, err := b.Build(baseEvent(), nil, nil, at(9, 0))
	require.NoError(t, err)
	assert.True(t, view.IsEnded)
}

func TestBuildEndIsStrict(t *testing.T) {
	b := NewBuilder(time.UTC, nil)

	view, err := b.Build(baseEvent(), nil, nil, at(8, 0))
	require.NoError(t, err)
	assert.False(t, view.IsEnded, "an event ending exactly now has not ended")

	view, err = b.Build(baseEvent(), nil, nil, at(8, 0).Add(time.Nanosecond))
	require.NoError(t, err)
	assert.True(t, view.IsEnded)
}

func TestBuildUnknownEndPeriodEndsLate(t *testing.T) {
	event := baseEvent()
	event.EndPeriod = 13

	view, err := NewBuilder(time.UTC, nil).Build(event, nil, nil, at(23, 0))
	require.NoError(t, err)
	assert.False(t, view.IsEnded)
	assert.Equal(t, at(23, 59), view.EndsAt)
}

func TestBuildViewerJoined(t *testing.T) {
	participants := []domain.Participation{
		participant(5, "Nguyen A", domain.ParticipationRoleInstructor, domain.AttendanceRegistered),
	}

	view, err := NewBuilder(time.UTC, nil).Build(baseEvent(), participants, ptr(int64(5)), at(7, 0))
	require.NoError(t, err)

	assert.True(t, view.IsJoined)
	require.NotNil(t, view.UserRole)
	assert.Equal(t, domain.ParticipationRoleInstructor, *view.UserRole)
	require.NotNil(t, view.AttendanceStatus)
	assert.Equal(t, domain.AttendanceRegistered, *view.AttendanceStatus)
	assert.Equal(t, "Nguyen A", view.Instructors)
	assert.Equal(t, Placeholder, view.TAs)
}

func TestBuildViewerNotAmongParticipants(t *testing.T) {
	participants := []domain.Participation{
		participant(5, "Nguyen A", domain.ParticipationRoleInstructor, domain.AttendanceRegistered),
	}

	view, err := NewBuilder(time.UTC, nil).Build(baseEvent(), participants, ptr(int64(6)), at(7, 0))
	require.NoError(t, err)
	assert.False(t, view.IsJoined)
	assert.Nil(t, view.UserRole)
	assert.Nil(t, view.AttendanceStatus)
}

func TestBuildAnonymousViewerStillSeesNames(t *testing.T) {
	participants := []domain.Participation{
		participant(5, "Nguyen A", domain.ParticipationRoleInstructor, domain.AttendanceAttended),
		participant(7, "Tran B", domain.ParticipationRoleTeachingAssistant, domain.AttendanceRegistered),
		participant(8, "Le C", domain.ParticipationRoleTeachingAssistant, domain.AttendanceRegistered),
	}

	view, err := NewBuilder(time.UTC, nil).Build(baseEvent(), participants, nil, at(7, 0))
	require.NoError(t, err)
	assert.False(t, view.IsJoined)
	assert.Equal(t, "Nguyen A", view.Instructors)
	assert.Equal(t, "Tran B, Le C", view.TAs)
	assert.Equal(t, 3, view.CurrentCount)
}

func TestBuildParticipantWithoutUserCountsButIsUnnamed(t *testing.T) {
	participants := []domain.Participation{
		{EventID: 1, UserID: 9, Role: domain.ParticipationRoleInstructor, Status: domain.AttendanceRegistered},
	}

	view, err := NewBuilder(time.UTC, nil).Build(baseEvent(), participants, ptr(int64(9)), at(7, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, view.CurrentCount)
	assert.Equal(t, Placeholder, view.Instructors)
	assert.True(t, view.IsJoined)
}

func TestBuildFullAtCapacity(t *testing.T) {
	event := baseEvent()
	event.MaxUserJoined = 1
	participants := []domain.Participation{
		participant(5, "Nguyen A", domain.ParticipationRoleInstructor, domain.AttendanceRegistered),
	}

	view, err := NewBuilder(time.UTC, nil).Build(event, participants, nil, at(7, 0))
	require.NoError(t, err)
	assert.True(t, view.IsFull)
}

func TestBuildFullnessIsMonotonic(t *testing.T) {
	event := baseEvent()
	event.MaxUserJoined = 3
	b := NewBuilder(time.UTC, nil)

	var participants []domain.Participation
	wasFull := false
	for i := int64(1); i <= 6; i++ {
		view, err := b.Build(event, participants, nil, at(7, 0))
		require.NoError(t, err)
		assert.Equal(t, len(participants), view.CurrentCount)
		assert.Equal(t, view.CurrentCount >= event.MaxUserJoined, view.IsFull)
		if wasFull {
			assert.True(t, view.IsFull)
		}
		wasFull = view.IsFull
		participants = append(participants, participant(i, "P", domain.ParticipationRoleTeachingAssistant, domain.AttendanceRegistered))
	}
}

func TestBuildLabels(t *testing.T) {
	event := baseEvent()
	event.StartPeriod = 2
	event.EndPeriod = 3

	view, err := NewBuilder(time.UTC, func(start, end int) string {
		return "(Tiết " + string(rune('0'+start)) + "-" + string(rune('0'+end)) + ")"
	}).Build(event, nil, nil, at(7, 0))
	require.NoError(t, err)

	assert.Equal(t, "10/03/2024", view.DayStr)
	assert.Equal(t, "8h00 - 10h00", view.TimeStr)
	assert.Equal(t, "8h00 - 9h00", view.TimeStrRaw)
	assert.Equal(t, "(Tiết 2-3)", view.PeriodDetail)
	assert.Equal(t, "THCS Le Loi", view.SchoolName)
	assert.Equal(t, 40, view.StudentCount)
}

func TestBuildDefaultPeriodDetail(t *testing.T) {
	var b Builder

	view, err := b.Build(baseEvent(), nil, nil, at(7, 0))
	require.NoError(t, err)
	assert.Equal(t, "(Period 1-1)", view.PeriodDetail)
}

func TestBuildIsIdempotent(t *testing.T) {
	participants := []domain.Participation{
		participant(5, "Nguyen A", domain.ParticipationRoleInstructor, domain.AttendanceRegistered),
		participant(6, "Tran B", domain.ParticipationRoleTeachingAssistant, domain.AttendanceAttended),
	}
	b := NewBuilder(time.UTC, nil)

	first, err := b.Build(baseEvent(), participants, ptr(int64(6)), at(9, 30))
	require.NoError(t, err)
	second, err := b.Build(baseEvent(), participants, ptr(int64(6)), at(9, 30))
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}

func TestBuildRejectsMalformedEvent(t *testing.T) {
	b := NewBuilder(time.UTC, nil)

	_, err := b.Build(nil, nil, nil, at(7, 0))
	assert.ErrorIs(t, err, ErrInvalidInput)

	noCapacity := baseEvent()
	noCapacity.MaxUserJoined = 0
	_, err = b.Build(noCapacity, nil, nil, at(7, 0))
	assert.ErrorIs(t, err, ErrInvalidInput)

	reversed := baseEvent()
	reversed.StartPeriod, reversed.EndPeriod = 4, 2
	_, err = b.Build(reversed, nil, nil, at(7, 0))
	assert.ErrorIs(t, err, ErrInvalidInput)

	noDay := baseEvent()
	noDay.Day = time.Time{}
	_, err = b.Build(noDay, nil, nil, at(7, 0))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBuildAllWrapsEventID(t *testing.T) {
	bad := *baseEvent()
	bad.ID = 42
	bad.MaxUserJoined = 0
	events := []domain.EventWithParticipants{{Event: *baseEvent()}, {Event: bad}}

	_, err := NewBuilder(time.UTC, nil).BuildAll(events, nil, at(7, 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "event 42")

	views, err := NewBuilder(time.UTC, nil).BuildAll(events[:1], nil, at(7, 0))
	require.NoError(t, err)
	assert.Len(t, views, 1)
}
