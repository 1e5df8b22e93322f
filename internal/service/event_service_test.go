package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deptevents/event-registration/internal/domain"
	"github.com/deptevents/event-registration/internal/events"
	"github.com/deptevents/event-registration/internal/repository/repotest"
)

func newEventFixture(t *testing.T) (*EventService, *repotest.Store, *testClock, *capturedEvents) {
	t.Helper()
	clock := newClock(time.Date(2024, 3, 1, 9, 0, 0, 0, ict))
	store := newStore(clock)
	dispatcher := events.NewInMemoryDispatcher()
	captured := capture(dispatcher, events.EventEventFinished)
	svc := NewEventService(testConfig(), EventDependencies{
		EventRepo:  store.Events(),
		Dispatcher: dispatcher,
		Location:   ict,
		Clock:      clock.Now,
	})
	return svc, store, clock, captured
}

func validInput() EventInput {
	return EventInput{
		Name:            "Math 101",
		SchoolName:      ptr("Le Loi"),
		Day:             time.Date(2024, 3, 10, 15, 30, 0, 0, ict),
		StartPeriod:     1,
		EndPeriod:       2,
		MaxUserJoined:   2,
		NumberOfStudent: 30,
	}
}

func TestCreateEvent(t *testing.T) {
	svc, _, _, _ := newEventFixture(t)

	event, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotZero(t, event.ID)
	assert.Equal(t, domain.EventStatusOngoing, event.Status)
	assert.False(t, event.IsLocked)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, ict), event.Day)
	assert.Equal(t, "Le Loi", event.SchoolDisplayName())
}

func TestCreateEventValidation(t *testing.T) {
	svc, _, _, _ := newEventFixture(t)

	cases := []struct {
		field  string
		mutate func(*EventInput)
	}{
		{"name", func(in *EventInput) { in.Name = "  " }},
		{"day", func(in *EventInput) { in.Day = time.Time{} }},
		{"start_period", func(in *EventInput) { in.StartPeriod = 0 }},
		{"end_period", func(in *EventInput) { in.EndPeriod = 13 }},
		{"end_period", func(in *EventInput) { in.StartPeriod, in.EndPeriod = 5, 3 }},
		{"max_user_joined", func(in *EventInput) { in.MaxUserJoined = 0 }},
		{"number_of_student", func(in *EventInput) { in.NumberOfStudent = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			_, err := svc.Create(context.Background(), input)
			requireValidation(t, err, tc.field)
		})
	}
}

func TestUpdateEventCapacityBelowCount(t *testing.T) {
	svc, store, _, _ := newEventFixture(t)
	ctx := context.Background()
	event, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	store.AddParticipation(domain.Participation{EventID: event.ID, UserID: 100, Role: domain.ParticipationRoleInstructor, Status: domain.AttendanceRegistered})
	store.AddParticipation(domain.Participation{EventID: event.ID, UserID: 101, Role: domain.ParticipationRoleTeachingAssistant, Status: domain.AttendanceRegistered})

	_, err = svc.Update(ctx, event.ID, EventPatch{MaxUserJoined: ptr(1)})
	requireStatus(t, err, http.StatusConflict)
	assert.ErrorIs(t, err, domain.ErrCapacityBelowCount)

	updated, err := svc.Update(ctx, event.ID, EventPatch{MaxUserJoined: ptr(5), Name: ptr("Math 102"), SchoolName: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.MaxUserJoined)
	assert.Equal(t, "Math 102", store.Event(event.ID).Name)
	assert.Nil(t, updated.SchoolName)

	_, err = svc.Update(ctx, event.ID, EventPatch{EndPeriod: ptr(0)})
	requireValidation(t, err, "end_period")
}

func TestUpdateKeepsConcurrentLockAndCapacity(t *testing.T) {
	svc, store, _, _ := newEventFixture(t)
	ctx := context.Background()
	event, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	stale := store.Event(event.ID)
	require.NoError(t, svc.SetLocked(ctx, event.ID, true))
	store.AddParticipation(domain.Participation{EventID: event.ID, UserID: 100, Role: domain.ParticipationRoleInstructor, Status: domain.AttendanceRegistered})
	store.AddParticipation(domain.Participation{EventID: event.ID, UserID: 101, Role: domain.ParticipationRoleInstructor, Status: domain.AttendanceRegistered})

	stale.Name = "Renamed"
	stale.MaxUserJoined = 1
	err = store.Events().Update(ctx, &stale)
	assert.ErrorIs(t, err, domain.ErrCapacityBelowCount)

	stale.MaxUserJoined = 2
	require.NoError(t, store.Events().Update(ctx, &stale))
	assert.True(t, stale.IsLocked)
	assert.True(t, store.Event(event.ID).IsLocked)
	assert.Equal(t, "Renamed", store.Event(event.ID).Name)

	require.NoError(t, svc.Delete(ctx, event.ID))
	_, err = svc.Update(ctx, event.ID, EventPatch{Name: ptr("Ghost")})
	requireStatus(t, err, http.StatusNotFound)
}

func TestDeleteHidesEvent(t *testing.T) {
	svc, store, _, _ := newEventFixture(t)
	ctx := context.Background()
	event, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, event.ID))
	assert.Equal(t, domain.EventStatusDeleted, store.Event(event.ID).Status)

	_, err = svc.GetView(ctx, event.ID, nil, nil)
	requireStatus(t, err, http.StatusNotFound)

	views, err := svc.ListViews(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, views)

	err = svc.Delete(ctx, event.ID)
	requireStatus(t, err, http.StatusNotFound)
	err = svc.SetLocked(ctx, 404, true)
	requireStatus(t, err, http.StatusNotFound)
}

func TestListViewsOrdersAndRendersForViewer(t *testing.T) {
	svc, store, _, _ := newEventFixture(t)
	ctx := context.Background()
	viewer := store.AddUser(domain.User{Email: "v@gmail.com", FullName: ptr("Viewer"), Role: domain.UserRoleUser, Active: true})

	later := store.AddEvent(domain.Event{Name: "Later", Day: time.Date(2024, 3, 12, 0, 0, 0, 0, ict), StartPeriod: 1, EndPeriod: 2, MaxUserJoined: 2})
	earlier := store.AddEvent(domain.Event{Name: "Earlier", Day: time.Date(2024, 3, 5, 0, 0, 0, 0, ict), StartPeriod: 3, EndPeriod: 4, MaxUserJoined: 1})
	store.AddEvent(domain.Event{Name: "Gone", Day: time.Date(2024, 3, 6, 0, 0, 0, 0, ict), StartPeriod: 1, EndPeriod: 1, MaxUserJoined: 1, Status: domain.EventStatusDeleted})
	store.AddParticipation(domain.Participation{EventID: earlier.ID, UserID: viewer.ID, Role: domain.ParticipationRoleInstructor, Status: domain.AttendanceRegistered})

	detail := func(start, end int) string { return fmt.Sprintf("[%d..%d]", start, end) }
	views, err := svc.ListViews(ctx, &viewer.ID, detail)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, earlier.ID, views[0].EventID)
	assert.True(t, views[0].IsJoined)
	assert.True(t, views[0].IsFull)
	assert.Equal(t, "Viewer", views[0].Instructors)
	assert.Equal(t, "[3..4]", views[0].PeriodDetail)

	assert.Equal(t, later.ID, views[1].EventID)
	assert.False(t, views[1].IsJoined)
	assert.Equal(t, "---", views[1].Instructors)
}

func TestListViewsRespectsLimit(t *testing.T) {
	svc, store, _, _ := newEventFixture(t)
	for i := 0; i < 25; i++ {
		store.AddEvent(domain.Event{Name: "E", Day: time.Date(2024, 3, 1+i, 0, 0, 0, 0, ict), StartPeriod: 1, EndPeriod: 1, MaxUserJoined: 1})
	}
	views, err := svc.ListViews(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Len(t, views, 20)
}

func TestFinishPublishesOnce(t *testing.T) {
	svc, store, _, captured := newEventFixture(t)
	ctx := context.Background()
	event, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, svc.Finish(ctx, event.ID))
	require.NoError(t, svc.Finish(ctx, event.ID))
	assert.Equal(t, domain.EventStatusFinished, store.Event(event.ID).Status)
	assert.Equal(t, []events.EventType{events.EventEventFinished}, captured.Types())
}

func TestFinishEndedHonoursCompletionWindow(t *testing.T) {
	svc, store, clock, captured := newEventFixture(t)
	ctx := context.Background()
	event := store.AddEvent(domain.Event{Name: "Old", Day: time.Date(2024, 3, 1, 0, 0, 0, 0, ict), StartPeriod: 1, EndPeriod: 2, MaxUserJoined: 1})
	future := store.AddEvent(domain.Event{Name: "Future", Day: time.Date(2024, 3, 20, 0, 0, 0, 0, ict), StartPeriod: 1, EndPeriod: 2, MaxUserJoined: 1})

	clock.Set(time.Date(2024, 3, 4, 8, 59, 0, 0, ict))
	finished, err := svc.FinishEnded(ctx)
	require.NoError(t, err)
	assert.Zero(t, finished)

	clock.Set(time.Date(2024, 3, 4, 9, 1, 0, 0, ict))
	finished, err = svc.FinishEnded(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, finished)
	assert.Equal(t, domain.EventStatusFinished, store.Event(event.ID).Status)
	assert.Equal(t, domain.EventStatusOngoing, store.Event(future.ID).Status)
	assert.Equal(t, []events.EventType{events.EventEventFinished}, captured.Types())
}
