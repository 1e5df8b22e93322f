package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deptevents/event-registration/internal/config"
	"github.com/deptevents/event-registration/internal/events"
	"github.com/deptevents/event-registration/internal/repository/repotest"
	apperrors "github.com/deptevents/event-registration/pkg/util/errorutil"
)

var ict = time.FixedZone("ICT", 7*3600)

func testConfig() config.Config {
	return config.Config{
		App: config.AppConfig{BaseURL: "http://localhost:8080/"},
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   60,
			VerifyTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 30,
			BcryptCost:              4,
			AllowedEmailDomain:      "gmail.com",
		},
		Schedule: config.ScheduleConfig{ListLimit: 20, CompletionWindowHours: 72},
	}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(t time.Time) *testClock { return &testClock{now: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type capturedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func capture(dispatcher events.Dispatcher, types ...events.EventType) *capturedEvents {
	c := &capturedEvents{}
	for _, eventType := range types {
		dispatcher.Subscribe(eventType, func(_ context.Context, event events.Event) error {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.events = append(c.events, event)
			return nil
		})
	}
	return c
}

func (c *capturedEvents) Types() []events.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]events.EventType, 0, len(c.events))
	for _, e := range c.events {
		types = append(types, e.Type)
	}
	return types
}

func (c *capturedEvents) Last() events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events[len(c.events)-1]
}

func newStore(clock *testClock) *repotest.Store {
	store := repotest.NewStore()
	store.Now = clock.Now
	return store
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %T: %v", err, err)
	require.Equal(t, status, de.HTTPStatus, de.Error())
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	requireStatus(t, err, http.StatusBadRequest)
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de))
	require.Equal(t, field, de.Details["field"])
}

func ptr[T any](v T) *T { return &v }
