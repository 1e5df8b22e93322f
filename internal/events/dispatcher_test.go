package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []string
	boom := errors.New("boom")

	d.Subscribe(EventParticipationJoined, func(_ context.Context, e Event) error {
		seen = append(seen, "first:"+string(e.Type))
		return boom
	})
	d.Subscribe(EventParticipationJoined, func(_ context.Context, e Event) error {
		seen = append(seen, "second")
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
		return nil
	})
	d.Subscribe(EventAttendanceMarked, func(context.Context, Event) error {
		t.Fatal("unexpected handler")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventParticipationJoined})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first:participation_joined", "second"}, seen)
}

func TestPublishWithoutListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventEventFinished}))
}

func TestPublishRecoversHandlerPanic(t *testing.T) {
	d := NewInMemoryDispatcher()
	ran := false
	d.Subscribe(EventUserRegistered, func(context.Context, Event) error {
		panic("template missing")
	})
	d.Subscribe(EventUserRegistered, func(context.Context, Event) error {
		ran = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventUserRegistered})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template missing")
	assert.True(t, ran)
}
