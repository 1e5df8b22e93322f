package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingFinisher struct {
	calls atomic.Int32
	err   error
}

func (f *countingFinisher) FinishEnded(context.Context) (int, error) {
	f.calls.Add(1)
	return 1, f.err
}

func TestFinishSweeperRunsUntilCancelled(t *testing.T) {
	finisher := &countingFinisher{}
	sweeper := NewFinishSweeper(finisher, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return finisher.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestFinishSweeperDisabled(t *testing.T) {
	finisher := &countingFinisher{}
	NewFinishSweeper(finisher, 0, nil).Run(context.Background())
	assert.Equal(t, int32(0), finisher.calls.Load())
}

func TestFinishSweeperSurvivesErrors(t *testing.T) {
	finisher := &countingFinisher{err: errors.New("db down")}
	sweeper := NewFinishSweeper(finisher, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx)

	assert.Eventually(t, func() bool { return finisher.calls.Load() >= 2 }, time.Second, time.Millisecond)
}
