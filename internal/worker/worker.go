package worker

import (
	"context"
	"sync"
)

// HandlerRegistrar subscribes its handlers to the event dispatcher.
type HandlerRegistrar interface {
	RegisterHandlers()
}

// Start subscribes the notification handlers and runs the finish sweeper until
// ctx is cancelled. The returned function blocks until the sweeper has stopped.
func Start(ctx context.Context, notifications HandlerRegistrar, sweeper *FinishSweeper) (wait func()) {
	if notifications != nil {
		notifications.RegisterHandlers()
	}

	var wg sync.WaitGroup
	if sweeper != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sweeper.Run(ctx)
		}()
	}
	return wg.Wait
}
