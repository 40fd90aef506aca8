package pipeline

import (
	"context"
	"log"
	"sync"
)

// Inline runs pipeline passes in-process instead of through Redis. It backs
// single-process deployments and tests that need to await completion without
// changing the non-blocking enqueue contract.
type Inline struct {
	runner *Runner
	wg     sync.WaitGroup
}

// NewInline wires an in-process pipeline.
func NewInline(runner *Runner) *Inline {
	return &Inline{runner: runner}
}

// EnqueueMatchDispatch starts the pass in a goroutine and returns
// immediately. A fresh context is used: the triggering HTTP request's
// context dies as soon as its response is written.
func (i *Inline) EnqueueMatchDispatch(ctx context.Context, requestID string) error {
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		if err := i.runner.Run(context.Background(), requestID); err != nil {
			log.Printf("[pipeline] match dispatch for %s failed: %v", requestID, err)
		}
	}()
	return nil
}

// Wait blocks until every enqueued pass has settled.
func (i *Inline) Wait() {
	i.wg.Wait()
}
