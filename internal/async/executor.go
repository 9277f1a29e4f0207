package async

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Executor bounds the number of concurrently executing offloaded work
// units. Blocking native-engine calls (decode, render, pixel conversion)
// all run through one of these.
type Executor struct {
	sem *semaphore.Weighted
}

// NewExecutor returns an executor admitting at most limit concurrent work
// units. limit <= 0 falls back to GOMAXPROCS.
func NewExecutor(limit int) *Executor {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	return &Executor{sem: semaphore.NewWeighted(int64(limit))}
}

var (
	defaultExecutor *Executor
	defaultExecOnce sync.Once
)

// DefaultExecutor returns the process-wide executor used when callers do
// not supply their own.
func DefaultExecutor() *Executor {
	defaultExecOnce.Do(func() {
		defaultExecutor = NewExecutor(0)
	})
	return defaultExecutor
}

// acquire blocks until a slot is free or ctx is done.
func (e *Executor) acquire(ctx context.Context) error {
	return e.sem.Acquire(ctx, 1)
}

func (e *Executor) release() {
	e.sem.Release(1)
}
