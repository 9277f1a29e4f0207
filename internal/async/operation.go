package async

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agenticmd/pdf2md/internal/domain"
)

// Operation is a promise-style wrapper around one long-running work unit.
// It moves from pending to exactly one terminal state (success or
// failure), fires registered callbacks on arrival there, and converts
// cancellation into a distinct cancelled-kind failure.
type Operation[T any] struct {
	name string
	log  zerolog.Logger

	mu        sync.Mutex
	started   bool
	completed bool
	cancelReq bool
	result    T
	err       error
	done      chan struct{}
	cancel    context.CancelFunc

	thenCbs   []func(T)
	catchCbs  []func(error)
	alwaysCbs []func()
}

// NewOperation creates a pending operation. The name is diagnostic only;
// an empty name gets a generated one.
func NewOperation[T any](name string, log zerolog.Logger) *Operation[T] {
	if name == "" {
		name = "operation-" + uuid.NewString()[:8]
	}
	return &Operation[T]{
		name: name,
		log:  log,
		done: make(chan struct{}),
	}
}

// StartOperation creates an operation and immediately schedules work on
// the executor.
func StartOperation[T any](ctx context.Context, exec *Executor, name string, log zerolog.Logger, work func(context.Context) (T, error)) *Operation[T] {
	op := NewOperation[T](name, log)
	op.Start(ctx, exec, work)
	return op
}

// Name returns the diagnostic operation name.
func (o *Operation[T]) Name() string { return o.name }

// Start schedules work on the executor and returns immediately. Work
// receives a context that Cancel aborts. Starting twice is a programming
// error and panics.
func (o *Operation[T]) Start(ctx context.Context, exec *Executor, work func(context.Context) (T, error)) {
	if exec == nil {
		exec = DefaultExecutor()
	}

	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		panic(fmt.Sprintf("async: operation %q started twice", o.name))
	}
	o.started = true
	workCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.mu.Unlock()

	go func() {
		defer cancel()
		if err := exec.acquire(workCtx); err != nil {
			o.fail(domain.CancelledError(fmt.Sprintf("operation %q was cancelled", o.name), err))
			return
		}
		defer exec.release()

		result, err := work(workCtx)
		if err != nil {
			if workCtx.Err() != nil {
				err = domain.CancelledError(fmt.Sprintf("operation %q was cancelled", o.name), err)
			}
			o.fail(err)
			return
		}
		o.complete(result)
	}()
}

// Then registers a success callback. If the operation already succeeded,
// the callback fires immediately, exactly once.
func (o *Operation[T]) Then(cb func(T)) *Operation[T] {
	o.mu.Lock()
	if o.completed && o.err == nil {
		result := o.result
		o.mu.Unlock()
		o.invoke(func() { cb(result) })
		return o
	}
	if !o.completed {
		o.thenCbs = append(o.thenCbs, cb)
	}
	o.mu.Unlock()
	return o
}

// Catch registers a failure callback. If the operation already failed,
// the callback fires immediately, exactly once.
func (o *Operation[T]) Catch(cb func(error)) *Operation[T] {
	o.mu.Lock()
	if o.completed && o.err != nil {
		err := o.err
		o.mu.Unlock()
		o.invoke(func() { cb(err) })
		return o
	}
	if !o.completed {
		o.catchCbs = append(o.catchCbs, cb)
	}
	o.mu.Unlock()
	return o
}

// Always registers a callback that fires on either terminal state.
func (o *Operation[T]) Always(cb func()) *Operation[T] {
	o.mu.Lock()
	if o.completed {
		o.mu.Unlock()
		o.invoke(cb)
		return o
	}
	o.alwaysCbs = append(o.alwaysCbs, cb)
	o.mu.Unlock()
	return o
}

// Await blocks until the operation reaches a terminal state, then returns
// the stored result or failure. A cancelled operation surfaces as a
// cancelled-kind error. Cancellation of ctx abandons the wait with a
// cancelled-kind error as well; the underlying work keeps running.
func (o *Operation[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-o.done:
		o.mu.Lock()
		defer o.mu.Unlock()
		return o.result, o.err
	case <-ctx.Done():
		var zero T
		return zero, domain.CancelledError(fmt.Sprintf("wait for operation %q abandoned", o.name), ctx.Err())
	}
}

// Cancel requests cancellation of the scheduled work. It reports whether
// the request was accepted, which it is not once the operation completed.
// Side effects already applied by the work are not undone.
func (o *Operation[T]) Cancel() bool {
	o.mu.Lock()
	if o.completed || o.cancel == nil {
		o.mu.Unlock()
		return false
	}
	o.cancelReq = true
	cancel := o.cancel
	o.mu.Unlock()
	cancel()
	return true
}

// Completed reports whether the operation reached a terminal state.
func (o *Operation[T]) Completed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.completed
}

// Result returns the terminal result and error. Before completion it
// returns the zero value and nil.
func (o *Operation[T]) Result() (T, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result, o.err
}

func (o *Operation[T]) complete(result T) {
	o.mu.Lock()
	if o.completed {
		o.mu.Unlock()
		return
	}
	if o.cancelReq {
		// Cancellation raced completion: the work finished but the
		// caller asked out, so the operation resolves cancelled.
		o.mu.Unlock()
		o.fail(domain.CancelledError(fmt.Sprintf("operation %q was cancelled", o.name), nil))
		return
	}
	o.completed = true
	o.result = result
	thens := o.thenCbs
	always := o.alwaysCbs
	o.thenCbs, o.catchCbs, o.alwaysCbs = nil, nil, nil
	close(o.done)
	o.mu.Unlock()

	for _, cb := range thens {
		o.invoke(func() { cb(result) })
	}
	for _, cb := range always {
		o.invoke(cb)
	}
}

func (o *Operation[T]) fail(err error) {
	o.mu.Lock()
	if o.completed {
		o.mu.Unlock()
		return
	}
	o.completed = true
	o.err = err
	catches := o.catchCbs
	always := o.alwaysCbs
	o.thenCbs, o.catchCbs, o.alwaysCbs = nil, nil, nil
	close(o.done)
	o.mu.Unlock()

	for _, cb := range catches {
		o.invoke(func() { cb(err) })
	}
	for _, cb := range always {
		o.invoke(cb)
	}
}

// invoke runs a callback, containing panics so a broken callback can
// never mask the operation's own state.
func (o *Operation[T]) invoke(cb func()) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().
				Str("operation", o.name).
				Interface("panic", r).
				Msg("operation callback panicked")
		}
	}()
	cb()
}
