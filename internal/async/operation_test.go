package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenticmd/pdf2md/internal/domain"
)

func TestOperationSuccess(t *testing.T) {
	var thenValue atomic.Int64
	var alwaysFired atomic.Bool

	op := NewOperation[int]("add", domain.Nop())
	op.Then(func(v int) { thenValue.Store(int64(v)) })
	op.Always(func() { alwaysFired.Store(true) })
	op.Catch(func(error) { t.Error("catch callback must not fire on success") })

	op.Start(context.Background(), nil, func(context.Context) (int, error) {
		return 42, nil
	})

	result, err := op.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.True(t, op.Completed())
	assert.Equal(t, int64(42), thenValue.Load())
	assert.True(t, alwaysFired.Load())
}

func TestOperationFailure(t *testing.T) {
	boom := errors.New("boom")
	var caught atomic.Value

	op := StartOperation(context.Background(), nil, "fail", domain.Nop(), func(context.Context) (int, error) {
		return 0, boom
	})
	_, err := op.Await(context.Background())
	require.ErrorIs(t, err, boom)

	op.Then(func(int) { t.Error("then callback must not fire on failure") })
	op.Catch(func(err error) { caught.Store(err) })

	assert.ErrorIs(t, caught.Load().(error), boom)
}

func TestOperationLateRegistrationFiresImmediately(t *testing.T) {
	op := StartOperation(context.Background(), nil, "done", domain.Nop(), func(context.Context) (string, error) {
		return "ready", nil
	})
	_, err := op.Await(context.Background())
	require.NoError(t, err)

	var fired int
	op.Then(func(v string) {
		assert.Equal(t, "ready", v)
		fired++
	})
	assert.Equal(t, 1, fired)

	var always int
	op.Always(func() { always++ })
	assert.Equal(t, 1, always)
}

func TestOperationCancel(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var successFired atomic.Bool
	var failureCount atomic.Int64

	op := NewOperation[int]("slow", domain.Nop())
	op.Then(func(int) { successFired.Store(true) })
	op.Catch(func(error) { failureCount.Add(1) })

	op.Start(context.Background(), nil, func(ctx context.Context) (int, error) {
		close(started)
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-release:
			return 1, nil
		}
	})

	<-started
	assert.True(t, op.Cancel())

	_, err := op.Await(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindCancelled))
	assert.False(t, successFired.Load())
	assert.Equal(t, int64(1), failureCount.Load())

	// Cancel after completion is rejected.
	assert.False(t, op.Cancel())
	close(release)
}

func TestOperationCancelBeforeWorkCompletes(t *testing.T) {
	// Work ignores its context and finishes anyway; a prior cancel
	// still forces the cancelled terminal state.
	gate := make(chan struct{})
	op := NewOperation[int]("stubborn", domain.Nop())
	op.Start(context.Background(), nil, func(context.Context) (int, error) {
		<-gate
		return 7, nil
	})

	require.True(t, op.Cancel())
	close(gate)

	_, err := op.Await(context.Background())
	assert.True(t, domain.IsKind(err, domain.KindCancelled))
}

func TestOperationCallbackPanicDoesNotMaskResult(t *testing.T) {
	op := StartOperation(context.Background(), nil, "panicky", domain.Nop(), func(context.Context) (int, error) {
		return 9, nil
	})
	_, err := op.Await(context.Background())
	require.NoError(t, err)

	op.Then(func(int) { panic("callback bug") })

	result, err := op.Result()
	require.NoError(t, err)
	assert.Equal(t, 9, result)
}

func TestOperationAwaitAbandonedByCaller(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	op := StartOperation(context.Background(), nil, "pending", domain.Nop(), func(context.Context) (int, error) {
		<-release
		return 0, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := op.Await(ctx)
	assert.True(t, domain.IsKind(err, domain.KindCancelled))
}

func TestOperationCallbacksFireExactlyOnceUnderRace(t *testing.T) {
	var fired atomic.Int64
	op := NewOperation[int]("race", domain.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			op.Then(func(int) { fired.Add(1) })
		}()
	}
	op.Start(context.Background(), nil, func(context.Context) (int, error) {
		return 1, nil
	})
	wg.Wait()

	_, err := op.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(8), fired.Load())
}

func TestExecutorBoundsConcurrency(t *testing.T) {
	exec := NewExecutor(2)
	var running, peak atomic.Int64

	ops := make([]*Operation[int], 0, 6)
	for i := 0; i < 6; i++ {
		op := StartOperation(context.Background(), exec, "bounded", domain.Nop(), func(context.Context) (int, error) {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			return 0, nil
		})
		ops = append(ops, op)
	}
	for _, op := range ops {
		_, err := op.Await(context.Background())
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, peak.Load(), int64(2))
}
