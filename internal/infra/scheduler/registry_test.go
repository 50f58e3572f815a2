package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistry_RegisterValidation(t *testing.T) {
	r := NewRegistry(testLogger())

	noop := func(context.Context) error { return nil }

	assert.Error(t, r.Register("", time.Second, noop))
	assert.Error(t, r.Register("task", 0, noop))
	assert.Error(t, r.Register("task", time.Second, nil))

	require.NoError(t, r.Register("task", time.Second, noop))
	assert.Error(t, r.Register("task", time.Second, noop), "duplicate name must be rejected")

	assert.ElementsMatch(t, []string{"task"}, r.TaskNames())
}

func TestRegistry_RunsTasksOnInterval(t *testing.T) {
	r := NewRegistry(testLogger())

	var runs atomic.Int32
	require.NoError(t, r.Register("counter", 10*time.Millisecond, func(context.Context) error {
		runs.Add(1)

		return nil
	}))

	require.NoError(t, r.Start())
	defer r.Stop()

	assert.Eventually(t, func() bool {
		return runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestRegistry_StartTwiceFails(t *testing.T) {
	r := NewRegistry(testLogger())

	require.NoError(t, r.Start())
	defer r.Stop()

	assert.Error(t, r.Start())
	assert.Error(t, r.Register("late", time.Second, func(context.Context) error { return nil }))
}

func TestRegistry_StopWaitsForTasks(t *testing.T) {
	r := NewRegistry(testLogger())

	started := make(chan struct{})
	require.NoError(t, r.Register("slow", 10*time.Millisecond, func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()

		return ctx.Err()
	}))

	require.NoError(t, r.Start())

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("task never started")
	}

	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after task exit")
	}
}

func TestRegistry_FailingAndPanickingTasksKeepRunning(t *testing.T) {
	r := NewRegistry(testLogger())

	var failRuns, panicRuns atomic.Int32
	require.NoError(t, r.Register("failing", 10*time.Millisecond, func(context.Context) error {
		failRuns.Add(1)

		return errors.New("boom")
	}))
	require.NoError(t, r.Register("panicking", 10*time.Millisecond, func(context.Context) error {
		panicRuns.Add(1)
		panic("boom")
	}))

	require.NoError(t, r.Start())
	defer r.Stop()

	assert.Eventually(t, func() bool {
		return failRuns.Load() >= 2 && panicRuns.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}
