// Package scheduler runs named background tasks on fixed intervals.
// Tasks are registered before Start; each runs on its own ticker goroutine
// until shutdown. A task that returns an error is logged and retried on the
// next tick, never aborted.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// TaskFunc is one scheduled unit of work. The context is canceled on shutdown.
type TaskFunc func(ctx context.Context) error

type task struct {
	name     string
	interval time.Duration
	run      TaskFunc
}

// Registry holds named interval tasks and manages their goroutines.
type Registry struct {
	logger *slog.Logger

	mu      sync.Mutex
	tasks   map[string]task
	started bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry creates an empty task registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		tasks:  make(map[string]task),
	}
}

// Register adds a named task. Registering a duplicate name or registering
// after Start is an error.
func (r *Registry) Register(name string, interval time.Duration, fn TaskFunc) error {
	if name == "" {
		return errors.New("task name must not be empty")
	}
	if interval <= 0 {
		return errors.Errorf("task %s: interval must be positive", name)
	}
	if fn == nil {
		return errors.Errorf("task %s: func must not be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return errors.Errorf("task %s: registry already started", name)
	}
	if _, exists := r.tasks[name]; exists {
		return errors.Errorf("task %s: already registered", name)
	}

	r.tasks[name] = task{name: name, interval: interval, run: fn}

	return nil
}

// TaskNames returns the names of all registered tasks.
func (r *Registry) TaskNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}

	return names
}

// Start launches one goroutine per registered task. Calling Start twice is
// an error.
func (r *Registry) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return errors.New("registry already started")
	}
	r.started = true

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	for _, t := range r.tasks {
		r.wg.Add(1)
		go r.loop(ctx, t)
	}

	r.logger.Info("Scheduler started", slog.Int("tasks", len(r.tasks)))

	return nil
}

// Stop cancels all task contexts and waits for running tasks to return.
func (r *Registry) Stop() {
	r.mu.Lock()
	if !r.started || r.cancel == nil {
		r.mu.Unlock()

		return
	}
	cancel := r.cancel
	r.mu.Unlock()

	cancel()
	r.wg.Wait()

	r.logger.Info("Scheduler stopped")
}

func (r *Registry) loop(ctx context.Context, t task) {
	defer r.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx, t)
		}
	}
}

func (r *Registry) runOnce(ctx context.Context, t task) {
	// A panicking task must not take down the process or its own loop.
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Scheduled task panicked",
				slog.String("task", t.name),
				slog.Any("panic", rec),
			)
		}
	}()

	start := time.Now()
	if err := t.run(ctx); err != nil {
		r.logger.Error("Scheduled task failed",
			slog.String("task", t.name),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()),
		)

		return
	}

	r.logger.Debug("Scheduled task completed",
		slog.String("task", t.name),
		slog.Duration("elapsed", time.Since(start)),
	)
}
