package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/trezcool/udahili/core"
)

// Handler processes one claimed task. A nil return marks the task done; an
// error puts it back in line for a retry (up to the configured attempt cap).
type Handler func(ctx context.Context, t Task) error

// Runner polls the repository for pending tasks and dispatches them to the
// handlers registered for their kind.
type Runner struct {
	repo         Repository
	logger       core.Logger
	pollInterval time.Duration
	batchSize    int
	maxAttempts  int

	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRunner(repo Repository, logger core.Logger) *Runner {
	return &Runner{
		repo:         repo,
		logger:       logger,
		pollInterval: core.Conf.Task.PollInterval,
		batchSize:    core.Conf.Task.BatchSize,
		maxAttempts:  core.Conf.Task.MaxAttempts,
		handlers:     make(map[string]Handler),
	}
}

// Register binds a handler to a task kind, replacing any previous one.
func (r *Runner) Register(kind string, h Handler) {
	r.mu.Lock()
	r.handlers[kind] = h
	r.mu.Unlock()
}

func (r *Runner) handler(kind string) (Handler, bool) {
	r.mu.RLock()
	h, ok := r.handlers[kind]
	r.mu.RUnlock()
	return h, ok
}

// Run polls until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("task runner started", "interval", r.pollInterval)
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		if _, err := r.ProcessBatch(ctx); err != nil {
			r.logger.Error("task: claiming batch", "error", err)
		}
		select {
		case <-ctx.Done():
			r.logger.Info("task runner stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Drain processes batches until no pending task remains; used by the one-shot
// management command.
func (r *Runner) Drain(ctx context.Context) (int, error) {
	var total int
	for {
		n, err := r.ProcessBatch(ctx)
		total += n
		if err != nil || n == 0 {
			return total, err
		}
	}
}

// ProcessBatch claims one batch and runs every claimed task in its own
// goroutine, waiting for all of them.
func (r *Runner) ProcessBatch(ctx context.Context) (int, error) {
	tasks, err := r.repo.ClaimPending(r.batchSize)
	if err != nil {
		return 0, err
	}
	var wg sync.WaitGroup
	for _, t := range tasks {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			r.process(ctx, t)
		}(t)
	}
	wg.Wait()
	return len(tasks), nil
}

func (r *Runner) process(ctx context.Context, t Task) {
	h, ok := r.handler(t.Kind)
	if !ok {
		r.logger.Error("task: unknown kind", "task", t.ID, "kind", t.Kind)
		r.fail(t, ErrUnknownKind.Error())
		return
	}

	err := r.run(ctx, t, h)
	if err == nil {
		if err := r.repo.MarkDone(t.ID); err != nil {
			r.logger.Error("task: marking done", "task", t.ID, "error", err)
		}
		return
	}

	r.logger.Warn("task: handler failed", "task", t.ID, "kind", t.Kind, "attempt", t.Attempts, "error", err)
	if t.Attempts >= r.maxAttempts {
		r.fail(t, err.Error())
		return
	}
	if err := r.repo.ResetToPending(t.ID, err.Error()); err != nil {
		r.logger.Error("task: resetting", "task", t.ID, "error", err)
	}
}

func (r *Runner) run(ctx context.Context, t Task, h Handler) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task panic: %v", rec)
		}
	}()
	return h(ctx, t)
}

func (r *Runner) fail(t Task, reason string) {
	if err := r.repo.MarkError(t.ID, reason); err != nil {
		r.logger.Error("task: marking error", "task", t.ID, "error", err)
	}
}
