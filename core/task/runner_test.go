package task

import (
	"context"
	"errors"
	"io/ioutil"
	"log"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/udahili/core"
)

type memRepo struct {
	mu    sync.Mutex
	tasks map[string]Task
}

var _ Repository = (*memRepo)(nil)

func newMemRepo() *memRepo { return &memRepo{tasks: make(map[string]Task)} }

func (r *memRepo) CreateTask(t Task) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = t
	return t, nil
}

func (r *memRepo) GetTask(id string) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	return t, nil
}

func (r *memRepo) ClaimPending(limit int) ([]Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, t := range r.tasks {
		if t.State == StatePending {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	claimed := make([]Task, 0, len(ids))
	for _, id := range ids {
		t := r.tasks[id]
		t.State = StateProcessing
		t.Attempts++
		t.UpdatedAt = time.Now().UTC()
		r.tasks[id] = t
		claimed = append(claimed, t)
	}
	return claimed, nil
}

func (r *memRepo) MarkDone(id string) error {
	return r.update(id, func(t *Task) {
		now := time.Now().UTC()
		t.State = StateDone
		t.DoneAt = &now
	})
}

func (r *memRepo) MarkError(id, reason string) error {
	return r.update(id, func(t *Task) {
		t.State = StateError
		t.LastError = reason
	})
}

func (r *memRepo) ResetToPending(id, reason string) error {
	return r.update(id, func(t *Task) {
		t.State = StatePending
		t.LastError = reason
	})
}

func (r *memRepo) update(id string, mutate func(*Task)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	mutate(&t)
	t.UpdatedAt = time.Now().UTC()
	r.tasks[id] = t
	return nil
}

func newTestRunner(repo Repository) *Runner {
	return NewRunner(repo, core.NewStdLogger(log.New(ioutil.Discard, "", 0)))
}

func seedTask(t *testing.T, repo *memRepo, kind string, payload interface{}) Task {
	t.Helper()
	tsk, err := New(kind, payload)
	require.NoError(t, err)
	tsk, err = repo.CreateTask(tsk)
	require.NoError(t, err)
	return tsk
}

func TestRunner_ProcessBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("done on success", func(t *testing.T) {
		repo := newMemRepo()
		tsk := seedTask(t, repo, KindRecapPdf, map[string]string{"proposition_id": "uuid-1"})

		var got string
		runner := newTestRunner(repo)
		runner.Register(KindRecapPdf, func(_ context.Context, t Task) error {
			var payload struct {
				PropositionID string `json:"proposition_id"`
			}
			if err := t.UnmarshalPayload(&payload); err != nil {
				return err
			}
			got = payload.PropositionID
			return nil
		})

		n, err := runner.ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, "uuid-1", got)

		done, err := repo.GetTask(tsk.ID)
		require.NoError(t, err)
		assert.Equal(t, StateDone, done.State)
		assert.NotNil(t, done.DoneAt)
	})

	t.Run("failures go back to pending until the attempt cap", func(t *testing.T) {
		repo := newMemRepo()
		tsk := seedTask(t, repo, KindPaymentStatus, nil)

		runner := newTestRunner(repo)
		runner.maxAttempts = 2
		runner.Register(KindPaymentStatus, func(context.Context, Task) error {
			return errors.New("gateway unavailable")
		})

		_, err := runner.ProcessBatch(ctx)
		require.NoError(t, err)
		retried, _ := repo.GetTask(tsk.ID)
		assert.Equal(t, StatePending, retried.State)
		assert.Equal(t, 1, retried.Attempts)
		assert.Equal(t, "gateway unavailable", retried.LastError)

		_, err = runner.ProcessBatch(ctx)
		require.NoError(t, err)
		failed, _ := repo.GetTask(tsk.ID)
		assert.Equal(t, StateError, failed.State)
		assert.Equal(t, 2, failed.Attempts)
	})

	t.Run("unknown kind fails immediately", func(t *testing.T) {
		repo := newMemRepo()
		tsk := seedTask(t, repo, "no-such-kind", nil)

		runner := newTestRunner(repo)
		_, err := runner.ProcessBatch(ctx)
		require.NoError(t, err)

		failed, _ := repo.GetTask(tsk.ID)
		assert.Equal(t, StateError, failed.State)
		assert.Equal(t, ErrUnknownKind.Error(), failed.LastError)
	})

	t.Run("a panicking handler does not kill the runner", func(t *testing.T) {
		repo := newMemRepo()
		tsk := seedTask(t, repo, KindSignaletique, nil)

		runner := newTestRunner(repo)
		runner.maxAttempts = 1
		runner.Register(KindSignaletique, func(context.Context, Task) error {
			panic("boom")
		})

		_, err := runner.ProcessBatch(ctx)
		require.NoError(t, err)
		failed, _ := repo.GetTask(tsk.ID)
		assert.Equal(t, StateError, failed.State)
		assert.Contains(t, failed.LastError, "boom")
	})

	t.Run("batch size is honoured", func(t *testing.T) {
		repo := newMemRepo()
		for i := 0; i < 5; i++ {
			seedTask(t, repo, KindRecapPdf, nil)
		}
		runner := newTestRunner(repo)
		runner.batchSize = 2
		runner.Register(KindRecapPdf, func(context.Context, Task) error { return nil })

		n, err := runner.ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestRunner_Drain(t *testing.T) {
	repo := newMemRepo()
	for i := 0; i < 5; i++ {
		seedTask(t, repo, KindRecapPdf, nil)
	}
	runner := newTestRunner(repo)
	runner.batchSize = 2
	runner.Register(KindRecapPdf, func(context.Context, Task) error { return nil })

	n, err := runner.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	for id := range repo.tasks {
		tsk, _ := repo.GetTask(id)
		assert.Equal(t, StateDone, tsk.State)
	}
}

func TestRunner_Run(t *testing.T) {
	repo := newMemRepo()
	seedTask(t, repo, KindRecapPdf, nil)

	runner := newTestRunner(repo)
	runner.pollInterval = 10 * time.Millisecond
	processed := make(chan struct{}, 1)
	runner.Register(KindRecapPdf, func(context.Context, Task) error {
		select {
		case processed <- struct{}{}:
		default:
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	select {
	case <-processed:
	case <-time.After(time.Second):
		t.Fatal("task was not processed")
	}
	cancel()

	select {
	case err := <-done:
		assert.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop on cancellation")
	}
}
