package dummydb

import (
	"sort"
	"time"

	"github.com/trezcool/udahili/core/task"
)

type taskRepository struct {
	db *taskTable
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *DB) *taskRepository {
	return &taskRepository{db: db.tasks}
}

func (repo *taskRepository) CreateTask(t task.Task) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[t.ID] = &t
	return t, nil
}

func (repo *taskRepository) GetTask(id string) (task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.table[id]; ok {
		return *t, nil
	}
	return task.Task{}, task.ErrTaskNotFound
}

func (repo *taskRepository) ClaimPending(limit int) ([]task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var ids []string
	for id, t := range repo.db.table {
		if t.State == task.StatePending {
			ids = append(ids, id)
		}
	}
	// oldest first
	sort.Slice(ids, func(i, j int) bool {
		return repo.db.table[ids[i]].CreatedAt.Before(repo.db.table[ids[j]].CreatedAt)
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}

	claimed := make([]task.Task, 0, len(ids))
	for _, id := range ids {
		t := repo.db.table[id]
		t.State = task.StateProcessing
		t.Attempts++
		t.UpdatedAt = time.Now().UTC()
		claimed = append(claimed, *t)
	}
	return claimed, nil
}

func (repo *taskRepository) MarkDone(id string) error {
	return repo.update(id, func(t *task.Task) {
		now := time.Now().UTC()
		t.State = task.StateDone
		t.DoneAt = &now
	})
}

func (repo *taskRepository) MarkError(id, reason string) error {
	return repo.update(id, func(t *task.Task) {
		t.State = task.StateError
		t.LastError = reason
	})
}

func (repo *taskRepository) ResetToPending(id, reason string) error {
	return repo.update(id, func(t *task.Task) {
		t.State = task.StatePending
		t.LastError = reason
	})
}

func (repo *taskRepository) update(id string, mutate func(*task.Task)) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	t, ok := repo.db.table[id]
	if !ok {
		return task.ErrTaskNotFound
	}
	mutate(t)
	t.UpdatedAt = time.Now().UTC()
	return nil
}
