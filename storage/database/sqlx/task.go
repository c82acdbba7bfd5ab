package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/udahili/core/task"
)

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *sqlx.DB) *taskRepository {
	return &taskRepository{db: db}
}

type taskRow struct {
	ID        string      `db:"id"`
	Kind      string      `db:"kind"`
	State     string      `db:"state"`
	Attempts  int         `db:"attempts"`
	Payload   null.JSON   `db:"payload"`
	LastError null.String `db:"last_error"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
	DoneAt    null.Time   `db:"done_at"`
}

func (r taskRow) toCore() task.Task {
	t := task.Task{
		ID:        r.ID,
		Kind:      r.Kind,
		State:     task.State(r.State),
		Attempts:  r.Attempts,
		LastError: r.LastError.String,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		DoneAt:    r.DoneAt.Ptr(),
	}
	if r.Payload.Valid {
		t.Payload = r.Payload.JSON
	}
	return t
}

const taskCols = `id, kind, state, attempts, payload, last_error, created_at, updated_at, done_at`

func (repo *taskRepository) CreateTask(t task.Task) (task.Task, error) {
	_, err := repo.db.Exec(
		`INSERT INTO tasks (id, kind, state, attempts, payload, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Kind, string(t.State), t.Attempts, null.JSONFrom(t.Payload), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "creating task")
	}
	return t, nil
}

func (repo *taskRepository) GetTask(id string) (task.Task, error) {
	var row taskRow
	err := repo.db.Get(&row, `SELECT `+taskCols+` FROM tasks WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return task.Task{}, task.ErrTaskNotFound
	}
	if err != nil {
		return task.Task{}, errors.Wrap(err, "getting task")
	}
	return row.toCore(), nil
}

// ClaimPending locks pending rows so concurrent runners never pick the same
// task twice.
func (repo *taskRepository) ClaimPending(limit int) ([]task.Task, error) {
	var rows []taskRow
	err := repo.db.Select(&rows,
		`UPDATE tasks SET state = 'processing', attempts = attempts + 1, updated_at = NOW()
		  WHERE id IN (
		        SELECT id FROM tasks WHERE state = 'pending'
		         ORDER BY created_at
		         LIMIT $1
		           FOR UPDATE SKIP LOCKED)
		 RETURNING `+taskCols, limit)
	if err != nil {
		return nil, errors.Wrap(err, "claiming tasks")
	}
	tasks := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toCore())
	}
	return tasks, nil
}

func (repo *taskRepository) MarkDone(id string) error {
	return repo.update(id,
		`UPDATE tasks SET state = 'done', done_at = NOW(), updated_at = NOW() WHERE id = $1`)
}

func (repo *taskRepository) MarkError(id, reason string) error {
	return repo.update(id,
		`UPDATE tasks SET state = 'error', last_error = $2, updated_at = NOW() WHERE id = $1`, reason)
}

func (repo *taskRepository) ResetToPending(id, reason string) error {
	return repo.update(id,
		`UPDATE tasks SET state = 'pending', last_error = $2, updated_at = NOW() WHERE id = $1`, reason)
}

func (repo *taskRepository) update(id, query string, args ...interface{}) error {
	res, err := repo.db.Exec(query, append([]interface{}{id}, args...)...)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}
