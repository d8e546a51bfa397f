package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/taskquest/internal/apperror"
	"github.com/sakif/taskquest/internal/model"
	"github.com/sakif/taskquest/internal/repository"
)

// TaskDB reads and writes the tasks table.
type TaskDB struct {
	q querier
}

var _ repository.TaskRepository = (*TaskDB)(nil)

const taskColumns = `id, user_id, description, date, completed, completed_at, created_at`

// Create inserts a new open task. Date is stored as YYYY-MM-DD text.
func (t *TaskDB) Create(ctx context.Context, task *model.Task) error {
	task.ID = xid.New().String()
	task.CreatedAt = time.Now().UTC()
	task.Completed = false
	task.CompletedAt = nil

	_, err := t.q.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.UserID,
		task.Description,
		task.Date.Format(model.DateLayout),
		task.Completed,
		nil,
		task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting task for user %s: %w", task.UserID, err)
	}
	return nil
}

// GetByID returns apperror.ErrNotFound when the task does not exist.
func (t *TaskDB) GetByID(ctx context.Context, id string) (*model.Task, error) {
	row := t.q.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("task", id)
		}
		return nil, fmt.Errorf("sqlite: getting task %s: %w", id, err)
	}
	return task, nil
}

// ListByUser returns the user's tasks by assigned date, then creation order.
func (t *TaskDB) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	rows, err := t.q.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY date, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks for %s: %w", userID, err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning task row: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating task rows: %w", err)
	}
	return tasks, nil
}

// MarkCompleted is the one-way completion transition.
//
// The WHERE clause only matches an open task owned by userID, so two
// concurrent completions of the same task can't both succeed: the second
// UPDATE sees completed = 1 and touches no rows.
func (t *TaskDB) MarkCompleted(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	res, err := t.q.ExecContext(ctx,
		`UPDATE tasks SET completed = 1, completed_at = ?
		 WHERE id = ? AND user_id = ? AND completed = 0`,
		at.UTC(), id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: completing task %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n == 1, nil
}

// CountCompleted returns how many tasks the user has finished.
func (t *TaskDB) CountCompleted(ctx context.Context, userID string) (int, error) {
	var n int
	err := t.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE user_id = ? AND completed = 1`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting completed tasks for %s: %w", userID, err)
	}
	return n, nil
}

func scanTask(s rowScanner) (*model.Task, error) {
	var (
		task        model.Task
		date        string
		completedAt sql.NullTime
	)

	err := s.Scan(
		&task.ID,
		&task.UserID,
		&task.Description,
		&date,
		&task.Completed,
		&completedAt,
		&task.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parsing task date %q: %w", date, err)
	}
	task.Date = d

	if completedAt.Valid {
		at := completedAt.Time
		task.CompletedAt = &at
	}
	return &task, nil
}
