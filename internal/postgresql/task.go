package postgresql

import (
	"errors"
	"fmt"
	"strings"

	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plefebvre/task-api/internal"
)

const taskColumns = `id, title, description, status, created_at, updated_at, due_date`

// Task represents the repository used for interacting with Task records.
type Task struct {
	pool *pgxpool.Pool
}

// NewTask instantiates the Task repository.
func NewTask(pool *pgxpool.Pool) *Task {
	return &Task{
		pool: pool,
	}
}

// Select returns tasks matching the filters, most recently created first.
// Both filters combine conjunctively; the status value is compared verbatim,
// unrecognized values match nothing.
func (t *Task) Select(ctx context.Context, params internal.SearchParams) ([]internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Select").End()

	var (
		sb   strings.Builder
		args []interface{}
	)

	sb.WriteString(`SELECT ` + taskColumns + ` FROM task`)

	var conds []string

	if params.Keyword != nil {
		args = append(args, "%"+*params.Keyword+"%")
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	if params.Status != nil {
		args = append(args, *params.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	sb.WriteString(" ORDER BY created_at DESC")

	rows, err := t.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "pool.Query")
	}
	defer rows.Close()

	var res []internal.Task

	for rows.Next() {
		var task internal.Task

		if err := rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.Status,
			&task.CreatedAt,
			&task.UpdatedAt,
			&task.DueDate,
		); err != nil {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "rows.Scan")
		}

		res = append(res, task)
	}

	if err := rows.Err(); err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "rows.Err")
	}

	return res, nil
}

// Find returns the task matching id.
func (t *Task) Find(ctx context.Context, id int64) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Find").End()

	var task internal.Task

	err := t.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM task WHERE id = $1`,
		id,
	).Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.DueDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return internal.Task{}, internal.NewErrorf(internal.ErrorCodeNotFound, "task not found")
		}

		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "pool.QueryRow")
	}

	return task, nil
}

// Create inserts a new record and returns it with the generated id. The
// received timestamps are stored verbatim, stamping is the caller's job.
func (t *Task) Create(ctx context.Context, task internal.Task) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Create").End()

	err := t.pool.QueryRow(ctx,
		`INSERT INTO task (title, description, status, created_at, due_date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		task.Title,
		task.Description,
		task.Status,
		task.CreatedAt,
		task.DueDate,
	).Scan(&task.ID)
	if err != nil {
		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "pool.QueryRow")
	}

	return task, nil
}

// Update overwrites the stored record with the received one.
func (t *Task) Update(ctx context.Context, task internal.Task) error {
	defer newOTELSpan(ctx, "Task.Update").End()

	tag, err := t.pool.Exec(ctx,
		`UPDATE task
		 SET title = $1, description = $2, status = $3, updated_at = $4, due_date = $5
		 WHERE id = $6`,
		task.Title,
		task.Description,
		task.Status,
		task.UpdatedAt,
		task.DueDate,
		task.ID,
	)
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "pool.Exec")
	}

	if tag.RowsAffected() == 0 {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "task not found")
	}

	return nil
}

// Delete removes the record and reports how many rows went away (0 or 1).
func (t *Task) Delete(ctx context.Context, id int64) (int64, error) {
	defer newOTELSpan(ctx, "Task.Delete").End()

	tag, err := t.pool.Exec(ctx, `DELETE FROM task WHERE id = $1`, id)
	if err != nil {
		return 0, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "pool.Exec")
	}

	return tag.RowsAffected(), nil
}

// CountByStatus aggregates the task count per status. Statuses without any
// task do not appear in the result.
func (t *Task) CountByStatus(ctx context.Context) (map[internal.Status]int64, error) {
	defer newOTELSpan(ctx, "Task.CountByStatus").End()

	rows, err := t.pool.Query(ctx, `SELECT status, COUNT(*) FROM task GROUP BY status`)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "pool.Query")
	}
	defer rows.Close()

	res := make(map[internal.Status]int64)

	for rows.Next() {
		var (
			status internal.Status
			count  int64
		)

		if err := rows.Scan(&status, &count); err != nil {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "rows.Scan")
		}

		res[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "rows.Err")
	}

	return res, nil
}
