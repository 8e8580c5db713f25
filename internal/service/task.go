// Package service implements the application services sitting between the
// HTTP layer and the datastores.
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/plefebvre/task-api/internal"
)

const otelName = "github.com/plefebvre/task-api/internal/service"

// TaskRepository defines the datastore handling persisted Task records.
type TaskRepository interface {
	Select(ctx context.Context, params internal.SearchParams) ([]internal.Task, error)
	Find(ctx context.Context, id int64) (internal.Task, error)
	Create(ctx context.Context, task internal.Task) (internal.Task, error)
	Update(ctx context.Context, task internal.Task) error
	Delete(ctx context.Context, id int64) (int64, error)
	CountByStatus(ctx context.Context) (map[internal.Status]int64, error)
}

// TaskMessageBrokerRepository defines the datastore receiving Task events.
type TaskMessageBrokerRepository interface {
	Created(ctx context.Context, task internal.Task) error
	Updated(ctx context.Context, task internal.Task) error
	Deleted(ctx context.Context, id int64) error
}

// Task defines the application service in charge of interacting with Tasks.
type Task struct {
	logger    *zap.Logger
	repo      TaskRepository
	msgBroker TaskMessageBrokerRepository
}

// NewTask ...
func NewTask(logger *zap.Logger, repo TaskRepository, msgBroker TaskMessageBrokerRepository) *Task {
	return &Task{
		logger:    logger,
		repo:      repo,
		msgBroker: msgBroker,
	}
}

// List returns every task, most recently created first.
func (t *Task) List(ctx context.Context) ([]internal.Task, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.List")
	defer span.End()

	return t.repo.Select(ctx, internal.SearchParams{})
}

// ByStatus returns the tasks carrying the given status, taken verbatim. An
// unrecognized status yields an empty result, not an error.
func (t *Task) ByStatus(ctx context.Context, status string) ([]internal.Task, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.ByStatus")
	defer span.End()

	return t.repo.Select(ctx, internal.SearchParams{Status: &status})
}

// ByKeyword returns the tasks whose title or description contains keyword,
// case-insensitively.
func (t *Task) ByKeyword(ctx context.Context, keyword string) ([]internal.Task, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.ByKeyword")
	defer span.End()

	return t.repo.Select(ctx, internal.SearchParams{Keyword: &keyword})
}

// Search combines both filters conjunctively; without filters it behaves
// like List.
func (t *Task) Search(ctx context.Context, params internal.SearchParams) ([]internal.Task, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.Search")
	defer span.End()

	return t.repo.Select(ctx, params)
}

// Find returns the task matching id.
func (t *Task) Find(ctx context.Context, id int64) (internal.Task, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.Find")
	defer span.End()

	return t.repo.Find(ctx, id)
}

// Create stores a new task. The status defaults to pending when omitted and
// CreatedAt is stamped here, whatever the caller supplied.
func (t *Task) Create(ctx context.Context, params internal.CreateTaskParams) (internal.Task, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.Create")
	defer span.End()

	if params.Status == "" {
		params.Status = internal.StatusPending
	}

	if err := params.Validate(); err != nil {
		return internal.Task{}, err
	}

	task, err := t.repo.Create(ctx, internal.Task{
		Title:       params.Title,
		Description: params.Description,
		Status:      params.Status,
		CreatedAt:   time.Now().UTC(),
		DueDate:     params.DueDate,
	})
	if err != nil {
		return internal.Task{}, err
	}

	if err := t.msgBroker.Created(ctx, task); err != nil {
		t.logger.Warn("msgBroker.Created failed", zap.Error(err))
	}

	return task, nil
}

// Update merges the params over the stored task. Validation failures leave
// the datastore untouched; UpdatedAt is stamped on every successful merge.
func (t *Task) Update(ctx context.Context, id int64, params internal.UpdateTaskParams) (internal.Task, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.Update")
	defer span.End()

	if err := params.Validate(); err != nil {
		return internal.Task{}, err
	}

	task, err := t.repo.Find(ctx, id)
	if err != nil {
		return internal.Task{}, err
	}

	params.Apply(&task)

	now := time.Now().UTC()
	task.UpdatedAt = &now

	if err := t.repo.Update(ctx, task); err != nil {
		return internal.Task{}, err
	}

	if err := t.msgBroker.Updated(ctx, task); err != nil {
		t.logger.Warn("msgBroker.Updated failed", zap.Error(err))
	}

	return task, nil
}

// Delete removes the task. Deleting an absent id reports not found, making
// a second delete of the same id fail.
func (t *Task) Delete(ctx context.Context, id int64) error {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.Delete")
	defer span.End()

	affected, err := t.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	if affected == 0 {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "task not found")
	}

	if err := t.msgBroker.Deleted(ctx, id); err != nil {
		t.logger.Warn("msgBroker.Deleted failed", zap.Error(err))
	}

	return nil
}

// Stats aggregates the task counts per status plus their total.
func (t *Task) Stats(ctx context.Context) (internal.TaskStats, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.Stats")
	defer span.End()

	byStatus, err := t.repo.CountByStatus(ctx)
	if err != nil {
		return internal.TaskStats{}, err
	}

	res := internal.TaskStats{ByStatus: byStatus}

	for _, count := range byStatus {
		res.Total += count
	}

	return res, nil
}
