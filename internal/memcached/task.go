package memcached

import (
	"context"
	"strconv"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"go.uber.org/zap"

	"github.com/plefebvre/task-api/internal"
)

// TaskStore is the repository being decorated.
type TaskStore interface {
	Select(ctx context.Context, params internal.SearchParams) ([]internal.Task, error)
	Find(ctx context.Context, id int64) (internal.Task, error)
	Create(ctx context.Context, task internal.Task) (internal.Task, error)
	Update(ctx context.Context, task internal.Task) error
	Delete(ctx context.Context, id int64) (int64, error)
	CountByStatus(ctx context.Context) (map[internal.Status]int64, error)
}

// Task caches single-record reads, list and aggregate queries always hit
// the underlying store.
type Task struct {
	client     *memcache.Client
	orig       TaskStore
	expiration time.Duration
	logger     *zap.Logger
}

// NewTask instantiates the decorator.
func NewTask(client *memcache.Client, orig TaskStore, logger *zap.Logger) *Task {
	return &Task{
		client:     client,
		orig:       orig,
		expiration: 15 * time.Minute,
		logger:     logger,
	}
}

func taskKey(id int64) string {
	return "task:" + strconv.FormatInt(id, 10)
}

// Select passes through.
func (t *Task) Select(ctx context.Context, params internal.SearchParams) ([]internal.Task, error) {
	return t.orig.Select(ctx, params)
}

// Find returns the cached record when present, otherwise reads through and
// caches the result.
func (t *Task) Find(ctx context.Context, id int64) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Find").End()

	var res internal.Task

	if err := getValue(ctx, t.client, taskKey(id), &res); err == nil {
		return res, nil
	}

	t.logger.Debug("cache miss", zap.Int64("task_id", id))

	res, err := t.orig.Find(ctx, id)
	if err != nil {
		return internal.Task{}, err
	}

	setValue(ctx, t.client, taskKey(res.ID), &res, t.expiration)

	return res, nil
}

// Create stores the new record and primes the cache with it.
func (t *Task) Create(ctx context.Context, task internal.Task) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Create").End()

	res, err := t.orig.Create(ctx, task)
	if err != nil {
		return internal.Task{}, err
	}

	setValue(ctx, t.client, taskKey(res.ID), &res, t.expiration)

	return res, nil
}

// Update refreshes the cached record after a successful write.
func (t *Task) Update(ctx context.Context, task internal.Task) error {
	defer newOTELSpan(ctx, "Task.Update").End()

	if err := t.orig.Update(ctx, task); err != nil {
		return err
	}

	setValue(ctx, t.client, taskKey(task.ID), &task, t.expiration)

	return nil
}

// Delete evicts the cached record after removal.
func (t *Task) Delete(ctx context.Context, id int64) (int64, error) {
	defer newOTELSpan(ctx, "Task.Delete").End()

	affected, err := t.orig.Delete(ctx, id)
	if err != nil {
		return 0, err
	}

	deleteValue(ctx, t.client, taskKey(id))

	return affected, nil
}

// CountByStatus passes through.
func (t *Task) CountByStatus(ctx context.Context) (map[internal.Status]int64, error) {
	return t.orig.CountByStatus(ctx)
}
