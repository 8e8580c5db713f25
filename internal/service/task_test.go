package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"go.uber.org/zap"

	"github.com/plefebvre/task-api/internal"
)

type fakeTaskRepo struct {
	nextID int64
	tasks  map[int64]internal.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[int64]internal.Task)}
}

func (r *fakeTaskRepo) Select(_ context.Context, params internal.SearchParams) ([]internal.Task, error) {
	var res []internal.Task

	for _, task := range r.tasks {
		if params.Status != nil && string(task.Status) != *params.Status {
			continue
		}

		res = append(res, task)
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})

	return res, nil
}

func (r *fakeTaskRepo) Find(_ context.Context, id int64) (internal.Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return internal.Task{}, internal.NewErrorf(internal.ErrorCodeNotFound, "task not found")
	}

	return task, nil
}

func (r *fakeTaskRepo) Create(_ context.Context, task internal.Task) (internal.Task, error) {
	r.nextID++
	task.ID = r.nextID
	r.tasks[task.ID] = task

	return task, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task internal.Task) error {
	if _, ok := r.tasks[task.ID]; !ok {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "task not found")
	}

	r.tasks[task.ID] = task

	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id int64) (int64, error) {
	if _, ok := r.tasks[id]; !ok {
		return 0, nil
	}

	delete(r.tasks, id)

	return 1, nil
}

func (r *fakeTaskRepo) CountByStatus(_ context.Context) (map[internal.Status]int64, error) {
	res := make(map[internal.Status]int64)

	for _, task := range r.tasks {
		res[task.Status]++
	}

	return res, nil
}

type fakeBroker struct {
	created, updated, deleted int
}

func (b *fakeBroker) Created(context.Context, internal.Task) error { b.created++; return nil }
func (b *fakeBroker) Updated(context.Context, internal.Task) error { b.updated++; return nil }
func (b *fakeBroker) Deleted(context.Context, int64) error         { b.deleted++; return nil }

func newTestTask(repo TaskRepository) (*Task, *fakeBroker) {
	broker := &fakeBroker{}

	return NewTask(zap.NewNop(), repo, broker), broker
}

func codeOf(t *testing.T, err error) internal.ErrorCode {
	t.Helper()

	var ierr *internal.Error
	if !errors.As(err, &ierr) {
		t.Fatalf("expected *internal.Error, got %v", err)
	}

	return ierr.Code()
}

func TestTask_CreateThenFind(t *testing.T) {
	t.Parallel()

	repo := newFakeTaskRepo()
	svc, broker := newTestTask(repo)

	desc := "quarterly numbers"

	created, err := svc.Create(context.Background(), internal.CreateTaskParams{
		Title:       "Write report",
		Description: &desc,
		Status:      internal.StatusInProgress,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.ID == 0 {
		t.Error("Create() did not assign an id")
	}
	if created.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped")
	}
	if created.UpdatedAt != nil {
		t.Error("UpdatedAt should be nil on insert")
	}

	found, err := svc.Find(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}

	if found.Title != "Write report" || found.Status != internal.StatusInProgress {
		t.Errorf("Find() = %+v, fields do not round-trip", found)
	}
	if found.Description == nil || *found.Description != desc {
		t.Error("Description did not round-trip")
	}

	if broker.created != 1 {
		t.Errorf("broker.created = %d, want 1", broker.created)
	}
}

func TestTask_Create_DefaultsToPending(t *testing.T) {
	t.Parallel()

	svc, _ := newTestTask(newFakeTaskRepo())

	created, err := svc.Create(context.Background(), internal.CreateTaskParams{Title: "A"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.Status != internal.StatusPending {
		t.Errorf("Status = %q, want %q", created.Status, internal.StatusPending)
	}
}

func TestTask_Create_InvalidStatusLeavesStorageUntouched(t *testing.T) {
	t.Parallel()

	repo := newFakeTaskRepo()
	svc, broker := newTestTask(repo)

	_, err := svc.Create(context.Background(), internal.CreateTaskParams{
		Title:  "A",
		Status: "bogus",
	})
	if err == nil {
		t.Fatal("Create() expected error")
	}

	if code := codeOf(t, err); code != internal.ErrorCodeInvalidArgument {
		t.Errorf("code = %v, want invalid argument", code)
	}

	if len(repo.tasks) != 0 {
		t.Errorf("repository contains %d tasks, want 0", len(repo.tasks))
	}
	if broker.created != 0 {
		t.Error("event published for rejected create")
	}
}

func TestTask_Update_NotFoundNeverMutates(t *testing.T) {
	t.Parallel()

	repo := newFakeTaskRepo()
	svc, broker := newTestTask(repo)

	title := "nope"

	_, err := svc.Update(context.Background(), 99, internal.UpdateTaskParams{Title: &title})
	if err == nil {
		t.Fatal("Update() expected error")
	}

	if code := codeOf(t, err); code != internal.ErrorCodeNotFound {
		t.Errorf("code = %v, want not found", code)
	}

	if len(repo.tasks) != 0 || broker.updated != 0 {
		t.Error("storage mutated by failed update")
	}
}

func TestTask_Update_PartialMerge(t *testing.T) {
	t.Parallel()

	repo := newFakeTaskRepo()
	svc, _ := newTestTask(repo)

	desc := "details"

	created, err := svc.Create(context.Background(), internal.CreateTaskParams{
		Title:       "A",
		Description: &desc,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	status := internal.StatusCompleted

	updated, err := svc.Update(context.Background(), created.ID, internal.UpdateTaskParams{Status: &status})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Status != internal.StatusCompleted {
		t.Errorf("Status = %q, want completed", updated.Status)
	}
	if updated.Title != "A" {
		t.Error("Title changed by status-only update")
	}
	if updated.Description == nil || *updated.Description != desc {
		t.Error("Description changed by status-only update")
	}
	if updated.UpdatedAt == nil {
		t.Fatal("UpdatedAt not stamped")
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Error("UpdatedAt precedes CreatedAt")
	}
}

func TestTask_Update_InvalidStatusLeavesStorageUntouched(t *testing.T) {
	t.Parallel()

	repo := newFakeTaskRepo()
	svc, _ := newTestTask(repo)

	created, err := svc.Create(context.Background(), internal.CreateTaskParams{Title: "A"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	bogus := internal.Status("bogus")

	_, err = svc.Update(context.Background(), created.ID, internal.UpdateTaskParams{Status: &bogus})
	if err == nil {
		t.Fatal("Update() expected error")
	}

	stored := repo.tasks[created.ID]
	if stored.Status != internal.StatusPending || stored.UpdatedAt != nil {
		t.Errorf("stored task mutated by rejected update: %+v", stored)
	}
}

func TestTask_Delete_Twice(t *testing.T) {
	t.Parallel()

	repo := newFakeTaskRepo()
	svc, broker := newTestTask(repo)

	created, err := svc.Create(context.Background(), internal.CreateTaskParams{Title: "A"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("first Delete() error = %v", err)
	}

	err = svc.Delete(context.Background(), created.ID)
	if err == nil {
		t.Fatal("second Delete() expected error")
	}

	if code := codeOf(t, err); code != internal.ErrorCodeNotFound {
		t.Errorf("code = %v, want not found", code)
	}

	if broker.deleted != 1 {
		t.Errorf("broker.deleted = %d, want 1", broker.deleted)
	}
}

func TestTask_Stats(t *testing.T) {
	t.Parallel()

	svc, _ := newTestTask(newFakeTaskRepo())

	for _, status := range []internal.Status{
		internal.StatusPending,
		internal.StatusPending,
		internal.StatusCompleted,
	} {
		if _, err := svc.Create(context.Background(), internal.CreateTaskParams{
			Title:  "task",
			Status: status,
		}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}

	if stats.Total != 3 {
		t.Errorf("Total = %d, want 3", stats.Total)
	}
	if stats.ByStatus[internal.StatusPending] != 2 {
		t.Errorf("pending = %d, want 2", stats.ByStatus[internal.StatusPending])
	}
	if stats.ByStatus[internal.StatusCompleted] != 1 {
		t.Errorf("completed = %d, want 1", stats.ByStatus[internal.StatusCompleted])
	}
	if _, ok := stats.ByStatus[internal.StatusInProgress]; ok {
		t.Error("in_progress reported despite zero tasks")
	}
}

func TestTask_ByStatus_UnknownStatusYieldsEmpty(t *testing.T) {
	t.Parallel()

	svc, _ := newTestTask(newFakeTaskRepo())

	if _, err := svc.Create(context.Background(), internal.CreateTaskParams{Title: "A"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	res, err := svc.ByStatus(context.Background(), "archived")
	if err != nil {
		t.Fatalf("ByStatus() error = %v", err)
	}

	if len(res) != 0 {
		t.Errorf("ByStatus(archived) returned %d tasks, want 0", len(res))
	}
}
