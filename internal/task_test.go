package internal_test

import (
	"errors"
	"testing"
	"time"

	"github.com/plefebvre/task-api/internal"
)

func TestStatus_Validate(t *testing.T) {
	t.Parallel()

	for _, status := range internal.Statuses() {
		if err := status.Validate(); err != nil {
			t.Errorf("Validate(%q) error = %v", status, err)
		}
	}

	err := internal.Status("bogus").Validate()
	if err == nil {
		t.Fatal("Validate(bogus) expected error")
	}

	var ierr *internal.Error
	if !errors.As(err, &ierr) || ierr.Code() != internal.ErrorCodeInvalidArgument {
		t.Errorf("expected invalid argument code, got %v", err)
	}
}

func TestCreateTaskParams_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  internal.CreateTaskParams
		wantErr bool
	}{
		{
			name:   "valid",
			params: internal.CreateTaskParams{Title: "write report", Status: internal.StatusPending},
		},
		{
			name:    "missing title",
			params:  internal.CreateTaskParams{Status: internal.StatusPending},
			wantErr: true,
		},
		{
			name:    "unknown status",
			params:  internal.CreateTaskParams{Title: "write report", Status: "archived"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.params.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateTaskParams_Apply(t *testing.T) {
	t.Parallel()

	desc := "old description"
	due := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	task := internal.Task{
		ID:          7,
		Title:       "old title",
		Description: &desc,
		Status:      internal.StatusPending,
		DueDate:     &due,
	}

	t.Run("status only leaves other fields alone", func(t *testing.T) {
		got := task

		status := internal.StatusCompleted
		internal.UpdateTaskParams{Status: &status}.Apply(&got)

		if got.Status != internal.StatusCompleted {
			t.Errorf("Status = %q, want %q", got.Status, internal.StatusCompleted)
		}
		if got.Title != task.Title {
			t.Errorf("Title = %q, want unchanged %q", got.Title, task.Title)
		}
		if got.Description == nil || *got.Description != desc {
			t.Error("Description changed")
		}
		if got.DueDate == nil || !got.DueDate.Equal(due) {
			t.Error("DueDate changed")
		}
	})

	t.Run("present but null clears nullable fields", func(t *testing.T) {
		got := task

		internal.UpdateTaskParams{
			DescriptionSet: true,
			DueDateSet:     true,
		}.Apply(&got)

		if got.Description != nil {
			t.Errorf("Description = %v, want nil", *got.Description)
		}
		if got.DueDate != nil {
			t.Errorf("DueDate = %v, want nil", *got.DueDate)
		}
	})

	t.Run("absent nullable fields untouched", func(t *testing.T) {
		got := task

		title := "new title"
		internal.UpdateTaskParams{Title: &title}.Apply(&got)

		if got.Title != title {
			t.Errorf("Title = %q, want %q", got.Title, title)
		}
		if got.Description == nil {
			t.Error("Description cleared without being set")
		}
	})
}

func TestUpdateTaskParams_Validate(t *testing.T) {
	t.Parallel()

	empty := ""
	bogus := internal.Status("bogus")

	if err := (internal.UpdateTaskParams{}).Validate(); err != nil {
		t.Errorf("empty params should be valid, got %v", err)
	}

	if err := (internal.UpdateTaskParams{Title: &empty}).Validate(); err == nil {
		t.Error("empty title should be rejected")
	}

	if err := (internal.UpdateTaskParams{Status: &bogus}).Validate(); err == nil {
		t.Error("unknown status should be rejected")
	}
}
