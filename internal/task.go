package internal

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Status indicates how far along a Task is.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Statuses returns every valid status value.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted}
}

// Validate indicates whether the receiver is one of the known status values.
func (s Status) Validate() error {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return nil
	}

	return NewErrorf(ErrorCodeInvalidArgument, "unknown status %q", string(s))
}

// Task is an activity tracked by the system. CreatedAt is assigned exactly
// once when the record is inserted, UpdatedAt remains nil until the first
// mutation.
type Task struct {
	ID          int64
	Title       string
	Description *string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DueDate     *time.Time
}

// Validate checks the current in-memory representation.
func (t Task) Validate() error {
	if err := validation.ValidateStruct(&t,
		validation.Field(&t.Title, validation.Required),
	); err != nil {
		return WrapErrorf(err, ErrorCodeInvalidArgument, "validation.ValidateStruct")
	}

	return t.Status.Validate()
}

// CreateTaskParams defines the values accepted when inserting a new Task.
// Timestamps are never taken from the caller, the service stamps CreatedAt
// itself.
type CreateTaskParams struct {
	Title       string
	Description *string
	Status      Status
	DueDate     *time.Time
}

// Validate ...
func (p CreateTaskParams) Validate() error {
	if err := validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required),
	); err != nil {
		return WrapErrorf(err, ErrorCodeInvalidArgument, "validation.ValidateStruct")
	}

	return p.Status.Validate()
}

// UpdateTaskParams defines a partial update: nil pointers mean "leave the
// field alone". Description and DueDate are nullable columns, so presence is
// tracked separately to distinguish "absent" from "present but null".
type UpdateTaskParams struct {
	Title          *string
	Description    *string
	DescriptionSet bool
	Status         *Status
	DueDate        *time.Time
	DueDateSet     bool
}

// Validate ...
func (p UpdateTaskParams) Validate() error {
	if p.Title != nil && *p.Title == "" {
		return NewErrorf(ErrorCodeInvalidArgument, "title is required")
	}

	if p.Status != nil {
		return p.Status.Validate()
	}

	return nil
}

// Apply merges the params over an existing Task.
func (p UpdateTaskParams) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}

	if p.DescriptionSet {
		t.Description = p.Description
	}

	if p.Status != nil {
		t.Status = *p.Status
	}

	if p.DueDateSet {
		t.DueDate = p.DueDate
	}
}

// SearchParams defines the filters accepted when listing Tasks. The status
// is taken verbatim, an unrecognized value simply matches nothing. Both
// filters combine conjunctively when present.
type SearchParams struct {
	Keyword *string
	Status  *string
}

// IsZero determines whether any filter is set.
func (p SearchParams) IsZero() bool {
	return p.Keyword == nil && p.Status == nil
}

// TaskStats aggregates tasks per status. Statuses without any task are not
// present in ByStatus.
type TaskStats struct {
	Total    int64
	ByStatus map[Status]int64
}
