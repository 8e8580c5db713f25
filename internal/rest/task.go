package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/plefebvre/task-api/internal"
)

const dueDateLayout = "2006-01-02"

// TaskService ...
type TaskService interface {
	Search(ctx context.Context, params internal.SearchParams) ([]internal.Task, error)
	Find(ctx context.Context, id int64) (internal.Task, error)
	Create(ctx context.Context, params internal.CreateTaskParams) (internal.Task, error)
	Update(ctx context.Context, id int64, params internal.UpdateTaskParams) (internal.Task, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (internal.TaskStats, error)
}

// TaskHandler ...
type TaskHandler struct {
	svc TaskService
}

// NewTaskHandler ...
func NewTaskHandler(svc TaskService) *TaskHandler {
	return &TaskHandler{
		svc: svc,
	}
}

// Register connects the handlers to the router. "stats" is routed before the
// numeric id pattern so it never parses as one.
func (t *TaskHandler) Register(r chi.Router) {
	r.Get("/tasks", t.list)
	r.Get("/tasks/stats", t.stats)
	r.Get("/tasks/{id:[0-9]+}", t.find)
	r.Post("/tasks", t.create)
	r.Put("/tasks/{id:[0-9]+}", t.update)
	r.Delete("/tasks/{id:[0-9]+}", t.delete)
}

// Task defines the JSON shape of a task record.
type Task struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   *string `json:"updatedAt"`
	DueDate     *string `json:"dueDate"`
}

func newTask(task internal.Task) Task {
	res := Task{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		CreatedAt:   task.CreatedAt.Format(time.RFC3339),
	}

	if task.UpdatedAt != nil {
		updated := task.UpdatedAt.Format(time.RFC3339)
		res.UpdatedAt = &updated
	}

	if task.DueDate != nil {
		due := task.DueDate.Format(dueDateLayout)
		res.DueDate = &due
	}

	return res
}

func newTasks(tasks []internal.Task) []Task {
	res := make([]Task, 0, len(tasks))

	for _, task := range tasks {
		res = append(res, newTask(task))
	}

	return res
}

// optionalString distinguishes an absent key from an explicit null, which
// plain pointers cannot.
type optionalString struct {
	set   bool
	value *string
}

func (o *optionalString) UnmarshalJSON(b []byte) error {
	o.set = true

	return json.Unmarshal(b, &o.value)
}

// CreateTaskRequest defines the request used for creating tasks.
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	DueDate     *string `json:"dueDate"`
}

// UpdateTaskRequest defines the request used for partial task updates.
type UpdateTaskRequest struct {
	Title       *string        `json:"title"`
	Description optionalString `json:"description"`
	Status      *string        `json:"status"`
	DueDate     optionalString `json:"dueDate"`
}

// StatsResponse defines the response returned by the stats endpoint.
type StatsResponse struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"byStatus"`
}

func (t *TaskHandler) list(w http.ResponseWriter, r *http.Request) {
	var params internal.SearchParams

	if search := r.URL.Query().Get("search"); search != "" {
		params.Keyword = &search
	}

	if status := r.URL.Query().Get("status"); status != "" {
		params.Status = &status
	}

	tasks, err := t.svc.Search(r.Context(), params)
	if err != nil {
		renderErrorResponse(r.Context(), w, err)
		return
	}

	res := newTasks(tasks)

	renderList(w, res, len(res))
}

func (t *TaskHandler) find(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		renderErrorResponse(r.Context(), w, err)
		return
	}

	task, err := t.svc.Find(r.Context(), id)
	if err != nil {
		renderErrorResponse(r.Context(), w, err)
		return
	}

	renderData(w, http.StatusOK, newTask(task))
}

func (t *TaskHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderErrorResponse(r.Context(), w,
			internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "invalid request body"))
		return
	}
	defer r.Body.Close()

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		renderErrorResponse(r.Context(), w, err)
		return
	}

	task, err := t.svc.Create(r.Context(), internal.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Status:      internal.Status(req.Status),
		DueDate:     dueDate,
	})
	if err != nil {
		renderErrorResponse(r.Context(), w, err)
		return
	}

	renderMessage(w, http.StatusCreated, "task created", newTask(task))
}

func (t *TaskHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		renderErrorResponse(r.Context(), w, err)
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderErrorResponse(r.Context(), w,
			internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "invalid request body"))
		return
	}
	defer r.Body.Close()

	params := internal.UpdateTaskParams{
		Title:          req.Title,
		DescriptionSet: req.Description.set,
		Description:    req.Description.value,
		DueDateSet:     req.DueDate.set,
	}

	if req.Status != nil {
		status := internal.Status(*req.Status)
		params.Status = &status
	}

	if req.DueDate.set {
		due, err := parseDueDate(req.DueDate.value)
		if err != nil {
			renderErrorResponse(r.Context(), w, err)
			return
		}

		params.DueDate = due
	}

	task, err := t.svc.Update(r.Context(), id, params)
	if err != nil {
		renderErrorResponse(r.Context(), w, err)
		return
	}

	renderMessage(w, http.StatusOK, "task updated", newTask(task))
}

func (t *TaskHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		renderErrorResponse(r.Context(), w, err)
		return
	}

	if err := t.svc.Delete(r.Context(), id); err != nil {
		renderErrorResponse(r.Context(), w, err)
		return
	}

	renderMessage(w, http.StatusOK, "task deleted", nil)
}

func (t *TaskHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := t.svc.Stats(r.Context())
	if err != nil {
		renderErrorResponse(r.Context(), w, err)
		return
	}

	byStatus := make(map[string]int64, len(stats.ByStatus))
	for status, count := range stats.ByStatus {
		byStatus[string(status)] = count
	}

	renderData(w, http.StatusOK, StatsResponse{
		Total:    stats.Total,
		ByStatus: byStatus,
	})
}

func taskID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "invalid task id")
	}

	return id, nil
}

func parseDueDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}

	due, err := time.Parse(dueDateLayout, *s)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument,
			"dueDate must use the %s format", dueDateLayout)
	}

	return &due, nil
}
