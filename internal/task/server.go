package task

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/taskflowhq/taskflow/internal/auth"
	"github.com/taskflowhq/taskflow/internal/eventbus"
	"github.com/taskflowhq/taskflow/internal/request"
	"github.com/taskflowhq/taskflow/internal/user"
	"github.com/taskflowhq/taskflow/pkg/cerr"
)

// ProjectSource resolves project display names for serialization. Satisfied
// by the project repository.
type ProjectSource interface {
	ProjectName(ctx context.Context, id string) (string, error)
}

type Server struct {
	repo       Repository
	visibility Visibility
	users      user.Repository
	projects   ProjectSource
	bus        *eventbus.Bus
	now        func() time.Time
}

func NewServer(repo Repository, visibility Visibility, users user.Repository, projects ProjectSource, bus *eventbus.Bus) *Server {
	return &Server{
		repo:       repo,
		visibility: visibility,
		users:      users,
		projects:   projects,
		bus:        bus,
		now:        time.Now,
	}
}

type projectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type taskJSON struct {
	ID          string      `json:"id"`
	Type        Type        `json:"task_type"`
	ProjectID   string      `json:"project_id,omitempty"`
	Project     *projectRef `json:"project"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	CreatedBy   user.Ref    `json:"created_by"`
	Assignee    *user.Ref   `json:"assignee"`
	Status      Status      `json:"status"`
	Priority    Priority    `json:"priority"`
	DueDate     *string     `json:"due_date"`
	CompletedAt *string     `json:"completed_at"`
	CreatedAt   string      `json:"created_at"`
	UpdatedAt   string      `json:"updated_at"`
}

func (s *Server) serialize(r *http.Request, t *Task) taskJSON {
	out := taskJSON{
		ID:          t.ID,
		Type:        t.Type,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		CreatedBy:   s.userRef(r, t.CreatedBy),
		Status:      t.Status,
		Priority:    t.Priority,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
	if t.ProjectID != "" {
		out.Project = s.projectRef(r, t.ProjectID)
	}
	if t.AssigneeID != "" {
		ref := s.userRef(r, t.AssigneeID)
		out.Assignee = &ref
	}
	if t.DueDate != nil {
		due := t.DueDate.Format(DueDateLayout)
		out.DueDate = &due
	}
	if t.CompletedAt != nil {
		completed := t.CompletedAt.Format(time.RFC3339)
		out.CompletedAt = &completed
	}
	return out
}

// userRef resolves a user ID to its public shape. A dangling ID (user store
// lagging the task store) degrades to an ID-only ref instead of failing the
// whole response.
func (s *Server) userRef(r *http.Request, id string) user.Ref {
	u, err := s.users.Get(r.Context(), id)
	if err != nil {
		return user.Ref{ID: id}
	}
	return u.Ref()
}

// projectRef degrades the same way: a project that cannot be read serializes
// as an ID-only ref rather than failing the response.
func (s *Server) projectRef(r *http.Request, id string) *projectRef {
	ref := &projectRef{ID: id}
	if name, err := s.projects.ProjectName(r.Context(), id); err == nil {
		ref.Name = name
	}
	return ref
}

func (s *Server) serializeAll(r *http.Request, tasks []*Task) []taskJSON {
	out := make([]taskJSON, len(tasks))
	for i, t := range tasks {
		out[i] = s.serialize(r, t)
	}
	return out
}

// Create registers a task for the actor. The title is the only hard
// requirement; unrecognized enum values are coerced to their defaults rather
// than rejected, matching how the browser form has always behaved.
func (s *Server) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)
	data := request.Values(r)

	title := strings.TrimSpace(data["title"])
	if title == "" {
		cerr.SetJSONError(ctx, cerr.NewFieldError("title", "This field is required."))
		return
	}

	taskType := Type(data["task_type"])
	if !taskType.Valid() {
		taskType = DefaultType
	}
	status := Status(data["status"])
	if !status.Valid() {
		status = DefaultStatus
	}
	priority := Priority(data["priority"])
	if !priority.Valid() {
		priority = DefaultPriority
	}

	projectID := strings.TrimSpace(data["project_id"])
	if taskType == TypeProject && projectID == "" {
		cerr.SetJSONError(ctx, cerr.NewFieldError("project_id", "This field is required for project tasks."))
		return
	}
	if taskType == TypePersonal {
		projectID = ""
	}

	var dueDate *time.Time
	if raw := strings.TrimSpace(data["due_date"]); raw != "" {
		parsed, err := ParseDueDate(raw)
		if err != nil {
			cerr.SetJSONError(ctx, cerr.NewFieldError("due_date", "Enter a valid date."))
			return
		}
		dueDate = parsed
	}

	// Unassigned tasks belong to their creator.
	assigneeID := strings.TrimSpace(data["assignee_id"])
	if assigneeID == "" {
		assigneeID = actor.ID
	}

	now := s.now()
	t := &Task{
		ID:          ulid.Make().String(),
		Type:        taskType,
		ProjectID:   projectID,
		Title:       title,
		Description: strings.TrimSpace(data["description"]),
		CreatedBy:   actor.ID,
		AssigneeID:  assigneeID,
		Status:      status,
		Priority:    priority,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Status == StatusDone {
		completed := now
		t.CompletedAt = &completed
	}

	if err := s.repo.Create(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.bus.PublishNew(eventbus.EventTypeTaskCreated, t.ID, actor.ID, map[string]string{
		"title":       t.Title,
		"assignee_id": t.AssigneeID,
		"project_id":  t.ProjectID,
	})

	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, map[string]any{
		"success": true,
		"task":    s.serialize(r, t),
	})
}

// Update replaces the mutable fields of a task. Description and due date take
// whatever the request carries, absent included, so omitting due_date clears
// it. Status, priority and assignee instead keep their current values when
// the request is absent or unrecognized, and a done task never leaves done.
func (s *Server) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)
	data := request.Values(r)

	t, err := s.visibility.Resolve(ctx, actor.ID, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	title := strings.TrimSpace(data["title"])
	if title == "" {
		cerr.SetJSONError(ctx, cerr.NewFieldError("title", "This field is required."))
		return
	}

	var dueDate *time.Time
	if raw := strings.TrimSpace(data["due_date"]); raw != "" {
		parsed, err := ParseDueDate(raw)
		if err != nil {
			cerr.SetJSONError(ctx, cerr.NewFieldError("due_date", "Enter a valid date."))
			return
		}
		dueDate = parsed
	}

	status := Status(data["status"])
	if !status.Valid() {
		status = t.Status
	}
	priority := Priority(data["priority"])
	if !priority.Valid() {
		priority = t.Priority
	}

	now := s.now()
	wasDone := t.Status == StatusDone

	t.Title = title
	t.Description = strings.TrimSpace(data["description"])
	if assigneeID := strings.TrimSpace(data["assignee_id"]); assigneeID != "" {
		t.AssigneeID = assigneeID
	}
	t.DueDate = dueDate
	t.Priority = priority
	t.UpdatedAt = now

	if wasDone {
		// Done is terminal. CompletedAt stays at the original instant.
		t.Status = StatusDone
	} else {
		t.Status = status
		if status == StatusDone {
			completed := now
			t.CompletedAt = &completed
		}
	}

	if err := s.repo.Update(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.bus.PublishNew(eventbus.EventTypeTaskUpdated, t.ID, actor.ID, map[string]string{
		"title":       t.Title,
		"status":      string(t.Status),
		"assignee_id": t.AssigneeID,
	})

	// Same envelope as Create; the browser form handles both with one path.
	cerr.SetJSONResponse(ctx, map[string]any{
		"success": true,
		"task":    s.serialize(r, t),
	})
}

// MarkComplete is idempotent: completing a done task succeeds without touching
// timestamps or publishing anything.
func (s *Server) MarkComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)

	t, err := s.visibility.Resolve(ctx, actor.ID, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	if t.MarkComplete(s.now()) {
		if err := s.repo.Update(ctx, t); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		s.bus.PublishNew(eventbus.EventTypeTaskCompleted, t.ID, actor.ID, map[string]string{
			"title":      t.Title,
			"created_by": t.CreatedBy,
		})
	}

	cerr.SetJSONResponse(ctx, map[string]any{
		"ok":   true,
		"task": s.serialize(r, t),
	})
}

func (s *Server) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)

	t, err := s.visibility.Resolve(ctx, actor.ID, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	cerr.SetJSONResponse(ctx, map[string]any{
		"ok":   true,
		"task": s.serialize(r, t),
	})
}

// List returns every visible task, filtered by the optional status and
// priority query parameters and the q title search. Unrecognized filter
// values are ignored rather than rejected, so ?status=bogus behaves like no
// filter at all.
func (s *Server) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)

	tasks, err := s.visibility.VisibleTo(ctx, actor.ID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	stats := ComputeStats(tasks, s.now())

	if status := Status(r.URL.Query().Get("status")); status.Valid() {
		tasks = filter(tasks, func(t *Task) bool { return t.Status == status })
	}
	if priority := Priority(r.URL.Query().Get("priority")); priority.Valid() {
		tasks = filter(tasks, func(t *Task) bool { return t.Priority == priority })
	}
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		needle := strings.ToLower(q)
		tasks = filter(tasks, func(t *Task) bool {
			return strings.Contains(strings.ToLower(t.Title), needle)
		})
	}
	SortForList(tasks)

	cerr.SetJSONResponse(ctx, map[string]any{
		"tasks": s.serializeAll(r, tasks),
		"count": len(tasks),
		"stats": stats,
	})
}

// Dashboard is the landing payload: the display-capped task list plus the
// week counters. Only this path truncates.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)

	tasks, err := s.visibility.VisibleTo(ctx, actor.ID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	cerr.SetJSONResponse(ctx, map[string]any{
		"username": actor.Username,
		"tasks":    s.serializeAll(r, OrderForDisplay(tasks)),
		"stats":    ComputeStats(tasks, s.now()),
	})
}

func filter(tasks []*Task, keep func(*Task) bool) []*Task {
	out := tasks[:0:0]
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
