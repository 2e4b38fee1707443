package task

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflowhq/taskflow/internal/auth"
	"github.com/taskflowhq/taskflow/internal/eventbus"
	"github.com/taskflowhq/taskflow/internal/user"
	"github.com/taskflowhq/taskflow/pkg/cerr"
)

type memoryRepository struct {
	tasks map[string]*Task
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{tasks: make(map[string]*Task)}
}

func (r *memoryRepository) Create(_ context.Context, t *Task) error {
	if _, ok := r.tasks[t.ID]; ok {
		return cerr.NewError(cerr.AlreadyExists, "task already exists", nil)
	}
	clone := *t
	r.tasks[t.ID] = &clone
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (*Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	clone := *t
	return &clone, nil
}

func (r *memoryRepository) ListByCreator(_ context.Context, userID string) ([]*Task, error) {
	var out []*Task
	for _, t := range r.tasks {
		if t.CreatedBy == userID {
			clone := *t
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memoryRepository) ListInvolving(_ context.Context, userID string, projectIDs []string) ([]*Task, error) {
	member := make(map[string]bool, len(projectIDs))
	for _, id := range projectIDs {
		member[id] = true
	}
	var out []*Task
	for _, t := range r.tasks {
		if t.CreatedBy == userID || t.AssigneeID == userID || member[t.ProjectID] {
			clone := *t
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memoryRepository) Update(_ context.Context, t *Task) error {
	if _, ok := r.tasks[t.ID]; !ok {
		return cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	clone := *t
	r.tasks[t.ID] = &clone
	return nil
}

type memoryUsers struct {
	users map[string]*user.User
}

func (r *memoryUsers) Create(_ context.Context, u *user.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *memoryUsers) Get(_ context.Context, id string) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "user not found", nil)
	}
	return u, nil
}

func (r *memoryUsers) GetByUsername(_ context.Context, username string) (*user.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, cerr.NewError(cerr.NotFound, "user not found", nil)
}

func (r *memoryUsers) Update(_ context.Context, u *user.User) error {
	r.users[u.ID] = u
	return nil
}

type memoryProjects struct {
	names map[string]string
}

func (r *memoryProjects) ProjectName(_ context.Context, id string) (string, error) {
	name, ok := r.names[id]
	if !ok {
		return "", cerr.NewError(cerr.NotFound, "project not found", nil)
	}
	return name, nil
}

func actorMiddleware(actor auth.Actor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.ContextWithActor(r.Context(), actor)))
		})
	}
}

type fixture struct {
	router *chi.Mux
	repo   *memoryRepository
	server *Server
}

func newFixture(t *testing.T, actor auth.Actor) *fixture {
	t.Helper()
	repo := newMemoryRepository()
	users := &memoryUsers{users: map[string]*user.User{
		actor.ID: {ID: actor.ID, Username: actor.Username},
	}}
	projects := &memoryProjects{names: map[string]string{
		"01PROJECTALPHA000000000000": "Alpha",
	}}
	srv := NewServer(repo, NewCreatorOnlyVisibility(repo), users, projects, eventbus.New())
	srv.now = func() time.Time {
		return time.Date(2026, 3, 11, 14, 30, 0, 0, time.Local)
	}

	router := chi.NewRouter()
	router.Use(cerr.NewJSONResponseChiMiddleware())
	router.Use(actorMiddleware(actor))
	router.Get("/api/dashboard", srv.Dashboard)
	router.Route("/api/tasks", func(r chi.Router) {
		r.Get("/", srv.List)
		r.Post("/", srv.Create)
		r.Get("/{id}", srv.Get)
		r.Post("/{id}", srv.Update)
		r.Post("/{id}/complete", srv.MarkComplete)
	})
	return &fixture{router: router, repo: repo, server: srv}
}

func (f *fixture) do(t *testing.T, method, path string, body map[string]any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

var alice = auth.Actor{ID: "01USERALICE000000000000000", Username: "alice"}

func taskField(body map[string]any, key string) any {
	return body["task"].(map[string]any)[key]
}

func TestCreateTask(t *testing.T) {
	f := newFixture(t, alice)

	rec, body := f.do(t, http.MethodPost, "/api/tasks", map[string]any{
		"title":    "  write report  ",
		"status":   "in_progress",
		"priority": "high",
		"due_date": "2026-03-15",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "write report", taskField(body, "title"))
	assert.Equal(t, "in_progress", taskField(body, "status"))
	assert.Equal(t, "high", taskField(body, "priority"))
	assert.Equal(t, "2026-03-15", taskField(body, "due_date"))
	assert.Nil(t, taskField(body, "completed_at"))
	assert.Equal(t, "alice", taskField(body, "created_by").(map[string]any)["username"])
}

func TestCreateTaskCoercesInvalidEnums(t *testing.T) {
	f := newFixture(t, alice)

	rec, body := f.do(t, http.MethodPost, "/api/tasks", map[string]any{
		"title":    "quick one",
		"status":   "blocked",
		"priority": "urgent",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "todo", taskField(body, "status"))
	assert.Equal(t, "mid", taskField(body, "priority"))
}

func TestCreateTaskValidation(t *testing.T) {
	f := newFixture(t, alice)

	rec, body := f.do(t, http.MethodPost, "/api/tasks", map[string]any{"title": "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["errors"].(map[string]any), "title")

	rec, body = f.do(t, http.MethodPost, "/api/tasks", map[string]any{
		"title":    "bad date",
		"due_date": "15/03/2026",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["errors"].(map[string]any), "due_date")
}

func TestTaskCarriesProjectRef(t *testing.T) {
	f := newFixture(t, alice)

	rec, body := f.do(t, http.MethodPost, "/api/tasks", map[string]any{
		"title":      "project work",
		"task_type":  "project",
		"project_id": "01PROJECTALPHA000000000000",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	ref, ok := taskField(body, "project").(map[string]any)
	require.True(t, ok, "project tasks must carry a project object")
	assert.Equal(t, "01PROJECTALPHA000000000000", ref["id"])
	assert.Equal(t, "Alpha", ref["name"])

	// Personal tasks carry an explicit null, not a missing key.
	rec, body = f.do(t, http.MethodPost, "/api/tasks", map[string]any{"title": "just mine"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, body["task"].(map[string]any), "project")
	assert.Nil(t, taskField(body, "project"))
}

func TestTaskProjectRefDegradesToID(t *testing.T) {
	f := newFixture(t, alice)

	// A project the store cannot resolve still serializes by ID.
	rec, body := f.do(t, http.MethodPost, "/api/tasks", map[string]any{
		"title":      "orphaned",
		"task_type":  "project",
		"project_id": "01PROJECTGONE0000000000000",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	ref := taskField(body, "project").(map[string]any)
	assert.Equal(t, "01PROJECTGONE0000000000000", ref["id"])
	assert.Equal(t, "", ref["name"])
}

func TestCreateDoneTaskSetsCompletedAt(t *testing.T) {
	f := newFixture(t, alice)

	rec, body := f.do(t, http.MethodPost, "/api/tasks", map[string]any{
		"title":  "already finished",
		"status": "done",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotNil(t, taskField(body, "completed_at"))
}

func createTask(t *testing.T, f *fixture, fields map[string]any) string {
	t.Helper()
	rec, body := f.do(t, http.MethodPost, "/api/tasks", fields)
	require.Equal(t, http.StatusCreated, rec.Code)
	return taskField(body, "id").(string)
}

func TestUpdateTask(t *testing.T) {
	f := newFixture(t, alice)
	id := createTask(t, f, map[string]any{"title": "draft", "due_date": "2026-03-20"})

	// Omitting due_date clears it; an unknown status keeps the current one.
	rec, body := f.do(t, http.MethodPost, "/api/tasks/"+id, map[string]any{
		"title":  "draft v2",
		"status": "bogus",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "draft v2", taskField(body, "title"))
	assert.Equal(t, "todo", taskField(body, "status"))
	assert.Nil(t, taskField(body, "due_date"))
}

func TestUpdateDoneTaskStaysDone(t *testing.T) {
	f := newFixture(t, alice)
	id := createTask(t, f, map[string]any{"title": "finish me", "status": "done"})

	rec, body := f.do(t, http.MethodPost, "/api/tasks/"+id, map[string]any{
		"title":  "finish me",
		"status": "todo",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", taskField(body, "status"))
	assert.NotNil(t, taskField(body, "completed_at"))
}

func TestMarkCompleteIsIdempotent(t *testing.T) {
	f := newFixture(t, alice)
	id := createTask(t, f, map[string]any{"title": "ship it", "status": "in_progress"})

	rec, body := f.do(t, http.MethodPost, "/api/tasks/"+id+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", taskField(body, "status"))
	first := taskField(body, "completed_at")
	require.NotNil(t, first)

	rec, body = f.do(t, http.MethodPost, "/api/tasks/"+id+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, first, taskField(body, "completed_at"))
}

func TestGetTaskHidesOtherUsers(t *testing.T) {
	f := newFixture(t, alice)
	id := createTask(t, f, map[string]any{"title": "secret"})

	// Same store, different actor: the task must look like it does not exist.
	bob := auth.Actor{ID: "01USERBOB00000000000000000", Username: "bob"}
	g := newFixture(t, bob)
	g.repo.tasks = f.repo.tasks

	rec, body := g.do(t, http.MethodGet, "/api/tasks/"+id, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "not_found", body["code"])

	rec, _ = g.do(t, http.MethodGet, "/api/tasks/01NOSUCHTASK00000000000000", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTasks(t *testing.T) {
	f := newFixture(t, alice)
	createTask(t, f, map[string]any{"title": "one", "status": "todo"})
	createTask(t, f, map[string]any{"title": "two", "status": "in_progress"})
	createTask(t, f, map[string]any{"title": "three", "status": "done"})

	rec, body := f.do(t, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), body["count"])
	require.Contains(t, body, "stats")

	rec, body = f.do(t, http.MethodGet, "/api/tasks?status=in_progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
	// Stats always cover the full visible set, not the filtered one.
	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["completed_this_week"])

	// An unrecognized filter value is ignored entirely.
	rec, body = f.do(t, http.MethodGet, "/api/tasks?status=bogus", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), body["count"])

	// Title search is a case-insensitive substring match.
	rec, body = f.do(t, http.MethodGet, "/api/tasks?q=TWO", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
}

func TestDashboard(t *testing.T) {
	f := newFixture(t, alice)
	for i := 0; i < DisplayLimit+5; i++ {
		createTask(t, f, map[string]any{"title": fmt.Sprintf("task %d", i)})
	}

	rec, body := f.do(t, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", body["username"])
	assert.Len(t, body["tasks"], DisplayLimit)
	require.Contains(t, body, "stats")
}
