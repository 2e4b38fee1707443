package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"github.com/taskflowhq/taskflow/internal/task"
	"github.com/taskflowhq/taskflow/pkg/cerr"
	"github.com/taskflowhq/taskflow/pkg/storage"
)

func newTestRepo(t *testing.T) *YAMLRepository {
	t.Helper()
	s, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	return NewYAMLRepository(s)
}

func TestYAMLRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	now := time.Now().Truncate(time.Second)
	tk := &task.Task{
		ID:        "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Type:      task.TypePersonal,
		Title:     "water the plants",
		CreatedBy: "01USERALICE000000000000000",
		Status:    task.StatusTodo,
		Priority:  task.PriorityLow,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := repo.Create(ctx, tk); err != nil {
		t.Fatalf("failed to create task: %v", err)
	}
	if err := repo.Create(ctx, tk); !cerr.IsCode(err, cerr.AlreadyExists) {
		t.Errorf("expected already_exists on duplicate create, got %v", err)
	}

	got, err := repo.Get(ctx, tk.ID)
	if err != nil {
		t.Fatalf("failed to get task: %v", err)
	}
	if got.Title != tk.Title {
		t.Errorf("expected title %q, got %q", tk.Title, got.Title)
	}
	if got.Status != task.StatusTodo {
		t.Errorf("expected status todo, got %s", got.Status)
	}

	got.Status = task.StatusInProgress
	got.UpdatedAt = now.Add(time.Minute)
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("failed to update task: %v", err)
	}
	updated, err := repo.Get(ctx, tk.ID)
	if err != nil {
		t.Fatalf("failed to re-read task: %v", err)
	}
	if updated.Status != task.StatusInProgress {
		t.Errorf("expected status in_progress, got %s", updated.Status)
	}

	if _, err := repo.Get(ctx, "01NOSUCHTASK00000000000000"); !cerr.IsCode(err, cerr.NotFound) {
		t.Errorf("expected not_found, got %v", err)
	}

	missing := *tk
	missing.ID = "01NOSUCHTASK00000000000000"
	if err := repo.Update(ctx, &missing); !cerr.IsCode(err, cerr.NotFound) {
		t.Errorf("expected not_found on update of missing task, got %v", err)
	}
}

func TestYAMLRepositoryListByCreator(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	now := time.Now()
	seed := []*task.Task{
		{ID: "01TASKA0000000000000000000", Title: "a", CreatedBy: "alice", CreatedAt: now, UpdatedAt: now},
		{ID: "01TASKB0000000000000000000", Title: "b", CreatedBy: "alice", CreatedAt: now, UpdatedAt: now},
		{ID: "01TASKC0000000000000000000", Title: "c", CreatedBy: "bob", CreatedAt: now, UpdatedAt: now},
	}
	for _, tk := range seed {
		if err := repo.Create(ctx, tk); err != nil {
			t.Fatalf("failed to seed task %s: %v", tk.ID, err)
		}
	}

	mine, err := repo.ListByCreator(ctx, "alice")
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("expected 2 tasks for alice, got %d", len(mine))
	}

	none, err := repo.ListByCreator(ctx, "carol")
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no tasks for carol, got %d", len(none))
	}
}

func TestYAMLRepositoryListInvolving(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	now := time.Now()
	seed := []*task.Task{
		{ID: "01TASKA0000000000000000000", Title: "mine", CreatedBy: "alice", CreatedAt: now, UpdatedAt: now},
		{ID: "01TASKB0000000000000000000", Title: "assigned", CreatedBy: "bob", AssigneeID: "alice", CreatedAt: now, UpdatedAt: now},
		{ID: "01TASKC0000000000000000000", Title: "team", CreatedBy: "bob", ProjectID: "proj1", CreatedAt: now, UpdatedAt: now},
		{ID: "01TASKD0000000000000000000", Title: "unrelated", CreatedBy: "bob", CreatedAt: now, UpdatedAt: now},
	}
	for _, tk := range seed {
		if err := repo.Create(ctx, tk); err != nil {
			t.Fatalf("failed to seed task %s: %v", tk.ID, err)
		}
	}

	tasks, err := repo.ListInvolving(ctx, "alice", []string{"proj1"})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(tasks) != 3 {
		t.Errorf("expected 3 tasks, got %d", len(tasks))
	}
}
