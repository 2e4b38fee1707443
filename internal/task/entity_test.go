package task

import (
	"testing"
	"time"
)

func TestMarkComplete(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)
	task := &Task{
		ID:        "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Title:     "write report",
		Status:    StatusInProgress,
		CreatedAt: now.Add(-48 * time.Hour),
		UpdatedAt: now.Add(-48 * time.Hour),
	}

	if !task.MarkComplete(now) {
		t.Fatal("expected first MarkComplete to report a transition")
	}
	if task.Status != StatusDone {
		t.Errorf("expected status done, got %s", task.Status)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(now) {
		t.Errorf("expected completed_at %v, got %v", now, task.CompletedAt)
	}
	if !task.UpdatedAt.Equal(now) {
		t.Errorf("expected updated_at %v, got %v", now, task.UpdatedAt)
	}

	// Completing again must change nothing.
	later := now.Add(time.Hour)
	if task.MarkComplete(later) {
		t.Fatal("expected second MarkComplete to be a no-op")
	}
	if !task.CompletedAt.Equal(now) {
		t.Errorf("completed_at moved on repeat completion: %v", task.CompletedAt)
	}
	if !task.UpdatedAt.Equal(now) {
		t.Errorf("updated_at moved on repeat completion: %v", task.UpdatedAt)
	}
}

func TestParseDueDate(t *testing.T) {
	d, err := ParseDueDate("2026-03-15")
	if err != nil {
		t.Fatalf("failed to parse valid date: %v", err)
	}
	if d.Year() != 2026 || d.Month() != time.March || d.Day() != 15 {
		t.Errorf("unexpected date: %v", d)
	}
	if d.Hour() != 0 || d.Minute() != 0 {
		t.Errorf("expected midnight, got %v", d)
	}

	for _, raw := range []string{"15/03/2026", "2026-13-01", "soon", "2026-03-15T10:00:00Z"} {
		if _, err := ParseDueDate(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusTodo, StatusInProgress, StatusDone} {
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if Status("archived").Valid() {
		t.Error("expected archived to be invalid")
	}
	if Status("").Valid() {
		t.Error("expected empty status to be invalid")
	}
}
