package task

import (
	"testing"
	"time"
)

// Wednesday 2026-03-11; the week window is Monday 2026-03-09 through today.
var statsNow = time.Date(2026, 3, 11, 14, 30, 0, 0, time.Local)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	return &t
}

func TestComputeStats(t *testing.T) {
	tasks := []*Task{
		// In progress, created Tuesday: counts for the week.
		{Status: StatusInProgress, CreatedAt: statsNow.Add(-24 * time.Hour)},
		// Done, created Monday: counts for the week.
		{Status: StatusDone, CreatedAt: time.Date(2026, 3, 9, 9, 0, 0, 0, time.Local)},
		// In progress but created last Sunday: outside the window.
		{Status: StatusInProgress, CreatedAt: time.Date(2026, 3, 8, 23, 0, 0, 0, time.Local)},
		// Todo due today: urgent regardless of creation date.
		{Status: StatusTodo, CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.Local), DueDate: datePtr(2026, 3, 11)},
		// Done and due today, created before the window: finished work is not
		// urgent and does not count for this week either.
		{Status: StatusDone, CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.Local), DueDate: datePtr(2026, 3, 11)},
		// Due tomorrow: not urgent yet.
		{Status: StatusInProgress, CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.Local), DueDate: datePtr(2026, 3, 12)},
	}

	stats := ComputeStats(tasks, statsNow)
	if stats.InProgressThisWeek != 1 {
		t.Errorf("expected 1 in progress this week, got %d", stats.InProgressThisWeek)
	}
	if stats.CompletedThisWeek != 1 {
		t.Errorf("expected 1 completed this week, got %d", stats.CompletedThisWeek)
	}
	if stats.UrgentToday != 1 {
		t.Errorf("expected 1 urgent today, got %d", stats.UrgentToday)
	}
}

func TestComputeStatsSingleTask(t *testing.T) {
	// One in-progress task created today and due today hits two counters at
	// once: the week counter and the urgency counter.
	tasks := []*Task{
		{Status: StatusInProgress, CreatedAt: statsNow, DueDate: datePtr(2026, 3, 11)},
	}
	stats := ComputeStats(tasks, statsNow)
	if stats.InProgressThisWeek != 1 || stats.CompletedThisWeek != 0 || stats.UrgentToday != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestComputeStatsZeroCreatedAt(t *testing.T) {
	tasks := []*Task{
		{Status: StatusInProgress},
		{Status: StatusDone},
	}
	stats := ComputeStats(tasks, statsNow)
	if stats.InProgressThisWeek != 0 || stats.CompletedThisWeek != 0 {
		t.Errorf("tasks without a creation time must not count: %+v", stats)
	}
}

func TestComputeStatsMondayWindow(t *testing.T) {
	// On a Monday the window is that single day.
	monday := time.Date(2026, 3, 9, 8, 0, 0, 0, time.Local)
	tasks := []*Task{
		{Status: StatusDone, CreatedAt: monday},
		{Status: StatusDone, CreatedAt: monday.AddDate(0, 0, -1)}, // Sunday
	}
	stats := ComputeStats(tasks, monday)
	if stats.CompletedThisWeek != 1 {
		t.Errorf("expected 1 completed, got %d", stats.CompletedThisWeek)
	}
}

func TestSortForList(t *testing.T) {
	a := &Task{ID: "a", DueDate: datePtr(2026, 3, 20), CreatedAt: statsNow.Add(-time.Hour)}
	b := &Task{ID: "b", DueDate: datePtr(2026, 3, 12), CreatedAt: statsNow.Add(-time.Hour)}
	c := &Task{ID: "c", CreatedAt: statsNow} // no due date, newest
	d := &Task{ID: "d", CreatedAt: statsNow.Add(-48 * time.Hour)}

	tasks := []*Task{a, c, d, b}
	SortForList(tasks)

	got := make([]string, len(tasks))
	for i, task := range tasks {
		got[i] = task.ID
	}
	// Due dates first ascending, then no-due-date newest first.
	want := []string{"b", "a", "c", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestOrderForDisplayCapsAndCopies(t *testing.T) {
	tasks := make([]*Task, DisplayLimit+10)
	for i := range tasks {
		tasks[i] = &Task{CreatedAt: statsNow.Add(time.Duration(i) * time.Minute)}
	}

	ordered := OrderForDisplay(tasks)
	if len(ordered) != DisplayLimit {
		t.Errorf("expected %d tasks, got %d", DisplayLimit, len(ordered))
	}
	if len(tasks) != DisplayLimit+10 {
		t.Errorf("input slice was truncated: %d", len(tasks))
	}
	// Newest first when nothing has a due date.
	if !ordered[0].CreatedAt.After(ordered[1].CreatedAt) {
		t.Error("expected newest-first ordering")
	}
}
