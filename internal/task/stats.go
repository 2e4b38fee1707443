package task

import (
	"sort"
	"time"
)

// Stats is the dashboard summary for one user's tasks at a point in time.
type Stats struct {
	InProgressThisWeek int `json:"in_progress_this_week"`
	CompletedThisWeek  int `json:"completed_this_week"`
	UrgentToday        int `json:"urgent_today"`
}

// DisplayLimit caps the dashboard task list. List responses are not capped.
const DisplayLimit = 50

// ComputeStats derives dashboard counters from an in-memory task set. The
// week window runs from the most recent Monday through today, inclusive, on
// created-at dates. A task counts toward at most one of the two week
// counters; the urgency counter is independent of the week window.
func ComputeStats(tasks []*Task, now time.Time) Stats {
	today := dateOf(now)
	weekStart := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))

	var stats Stats
	for _, t := range tasks {
		if !t.CreatedAt.IsZero() {
			created := dateOf(t.CreatedAt)
			if !created.Before(weekStart) && !created.After(today) {
				switch t.Status {
				case StatusInProgress:
					stats.InProgressThisWeek++
				case StatusDone:
					stats.CompletedThisWeek++
				}
			}
		}
		if t.DueDate != nil && sameDay(*t.DueDate, today) &&
			(t.Status == StatusTodo || t.Status == StatusInProgress) {
			stats.UrgentToday++
		}
	}
	return stats
}

// SortForList orders tasks by due date ascending (no due date last), then by
// creation time, newest first. The slice is sorted in place.
func SortForList(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		di, dj := dueKey(tasks[i]), dueKey(tasks[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		// Zero created-at sorts as the earliest possible instant, i.e. last
		// under newest-first.
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}

// OrderForDisplay returns a sorted copy truncated for the dashboard. It
// shares SortForList's key; only this path truncates.
func OrderForDisplay(tasks []*Task) []*Task {
	ordered := make([]*Task, len(tasks))
	copy(ordered, tasks)
	SortForList(ordered)
	if len(ordered) > DisplayLimit {
		ordered = ordered[:DisplayLimit]
	}
	return ordered
}

var maxDue = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

func dueKey(t *Task) time.Time {
	if t.DueDate == nil {
		return maxDue
	}
	return *t.DueDate
}
