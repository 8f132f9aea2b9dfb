// Package progress derives completion percentages for milestones and projects.
package progress

import "workcore/pkg/domain"

// Percentage returns round(completed/total*100) with halves rounded up, or 0
// when total is not positive. Inputs are clamped so the result stays in [0,100].
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	if completed < 0 {
		completed = 0
	}
	if completed > total {
		completed = total
	}
	return (completed*200 + total) / (2 * total)
}

// Milestone derives milestone progress from its deliverables.
func Milestone(deliverables []domain.Deliverable) int {
	done := 0
	for _, d := range deliverables {
		if d.Completed {
			done++
		}
	}
	return Percentage(done, len(deliverables))
}

// Project builds the progress snapshot stored on a project.
func Project(completedTasks, totalTasks int) domain.ProgressSnapshot {
	return domain.ProgressSnapshot{
		CompletedTasks: completedTasks,
		TotalTasks:     totalTasks,
		Percentage:     Percentage(completedTasks, totalTasks),
	}
}

// FromTasks counts the live tasks of a task set and returns the snapshot.
// Soft-deleted tasks are excluded from both counts.
func FromTasks(tasks []domain.Task) domain.ProgressSnapshot {
	completed, total := 0, 0
	for _, t := range tasks {
		if t.IsDeleted() {
			continue
		}
		total++
		if t.Status == domain.TaskStatusCompleted {
			completed++
		}
	}
	return Project(completed, total)
}
