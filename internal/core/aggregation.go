package core

import (
	"workcore/internal/progress"
	"workcore/pkg/domain"
)

// propagateProgress recomputes the project's progress snapshot from its live
// tasks inside the caller's transaction.
func propagateProgress(m *mutation, projectID string) (domain.Project, error) {
	snapshot := progress.FromTasks(m.tx.ListTasksByProject(projectID))
	return m.tx.UpdateProject(projectID, func(p *domain.Project) error {
		p.Progress = snapshot
		p.UpdatedAt = m.now
		p.LastActivityAt = m.now
		return nil
	})
}

// touchProject bumps the activity timestamp after a milestone mutation.
func touchProject(m *mutation, projectID string) error {
	_, err := m.tx.UpdateProject(projectID, func(p *domain.Project) error {
		p.LastActivityAt = m.now
		return nil
	})
	return err
}

// nextMilestoneOrder returns max(order)+1 over the project's live milestones.
func nextMilestoneOrder(v domain.TransactionView, projectID string) int {
	next := 0
	for _, ms := range v.ListMilestonesByProject(projectID) {
		if !ms.IsDeleted() && ms.Order >= next {
			next = ms.Order + 1
		}
	}
	return next
}

// nextTaskOrder returns max(order)+1 within one status column.
func nextTaskOrder(v domain.TransactionView, projectID string, status domain.TaskStatus) int {
	next := 0
	for _, t := range v.ListTasksByProject(projectID) {
		if !t.IsDeleted() && t.Status == status && t.Order >= next {
			next = t.Order + 1
		}
	}
	return next
}
