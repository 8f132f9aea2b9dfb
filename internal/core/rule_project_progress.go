package core

import (
	"context"
	"fmt"
	"workcore/internal/progress"
	"workcore/pkg/domain"
)

// ProjectProgressRule blocks commits that leave a project's progress
// snapshot stale after one of its tasks changed, or internally inconsistent
// otherwise.
func ProjectProgressRule() domain.Rule {
	return projectProgressRule{}
}

type projectProgressRule struct{}

func (projectProgressRule) Name() string { return "project_progress" }

func (projectProgressRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	touched := make(map[string]bool)
	var order []string
	mark := func(id string, fromTask bool) {
		if id == "" {
			return
		}
		seen, ok := touched[id]
		if !ok {
			order = append(order, id)
		}
		touched[id] = seen || fromTask
	}
	for _, change := range changes {
		switch change.Entity {
		case domain.EntityTask:
			for _, payload := range []any{change.Before, change.After} {
				if t, ok := changeAs[domain.Task](payload); ok {
					mark(t.ProjectID, true)
				}
			}
		case domain.EntityProject:
			if p, ok := changeAs[domain.Project](change.After); ok {
				mark(p.ID, false)
			}
		}
	}

	res := domain.Result{}
	for _, id := range order {
		project, ok := view.FindProject(id)
		if !ok || project.IsDeleted() {
			continue
		}
		got := project.Progress
		if touched[id] {
			if got == progress.FromTasks(view.ListTasksByProject(id)) {
				continue
			}
		} else if selfConsistent(got) {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "project_progress",
			Severity: domain.SeverityBlock,
			Message: fmt.Sprintf("project %s progress %d/%d (%d%%) does not match its tasks",
				id, got.CompletedTasks, got.TotalTasks, got.Percentage),
			Entity:   domain.EntityProject,
			EntityID: id,
		})
	}
	return res, nil
}

func selfConsistent(s domain.ProgressSnapshot) bool {
	if s.CompletedTasks < 0 || s.CompletedTasks > s.TotalTasks {
		return false
	}
	return s == progress.Project(s.CompletedTasks, s.TotalTasks)
}
