package core

import (
	"context"
	"fmt"
	"workcore/pkg/domain"
)

// TaskCompletionRule keeps CompletedAt in step with the task status.
// Cancelled tasks may keep a timestamp from an earlier completion.
func TaskCompletionRule() domain.Rule {
	return taskCompletionRule{}
}

type taskCompletionRule struct{}

func (taskCompletionRule) Name() string { return "task_completion" }

func (taskCompletionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityTask {
			continue
		}
		t, ok := changeAs[domain.Task](change.After)
		if !ok {
			continue
		}
		var msg string
		switch {
		case t.Status == domain.TaskStatusCompleted && t.CompletedAt == nil:
			msg = fmt.Sprintf("task %s is completed without a completion time", t.ID)
		case t.Status != domain.TaskStatusCompleted && t.Status != domain.TaskStatusCancelled && t.CompletedAt != nil:
			msg = fmt.Sprintf("task %s is %s but still carries a completion time", t.ID, t.Status)
		default:
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "task_completion",
			Severity: domain.SeverityBlock,
			Message:  msg,
			Entity:   domain.EntityTask,
			EntityID: t.ID,
		})
	}
	return res, nil
}
