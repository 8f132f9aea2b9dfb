package core

import (
	"context"
	"fmt"
	"workcore/pkg/domain"
)

// MilestoneCompletionRule blocks milestones whose completion date or
// progress contradicts their status.
func MilestoneCompletionRule() domain.Rule {
	return milestoneCompletionRule{}
}

type milestoneCompletionRule struct{}

func (milestoneCompletionRule) Name() string { return "milestone_completion" }

func (milestoneCompletionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityMilestone {
			continue
		}
		m, ok := changeAs[domain.Milestone](change.After)
		if !ok {
			continue
		}
		var problems []string
		if m.Progress < 0 || m.Progress > 100 {
			problems = append(problems, fmt.Sprintf("progress %d is out of range", m.Progress))
		}
		if m.Status == domain.MilestoneStatusCompleted {
			if m.Progress != 100 {
				problems = append(problems, fmt.Sprintf("completed with progress %d", m.Progress))
			}
			if m.CompletedDate == nil {
				problems = append(problems, "completed without a completion date")
			}
		} else if m.CompletedDate != nil {
			problems = append(problems, fmt.Sprintf("%s but still carries a completion date", m.Status))
		}
		for _, p := range problems {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "milestone_completion",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("milestone %s %s", m.ID, p),
				Entity:   domain.EntityMilestone,
				EntityID: m.ID,
			})
		}
	}
	return res, nil
}
