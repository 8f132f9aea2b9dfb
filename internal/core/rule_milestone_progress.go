package core

import (
	"context"
	"fmt"
	"workcore/internal/progress"
	"workcore/pkg/domain"
)

// MilestoneProgressRule warns when an open milestone's progress drifts from
// its deliverables, which happens when progress was set directly.
func MilestoneProgressRule() domain.Rule {
	return milestoneProgressRule{}
}

type milestoneProgressRule struct{}

func (milestoneProgressRule) Name() string { return "milestone_progress" }

func (milestoneProgressRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityMilestone {
			continue
		}
		m, ok := changeAs[domain.Milestone](change.After)
		if !ok || m.IsDeleted() || m.Status == domain.MilestoneStatusCompleted {
			continue
		}
		want := progress.Milestone(m.Deliverables)
		if m.Progress == want {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "milestone_progress",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("milestone %s progress %d differs from deliverables (%d)", m.ID, m.Progress, want),
			Entity:   domain.EntityMilestone,
			EntityID: m.ID,
		})
	}
	return res, nil
}
