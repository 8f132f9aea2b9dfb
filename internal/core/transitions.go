package core

import (
	"time"
	"workcore/internal/progress"
	"workcore/pkg/domain"
)

// applyTaskStatus moves t to status. Entering completed stamps CompletedAt
// once; any other status clears it except cancelled, which keeps whatever
// was there.
func applyTaskStatus(t *domain.Task, status domain.TaskStatus, now time.Time) {
	switch status {
	case domain.TaskStatusCompleted:
		if t.CompletedAt == nil {
			t.CompletedAt = timePtr(now)
		}
	case domain.TaskStatusCancelled:
	default:
		t.CompletedAt = nil
	}
	t.Status = status
}

// applyMilestoneStatus forces progress to 100 on completion. Leaving
// completed clears CompletedDate and leaves progress alone.
func applyMilestoneStatus(m *domain.Milestone, status domain.MilestoneStatus, now time.Time) {
	if status == domain.MilestoneStatusCompleted {
		m.Progress = 100
		if m.CompletedDate == nil {
			m.CompletedDate = timePtr(now)
		}
	} else {
		m.CompletedDate = nil
	}
	m.Status = status
}

func applyProjectStatus(p *domain.Project, status domain.ProjectStatus, now time.Time) {
	if status == domain.ProjectStatusCompleted {
		if p.CompletedAt == nil {
			p.CompletedAt = timePtr(now)
		}
	} else {
		p.CompletedAt = nil
	}
	p.Status = status
}

// normalizeDeliverables stamps CompletedAt on completed items that lack one
// and clears it on open items.
func normalizeDeliverables(in []domain.Deliverable, now time.Time) []domain.Deliverable {
	if in == nil {
		return nil
	}
	out := make([]domain.Deliverable, len(in))
	for i, d := range in {
		switch {
		case d.Completed && d.CompletedAt == nil:
			d.CompletedAt = timePtr(now)
		case !d.Completed:
			d.CompletedAt = nil
		}
		out[i] = d
	}
	return out
}

// recomputeMilestoneProgress derives progress from deliverables unless the
// milestone is completed, where progress stays pinned at 100.
func recomputeMilestoneProgress(m *domain.Milestone) {
	if m.Status == domain.MilestoneStatusCompleted {
		m.Progress = 100
		return
	}
	m.Progress = progress.Milestone(m.Deliverables)
}
