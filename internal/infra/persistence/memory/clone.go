package memory

import (
	"sort"
	"time"
	"workcore/pkg/domain"
)

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	cp := *f
	return &cp
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append([]string(nil), values...)
}

func cloneStringMap(values map[string]string) map[string]string {
	if values == nil {
		return nil
	}
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return cp
}

func cloneProject(p Project) Project {
	cp := p
	cp.DeletedAt = cloneTime(p.DeletedAt)
	cp.DeletedBy = cloneString(p.DeletedBy)
	cp.Tags = cloneStrings(p.Tags)
	cp.StartDate = cloneTime(p.StartDate)
	cp.DueDate = cloneTime(p.DueDate)
	cp.CompletedAt = cloneTime(p.CompletedAt)
	cp.Metadata.Budget = cloneFloat(p.Metadata.Budget)
	cp.Metadata.Custom = cloneStringMap(p.Metadata.Custom)
	return cp
}

func cloneMilestone(m Milestone) Milestone {
	cp := m
	cp.DeletedAt = cloneTime(m.DeletedAt)
	cp.DeletedBy = cloneString(m.DeletedBy)
	cp.StartDate = cloneTime(m.StartDate)
	cp.DueDate = cloneTime(m.DueDate)
	cp.CompletedDate = cloneTime(m.CompletedDate)
	if m.Deliverables != nil {
		cp.Deliverables = make([]domain.Deliverable, len(m.Deliverables))
		for i, d := range m.Deliverables {
			d.CompletedAt = cloneTime(d.CompletedAt)
			cp.Deliverables[i] = d
		}
	}
	cp.Dependencies = cloneStrings(m.Dependencies)
	cp.AssigneeID = cloneString(m.AssigneeID)
	cp.Metadata.Budget = cloneFloat(m.Metadata.Budget)
	cp.Metadata.Attachments = cloneStrings(m.Metadata.Attachments)
	return cp
}

func cloneTask(t Task) Task {
	cp := t
	cp.DeletedAt = cloneTime(t.DeletedAt)
	cp.DeletedBy = cloneString(t.DeletedBy)
	cp.AssigneeID = cloneString(t.AssigneeID)
	cp.Tags = cloneStrings(t.Tags)
	cp.StartDate = cloneTime(t.StartDate)
	cp.DueDate = cloneTime(t.DueDate)
	cp.EstimatedHours = cloneFloat(t.EstimatedHours)
	cp.ActualHours = cloneFloat(t.ActualHours)
	cp.BlockedBy = cloneStrings(t.BlockedBy)
	cp.DependsOn = cloneStrings(t.DependsOn)
	cp.Metadata = cloneStringMap(t.Metadata)
	cp.CompletedAt = cloneTime(t.CompletedAt)
	return cp
}

func cloneMember(m ProjectMember) ProjectMember {
	cp := m
	cp.Permissions.Custom = cloneStrings(m.Permissions.Custom)
	return cp
}

func cloneAuditEntry(e AuditLogEntry) AuditLogEntry {
	cp := e
	cp.Metadata = cloneStringMap(e.Metadata)
	return cp
}

// byCreation orders records by creation time, then id, so listings are stable
// across map iteration.
func byCreation[T any](items []T, created func(T) time.Time, id func(T) string) []T {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return id(items[i]) < id(items[j])
	})
	return items
}
