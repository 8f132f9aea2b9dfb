package core

import (
	"errors"
	"strings"
	"time"
	"workcore/internal/validation"
	"workcore/pkg/domain"
)

// errAlreadyDeleted marks InvalidState failures caused by deleting a record twice.
var errAlreadyDeleted = errors.New("already deleted")

func deletedError(entity domain.EntityType, ref string) error {
	return domain.InvalidState(entity, ref, "%s %q is deleted", entity, ref)
}

func alreadyDeletedError(entity domain.EntityType, ref string) error {
	err := domain.InvalidState(entity, ref, "%s %q is already deleted", entity, ref)
	err.Err = errAlreadyDeleted
	return err
}

func notDeletedError(entity domain.EntityType, ref string) error {
	return domain.InvalidState(entity, ref, "%s %q is not deleted", entity, ref)
}

func validate(kind domain.EntityType, payload any) error {
	if errs := validation.Validate(kind, payload); len(errs) > 0 {
		return domain.ValidationFailed(errs)
	}
	return nil
}

// References accept either the internal or the public identifier.

func loadProject(v domain.TransactionView, ref string) (domain.Project, error) {
	if p, ok := v.FindProject(ref); ok {
		return p, nil
	}
	if p, ok := v.FindProjectByPublicID(ref); ok {
		return p, nil
	}
	return domain.Project{}, domain.NotFound(domain.EntityProject, ref)
}

// loadLiveProject also rejects soft-deleted projects.
func loadLiveProject(v domain.TransactionView, ref string) (domain.Project, error) {
	p, err := loadProject(v, ref)
	if err != nil {
		return domain.Project{}, err
	}
	if p.IsDeleted() {
		return domain.Project{}, deletedError(domain.EntityProject, ref)
	}
	return p, nil
}

func loadMilestone(v domain.TransactionView, ref string) (domain.Milestone, error) {
	if m, ok := v.FindMilestone(ref); ok {
		return m, nil
	}
	if m, ok := v.FindMilestoneByPublicID(ref); ok {
		return m, nil
	}
	return domain.Milestone{}, domain.NotFound(domain.EntityMilestone, ref)
}

func loadTask(v domain.TransactionView, ref string) (domain.Task, error) {
	if t, ok := v.FindTask(ref); ok {
		return t, nil
	}
	if t, ok := v.FindTaskByPublicID(ref); ok {
		return t, nil
	}
	return domain.Task{}, domain.NotFound(domain.EntityTask, ref)
}

func loadMember(v domain.TransactionView, project domain.Project, userID string) (domain.ProjectMember, error) {
	m, ok := v.FindMember(project.ID, userID)
	if !ok || m.Status == domain.MemberStatusRemoved {
		return domain.ProjectMember{}, domain.NotFound(domain.EntityMember, userID)
	}
	return m, nil
}

// mergeDates overlays patched dates on stored ones so the ordering check
// sees the values that will be persisted.
func mergeDates(start, due, patchStart, patchDue *time.Time) (*time.Time, *time.Time) {
	if patchStart != nil {
		start = patchStart
	}
	if patchDue != nil {
		due = patchDue
	}
	return start, due
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func timePtr(t time.Time) *time.Time { return &t }

func joinFields(fields []string) string { return strings.Join(fields, ",") }
