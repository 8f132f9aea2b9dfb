package memory

import (
	"time"
	"workcore/pkg/domain"
)

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

func projectCreated(p Project) time.Time      { return p.CreatedAt }
func projectID(p Project) string              { return p.ID }
func milestoneCreated(m Milestone) time.Time  { return m.CreatedAt }
func milestoneID(m Milestone) string          { return m.ID }
func taskCreated(t Task) time.Time            { return t.CreatedAt }
func taskID(t Task) string                    { return t.ID }
func memberCreated(m ProjectMember) time.Time { return m.CreatedAt }
func memberID(m ProjectMember) string         { return m.ID }

// FindProject returns a project by internal id.
func (v transactionView) FindProject(id string) (Project, bool) {
	p, ok := v.state.projects[id]
	if !ok {
		return Project{}, false
	}
	return cloneProject(p), true
}

// FindProjectByPublicID returns a project by public id.
func (v transactionView) FindProjectByPublicID(publicID string) (Project, bool) {
	if publicID == "" {
		return Project{}, false
	}
	for _, p := range v.state.projects {
		if p.PublicID == publicID {
			return cloneProject(p), true
		}
	}
	return Project{}, false
}

// ListProjects returns all projects, including soft-deleted ones.
func (v transactionView) ListProjects() []Project {
	return v.filterProjects(func(Project) bool { return true })
}

// ListProjectsByOwner returns projects owned by ownerID.
func (v transactionView) ListProjectsByOwner(ownerID string) []Project {
	return v.filterProjects(func(p Project) bool { return p.OwnerID == ownerID })
}

func (v transactionView) filterProjects(keep func(Project) bool) []Project {
	out := make([]Project, 0, len(v.state.projects))
	for _, p := range v.state.projects {
		if keep(p) {
			out = append(out, cloneProject(p))
		}
	}
	return byCreation(out, projectCreated, projectID)
}

// FindMilestone returns a milestone by internal id.
func (v transactionView) FindMilestone(id string) (Milestone, bool) {
	m, ok := v.state.milestones[id]
	if !ok {
		return Milestone{}, false
	}
	return cloneMilestone(m), true
}

// FindMilestoneByPublicID returns a milestone by public id.
func (v transactionView) FindMilestoneByPublicID(publicID string) (Milestone, bool) {
	if publicID == "" {
		return Milestone{}, false
	}
	for _, m := range v.state.milestones {
		if m.PublicID == publicID {
			return cloneMilestone(m), true
		}
	}
	return Milestone{}, false
}

// ListMilestonesByProject returns the milestones of a project.
func (v transactionView) ListMilestonesByProject(projectID string) []Milestone {
	out := make([]Milestone, 0)
	for _, m := range v.state.milestones {
		if m.ProjectID == projectID {
			out = append(out, cloneMilestone(m))
		}
	}
	return byCreation(out, milestoneCreated, milestoneID)
}

// FindTask returns a task by internal id.
func (v transactionView) FindTask(id string) (Task, bool) {
	t, ok := v.state.tasks[id]
	if !ok {
		return Task{}, false
	}
	return cloneTask(t), true
}

// FindTaskByPublicID returns a task by public id.
func (v transactionView) FindTaskByPublicID(publicID string) (Task, bool) {
	if publicID == "" {
		return Task{}, false
	}
	for _, t := range v.state.tasks {
		if t.PublicID == publicID {
			return cloneTask(t), true
		}
	}
	return Task{}, false
}

// ListTasksByProject returns the tasks of a project.
func (v transactionView) ListTasksByProject(projectID string) []Task {
	return v.filterTasks(func(t Task) bool { return t.ProjectID == projectID })
}

// ListTasksByAssignee returns tasks assigned to userID across projects.
func (v transactionView) ListTasksByAssignee(userID string) []Task {
	return v.filterTasks(func(t Task) bool { return t.AssigneeID != nil && *t.AssigneeID == userID })
}

func (v transactionView) filterTasks(keep func(Task) bool) []Task {
	out := make([]Task, 0)
	for _, t := range v.state.tasks {
		if keep(t) {
			out = append(out, cloneTask(t))
		}
	}
	return byCreation(out, taskCreated, taskID)
}

// FindMember returns the membership linking userID to projectID.
func (v transactionView) FindMember(projectID, userID string) (ProjectMember, bool) {
	for _, m := range v.state.members {
		if m.ProjectID == projectID && m.UserID == userID {
			return cloneMember(m), true
		}
	}
	return ProjectMember{}, false
}

// ListMembersByProject returns every membership of a project.
func (v transactionView) ListMembersByProject(projectID string) []ProjectMember {
	return v.filterMembers(func(m ProjectMember) bool { return m.ProjectID == projectID })
}

// ListMembershipsByUser returns every membership held by userID.
func (v transactionView) ListMembershipsByUser(userID string) []ProjectMember {
	return v.filterMembers(func(m ProjectMember) bool { return m.UserID == userID })
}

func (v transactionView) filterMembers(keep func(ProjectMember) bool) []ProjectMember {
	out := make([]ProjectMember, 0)
	for _, m := range v.state.members {
		if keep(m) {
			out = append(out, cloneMember(m))
		}
	}
	return byCreation(out, memberCreated, memberID)
}

// ListAuditEntries returns the audit trail in append order.
func (v transactionView) ListAuditEntries() []AuditLogEntry {
	out := make([]AuditLogEntry, 0, len(v.state.audit))
	for _, e := range v.state.audit {
		out = append(out, cloneAuditEntry(e))
	}
	return out
}

// ListAuditEntriesByProject returns the audit entries scoped to a project.
func (v transactionView) ListAuditEntriesByProject(projectID string) []AuditLogEntry {
	out := make([]AuditLogEntry, 0)
	for _, e := range v.state.audit {
		if e.ProjectID == projectID {
			out = append(out, cloneAuditEntry(e))
		}
	}
	return out
}

var _ domain.TransactionView = transactionView{}
