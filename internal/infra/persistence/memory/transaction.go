package memory

import (
	"fmt"
	"time"
	"workcore/pkg/domain"
)

// transaction represents a mutation set applied to a private copy of the store state.
type transaction struct {
	transactionView
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

func (tx *transaction) stamp(base *domain.Base) {
	if base.ID == "" {
		base.ID = tx.store.newID()
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = tx.now
	}
	if base.UpdatedAt.IsZero() {
		base.UpdatedAt = base.CreatedAt
	}
}

// CreateProject stores a new project.
func (tx *transaction) CreateProject(p Project) (Project, error) {
	tx.stamp(&p.Base)
	if _, exists := tx.state.projects[p.ID]; exists {
		return Project{}, domain.Conflict(domain.EntityProject, p.ID, "project %q already exists", p.ID)
	}
	if _, taken := tx.FindProjectByPublicID(p.PublicID); taken {
		return Project{}, domain.Conflict(domain.EntityProject, p.ID, "project public id %q already in use", p.PublicID)
	}
	tx.state.projects[p.ID] = cloneProject(p)
	tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionCreate, After: cloneProject(p)})
	return cloneProject(p), nil
}

// UpdateProject mutates an existing project. Identity fields are immutable.
func (tx *transaction) UpdateProject(id string, mutator func(*Project) error) (Project, error) {
	current, ok := tx.state.projects[id]
	if !ok {
		return Project{}, domain.NotFound(domain.EntityProject, id)
	}
	before := cloneProject(current)
	if err := mutator(&current); err != nil {
		return Project{}, err
	}
	current.ID = id
	current.PublicID = before.PublicID
	current.CreatedAt = before.CreatedAt
	tx.state.projects[id] = cloneProject(current)
	tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionUpdate, Before: before, After: cloneProject(current)})
	return cloneProject(current), nil
}

// DeleteProject physically removes a project. Dependent records must be
// removed first.
func (tx *transaction) DeleteProject(id string) error {
	current, ok := tx.state.projects[id]
	if !ok {
		return domain.NotFound(domain.EntityProject, id)
	}
	for _, m := range tx.state.members {
		if m.ProjectID == id {
			return fmt.Errorf("project %q still referenced by member %q", id, m.ID)
		}
	}
	for _, m := range tx.state.milestones {
		if m.ProjectID == id {
			return fmt.Errorf("project %q still referenced by milestone %q", id, m.ID)
		}
	}
	for _, t := range tx.state.tasks {
		if t.ProjectID == id {
			return fmt.Errorf("project %q still referenced by task %q", id, t.ID)
		}
	}
	delete(tx.state.projects, id)
	tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionDelete, Before: cloneProject(current)})
	return nil
}

// CreateMilestone stores a new milestone under an existing project.
func (tx *transaction) CreateMilestone(m Milestone) (Milestone, error) {
	tx.stamp(&m.Base)
	if _, exists := tx.state.milestones[m.ID]; exists {
		return Milestone{}, domain.Conflict(domain.EntityMilestone, m.ID, "milestone %q already exists", m.ID)
	}
	if _, ok := tx.state.projects[m.ProjectID]; !ok {
		return Milestone{}, domain.NotFound(domain.EntityProject, m.ProjectID)
	}
	if _, taken := tx.FindMilestoneByPublicID(m.PublicID); taken {
		return Milestone{}, domain.Conflict(domain.EntityMilestone, m.ID, "milestone public id %q already in use", m.PublicID)
	}
	tx.state.milestones[m.ID] = cloneMilestone(m)
	tx.recordChange(Change{Entity: domain.EntityMilestone, Action: domain.ActionCreate, After: cloneMilestone(m)})
	return cloneMilestone(m), nil
}

// UpdateMilestone mutates an existing milestone.
func (tx *transaction) UpdateMilestone(id string, mutator func(*Milestone) error) (Milestone, error) {
	current, ok := tx.state.milestones[id]
	if !ok {
		return Milestone{}, domain.NotFound(domain.EntityMilestone, id)
	}
	before := cloneMilestone(current)
	if err := mutator(&current); err != nil {
		return Milestone{}, err
	}
	current.ID = id
	current.PublicID = before.PublicID
	current.ProjectID = before.ProjectID
	current.CreatedAt = before.CreatedAt
	tx.state.milestones[id] = cloneMilestone(current)
	tx.recordChange(Change{Entity: domain.EntityMilestone, Action: domain.ActionUpdate, Before: before, After: cloneMilestone(current)})
	return cloneMilestone(current), nil
}

// DeleteMilestone physically removes a milestone.
func (tx *transaction) DeleteMilestone(id string) error {
	current, ok := tx.state.milestones[id]
	if !ok {
		return domain.NotFound(domain.EntityMilestone, id)
	}
	delete(tx.state.milestones, id)
	tx.recordChange(Change{Entity: domain.EntityMilestone, Action: domain.ActionDelete, Before: cloneMilestone(current)})
	return nil
}

// CreateTask stores a new task under an existing project.
func (tx *transaction) CreateTask(t Task) (Task, error) {
	tx.stamp(&t.Base)
	if _, exists := tx.state.tasks[t.ID]; exists {
		return Task{}, domain.Conflict(domain.EntityTask, t.ID, "task %q already exists", t.ID)
	}
	if _, ok := tx.state.projects[t.ProjectID]; !ok {
		return Task{}, domain.NotFound(domain.EntityProject, t.ProjectID)
	}
	if _, taken := tx.FindTaskByPublicID(t.PublicID); taken {
		return Task{}, domain.Conflict(domain.EntityTask, t.ID, "task public id %q already in use", t.PublicID)
	}
	tx.state.tasks[t.ID] = cloneTask(t)
	tx.recordChange(Change{Entity: domain.EntityTask, Action: domain.ActionCreate, After: cloneTask(t)})
	return cloneTask(t), nil
}

// UpdateTask mutates an existing task.
func (tx *transaction) UpdateTask(id string, mutator func(*Task) error) (Task, error) {
	current, ok := tx.state.tasks[id]
	if !ok {
		return Task{}, domain.NotFound(domain.EntityTask, id)
	}
	before := cloneTask(current)
	if err := mutator(&current); err != nil {
		return Task{}, err
	}
	current.ID = id
	current.PublicID = before.PublicID
	current.ProjectID = before.ProjectID
	current.CreatedAt = before.CreatedAt
	tx.state.tasks[id] = cloneTask(current)
	tx.recordChange(Change{Entity: domain.EntityTask, Action: domain.ActionUpdate, Before: before, After: cloneTask(current)})
	return cloneTask(current), nil
}

// DeleteTask physically removes a task.
func (tx *transaction) DeleteTask(id string) error {
	current, ok := tx.state.tasks[id]
	if !ok {
		return domain.NotFound(domain.EntityTask, id)
	}
	delete(tx.state.tasks, id)
	tx.recordChange(Change{Entity: domain.EntityTask, Action: domain.ActionDelete, Before: cloneTask(current)})
	return nil
}

// CreateMember stores a new membership. A user holds at most one membership per project.
func (tx *transaction) CreateMember(m ProjectMember) (ProjectMember, error) {
	tx.stamp(&m.Base)
	if _, exists := tx.state.members[m.ID]; exists {
		return ProjectMember{}, domain.Conflict(domain.EntityMember, m.ID, "member %q already exists", m.ID)
	}
	if _, ok := tx.state.projects[m.ProjectID]; !ok {
		return ProjectMember{}, domain.NotFound(domain.EntityProject, m.ProjectID)
	}
	if existing, dup := tx.FindMember(m.ProjectID, m.UserID); dup {
		return ProjectMember{}, domain.Conflict(domain.EntityMember, existing.ID, "user %q is already a member of project %q", m.UserID, m.ProjectID)
	}
	tx.state.members[m.ID] = cloneMember(m)
	tx.recordChange(Change{Entity: domain.EntityMember, Action: domain.ActionCreate, After: cloneMember(m)})
	return cloneMember(m), nil
}

// UpdateMember mutates an existing membership.
func (tx *transaction) UpdateMember(id string, mutator func(*ProjectMember) error) (ProjectMember, error) {
	current, ok := tx.state.members[id]
	if !ok {
		return ProjectMember{}, domain.NotFound(domain.EntityMember, id)
	}
	before := cloneMember(current)
	if err := mutator(&current); err != nil {
		return ProjectMember{}, err
	}
	current.ID = id
	current.ProjectID = before.ProjectID
	current.UserID = before.UserID
	current.CreatedAt = before.CreatedAt
	tx.state.members[id] = cloneMember(current)
	tx.recordChange(Change{Entity: domain.EntityMember, Action: domain.ActionUpdate, Before: before, After: cloneMember(current)})
	return cloneMember(current), nil
}

// DeleteMember physically removes a membership.
func (tx *transaction) DeleteMember(id string) error {
	current, ok := tx.state.members[id]
	if !ok {
		return domain.NotFound(domain.EntityMember, id)
	}
	delete(tx.state.members, id)
	tx.recordChange(Change{Entity: domain.EntityMember, Action: domain.ActionDelete, Before: cloneMember(current)})
	return nil
}

// AppendAuditEntry appends an immutable audit entry. Entries are never
// updated or removed.
func (tx *transaction) AppendAuditEntry(e AuditLogEntry) (AuditLogEntry, error) {
	if e.Action == "" {
		return AuditLogEntry{}, fmt.Errorf("audit entry requires an action")
	}
	if e.ID == "" {
		e.ID = tx.store.newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = tx.now
	}
	for _, existing := range tx.state.audit {
		if existing.ID == e.ID {
			return AuditLogEntry{}, domain.Conflict(domain.EntityAuditLog, e.ID, "audit entry %q already exists", e.ID)
		}
	}
	tx.state.audit = append(tx.state.audit, cloneAuditEntry(e))
	tx.recordChange(Change{Entity: domain.EntityAuditLog, Action: domain.ActionCreate, After: cloneAuditEntry(e)})
	return cloneAuditEntry(e), nil
}

var _ domain.Transaction = (*transaction)(nil)
