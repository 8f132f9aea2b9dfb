package domain

import "context"

// TransactionView provides read-only, indexed access to a consistent snapshot.
// Listings include soft-deleted records; callers filter on SoftDelete.
type TransactionView interface {
	RuleView
	FindProjectByPublicID(publicID string) (Project, bool)
	ListProjects() []Project
	ListProjectsByOwner(ownerID string) []Project
	FindMilestoneByPublicID(publicID string) (Milestone, bool)
	FindTaskByPublicID(publicID string) (Task, bool)
	ListTasksByAssignee(userID string) []Task
	FindMember(projectID, userID string) (ProjectMember, bool)
	ListMembersByProject(projectID string) []ProjectMember
	ListMembershipsByUser(userID string) []ProjectMember
	ListAuditEntries() []AuditLogEntry
	ListAuditEntriesByProject(projectID string) []AuditLogEntry
}

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. Update mutators receive a copy of the
// current record; returning an error discards the change.
type Transaction interface {
	TransactionView
	Snapshot() TransactionView
	CreateProject(Project) (Project, error)
	UpdateProject(id string, mutator func(*Project) error) (Project, error)
	DeleteProject(id string) error
	CreateMilestone(Milestone) (Milestone, error)
	UpdateMilestone(id string, mutator func(*Milestone) error) (Milestone, error)
	DeleteMilestone(id string) error
	CreateTask(Task) (Task, error)
	UpdateTask(id string, mutator func(*Task) error) (Task, error)
	DeleteTask(id string) error
	CreateMember(ProjectMember) (ProjectMember, error)
	UpdateMember(id string, mutator func(*ProjectMember) error) (ProjectMember, error)
	DeleteMember(id string) error
	AppendAuditEntry(AuditLogEntry) (AuditLogEntry, error)
}

// PersistentStore is the transactional abstraction the core runs against.
// RunInTransaction is serializable: fn observes a private copy of the state
// and nothing it writes is visible unless the whole call succeeds.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
}
