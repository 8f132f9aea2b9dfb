// Package domain defines the persistent work-tracking entities, value types,
// error taxonomy and rule evaluation primitives used by workcore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityProject identifies a project record.
	EntityProject EntityType = "project"
	// EntityMilestone identifies a milestone record owned by a project.
	EntityMilestone EntityType = "milestone"
	// EntityTask identifies a task record owned by a project.
	EntityTask EntityType = "task"
	// EntityMember identifies a project membership record.
	EntityMember EntityType = "project_member"
	// EntityAuditLog identifies an append-only audit log entry.
	EntityAuditLog EntityType = "audit_log"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains identity and audit fields common to all mutable records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by,omitempty"`
}

// SoftDelete marks a record inactive without physically removing it. Both
// fields are nil on live records and set together on deletion.
type SoftDelete struct {
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *string    `json:"deleted_by,omitempty"`
}

// IsDeleted reports whether the soft-delete marker is present.
func (s SoftDelete) IsDeleted() bool {
	return s.DeletedAt != nil
}

// MarkDeleted stamps the soft-delete marker.
func (s *SoftDelete) MarkDeleted(at time.Time, by string) {
	s.DeletedAt = &at
	s.DeletedBy = &by
}

// ClearDeleted removes the soft-delete marker.
func (s *SoftDelete) ClearDeleted() {
	s.DeletedAt = nil
	s.DeletedBy = nil
}

// ProgressSnapshot is the derived task completion triple stored on a project.
type ProgressSnapshot struct {
	CompletedTasks int `json:"completed_tasks"`
	TotalTasks     int `json:"total_tasks"`
	Percentage     int `json:"percentage"`
}

// ProjectSettings holds per-project feature toggles.
type ProjectSettings struct {
	AllowComments  bool `json:"allow_comments"`
	AllowGuestView bool `json:"allow_guest_view"`
	TrackTime      bool `json:"track_time"`
	RequireReview  bool `json:"require_review"`
}

// ProjectMetadata carries extended commercial and risk attributes.
type ProjectMetadata struct {
	Budget    *float64          `json:"budget,omitempty"`
	Currency  string            `json:"currency,omitempty"`
	RiskLevel RiskLevel         `json:"risk_level,omitempty"`
	Client    string            `json:"client,omitempty"`
	Custom    map[string]string `json:"custom,omitempty"`
}

// Project is the root of the work hierarchy. Milestones and tasks belong to
// exactly one project.
type Project struct {
	Base
	SoftDelete
	PublicID       string           `json:"public_id"`
	Title          string           `json:"title"`
	Description    string           `json:"description,omitempty"`
	Status         ProjectStatus    `json:"status"`
	Priority       ProjectPriority  `json:"priority"`
	Visibility     Visibility       `json:"visibility"`
	Tags           []string         `json:"tags,omitempty"`
	Category       string           `json:"category,omitempty"`
	OwnerID        string           `json:"owner_id"`
	Progress       ProgressSnapshot `json:"progress"`
	StartDate      *time.Time       `json:"start_date,omitempty"`
	DueDate        *time.Time       `json:"due_date,omitempty"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
	Settings       ProjectSettings  `json:"settings"`
	Metadata       ProjectMetadata  `json:"metadata"`
	LastActivityAt time.Time        `json:"last_activity_at"`
}

// OwningProjectID implements Authorizable.
func (p Project) OwningProjectID() string { return p.ID }

// Module implements Authorizable.
func (Project) Module() string { return "projects" }

// Deliverable is a checklist item whose completion drives milestone progress.
type Deliverable struct {
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// MilestoneMetadata carries optional planning attributes of a milestone.
type MilestoneMetadata struct {
	Budget      *float64  `json:"budget,omitempty"`
	RiskLevel   RiskLevel `json:"risk_level,omitempty"`
	Attachments []string  `json:"attachments,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

// Milestone groups deliverables under a project with its own progress figure.
type Milestone struct {
	Base
	SoftDelete
	PublicID      string            `json:"public_id"`
	ProjectID     string            `json:"project_id"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	Status        MilestoneStatus   `json:"status"`
	Priority      ProjectPriority   `json:"priority"`
	StartDate     *time.Time        `json:"start_date,omitempty"`
	DueDate       *time.Time        `json:"due_date,omitempty"`
	CompletedDate *time.Time        `json:"completed_date,omitempty"`
	Progress      int               `json:"progress"`
	Deliverables  []Deliverable     `json:"deliverables,omitempty"`
	Dependencies  []string          `json:"dependencies,omitempty"`
	Order         int               `json:"order"`
	AssigneeID    *string           `json:"assignee_id,omitempty"`
	Metadata      MilestoneMetadata `json:"metadata"`
}

// OwningProjectID implements Authorizable.
func (m Milestone) OwningProjectID() string { return m.ProjectID }

// Module implements Authorizable.
func (Milestone) Module() string { return "milestones" }

// Task is the unit of work whose completion drives project progress.
type Task struct {
	Base
	SoftDelete
	PublicID       string            `json:"public_id"`
	ProjectID      string            `json:"project_id"`
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	Status         TaskStatus        `json:"status"`
	Priority       TaskPriority      `json:"priority"`
	AssigneeID     *string           `json:"assignee_id,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	StartDate      *time.Time        `json:"start_date,omitempty"`
	DueDate        *time.Time        `json:"due_date,omitempty"`
	EstimatedHours *float64          `json:"estimated_hours,omitempty"`
	ActualHours    *float64          `json:"actual_hours,omitempty"`
	Order          int               `json:"order"`
	BlockedBy      []string          `json:"blocked_by,omitempty"`
	DependsOn      []string          `json:"depends_on,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
}

// OwningProjectID implements Authorizable.
func (t Task) OwningProjectID() string { return t.ProjectID }

// Module implements Authorizable.
func (Task) Module() string { return "tasks" }

// MemberPermissions holds per-member grants layered over the role.
type MemberPermissions struct {
	CanEdit bool     `json:"can_edit"`
	Custom  []string `json:"custom,omitempty"`
}

// ProjectMember links a user to a project with a role and membership status.
type ProjectMember struct {
	Base
	ProjectID   string            `json:"project_id"`
	UserID      string            `json:"user_id"`
	Role        MemberRole        `json:"role"`
	Status      MemberStatus      `json:"status"`
	Permissions MemberPermissions `json:"permissions"`
	JoinedAt    time.Time         `json:"joined_at"`
	InvitedBy   string            `json:"invited_by,omitempty"`
}

// Active reports whether the membership currently confers any rights.
func (m ProjectMember) Active() bool {
	return m.Status == MemberStatusActive
}

// AuditLogEntry is an immutable record of one mutation or one bulk batch.
type AuditLogEntry struct {
	ID          string            `json:"id"`
	ActorID     string            `json:"actor_id"`
	Action      string            `json:"action"`
	Entity      EntityType        `json:"entity"`
	TargetID    string            `json:"target_id,omitempty"`
	ProjectID   string            `json:"project_id,omitempty"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Authorizable is implemented by every entity whose access derives from a
// parent project.
type Authorizable interface {
	OwningProjectID() string
	Module() string
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
