package domain

import "fmt"

// ProjectStatus enumerates project lifecycle states.
type ProjectStatus string

// Canonical project statuses.
const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusOnHold, ProjectStatusCompleted, ProjectStatusArchived, ProjectStatusCancelled:
		return true
	}
	return false
}

// ProjectPriority enumerates the priority scale shared by projects and milestones.
type ProjectPriority string

// Canonical project and milestone priorities.
const (
	PriorityLow    ProjectPriority = "low"
	PriorityMedium ProjectPriority = "medium"
	PriorityHigh   ProjectPriority = "high"
	PriorityUrgent ProjectPriority = "urgent"
)

// Valid reports whether p is a known project priority.
func (p ProjectPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// MilestonePriority uses the project priority scale.
type MilestonePriority = ProjectPriority

// TaskPriority extends the project scale with critical.
type TaskPriority string

// Canonical task priorities.
const (
	TaskPriorityLow      TaskPriority = "low"
	TaskPriorityMedium   TaskPriority = "medium"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityUrgent   TaskPriority = "urgent"
	TaskPriorityCritical TaskPriority = "critical"
)

// Valid reports whether p is a known task priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent, TaskPriorityCritical:
		return true
	}
	return false
}

// Visibility controls who may view a project without membership.
type Visibility string

// Canonical visibility levels.
const (
	VisibilityPrivate Visibility = "private"
	VisibilityTeam    Visibility = "team"
	VisibilityPublic  Visibility = "public"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPrivate, VisibilityTeam, VisibilityPublic:
		return true
	}
	return false
}

// RiskLevel is an optional planning attribute. The empty value means unset.
type RiskLevel string

// Canonical risk levels.
const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Valid reports whether r is empty or a known risk level.
func (r RiskLevel) Valid() bool {
	switch r {
	case "", RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// MilestoneStatus enumerates milestone lifecycle states.
type MilestoneStatus string

// Canonical milestone statuses.
const (
	MilestoneStatusUpcoming   MilestoneStatus = "upcoming"
	MilestoneStatusInProgress MilestoneStatus = "in_progress"
	MilestoneStatusCompleted  MilestoneStatus = "completed"
	MilestoneStatusCancelled  MilestoneStatus = "cancelled"
)

// Valid reports whether s is a known milestone status.
func (s MilestoneStatus) Valid() bool {
	switch s {
	case MilestoneStatusUpcoming, MilestoneStatusInProgress, MilestoneStatusCompleted, MilestoneStatusCancelled:
		return true
	}
	return false
}

// TaskStatus enumerates task board columns.
type TaskStatus string

// Canonical task statuses.
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusInReview   TaskStatus = "in_review"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusBlocked    TaskStatus = "blocked"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusInReview, TaskStatusCompleted, TaskStatusBlocked, TaskStatusCancelled:
		return true
	}
	return false
}

// MemberRole is a project-scoped role. Roles are ordered by Weight.
type MemberRole string

// Canonical member roles.
const (
	RoleOwner  MemberRole = "owner"
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
	RoleViewer MemberRole = "viewer"
)

// Valid reports whether r is a known member role.
func (r MemberRole) Valid() bool {
	return r.Weight() > 0
}

// Weight orders roles for hierarchical comparisons. Unknown roles weigh zero.
func (r MemberRole) Weight() int {
	switch r {
	case RoleOwner:
		return 4
	case RoleAdmin:
		return 3
	case RoleMember:
		return 2
	case RoleViewer:
		return 1
	}
	return 0
}

// DefaultCanEdit returns the edit grant a new member of role r receives.
func (r MemberRole) DefaultCanEdit() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleMember
}

// MemberStatus enumerates membership states. Only active memberships grant rights.
type MemberStatus string

// Canonical membership statuses.
const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
	MemberStatusInvited  MemberStatus = "invited"
	MemberStatusRemoved  MemberStatus = "removed"
)

// Valid reports whether s is a known membership status.
func (s MemberStatus) Valid() bool {
	switch s {
	case MemberStatusActive, MemberStatusInactive, MemberStatusInvited, MemberStatusRemoved:
		return true
	}
	return false
}

// SystemRole is the platform-wide role carried by a principal.
type SystemRole string

// Canonical system roles.
const (
	SystemRoleGuest      SystemRole = "guest"
	SystemRoleUser       SystemRole = "user"
	SystemRoleAdmin      SystemRole = "admin"
	SystemRoleSuperAdmin SystemRole = "superadmin"
)

// Valid reports whether r is a known system role.
func (r SystemRole) Valid() bool {
	switch r {
	case SystemRoleGuest, SystemRoleUser, SystemRoleAdmin, SystemRoleSuperAdmin:
		return true
	}
	return false
}

// parseEnum is shared by the Parse helpers below.
func parseEnum[T ~string](raw string, valid func(T) bool, label string) (T, error) {
	v := T(raw)
	if !valid(v) {
		return "", fmt.Errorf("invalid %s %q", label, raw)
	}
	return v, nil
}

// ParseProjectStatus converts raw input to a ProjectStatus.
func ParseProjectStatus(raw string) (ProjectStatus, error) {
	return parseEnum(raw, ProjectStatus.Valid, "project status")
}

// ParseProjectPriority converts raw input to a ProjectPriority.
func ParseProjectPriority(raw string) (ProjectPriority, error) {
	return parseEnum(raw, ProjectPriority.Valid, "priority")
}

// ParseVisibility converts raw input to a Visibility.
func ParseVisibility(raw string) (Visibility, error) {
	return parseEnum(raw, Visibility.Valid, "visibility")
}

// ParseMilestoneStatus converts raw input to a MilestoneStatus.
func ParseMilestoneStatus(raw string) (MilestoneStatus, error) {
	return parseEnum(raw, MilestoneStatus.Valid, "milestone status")
}

// ParseTaskStatus converts raw input to a TaskStatus.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	return parseEnum(raw, TaskStatus.Valid, "task status")
}

// ParseTaskPriority converts raw input to a TaskPriority.
func ParseTaskPriority(raw string) (TaskPriority, error) {
	return parseEnum(raw, TaskPriority.Valid, "task priority")
}

// ParseMemberRole converts raw input to a MemberRole.
func ParseMemberRole(raw string) (MemberRole, error) {
	return parseEnum(raw, MemberRole.Valid, "member role")
}

// ParseSystemRole converts raw input to a SystemRole.
func ParseSystemRole(raw string) (SystemRole, error) {
	return parseEnum(raw, SystemRole.Valid, "system role")
}
