package domain

import "time"

// ProjectInput is the create payload for a project. Zero-valued enums take
// their defaults: status active, priority medium, visibility private.
type ProjectInput struct {
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Status      ProjectStatus    `json:"status,omitempty"`
	Priority    ProjectPriority  `json:"priority,omitempty"`
	Visibility  Visibility       `json:"visibility,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	Category    string           `json:"category,omitempty"`
	StartDate   *time.Time       `json:"start_date,omitempty"`
	DueDate     *time.Time       `json:"due_date,omitempty"`
	Settings    *ProjectSettings `json:"settings,omitempty"`
	Metadata    ProjectMetadata  `json:"metadata"`
}

// ProjectPatch is a field-scoped project update; nil fields are left untouched.
type ProjectPatch struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Status      *ProjectStatus   `json:"status,omitempty"`
	Priority    *ProjectPriority `json:"priority,omitempty"`
	Visibility  *Visibility      `json:"visibility,omitempty"`
	Tags        *[]string        `json:"tags,omitempty"`
	Category    *string          `json:"category,omitempty"`
	StartDate   *time.Time       `json:"start_date,omitempty"`
	DueDate     *time.Time       `json:"due_date,omitempty"`
	Settings    *ProjectSettings `json:"settings,omitempty"`
	Metadata    *ProjectMetadata `json:"metadata,omitempty"`
}

// ProgressInput is the payload of the dedicated project progress operation.
type ProgressInput struct {
	CompletedTasks int `json:"completed_tasks"`
	TotalTasks     int `json:"total_tasks"`
}

// MilestoneInput is the create payload for a milestone. ProjectID accepts an
// internal or public project identifier.
type MilestoneInput struct {
	ProjectID    string            `json:"project_id"`
	Title        string            `json:"title"`
	Description  string            `json:"description,omitempty"`
	Status       MilestoneStatus   `json:"status,omitempty"`
	Priority     ProjectPriority   `json:"priority,omitempty"`
	StartDate    *time.Time        `json:"start_date,omitempty"`
	DueDate      *time.Time        `json:"due_date,omitempty"`
	Progress     *int              `json:"progress,omitempty"`
	Deliverables []Deliverable     `json:"deliverables,omitempty"`
	Dependencies []string          `json:"dependencies,omitempty"`
	Order        *int              `json:"order,omitempty"`
	AssigneeID   *string           `json:"assignee_id,omitempty"`
	Metadata     MilestoneMetadata `json:"metadata"`
}

// MilestonePatch is a field-scoped milestone update.
type MilestonePatch struct {
	Title        *string            `json:"title,omitempty"`
	Description  *string            `json:"description,omitempty"`
	Status       *MilestoneStatus   `json:"status,omitempty"`
	Priority     *ProjectPriority   `json:"priority,omitempty"`
	StartDate    *time.Time         `json:"start_date,omitempty"`
	DueDate      *time.Time         `json:"due_date,omitempty"`
	Progress     *int               `json:"progress,omitempty"`
	Deliverables *[]Deliverable     `json:"deliverables,omitempty"`
	Dependencies *[]string          `json:"dependencies,omitempty"`
	Order        *int               `json:"order,omitempty"`
	AssigneeID   *string            `json:"assignee_id,omitempty"`
	Metadata     *MilestoneMetadata `json:"metadata,omitempty"`
}

// TaskInput is the create payload for a task. ProjectID accepts an internal
// or public project identifier.
type TaskInput struct {
	ProjectID      string            `json:"project_id"`
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	Status         TaskStatus        `json:"status,omitempty"`
	Priority       TaskPriority      `json:"priority,omitempty"`
	AssigneeID     *string           `json:"assignee_id,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	StartDate      *time.Time        `json:"start_date,omitempty"`
	DueDate        *time.Time        `json:"due_date,omitempty"`
	EstimatedHours *float64          `json:"estimated_hours,omitempty"`
	ActualHours    *float64          `json:"actual_hours,omitempty"`
	Order          *int              `json:"order,omitempty"`
	BlockedBy      []string          `json:"blocked_by,omitempty"`
	DependsOn      []string          `json:"depends_on,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// TaskPatch is a field-scoped task update.
type TaskPatch struct {
	Title          *string            `json:"title,omitempty"`
	Description    *string            `json:"description,omitempty"`
	Status         *TaskStatus        `json:"status,omitempty"`
	Priority       *TaskPriority      `json:"priority,omitempty"`
	AssigneeID     *string            `json:"assignee_id,omitempty"`
	Tags           *[]string          `json:"tags,omitempty"`
	StartDate      *time.Time         `json:"start_date,omitempty"`
	DueDate        *time.Time         `json:"due_date,omitempty"`
	EstimatedHours *float64           `json:"estimated_hours,omitempty"`
	ActualHours    *float64           `json:"actual_hours,omitempty"`
	Order          *int               `json:"order,omitempty"`
	BlockedBy      *[]string          `json:"blocked_by,omitempty"`
	DependsOn      *[]string          `json:"depends_on,omitempty"`
	Metadata       *map[string]string `json:"metadata,omitempty"`
}

// MemberInput adds a user to a project. CanEdit defaults from the role.
type MemberInput struct {
	UserID  string       `json:"user_id"`
	Role    MemberRole   `json:"role"`
	Status  MemberStatus `json:"status,omitempty"`
	CanEdit *bool        `json:"can_edit,omitempty"`
	Custom  []string     `json:"custom_permissions,omitempty"`
}

// Created identifies a newly persisted entity.
type Created struct {
	ID       string `json:"id"`
	PublicID string `json:"public_id"`
}

// BulkFailure records why one id in a batch was not processed.
type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult reports per-item outcomes of a batch operation.
type BulkResult[T any] struct {
	Succeeded []T           `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// SortOrder controls the direction of list sorting.
type SortOrder string

// Sort directions.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ListOptions drives the read-side query pipeline.
type ListOptions struct {
	Limit          int               `json:"limit"`
	Offset         int               `json:"offset"`
	SortBy         string            `json:"sort_by,omitempty"`
	SortOrder      SortOrder         `json:"sort_order,omitempty"`
	Search         string            `json:"search,omitempty"`
	Filters        map[string]string `json:"filters,omitempty"`
	IncludeDeleted bool              `json:"include_deleted,omitempty"`
}

// Page is one slice of a filtered, sorted result set.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

// ProjectSummary enriches a project with counts gathered from related records.
type ProjectSummary struct {
	Project        Project    `json:"project"`
	MilestoneCount int        `json:"milestone_count"`
	OpenTaskCount  int        `json:"open_task_count"`
	MemberCount    int        `json:"member_count"`
	ViewerRole     MemberRole `json:"viewer_role,omitempty"`
}
