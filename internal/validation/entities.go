package validation

import "workcore/pkg/domain"

func validateProjectInput(c *collector, in domain.ProjectInput) {
	c.title(in.Title)
	c.maxLen("description", in.Description, MaxDescriptionLength)
	c.maxLen("category", in.Category, MaxCategoryLength)
	c.enum("status", string(in.Status), in.Status.Valid())
	c.enum("priority", string(in.Priority), in.Priority.Valid())
	c.enum("visibility", string(in.Visibility), in.Visibility.Valid())
	c.tags(in.Tags)
	c.dates(in.StartDate, in.DueDate)
	c.projectMetadata(in.Metadata)
}

// Patch dates must already be merged with the stored values by the caller.
func validateProjectPatch(c *collector, p domain.ProjectPatch) {
	if p.Title != nil {
		c.title(*p.Title)
	}
	if p.Description != nil {
		c.maxLen("description", *p.Description, MaxDescriptionLength)
	}
	if p.Category != nil {
		c.maxLen("category", *p.Category, MaxCategoryLength)
	}
	if p.Status != nil && !p.Status.Valid() {
		c.add("status", "invalid status %q", *p.Status)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		c.add("priority", "invalid priority %q", *p.Priority)
	}
	if p.Visibility != nil && !p.Visibility.Valid() {
		c.add("visibility", "invalid visibility %q", *p.Visibility)
	}
	if p.Tags != nil {
		c.tags(*p.Tags)
	}
	c.dates(p.StartDate, p.DueDate)
	if p.Metadata != nil {
		c.projectMetadata(*p.Metadata)
	}
}

func validateProgressInput(c *collector, in domain.ProgressInput) {
	if in.CompletedTasks < 0 || in.TotalTasks < 0 {
		c.add("progress", "task counts must not be negative")
	}
	if in.CompletedTasks > in.TotalTasks {
		c.add("progress", "completed tasks must not exceed total tasks")
	}
}

func validateMilestoneInput(c *collector, in domain.MilestoneInput) {
	if in.ProjectID == "" {
		c.add("project_id", "project is required")
	}
	c.title(in.Title)
	c.maxLen("description", in.Description, MaxDescriptionLength)
	c.enum("status", string(in.Status), in.Status.Valid())
	c.enum("priority", string(in.Priority), in.Priority.Valid())
	c.dates(in.StartDate, in.DueDate)
	c.percent("progress", in.Progress)
	c.deliverables(in.Deliverables)
	c.refs("dependencies", in.Dependencies)
	if in.Order != nil && *in.Order < 0 {
		c.add("order", "order must not be negative")
	}
	c.milestoneMetadata(in.Metadata)
}

func validateMilestonePatch(c *collector, p domain.MilestonePatch) {
	if p.Title != nil {
		c.title(*p.Title)
	}
	if p.Description != nil {
		c.maxLen("description", *p.Description, MaxDescriptionLength)
	}
	if p.Status != nil && !p.Status.Valid() {
		c.add("status", "invalid status %q", *p.Status)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		c.add("priority", "invalid priority %q", *p.Priority)
	}
	c.dates(p.StartDate, p.DueDate)
	c.percent("progress", p.Progress)
	if p.Deliverables != nil {
		c.deliverables(*p.Deliverables)
	}
	if p.Dependencies != nil {
		c.refs("dependencies", *p.Dependencies)
	}
	if p.Order != nil && *p.Order < 0 {
		c.add("order", "order must not be negative")
	}
	if p.Metadata != nil {
		c.milestoneMetadata(*p.Metadata)
	}
}

func validateTaskInput(c *collector, in domain.TaskInput) {
	if in.ProjectID == "" {
		c.add("project_id", "project is required")
	}
	c.title(in.Title)
	c.maxLen("description", in.Description, MaxDescriptionLength)
	c.enum("status", string(in.Status), in.Status.Valid())
	c.enum("priority", string(in.Priority), in.Priority.Valid())
	c.tags(in.Tags)
	c.dates(in.StartDate, in.DueDate)
	c.nonNegative("estimated_hours", in.EstimatedHours)
	c.nonNegative("actual_hours", in.ActualHours)
	c.refs("blocked_by", in.BlockedBy)
	c.refs("depends_on", in.DependsOn)
	if in.Order != nil && *in.Order < 0 {
		c.add("order", "order must not be negative")
	}
}

func validateTaskPatch(c *collector, p domain.TaskPatch) {
	if p.Title != nil {
		c.title(*p.Title)
	}
	if p.Description != nil {
		c.maxLen("description", *p.Description, MaxDescriptionLength)
	}
	if p.Status != nil && !p.Status.Valid() {
		c.add("status", "invalid status %q", *p.Status)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		c.add("priority", "invalid priority %q", *p.Priority)
	}
	if p.Tags != nil {
		c.tags(*p.Tags)
	}
	c.dates(p.StartDate, p.DueDate)
	c.nonNegative("estimated_hours", p.EstimatedHours)
	c.nonNegative("actual_hours", p.ActualHours)
	if p.BlockedBy != nil {
		c.refs("blocked_by", *p.BlockedBy)
	}
	if p.DependsOn != nil {
		c.refs("depends_on", *p.DependsOn)
	}
	if p.Order != nil && *p.Order < 0 {
		c.add("order", "order must not be negative")
	}
}

func validateMemberInput(c *collector, in domain.MemberInput) {
	if in.UserID == "" {
		c.add("user_id", "user is required")
	}
	if !in.Role.Valid() {
		c.add("role", "invalid role %q", in.Role)
	}
	c.enum("status", string(in.Status), in.Status.Valid())
	if len(in.Custom) > MaxCustomPermissions {
		c.add("custom_permissions", "custom permissions must contain at most %d entries", MaxCustomPermissions)
	}
}
