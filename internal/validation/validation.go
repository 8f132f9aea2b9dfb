// Package validation checks field-level constraints on create and update
// payloads. Validators never fail fast: every violation is collected so the
// caller can report them together.
package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
	"workcore/pkg/domain"
)

// Field limits shared by all entity kinds.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxCategoryLength    = 100
	MaxTags              = 20
	MaxTagLength         = 50
	MaxDeliverables      = 50
	MaxDependencies      = 50
	MaxCustomPermissions = 50
)

// Validate dispatches to the validator for payload. Unknown payload types
// yield a single violation rather than a panic.
func Validate(kind domain.EntityType, payload any) []domain.ValidationError {
	c := &collector{}
	switch p := payload.(type) {
	case domain.ProjectInput:
		validateProjectInput(c, p)
	case *domain.ProjectInput:
		if p != nil {
			validateProjectInput(c, *p)
		}
	case domain.ProjectPatch:
		validateProjectPatch(c, p)
	case domain.ProgressInput:
		validateProgressInput(c, p)
	case domain.MilestoneInput:
		validateMilestoneInput(c, p)
	case domain.MilestonePatch:
		validateMilestonePatch(c, p)
	case domain.TaskInput:
		validateTaskInput(c, p)
	case domain.TaskPatch:
		validateTaskPatch(c, p)
	case domain.MemberInput:
		validateMemberInput(c, p)
	default:
		c.add("payload", "unsupported %s payload %T", kind, payload)
	}
	return c.errs
}

type collector struct {
	errs []domain.ValidationError
}

func (c *collector) add(field, format string, args ...any) {
	c.errs = append(c.errs, domain.ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) title(title string) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		c.add("title", "title is required")
		return
	}
	if utf8.RuneCountInString(trimmed) > MaxTitleLength {
		c.add("title", "title must be at most %d characters", MaxTitleLength)
	}
}

func (c *collector) maxLen(field, value string, limit int) {
	if utf8.RuneCountInString(value) > limit {
		c.add(field, "%s must be at most %d characters", field, limit)
	}
}

func (c *collector) dates(start, due *time.Time) {
	if start != nil && due != nil && due.Before(*start) {
		c.add("due_date", "due date must not be before start date")
	}
}

func (c *collector) tags(tags []string) {
	if len(tags) > MaxTags {
		c.add("tags", "tags must contain at most %d entries", MaxTags)
	}
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			c.add("tags", "tags must not be blank")
			continue
		}
		if utf8.RuneCountInString(tag) > MaxTagLength {
			c.add("tags", "tag %q exceeds %d characters", tag, MaxTagLength)
		}
	}
}

func (c *collector) refs(field string, ids []string) {
	if len(ids) > MaxDependencies {
		c.add(field, "%s must contain at most %d entries", field, MaxDependencies)
	}
}

func (c *collector) nonNegative(field string, value *float64) {
	if value != nil && *value < 0 {
		c.add(field, "%s must not be negative", field)
	}
}

func (c *collector) percent(field string, value *int) {
	if value != nil && (*value < 0 || *value > 100) {
		c.add(field, "%s must be between 0 and 100", field)
	}
}

func (c *collector) enum(field string, value string, ok bool) {
	if value != "" && !ok {
		c.add(field, "invalid %s %q", field, value)
	}
}

func (c *collector) deliverables(items []domain.Deliverable) {
	if len(items) > MaxDeliverables {
		c.add("deliverables", "deliverables must contain at most %d entries", MaxDeliverables)
	}
	for i, d := range items {
		title := strings.TrimSpace(d.Title)
		if title == "" {
			c.add("deliverables", "deliverable %d title is required", i+1)
			continue
		}
		if utf8.RuneCountInString(title) > MaxTitleLength {
			c.add("deliverables", "deliverable %d title must be at most %d characters", i+1, MaxTitleLength)
		}
	}
}

func (c *collector) projectMetadata(m domain.ProjectMetadata) {
	c.nonNegative("budget", m.Budget)
	c.enum("risk_level", string(m.RiskLevel), m.RiskLevel.Valid())
}

func (c *collector) milestoneMetadata(m domain.MilestoneMetadata) {
	c.nonNegative("budget", m.Budget)
	c.enum("risk_level", string(m.RiskLevel), m.RiskLevel.Valid())
	c.refs("attachments", m.Attachments)
	c.maxLen("notes", m.Notes, MaxDescriptionLength)
}
