package core

import (
	"cmp"
	"slices"
	"strings"
	"time"
	"workcore/pkg/domain"
)

// Page size bounds for list operations.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// listSpec describes how one entity kind is searched, filtered and sorted.
type listSpec[T any] struct {
	text        func(T) []string
	filters     map[string]func(item T, value string) bool
	sorters     map[string]func(a, b T) int
	id          func(T) string
	defaultSort string
	defaultDesc bool
}

// applyQuery runs search, filters, sort and pagination in that order. Items
// must already be access-filtered.
func applyQuery[T any](items []T, opts domain.ListOptions, spec listSpec[T]) (domain.Page[T], error) {
	var violations []domain.ValidationError
	for key := range opts.Filters {
		if _, ok := spec.filters[key]; !ok {
			violations = append(violations, domain.ValidationError{Field: "filters", Message: "unsupported filter " + key})
		}
	}
	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = spec.defaultSort
	}
	compare, ok := spec.sorters[sortBy]
	if !ok {
		violations = append(violations, domain.ValidationError{Field: "sort_by", Message: "unsupported sort field " + sortBy})
	}
	desc := spec.defaultDesc
	switch opts.SortOrder {
	case domain.SortAsc:
		desc = false
	case domain.SortDesc:
		desc = true
	case "":
	default:
		violations = append(violations, domain.ValidationError{Field: "sort_order", Message: "invalid sort order " + string(opts.SortOrder)})
	}
	if len(violations) > 0 {
		slices.SortFunc(violations, func(a, b domain.ValidationError) int { return strings.Compare(a.Message, b.Message) })
		return domain.Page[T]{}, domain.ValidationFailed(violations)
	}

	needle := strings.ToLower(strings.TrimSpace(opts.Search))
	matched := make([]T, 0, len(items))
	for _, item := range items {
		if needle != "" && !containsText(spec.text(item), needle) {
			continue
		}
		keep := true
		for key, value := range opts.Filters {
			if !spec.filters[key](item, value) {
				keep = false
				break
			}
		}
		if keep {
			matched = append(matched, item)
		}
	}

	slices.SortStableFunc(matched, func(a, b T) int {
		c := compare(a, b)
		if desc {
			c = -c
		}
		if c == 0 {
			c = strings.Compare(spec.id(a), spec.id(b))
		}
		return c
	})
	return paginate(matched, opts), nil
}

// paginate clamps limit and offset and slices items.
func paginate[T any](items []T, opts domain.ListOptions) domain.Page[T] {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := max(opts.Offset, 0)
	total := len(items)
	if offset > total {
		offset = total
	}
	end := min(offset+limit, total)
	page := make([]T, end-offset)
	copy(page, items[offset:end])
	return domain.Page[T]{Items: page, Total: total, HasMore: end < total}
}

func containsText(fields []string, needle string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// compareTimePtr orders nil after every set time.
func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var projectPriorityRank = map[domain.ProjectPriority]int{
	domain.PriorityLow: 1, domain.PriorityMedium: 2, domain.PriorityHigh: 3, domain.PriorityUrgent: 4,
}

var taskPriorityRank = map[domain.TaskPriority]int{
	domain.TaskPriorityLow: 1, domain.TaskPriorityMedium: 2, domain.TaskPriorityHigh: 3,
	domain.TaskPriorityUrgent: 4, domain.TaskPriorityCritical: 5,
}

var projectList = listSpec[domain.Project]{
	text: func(p domain.Project) []string {
		return append([]string{p.Title, p.Description}, p.Tags...)
	},
	filters: map[string]func(domain.Project, string) bool{
		"status":     func(p domain.Project, v string) bool { return string(p.Status) == v },
		"priority":   func(p domain.Project, v string) bool { return string(p.Priority) == v },
		"visibility": func(p domain.Project, v string) bool { return string(p.Visibility) == v },
		"category":   func(p domain.Project, v string) bool { return strings.EqualFold(p.Category, v) },
		"owner_id":   func(p domain.Project, v string) bool { return p.OwnerID == v },
		"tag":        func(p domain.Project, v string) bool { return hasTag(p.Tags, v) },
	},
	sorters: map[string]func(a, b domain.Project) int{
		"created_at":       func(a, b domain.Project) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"updated_at":       func(a, b domain.Project) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
		"last_activity_at": func(a, b domain.Project) int { return a.LastActivityAt.Compare(b.LastActivityAt) },
		"title": func(a, b domain.Project) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		},
		"due_date": func(a, b domain.Project) int { return compareTimePtr(a.DueDate, b.DueDate) },
		"status":   func(a, b domain.Project) int { return strings.Compare(string(a.Status), string(b.Status)) },
		"priority": func(a, b domain.Project) int {
			return cmp.Compare(projectPriorityRank[a.Priority], projectPriorityRank[b.Priority])
		},
		"progress": func(a, b domain.Project) int { return cmp.Compare(a.Progress.Percentage, b.Progress.Percentage) },
	},
	id:          func(p domain.Project) string { return p.ID },
	defaultSort: "created_at",
	defaultDesc: true,
}

var milestoneList = listSpec[domain.Milestone]{
	text: func(m domain.Milestone) []string { return []string{m.Title, m.Description} },
	filters: map[string]func(domain.Milestone, string) bool{
		"status":      func(m domain.Milestone, v string) bool { return string(m.Status) == v },
		"priority":    func(m domain.Milestone, v string) bool { return string(m.Priority) == v },
		"assignee_id": func(m domain.Milestone, v string) bool { return derefString(m.AssigneeID) == v },
	},
	sorters: map[string]func(a, b domain.Milestone) int{
		"order":      func(a, b domain.Milestone) int { return cmp.Compare(a.Order, b.Order) },
		"created_at": func(a, b domain.Milestone) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"due_date":   func(a, b domain.Milestone) int { return compareTimePtr(a.DueDate, b.DueDate) },
		"title": func(a, b domain.Milestone) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		},
		"progress": func(a, b domain.Milestone) int { return cmp.Compare(a.Progress, b.Progress) },
	},
	id:          func(m domain.Milestone) string { return m.ID },
	defaultSort: "order",
}

var taskList = listSpec[domain.Task]{
	text: func(t domain.Task) []string {
		return append([]string{t.Title, t.Description}, t.Tags...)
	},
	filters: map[string]func(domain.Task, string) bool{
		"status":      func(t domain.Task, v string) bool { return string(t.Status) == v },
		"priority":    func(t domain.Task, v string) bool { return string(t.Priority) == v },
		"assignee_id": func(t domain.Task, v string) bool { return derefString(t.AssigneeID) == v },
		"project_id":  func(t domain.Task, v string) bool { return t.ProjectID == v },
		"tag":         func(t domain.Task, v string) bool { return hasTag(t.Tags, v) },
	},
	sorters: map[string]func(a, b domain.Task) int{
		"order":      func(a, b domain.Task) int { return cmp.Compare(a.Order, b.Order) },
		"created_at": func(a, b domain.Task) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"updated_at": func(a, b domain.Task) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
		"due_date":   func(a, b domain.Task) int { return compareTimePtr(a.DueDate, b.DueDate) },
		"title":      func(a, b domain.Task) int { return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)) },
		"status":     func(a, b domain.Task) int { return strings.Compare(string(a.Status), string(b.Status)) },
		"priority": func(a, b domain.Task) int {
			return cmp.Compare(taskPriorityRank[a.Priority], taskPriorityRank[b.Priority])
		},
	},
	id:          func(t domain.Task) string { return t.ID },
	defaultSort: "order",
}

func liveOnly[T interface{ IsDeleted() bool }](items []T, includeDeleted bool) []T {
	if includeDeleted {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if !item.IsDeleted() {
			out = append(out, item)
		}
	}
	return out
}
