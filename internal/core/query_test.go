package core

import (
	"errors"
	"slices"
	"testing"
	"time"
	"workcore/pkg/domain"
)

func taskTitles(items []domain.Task) []string {
	out := make([]string, 0, len(items))
	for _, t := range items {
		out = append(out, t.Title)
	}
	return out
}

func sampleTasks() []domain.Task {
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	alice := "alice"
	return []domain.Task{
		{Base: domain.Base{ID: "t3"}, Title: "Write docs", Status: domain.TaskStatusTodo, Priority: domain.TaskPriorityLow, Order: 2, Tags: []string{"Docs"}},
		{Base: domain.Base{ID: "t1"}, Title: "Fix login", Status: domain.TaskStatusInProgress, Priority: domain.TaskPriorityCritical, Order: 0, AssigneeID: &alice, DueDate: &due},
		{Base: domain.Base{ID: "t2"}, Title: "Review login copy", Status: domain.TaskStatusTodo, Priority: domain.TaskPriorityHigh, Order: 0},
	}
}

func TestApplyQueryDefaultsAndTieBreak(t *testing.T) {
	page, err := applyQuery(sampleTasks(), domain.ListOptions{}, taskList)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := []string{"Fix login", "Review login copy", "Write docs"}
	if got := taskTitles(page.Items); !slices.Equal(got, want) {
		t.Fatalf("titles = %v, want %v", got, want)
	}
	if page.Total != 3 || page.HasMore {
		t.Fatalf("unexpected page meta: %+v", page)
	}
}

func TestApplyQuerySearchAndFilters(t *testing.T) {
	page, err := applyQuery(sampleTasks(), domain.ListOptions{Search: "  LOGIN ", Filters: map[string]string{"status": "todo"}}, taskList)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := taskTitles(page.Items); !slices.Equal(got, []string{"Review login copy"}) {
		t.Fatalf("titles = %v", got)
	}

	page, err = applyQuery(sampleTasks(), domain.ListOptions{Filters: map[string]string{"tag": "docs", "assignee_id": ""}}, taskList)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := taskTitles(page.Items); !slices.Equal(got, []string{"Write docs"}) {
		t.Fatalf("titles = %v", got)
	}
}

func TestApplyQuerySortsByPriorityRank(t *testing.T) {
	page, err := applyQuery(sampleTasks(), domain.ListOptions{SortBy: "priority", SortOrder: domain.SortDesc}, taskList)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := []string{"Fix login", "Review login copy", "Write docs"}
	if got := taskTitles(page.Items); !slices.Equal(got, want) {
		t.Fatalf("titles = %v, want %v", got, want)
	}
}

func TestApplyQueryDueDateNilsLast(t *testing.T) {
	page, err := applyQuery(sampleTasks(), domain.ListOptions{SortBy: "due_date"}, taskList)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if page.Items[0].Title != "Fix login" {
		t.Fatalf("dated task should sort first, got %v", taskTitles(page.Items))
	}
}

func TestApplyQueryRejectsUnknownOptions(t *testing.T) {
	_, err := applyQuery(sampleTasks(), domain.ListOptions{
		SortBy:    "colour",
		SortOrder: "sideways",
		Filters:   map[string]string{"mood": "happy"},
	}, taskList)
	if !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("expected validation failure, got %v", err)
	}
	var derr *domain.Error
	if !errors.As(err, &derr) || len(derr.Violations) != 3 {
		t.Fatalf("expected three violations, got %v", err)
	}
}

func TestPaginateClampsBounds(t *testing.T) {
	items := make([]int, 250)
	for i := range items {
		items[i] = i
	}
	cases := []struct {
		opts      domain.ListOptions
		wantLen   int
		wantFirst int
		wantMore  bool
	}{
		{domain.ListOptions{}, DefaultPageSize, 0, true},
		{domain.ListOptions{Limit: 1000}, MaxPageSize, 0, true},
		{domain.ListOptions{Limit: 50, Offset: 240}, 10, 240, false},
		{domain.ListOptions{Offset: -5, Limit: 5}, 5, 0, true},
		{domain.ListOptions{Offset: 900}, 0, -1, false},
	}
	for _, tc := range cases {
		page := paginate(items, tc.opts)
		if len(page.Items) != tc.wantLen || page.HasMore != tc.wantMore || page.Total != 250 {
			t.Fatalf("%+v: got len=%d more=%v total=%d", tc.opts, len(page.Items), page.HasMore, page.Total)
		}
		if tc.wantLen > 0 && page.Items[0] != tc.wantFirst {
			t.Fatalf("%+v: first = %d, want %d", tc.opts, page.Items[0], tc.wantFirst)
		}
	}
}

func TestLiveOnly(t *testing.T) {
	deleted := domain.Task{Base: domain.Base{ID: "gone"}}
	deleted.MarkDeleted(time.Now(), "u")
	items := []domain.Task{{Base: domain.Base{ID: "kept"}}, deleted}
	if got := liveOnly(items, false); len(got) != 1 || got[0].ID != "kept" {
		t.Fatalf("liveOnly = %+v", got)
	}
	if got := liveOnly(items, true); len(got) != 2 {
		t.Fatalf("include deleted = %+v", got)
	}
}
