package core

import (
	"context"
	"slices"
	"testing"
	"time"
	"workcore/internal/progress"
	"workcore/pkg/domain"
)

type ruleView struct {
	projects map[string]domain.Project
	tasks    []domain.Task
}

func (v ruleView) FindProject(id string) (domain.Project, bool) {
	p, ok := v.projects[id]
	return p, ok
}

func (ruleView) FindMilestone(string) (domain.Milestone, bool) { return domain.Milestone{}, false }

func (v ruleView) FindTask(id string) (domain.Task, bool) {
	for _, t := range v.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

func (v ruleView) ListTasksByProject(projectID string) []domain.Task {
	var out []domain.Task
	for _, t := range v.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out
}

func (ruleView) ListMilestonesByProject(string) []domain.Milestone { return nil }

func evaluate(t *testing.T, rule domain.Rule, view domain.RuleView, changes ...domain.Change) []domain.Violation {
	t.Helper()
	res, err := rule.Evaluate(context.Background(), view, changes)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", rule.Name(), err)
	}
	return res.Violations
}

func TestDefaultRulesEngineRegistration(t *testing.T) {
	got := NewDefaultRulesEngine().Rules()
	want := []string{"status_validity", "task_completion", "milestone_completion", "project_progress", "milestone_progress"}
	if !slices.Equal(got, want) {
		t.Fatalf("rules = %v, want %v", got, want)
	}
}

func TestStatusValidityRule(t *testing.T) {
	changes := []domain.Change{
		{Entity: domain.EntityProject, Action: domain.ActionUpdate, After: domain.Project{Base: domain.Base{ID: "p1"}, Status: "archived"}},
		{Entity: domain.EntityTask, Action: domain.ActionCreate, After: &domain.Task{Base: domain.Base{ID: "t1"}, Status: domain.TaskStatusTodo}},
		{Entity: domain.EntityMember, Action: domain.ActionCreate, After: domain.ProjectMember{Base: domain.Base{ID: "m1"}, Status: domain.MemberStatusActive, Role: "boss"}},
		{Entity: domain.EntityMilestone, Action: domain.ActionDelete, Before: domain.Milestone{Status: "bogus"}},
	}
	violations := evaluate(t, StatusValidityRule(), ruleView{}, changes...)
	if len(violations) != 2 {
		t.Fatalf("expected 2 violations, got %+v", violations)
	}
	if violations[0].EntityID != "p1" || violations[1].EntityID != "m1" {
		t.Fatalf("unexpected targets: %+v", violations)
	}
	for _, v := range violations {
		if v.Severity != domain.SeverityBlock {
			t.Fatalf("expected blocking severity, got %s", v.Severity)
		}
	}
}

func TestTaskCompletionRule(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		task domain.Task
		want int
	}{
		{"completed with time", domain.Task{Status: domain.TaskStatusCompleted, CompletedAt: &now}, 0},
		{"completed without time", domain.Task{Status: domain.TaskStatusCompleted}, 1},
		{"cancelled keeps time", domain.Task{Status: domain.TaskStatusCancelled, CompletedAt: &now}, 0},
		{"reopened with stale time", domain.Task{Status: domain.TaskStatusInReview, CompletedAt: &now}, 1},
		{"open", domain.Task{Status: domain.TaskStatusTodo}, 0},
	}
	for _, tc := range cases {
		got := evaluate(t, TaskCompletionRule(), ruleView{}, domain.Change{Entity: domain.EntityTask, After: tc.task})
		if len(got) != tc.want {
			t.Fatalf("%s: expected %d violations, got %+v", tc.name, tc.want, got)
		}
	}
}

func TestMilestoneCompletionRule(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		ms   domain.Milestone
		want int
	}{
		{"completed", domain.Milestone{Status: domain.MilestoneStatusCompleted, Progress: 100, CompletedDate: &now}, 0},
		{"completed short", domain.Milestone{Status: domain.MilestoneStatusCompleted, Progress: 80}, 2},
		{"open with date", domain.Milestone{Status: domain.MilestoneStatusInProgress, Progress: 10, CompletedDate: &now}, 1},
		{"out of range", domain.Milestone{Status: domain.MilestoneStatusUpcoming, Progress: 120}, 1},
		{"full but open", domain.Milestone{Status: domain.MilestoneStatusInProgress, Progress: 100}, 0},
	}
	for _, tc := range cases {
		got := evaluate(t, MilestoneCompletionRule(), ruleView{}, domain.Change{Entity: domain.EntityMilestone, After: tc.ms})
		if len(got) != tc.want {
			t.Fatalf("%s: expected %d violations, got %+v", tc.name, tc.want, got)
		}
	}
}

func TestProjectProgressRuleComparesAgainstTasks(t *testing.T) {
	tasks := []domain.Task{
		{Base: domain.Base{ID: "t1"}, ProjectID: "p1", Status: domain.TaskStatusCompleted},
		{Base: domain.Base{ID: "t2"}, ProjectID: "p1", Status: domain.TaskStatusTodo},
	}
	fresh := ruleView{projects: map[string]domain.Project{"p1": {Base: domain.Base{ID: "p1"}, Progress: progress.Project(1, 2)}}, tasks: tasks}
	stale := ruleView{projects: map[string]domain.Project{"p1": {Base: domain.Base{ID: "p1"}, Progress: progress.Project(0, 2)}}, tasks: tasks}
	change := domain.Change{Entity: domain.EntityTask, Action: domain.ActionUpdate, Before: tasks[0], After: tasks[0]}

	if got := evaluate(t, ProjectProgressRule(), fresh, change); len(got) != 0 {
		t.Fatalf("fresh snapshot flagged: %+v", got)
	}
	got := evaluate(t, ProjectProgressRule(), stale, change)
	if len(got) != 1 || got[0].EntityID != "p1" {
		t.Fatalf("stale snapshot not flagged: %+v", got)
	}
}

func TestProjectProgressRuleChecksDirectWritesForConsistency(t *testing.T) {
	direct := domain.Project{Base: domain.Base{ID: "p1"}, Progress: progress.Project(3, 4)}
	view := ruleView{projects: map[string]domain.Project{"p1": direct}}
	change := domain.Change{Entity: domain.EntityProject, Action: domain.ActionUpdate, After: direct}
	if got := evaluate(t, ProjectProgressRule(), view, change); len(got) != 0 {
		t.Fatalf("consistent direct write flagged: %+v", got)
	}

	broken := direct
	broken.Progress = domain.ProgressSnapshot{CompletedTasks: 3, TotalTasks: 4, Percentage: 10}
	view.projects["p1"] = broken
	if got := evaluate(t, ProjectProgressRule(), view, domain.Change{Entity: domain.EntityProject, After: broken}); len(got) != 1 {
		t.Fatalf("inconsistent snapshot not flagged: %+v", got)
	}

	deleted := broken
	deleted.MarkDeleted(time.Now(), "u")
	view.projects["p1"] = deleted
	if got := evaluate(t, ProjectProgressRule(), view, domain.Change{Entity: domain.EntityProject, After: deleted}); len(got) != 0 {
		t.Fatalf("deleted project flagged: %+v", got)
	}
}

func TestMilestoneProgressRuleOnlyWarns(t *testing.T) {
	ms := domain.Milestone{
		Base:         domain.Base{ID: "m1"},
		Status:       domain.MilestoneStatusInProgress,
		Progress:     90,
		Deliverables: []domain.Deliverable{{Title: "a", Completed: true}, {Title: "b"}},
	}
	got := evaluate(t, MilestoneProgressRule(), ruleView{}, domain.Change{Entity: domain.EntityMilestone, After: ms})
	if len(got) != 1 || got[0].Severity != domain.SeverityWarn {
		t.Fatalf("expected one warning, got %+v", got)
	}

	ms.Status = domain.MilestoneStatusCompleted
	if got := evaluate(t, MilestoneProgressRule(), ruleView{}, domain.Change{Entity: domain.EntityMilestone, After: ms}); len(got) != 0 {
		t.Fatalf("completed milestone flagged: %+v", got)
	}
}

func TestChangeAsAcceptsPointers(t *testing.T) {
	task := domain.Task{Base: domain.Base{ID: "t1"}}
	if got, ok := changeAs[domain.Task](&task); !ok || got.ID != "t1" {
		t.Fatalf("pointer payload not unwrapped: %v %v", got, ok)
	}
	if _, ok := changeAs[domain.Task]((*domain.Task)(nil)); ok {
		t.Fatal("nil pointer accepted")
	}
	if _, ok := changeAs[domain.Task](domain.Project{}); ok {
		t.Fatal("wrong type accepted")
	}
}
