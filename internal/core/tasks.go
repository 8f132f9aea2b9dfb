package core

import (
	"context"
	"fmt"
	"strings"
	"workcore/internal/access"
	"workcore/pkg/domain"
)

// CreateTask adds a task to a live project and recomputes the project's
// progress in the same transaction.
func (s *Service) CreateTask(ctx context.Context, in domain.TaskInput) (domain.Created, error) {
	var out domain.Created
	err := s.run(ctx, "create_task", func(ctx context.Context, p domain.Principal) error {
		return s.mutate(ctx, p, func(m *mutation) error {
			project, err := loadLiveProject(m.tx, in.ProjectID)
			if err != nil {
				return err
			}
			if err := s.authz.RequireEdit(m.tx, p, project); err != nil {
				return err
			}
			if err := validate(domain.EntityTask, in); err != nil {
				return err
			}

			t := domain.Task{
				Base:           domain.Base{CreatedBy: p.ID, UpdatedBy: p.ID, CreatedAt: m.now, UpdatedAt: m.now},
				PublicID:       s.ids.NewPublicID(domain.EntityTask),
				ProjectID:      project.ID,
				Title:          strings.TrimSpace(in.Title),
				Description:    in.Description,
				Priority:       in.Priority,
				AssigneeID:     in.AssigneeID,
				Tags:           cloneStrings(in.Tags),
				StartDate:      in.StartDate,
				DueDate:        in.DueDate,
				EstimatedHours: in.EstimatedHours,
				ActualHours:    in.ActualHours,
				BlockedBy:      cloneStrings(in.BlockedBy),
				DependsOn:      cloneStrings(in.DependsOn),
				Metadata:       cloneStringMap(in.Metadata),
			}
			if t.Priority == "" {
				t.Priority = domain.TaskPriorityMedium
			}
			status := in.Status
			if status == "" {
				status = domain.TaskStatusTodo
			}
			if in.Order != nil {
				t.Order = *in.Order
			} else {
				t.Order = nextTaskOrder(m.tx, project.ID, status)
			}
			applyTaskStatus(&t, status, m.now)

			created, err := m.tx.CreateTask(t)
			if err != nil {
				return fmt.Errorf("create task: %w", err)
			}
			if _, err := propagateProgress(m, project.ID); err != nil {
				return fmt.Errorf("propagate progress: %w", err)
			}
			out = domain.Created{ID: created.ID, PublicID: created.PublicID}
			return m.trail.record(ActionTaskCreated, taskTarget(created),
				fmt.Sprintf("Created task %q", created.Title), nil)
		})
	})
	return out, err
}

// GetTask returns a task the caller may view.
func (s *Service) GetTask(ctx context.Context, ref string) (domain.Task, error) {
	var out domain.Task
	err := s.run(ctx, "get_task", func(ctx context.Context, p domain.Principal) error {
		return s.view(ctx, func(v domain.TransactionView) error {
			t, err := loadTask(v, ref)
			if err != nil {
				return err
			}
			if err := s.authz.RequireView(v, p, t); err != nil {
				return err
			}
			out = t
			return nil
		})
	})
	return out, err
}

// UpdateTask applies a field-scoped patch. A status change without an
// explicit order moves the task to the end of its new column.
func (s *Service) UpdateTask(ctx context.Context, ref string, patch domain.TaskPatch) (domain.Task, error) {
	var out domain.Task
	err := s.run(ctx, "update_task", func(ctx context.Context, p domain.Principal) error {
		return s.mutate(ctx, p, func(m *mutation) error {
			before, after, fields, err := s.updateTask(m, ref, patch)
			if err != nil {
				return err
			}
			out = after
			md := map[string]string{"fields": joinFields(fields)}
			if before.Status != after.Status {
				md["from"], md["to"] = string(before.Status), string(after.Status)
			}
			return m.trail.record(ActionTaskUpdated, taskTarget(after),
				fmt.Sprintf("Updated task %q", after.Title), md)
		})
	})
	return out, err
}

// UpdateTaskStatus moves a task to status. Completing an already completed
// task keeps its original CompletedAt.
func (s *Service) UpdateTaskStatus(ctx context.Context, ref string, status domain.TaskStatus) (domain.Task, error) {
	var out domain.Task
	err := s.run(ctx, "update_task_status", func(ctx context.Context, p domain.Principal) error {
		return s.mutate(ctx, p, func(m *mutation) error {
			before, after, _, err := s.updateTask(m, ref, domain.TaskPatch{Status: &status})
			if err != nil {
				return err
			}
			out = after
			return m.trail.record(ActionTaskStatusUpdated, taskTarget(after),
				fmt.Sprintf("Changed task status from %s to %s", before.Status, after.Status),
				map[string]string{"from": string(before.Status), "to": string(after.Status)})
		})
	})
	return out, err
}

func (s *Service) updateTask(m *mutation, ref string, patch domain.TaskPatch) (domain.Task, domain.Task, []string, error) {
	current, err := loadTask(m.tx, ref)
	if err != nil {
		return domain.Task{}, domain.Task{}, nil, err
	}
	if current.IsDeleted() {
		return domain.Task{}, domain.Task{}, nil, deletedError(domain.EntityTask, ref)
	}
	if _, err := loadLiveProject(m.tx, current.ProjectID); err != nil {
		return domain.Task{}, domain.Task{}, nil, err
	}
	if err := s.authz.RequireEdit(m.tx, m.actor, current); err != nil {
		return domain.Task{}, domain.Task{}, nil, err
	}
	check := patch
	check.StartDate, check.DueDate = mergeDates(current.StartDate, current.DueDate, patch.StartDate, patch.DueDate)
	if err := validate(domain.EntityTask, check); err != nil {
		return domain.Task{}, domain.Task{}, nil, err
	}
	order := patch.Order
	if patch.Status != nil && *patch.Status != current.Status && order == nil {
		next := nextTaskOrder(m.tx, current.ProjectID, *patch.Status)
		order = &next
	}
	var fields []string
	updated, err := m.tx.UpdateTask(current.ID, func(t *domain.Task) error {
		fields = patchTask(t, patch, m)
		if order != nil {
			t.Order = *order
		}
		t.UpdatedAt = m.now
		t.UpdatedBy = m.actor.ID
		return nil
	})
	if err != nil {
		return domain.Task{}, domain.Task{}, nil, fmt.Errorf("update task %s: %w", current.ID, err)
	}
	if _, err := propagateProgress(m, updated.ProjectID); err != nil {
		return domain.Task{}, domain.Task{}, nil, fmt.Errorf("propagate progress: %w", err)
	}
	return current, updated, fields, nil
}

func patchTask(t *domain.Task, patch domain.TaskPatch, m *mutation) []string {
	var fields []string
	if patch.Title != nil {
		t.Title = strings.TrimSpace(*patch.Title)
		fields = append(fields, "title")
	}
	if patch.Description != nil {
		t.Description = *patch.Description
		fields = append(fields, "description")
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
		fields = append(fields, "priority")
	}
	if patch.AssigneeID != nil {
		t.AssigneeID = patch.AssigneeID
		fields = append(fields, "assignee_id")
	}
	if patch.Tags != nil {
		t.Tags = cloneStrings(*patch.Tags)
		fields = append(fields, "tags")
	}
	if patch.StartDate != nil {
		t.StartDate = patch.StartDate
		fields = append(fields, "start_date")
	}
	if patch.DueDate != nil {
		t.DueDate = patch.DueDate
		fields = append(fields, "due_date")
	}
	if patch.EstimatedHours != nil {
		t.EstimatedHours = patch.EstimatedHours
		fields = append(fields, "estimated_hours")
	}
	if patch.ActualHours != nil {
		t.ActualHours = patch.ActualHours
		fields = append(fields, "actual_hours")
	}
	if patch.Order != nil {
		fields = append(fields, "order")
	}
	if patch.BlockedBy != nil {
		t.BlockedBy = cloneStrings(*patch.BlockedBy)
		fields = append(fields, "blocked_by")
	}
	if patch.DependsOn != nil {
		t.DependsOn = cloneStrings(*patch.DependsOn)
		fields = append(fields, "depends_on")
	}
	if patch.Metadata != nil {
		t.Metadata = cloneStringMap(*patch.Metadata)
		fields = append(fields, "metadata")
	}
	if patch.Status != nil {
		applyTaskStatus(t, *patch.Status, m.now)
		fields = append(fields, "status")
	}
	return fields
}

// DeleteTask soft-deletes a task and recomputes the project's progress.
func (s *Service) DeleteTask(ctx context.Context, ref string) error {
	return s.run(ctx, "delete_task", func(ctx context.Context, p domain.Principal) error {
		return s.mutate(ctx, p, func(m *mutation) error {
			deleted, err := s.deleteTask(m, ref)
			if err != nil {
				return err
			}
			return m.trail.record(ActionTaskDeleted, taskTarget(deleted),
				fmt.Sprintf("Deleted task %q", deleted.Title), nil)
		})
	})
}

func (s *Service) deleteTask(m *mutation, ref string) (domain.Task, error) {
	current, err := loadTask(m.tx, ref)
	if err != nil {
		return domain.Task{}, err
	}
	if current.IsDeleted() {
		return domain.Task{}, alreadyDeletedError(domain.EntityTask, ref)
	}
	if _, err := loadLiveProject(m.tx, current.ProjectID); err != nil {
		return domain.Task{}, err
	}
	if err := s.authz.RequireDelete(m.tx, m.actor, current); err != nil {
		return domain.Task{}, err
	}
	deleted, err := m.tx.UpdateTask(current.ID, func(t *domain.Task) error {
		t.MarkDeleted(m.now, m.actor.ID)
		return nil
	})
	if err != nil {
		return domain.Task{}, fmt.Errorf("delete task %s: %w", current.ID, err)
	}
	if _, err := propagateProgress(m, deleted.ProjectID); err != nil {
		return domain.Task{}, fmt.Errorf("propagate progress: %w", err)
	}
	return deleted, nil
}

// RestoreTask clears the soft-delete marker and recomputes progress.
func (s *Service) RestoreTask(ctx context.Context, ref string) (domain.Task, error) {
	var out domain.Task
	err := s.run(ctx, "restore_task", func(ctx context.Context, p domain.Principal) error {
		return s.mutate(ctx, p, func(m *mutation) error {
			current, err := loadTask(m.tx, ref)
			if err != nil {
				return err
			}
			if !current.IsDeleted() {
				return notDeletedError(domain.EntityTask, ref)
			}
			if _, err := loadLiveProject(m.tx, current.ProjectID); err != nil {
				return err
			}
			if err := s.authz.RequireDelete(m.tx, p, current); err != nil {
				return err
			}
			out, err = m.tx.UpdateTask(current.ID, func(t *domain.Task) error {
				t.ClearDeleted()
				return nil
			})
			if err != nil {
				return fmt.Errorf("restore task %s: %w", current.ID, err)
			}
			if _, err := propagateProgress(m, out.ProjectID); err != nil {
				return fmt.Errorf("propagate progress: %w", err)
			}
			return m.trail.record(ActionTaskRestored, taskTarget(out),
				fmt.Sprintf("Restored task %q", out.Title), nil)
		})
	})
	return out, err
}

// BulkUpdateTasks applies patch to every ref independently.
func (s *Service) BulkUpdateTasks(ctx context.Context, refs []string, patch domain.TaskPatch) (domain.BulkResult[domain.Task], error) {
	var result domain.BulkResult[domain.Task]
	err := s.run(ctx, "bulk_update_tasks", func(ctx context.Context, p domain.Principal) error {
		var projectID string
		result, projectID = runBulk(ctx, s, p, refs, func(m *mutation, ref string) (domain.Task, string, error) {
			_, updated, _, err := s.updateTask(m, ref, patch)
			return updated, updated.ProjectID, err
		})
		return s.mutate(ctx, p, func(m *mutation) error {
			return m.trail.recordBatch(ActionTaskBulkUpdated, domain.EntityTask, "update", projectID, len(result.Succeeded), result.Failed)
		})
	})
	return result, err
}

// BulkDeleteTasks soft-deletes every ref independently.
func (s *Service) BulkDeleteTasks(ctx context.Context, refs []string) (domain.BulkResult[string], error) {
	var result domain.BulkResult[string]
	err := s.run(ctx, "bulk_delete_tasks", func(ctx context.Context, p domain.Principal) error {
		var projectID string
		result, projectID = runBulk(ctx, s, p, refs, func(m *mutation, ref string) (string, string, error) {
			deleted, err := s.deleteTask(m, ref)
			return ref, deleted.ProjectID, err
		})
		return s.mutate(ctx, p, func(m *mutation) error {
			return m.trail.recordBatch(ActionTaskBulkDeleted, domain.EntityTask, "delete", projectID, len(result.Succeeded), result.Failed)
		})
	})
	return result, err
}

// ListTasks returns the tasks of one project.
func (s *Service) ListTasks(ctx context.Context, projectRef string, opts domain.ListOptions) (domain.Page[domain.Task], error) {
	var page domain.Page[domain.Task]
	err := s.run(ctx, "list_tasks", func(ctx context.Context, p domain.Principal) error {
		return s.view(ctx, func(v domain.TransactionView) error {
			project, err := loadProject(v, projectRef)
			if err != nil {
				return err
			}
			if err := s.authz.RequireView(v, p, project); err != nil {
				return err
			}
			page, err = applyQuery(liveOnly(v.ListTasksByProject(project.ID), opts.IncludeDeleted), opts, taskList)
			return err
		})
	})
	return page, err
}

// myTaskList sorts by due date by default.
var myTaskList = func() listSpec[domain.Task] {
	spec := taskList
	spec.defaultSort = "due_date"
	return spec
}()

// ListMyTasks returns the caller's live assigned tasks across every live
// project they can still view.
func (s *Service) ListMyTasks(ctx context.Context, opts domain.ListOptions) (domain.Page[domain.Task], error) {
	var page domain.Page[domain.Task]
	err := s.run(ctx, "list_my_tasks", func(ctx context.Context, p domain.Principal) error {
		return s.view(ctx, func(v domain.TransactionView) error {
			var tasks []domain.Task
			for _, t := range v.ListTasksByAssignee(p.ID) {
				if t.IsDeleted() {
					continue
				}
				if project, ok := v.FindProject(t.ProjectID); !ok || project.IsDeleted() {
					continue
				}
				tasks = append(tasks, t)
			}
			var err error
			page, err = applyQuery(access.FilterByAccess(s.authz, v, p, tasks), opts, myTaskList)
			return err
		})
	})
	return page, err
}
