package core

import (
	"context"
	"fmt"
	"strings"
	"workcore/internal/progress"
	"workcore/pkg/domain"
)

// CreateMilestone adds a milestone to a live project. Status defaults to
// upcoming when the start date lies in the future and in_progress otherwise.
func (s *Service) CreateMilestone(ctx context.Context, in domain.MilestoneInput) (domain.Created, error) {
	var out domain.Created
	err := s.run(ctx, "create_milestone", func(ctx context.Context, p domain.Principal) error {
		return s.mutate(ctx, p, func(m *mutation) error {
			project, err := loadLiveProject(m.tx, in.ProjectID)
			if err != nil {
				return err
			}
			if err := s.authz.RequireEdit(m.tx, p, project); err != nil {
				return err
			}
			if err := validate(domain.EntityMilestone, in); err != nil {
				return err
			}

			ms := domain.Milestone{
				Base:         domain.Base{CreatedBy: p.ID, UpdatedBy: p.ID, CreatedAt: m.now, UpdatedAt: m.now},
				PublicID:     s.ids.NewPublicID(domain.EntityMilestone),
				ProjectID:    project.ID,
				Title:        strings.TrimSpace(in.Title),
				Description:  in.Description,
				Priority:     in.Priority,
				StartDate:    in.StartDate,
				DueDate:      in.DueDate,
				Deliverables: normalizeDeliverables(in.Deliverables, m.now),
				Dependencies: cloneStrings(in.Dependencies),
				AssigneeID:   in.AssigneeID,
				Metadata:     in.Metadata,
			}
			ms.Metadata.Attachments = cloneStrings(in.Metadata.Attachments)
			if ms.Priority == "" {
				ms.Priority = domain.PriorityMedium
			}
			if in.Order != nil {
				ms.Order = *in.Order
			} else {
				ms.Order = nextMilestoneOrder(m.tx, project.ID)
			}
			switch {
			case len(ms.Deliverables) > 0:
				ms.Progress = progress.Milestone(ms.Deliverables)
			case in.Progress != nil:
				ms.Progress = *in.Progress
			}
			status := in.Status
			if status == "" {
				status = domain.MilestoneStatusInProgress
				if in.StartDate != nil && in.StartDate.After(m.now) {
					status = domain.MilestoneStatusUpcoming
				}
			}
			applyMilestoneStatus(&ms, status, m.now)

			created, err := m.tx.CreateMilestone(ms)
			if err != nil {
				return fmt.Errorf("create milestone: %w", err)
			}
			if err := touchProject(m, project.ID); err != nil {
				return err
			}
			out = domain.Created{ID: created.ID, PublicID: created.PublicID}
			return m.trail.record(ActionMilestoneCreated, milestoneTarget(created),
				fmt.Sprintf("Created milestone %q", created.Title), nil)
		})
	})
	return out, err
}

// GetMilestone returns a milestone the caller may view.
func (s *Service) GetMilestone(ctx context.Context, ref string) (domain.Milestone, error) {
	var out domain.Milestone
	err := s.run(ctx, "get_milestone", func(ctx context.Context, p domain.Principal) error {
		return s.view(ctx, func(v domain.TransactionView) error {
			ms, err := loadMilestone(v, ref)
			if err != nil {
				return err
			}
			if err := s.authz.RequireView(v, p, ms); err != nil {
				return err
			}
			out = ms
			return nil
		})
	})
	return out, err
}

// UpdateMilestone applies a field-scoped patch. A direct progress value
// never changes status; supplied deliverables always win over it.
func (s *Service) UpdateMilestone(ctx context.Context, ref string, patch domain.MilestonePatch) (domain.Milestone, error) {
	var out domain.Milestone
	err := s.run(ctx, "update_milestone", func(ctx context.Context, p domain.Principal) error {
		return s.mutate(ctx, p, func(m *mutation) error {
			before, after, fields, err := s.updateMilestone(m, ref, patch)
			if err != nil {
				return err
			}
			out = after
			md := map[string]string{"fields": joinFields(fields)}
			if before.Status != after.Status {
				md["from"], md["to"] = string(before.Status), string(after.Status)
			}
			return m.trail.record(ActionMilestoneUpdated, milestoneTarget(after),
				fmt.Sprintf("Updated milestone %q", after.Title), md)
		})
	})
	return out, err
}

// UpdateMilestoneStatus moves a milestone to status.
func (s *Service) UpdateMilestoneStatus(ctx context.Context, ref string, status domain.MilestoneStatus) (domain.Milestone, error) {
	var out domain.Milestone
	err := s.run(ctx, "update_milestone_status", func(ctx context.Context, p domain.Principal) error {
		return s.mutate(ctx, p, func(m *mutation) error {
			before, after, _, err := s.updateMilestone(m, ref, domain.MilestonePatch{Status: &status})
			if err != nil {
				return err
			}
			out = after
			return m.trail.record(ActionMilestoneStatusUpdated, milestoneTarget(after),
				fmt.Sprintf("Changed milestone status from %s to %s", before.Status, after.Status),
				map[string]string{"from": string(before.Status), "to": string(after.Status)})
		})
	})
	return out, err
}

// editableMilestone loads a live milestone under a live project and checks
// edit rights.
func (s *Service) editableMilestone(m *mutation, ref string) (domain.Milestone, error) {
	current, err := loadMilestone(m.tx, ref)
	if err != nil {
		return domain.Milestone{}, err
	}
	if current.IsDeleted() {
		return domain.Milestone{}, deletedError(domain.EntityMilestone, ref)
	}
	if _, err := loadLiveProject(m.tx, current.ProjectID); err != nil {
		return domain.Milestone{}, err
	}
	if err := s.authz.RequireEdit(m.tx, m.actor, current); err != nil {
		return domain.Milestone{}, err
	}
	return current, nil
}

func (s *Service) updateMilestone(m *mutation, ref string, patch domain.MilestonePatch) (domain.Milestone, domain.Milestone, []string, error) {
	current, err := s.editableMilestone(m, ref)
	if err != nil {
		return domain.Milestone{}, domain.Milestone{}, nil, err
	}
	check := patch
	check.StartDate, check.DueDate = mergeDates(current.StartDate, current.DueDate, patch.StartDate, patch.DueDate)
	if err := validate(domain.EntityMilestone, check); err != nil {
		return domain.Milestone{}, domain.Milestone{}, nil, err
	}
	var fields []string
	updated, err := m.tx.UpdateMilestone(current.ID, func(ms *domain.Milestone) error {
		fields = patchMilestone(ms, patch, m)
		ms.UpdatedAt = m.now
		ms.UpdatedBy = m.actor.ID
		return nil
	})
	if err != nil {
		return domain.Milestone{}, domain.Milestone{}, nil, fmt.Errorf("update milestone %s: %w", current.ID, err)
	}
	if err := touchProject(m, updated.ProjectID); err != nil {
		return domain.Milestone{}, domain.Milestone{}, nil, err
	}
	return current, updated, fields, nil
}

func patchMilestone(ms *domain.Milestone, patch domain.MilestonePatch, m *mutation) []string {
	var fields []string
	if patch.Title != nil {
		ms.Title = strings.TrimSpace(*patch.Title)
		fields = append(fields, "title")
	}
	if patch.Description != nil {
		ms.Description = *patch.Description
		fields = append(fields, "description")
	}
	if patch.Priority != nil {
		ms.Priority = *patch.Priority
		fields = append(fields, "priority")
	}
	if patch.StartDate != nil {
		ms.StartDate = patch.StartDate
		fields = append(fields, "start_date")
	}
	if patch.DueDate != nil {
		ms.DueDate = patch.DueDate
		fields = append(fields, "due_date")
	}
	if patch.Dependencies != nil {
		ms.Dependencies = cloneStrings(*patch.Dependencies)
		fields = append(fields, "dependencies")
	}
	if patch.Order != nil {
		ms.Order = *patch.Order
		fields = append(fields, "order")
	}
	if patch.AssigneeID != nil {
		ms.AssigneeID = patch.AssigneeID
		fields = append(fields, "assignee_id")
	}
	if patch.Metadata != nil {
		ms.Metadata = *patch.Metadata
		ms.Metadata.Attachments = cloneStrings(patch.Metadata.Attachments)
		fields = append(fields, "metadata")
	}
	if patch.Progress != nil {
		ms.Progress = *patch.Progress
		fields = append(fields, "progress")
	}
	if patch.Deliverables != nil {
		ms.Deliverables = normalizeDeliverables(*patch.Deliverables, m.now)
		fields = append(fields, "deliverables")
	}
	if patch.Status != nil {
		applyMilestoneStatus(ms, *patch.Status, m.now)
		fields = append(fields, "status")
	}
	switch {
	case patch.Deliverables != nil:
		recomputeMilestoneProgress(ms)
	case ms.Status == domain.MilestoneStatusCompleted:
		ms.Progress = 100
	}
	return fields
}

// SetDeliverableCompleted toggles one deliverable and recomputes progress.
func (s *Service) SetDeliverableCompleted(ctx context.Context, ref string, index int, completed bool) (domain.Milestone, error) {
	var out domain.Milestone
	err := s.run(ctx, "set_deliverable_completed", func(ctx context.Context, p domain.Principal) error {
		return s.mutate(ctx, p, func(m *mutation) error {
			current, err := s.editableMilestone(m, ref)
			if err != nil {
				return err
			}
			if index < 0 || index >= len(current.Deliverables) {
				return domain.ValidationFailed([]domain.ValidationError{{
					Field:   "deliverables",
					Message: fmt.Sprintf("deliverable %d does not exist", index),
				}})
			}
			out, err = m.tx.UpdateMilestone(current.ID, func(ms *domain.Milestone) error {
				items := append([]domain.Deliverable(nil), ms.Deliverables...)
				items[index].Completed = completed
				ms.Deliverables = normalizeDeliverables(items, m.now)
				recomputeMilestoneProgress(ms)
				ms.UpdatedAt = m.now
				ms.UpdatedBy = p.ID
				return nil
			})
			if err != nil {
				return fmt.Errorf("update milestone %s: %w", current.ID, err)
			}
			if err := touchProject(m, out.ProjectID); err != nil {
				return err
			}
			verb := "Reopened"
			if completed {
				verb = "Completed"
			}
			return m.trail.record(ActionMilestoneDeliverableUpdated, milestoneTarget(out),
				fmt.Sprintf("%s deliverable %q", verb, out.Deliverables[index].Title),
				map[string]string{"index": fmt.Sprint(index), "progress": fmt.Sprint(out.Progress)})
		})
	})
	return out, err
}

// DeleteMilestone soft-deletes a milestone.
func (s *Service) DeleteMilestone(ctx context.Context, ref string) error {
	return s.run(ctx, "delete_milestone", func(ctx context.Context, p domain.Principal) error {
		return s.mutate(ctx, p, func(m *mutation) error {
			deleted, err := s.deleteMilestone(m, ref)
			if err != nil {
				return err
			}
			return m.trail.record(ActionMilestoneDeleted, milestoneTarget(deleted),
				fmt.Sprintf("Deleted milestone %q", deleted.Title), nil)
		})
	})
}

func (s *Service) deleteMilestone(m *mutation, ref string) (domain.Milestone, error) {
	current, err := loadMilestone(m.tx, ref)
	if err != nil {
		return domain.Milestone{}, err
	}
	if current.IsDeleted() {
		return domain.Milestone{}, alreadyDeletedError(domain.EntityMilestone, ref)
	}
	if _, err := loadLiveProject(m.tx, current.ProjectID); err != nil {
		return domain.Milestone{}, err
	}
	if err := s.authz.RequireDelete(m.tx, m.actor, current); err != nil {
		return domain.Milestone{}, err
	}
	deleted, err := m.tx.UpdateMilestone(current.ID, func(ms *domain.Milestone) error {
		ms.MarkDeleted(m.now, m.actor.ID)
		return nil
	})
	if err != nil {
		return domain.Milestone{}, fmt.Errorf("delete milestone %s: %w", current.ID, err)
	}
	return deleted, touchProject(m, deleted.ProjectID)
}

// RestoreMilestone clears the soft-delete marker of a milestone.
func (s *Service) RestoreMilestone(ctx context.Context, ref string) (domain.Milestone, error) {
	var out domain.Milestone
	err := s.run(ctx, "restore_milestone", func(ctx context.Context, p domain.Principal) error {
		return s.mutate(ctx, p, func(m *mutation) error {
			current, err := loadMilestone(m.tx, ref)
			if err != nil {
				return err
			}
			if !current.IsDeleted() {
				return notDeletedError(domain.EntityMilestone, ref)
			}
			if _, err := loadLiveProject(m.tx, current.ProjectID); err != nil {
				return err
			}
			if err := s.authz.RequireDelete(m.tx, p, current); err != nil {
				return err
			}
			out, err = m.tx.UpdateMilestone(current.ID, func(ms *domain.Milestone) error {
				ms.ClearDeleted()
				return nil
			})
			if err != nil {
				return fmt.Errorf("restore milestone %s: %w", current.ID, err)
			}
			if err := touchProject(m, out.ProjectID); err != nil {
				return err
			}
			return m.trail.record(ActionMilestoneRestored, milestoneTarget(out),
				fmt.Sprintf("Restored milestone %q", out.Title), nil)
		})
	})
	return out, err
}

// BulkDeleteMilestones soft-deletes every ref independently.
func (s *Service) BulkDeleteMilestones(ctx context.Context, refs []string) (domain.BulkResult[string], error) {
	var result domain.BulkResult[string]
	err := s.run(ctx, "bulk_delete_milestones", func(ctx context.Context, p domain.Principal) error {
		var projectID string
		result, projectID = runBulk(ctx, s, p, refs, func(m *mutation, ref string) (string, string, error) {
			deleted, err := s.deleteMilestone(m, ref)
			return ref, deleted.ProjectID, err
		})
		return s.mutate(ctx, p, func(m *mutation) error {
			return m.trail.recordBatch(ActionMilestoneBulkDeleted, domain.EntityMilestone, "delete", projectID, len(result.Succeeded), result.Failed)
		})
	})
	return result, err
}

// ListMilestones returns a project's milestones, ordered by Order unless
// opts says otherwise.
func (s *Service) ListMilestones(ctx context.Context, projectRef string, opts domain.ListOptions) (domain.Page[domain.Milestone], error) {
	var page domain.Page[domain.Milestone]
	err := s.run(ctx, "list_milestones", func(ctx context.Context, p domain.Principal) error {
		return s.view(ctx, func(v domain.TransactionView) error {
			project, err := loadProject(v, projectRef)
			if err != nil {
				return err
			}
			if err := s.authz.RequireView(v, p, project); err != nil {
				return err
			}
			page, err = applyQuery(liveOnly(v.ListMilestonesByProject(project.ID), opts.IncludeDeleted), opts, milestoneList)
			return err
		})
	})
	return page, err
}
