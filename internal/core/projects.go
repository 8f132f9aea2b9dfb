package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"workcore/internal/access"
	"workcore/internal/progress"
	"workcore/pkg/domain"

	"golang.org/x/sync/errgroup"
)

// DefaultProjectSettings are applied when a create payload carries none.
var DefaultProjectSettings = domain.ProjectSettings{AllowComments: true}

// CreateProject persists a new project owned by the caller and enrolls the
// caller as its owner member.
func (s *Service) CreateProject(ctx context.Context, in domain.ProjectInput) (domain.Created, error) {
	var out domain.Created
	err := s.run(ctx, "create_project", func(ctx context.Context, p domain.Principal) error {
		if err := s.authz.RequireCreateProject(p); err != nil {
			return err
		}
		if err := validate(domain.EntityProject, in); err != nil {
			return err
		}
		return s.mutate(ctx, p, func(m *mutation) error {
			project := domain.Project{
				Base:           domain.Base{CreatedBy: p.ID, UpdatedBy: p.ID, CreatedAt: m.now, UpdatedAt: m.now},
				PublicID:       s.ids.NewPublicID(domain.EntityProject),
				Title:          strings.TrimSpace(in.Title),
				Description:    in.Description,
				Priority:       in.Priority,
				Visibility:     in.Visibility,
				Tags:           cloneStrings(in.Tags),
				Category:       in.Category,
				OwnerID:        p.ID,
				Progress:       progress.Project(0, 0),
				StartDate:      in.StartDate,
				DueDate:        in.DueDate,
				Settings:       DefaultProjectSettings,
				Metadata:       in.Metadata,
				LastActivityAt: m.now,
			}
			project.Metadata.Custom = cloneStringMap(in.Metadata.Custom)
			if project.Priority == "" {
				project.Priority = domain.PriorityMedium
			}
			if project.Visibility == "" {
				project.Visibility = domain.VisibilityPrivate
			}
			if in.Settings != nil {
				project.Settings = *in.Settings
			}
			status := in.Status
			if status == "" {
				status = domain.ProjectStatusActive
			}
			applyProjectStatus(&project, status, m.now)

			created, err := m.tx.CreateProject(project)
			if err != nil {
				return fmt.Errorf("create project: %w", err)
			}
			if _, err := m.tx.CreateMember(domain.ProjectMember{
				Base:        domain.Base{CreatedBy: p.ID, UpdatedBy: p.ID, CreatedAt: m.now, UpdatedAt: m.now},
				ProjectID:   created.ID,
				UserID:      p.ID,
				Role:        domain.RoleOwner,
				Status:      domain.MemberStatusActive,
				Permissions: domain.MemberPermissions{CanEdit: true},
				JoinedAt:    m.now,
			}); err != nil {
				return fmt.Errorf("enroll owner: %w", err)
			}
			out = domain.Created{ID: created.ID, PublicID: created.PublicID}
			return m.trail.record(ActionProjectCreated, projectTarget(created),
				fmt.Sprintf("Created project %q", created.Title), nil)
		})
	})
	return out, err
}

// GetProject returns a project the caller may view. Soft-deleted projects
// are returned with their deletion marker set.
func (s *Service) GetProject(ctx context.Context, ref string) (domain.Project, error) {
	var out domain.Project
	err := s.run(ctx, "get_project", func(ctx context.Context, p domain.Principal) error {
		return s.view(ctx, func(v domain.TransactionView) error {
			project, err := loadProject(v, ref)
			if err != nil {
				return err
			}
			if err := s.authz.RequireView(v, p, project); err != nil {
				return err
			}
			out = project
			return nil
		})
	})
	return out, err
}

// UpdateProject applies a field-scoped patch.
func (s *Service) UpdateProject(ctx context.Context, ref string, patch domain.ProjectPatch) (domain.Project, error) {
	var out domain.Project
	err := s.run(ctx, "update_project", func(ctx context.Context, p domain.Principal) error {
		return s.mutate(ctx, p, func(m *mutation) error {
			before, after, fields, err := s.updateProject(m, ref, patch)
			if err != nil {
				return err
			}
			out = after
			md := map[string]string{"fields": joinFields(fields)}
			if before.Status != after.Status {
				md["from"], md["to"] = string(before.Status), string(after.Status)
			}
			return m.trail.record(ActionProjectUpdated, projectTarget(after),
				fmt.Sprintf("Updated project %q", after.Title), md)
		})
	})
	return out, err
}

// UpdateProjectStatus moves a project to status, stamping or clearing
// CompletedAt.
func (s *Service) UpdateProjectStatus(ctx context.Context, ref string, status domain.ProjectStatus) (domain.Project, error) {
	var out domain.Project
	err := s.run(ctx, "update_project_status", func(ctx context.Context, p domain.Principal) error {
		return s.mutate(ctx, p, func(m *mutation) error {
			before, after, _, err := s.updateProject(m, ref, domain.ProjectPatch{Status: &status})
			if err != nil {
				return err
			}
			out = after
			return m.trail.record(ActionProjectStatusUpdated, projectTarget(after),
				fmt.Sprintf("Changed project status from %s to %s", before.Status, after.Status),
				map[string]string{"from": string(before.Status), "to": string(after.Status)})
		})
	})
	return out, err
}

// updateProject loads, checks and patches one project. Bulk updates share it.
func (s *Service) updateProject(m *mutation, ref string, patch domain.ProjectPatch) (domain.Project, domain.Project, []string, error) {
	current, err := loadProject(m.tx, ref)
	if err != nil {
		return domain.Project{}, domain.Project{}, nil, err
	}
	if current.IsDeleted() {
		return domain.Project{}, domain.Project{}, nil, deletedError(domain.EntityProject, ref)
	}
	if err := s.authz.RequireEdit(m.tx, m.actor, current); err != nil {
		return domain.Project{}, domain.Project{}, nil, err
	}
	check := patch
	check.StartDate, check.DueDate = mergeDates(current.StartDate, current.DueDate, patch.StartDate, patch.DueDate)
	if err := validate(domain.EntityProject, check); err != nil {
		return domain.Project{}, domain.Project{}, nil, err
	}
	var fields []string
	updated, err := m.tx.UpdateProject(current.ID, func(p *domain.Project) error {
		fields = patchProject(p, patch, m.now)
		p.UpdatedAt = m.now
		p.UpdatedBy = m.actor.ID
		p.LastActivityAt = m.now
		return nil
	})
	if err != nil {
		return domain.Project{}, domain.Project{}, nil, fmt.Errorf("update project %s: %w", current.ID, err)
	}
	return current, updated, fields, nil
}

func patchProject(p *domain.Project, patch domain.ProjectPatch, now time.Time) []string {
	var fields []string
	if patch.Title != nil {
		p.Title = strings.TrimSpace(*patch.Title)
		fields = append(fields, "title")
	}
	if patch.Description != nil {
		p.Description = *patch.Description
		fields = append(fields, "description")
	}
	if patch.Priority != nil {
		p.Priority = *patch.Priority
		fields = append(fields, "priority")
	}
	if patch.Visibility != nil {
		p.Visibility = *patch.Visibility
		fields = append(fields, "visibility")
	}
	if patch.Tags != nil {
		p.Tags = cloneStrings(*patch.Tags)
		fields = append(fields, "tags")
	}
	if patch.Category != nil {
		p.Category = *patch.Category
		fields = append(fields, "category")
	}
	if patch.StartDate != nil {
		p.StartDate = patch.StartDate
		fields = append(fields, "start_date")
	}
	if patch.DueDate != nil {
		p.DueDate = patch.DueDate
		fields = append(fields, "due_date")
	}
	if patch.Settings != nil {
		p.Settings = *patch.Settings
		fields = append(fields, "settings")
	}
	if patch.Metadata != nil {
		p.Metadata = *patch.Metadata
		p.Metadata.Custom = cloneStringMap(patch.Metadata.Custom)
		fields = append(fields, "metadata")
	}
	if patch.Status != nil {
		applyProjectStatus(p, *patch.Status, now)
		fields = append(fields, "status")
	}
	return fields
}

// UpdateProjectProgress stores caller-supplied task counts. It is the only
// path through which a progress snapshot is taken from input; any later
// task mutation recomputes it from the task set.
func (s *Service) UpdateProjectProgress(ctx context.Context, ref string, in domain.ProgressInput) (domain.Project, error) {
	var out domain.Project
	err := s.run(ctx, "update_project_progress", func(ctx context.Context, p domain.Principal) error {
		return s.mutate(ctx, p, func(m *mutation) error {
			project, err := loadLiveProject(m.tx, ref)
			if err != nil {
				return err
			}
			if err := s.authz.RequireEdit(m.tx, p, project); err != nil {
				return err
			}
			if err := validate(domain.EntityProject, in); err != nil {
				return err
			}
			snapshot := progress.Project(in.CompletedTasks, in.TotalTasks)
			out, err = m.tx.UpdateProject(project.ID, func(pr *domain.Project) error {
				pr.Progress = snapshot
				pr.UpdatedAt = m.now
				pr.UpdatedBy = p.ID
				pr.LastActivityAt = m.now
				return nil
			})
			if err != nil {
				return fmt.Errorf("update project progress %s: %w", project.ID, err)
			}
			return m.trail.record(ActionProjectProgressUpdated, projectTarget(out),
				fmt.Sprintf("Set progress to %d%%", snapshot.Percentage),
				map[string]string{"source": "input", "percentage": strconv.Itoa(snapshot.Percentage)})
		})
	})
	return out, err
}

// SyncProjectProgress recomputes the progress snapshot from the live tasks.
func (s *Service) SyncProjectProgress(ctx context.Context, ref string) (domain.Project, error) {
	var out domain.Project
	err := s.run(ctx, "sync_project_progress", func(ctx context.Context, p domain.Principal) error {
		return s.mutate(ctx, p, func(m *mutation) error {
			project, err := loadLiveProject(m.tx, ref)
			if err != nil {
				return err
			}
			if err := s.authz.RequireEdit(m.tx, p, project); err != nil {
				return err
			}
			out, err = propagateProgress(m, project.ID)
			if err != nil {
				return fmt.Errorf("sync project progress %s: %w", project.ID, err)
			}
			return m.trail.record(ActionProjectProgressUpdated, projectTarget(out),
				fmt.Sprintf("Recomputed progress: %d%%", out.Progress.Percentage),
				map[string]string{"source": "tasks", "percentage": strconv.Itoa(out.Progress.Percentage)})
		})
	})
	return out, err
}

// DeleteProject soft-deletes a project. Only the soft-delete marker changes.
func (s *Service) DeleteProject(ctx context.Context, ref string) error {
	return s.run(ctx, "delete_project", func(ctx context.Context, p domain.Principal) error {
		return s.mutate(ctx, p, func(m *mutation) error {
			deleted, err := s.deleteProject(m, ref)
			if err != nil {
				return err
			}
			return m.trail.record(ActionProjectDeleted, projectTarget(deleted),
				fmt.Sprintf("Deleted project %q", deleted.Title), nil)
		})
	})
}

func (s *Service) deleteProject(m *mutation, ref string) (domain.Project, error) {
	current, err := loadProject(m.tx, ref)
	if err != nil {
		return domain.Project{}, err
	}
	if current.IsDeleted() {
		return domain.Project{}, alreadyDeletedError(domain.EntityProject, ref)
	}
	if err := s.authz.RequireDelete(m.tx, m.actor, current); err != nil {
		return domain.Project{}, err
	}
	return m.tx.UpdateProject(current.ID, func(p *domain.Project) error {
		p.MarkDeleted(m.now, m.actor.ID)
		return nil
	})
}

// HardDeleteProject physically removes a project together with its
// memberships, tasks and milestones. System admins only.
func (s *Service) HardDeleteProject(ctx context.Context, ref string) error {
	return s.run(ctx, "hard_delete_project", func(ctx context.Context, p domain.Principal) error {
		if err := s.authz.RequireSystemAdmin(p, "projects", "hard_delete"); err != nil {
			return err
		}
		return s.mutate(ctx, p, func(m *mutation) error {
			project, err := loadProject(m.tx, ref)
			if err != nil {
				return err
			}
			members := m.tx.ListMembersByProject(project.ID)
			for _, member := range members {
				if err := m.tx.DeleteMember(member.ID); err != nil {
					return fmt.Errorf("delete member %s: %w", member.ID, err)
				}
			}
			tasks := m.tx.ListTasksByProject(project.ID)
			for _, t := range tasks {
				if err := m.tx.DeleteTask(t.ID); err != nil {
					return fmt.Errorf("delete task %s: %w", t.ID, err)
				}
			}
			milestones := m.tx.ListMilestonesByProject(project.ID)
			for _, ms := range milestones {
				if err := m.tx.DeleteMilestone(ms.ID); err != nil {
					return fmt.Errorf("delete milestone %s: %w", ms.ID, err)
				}
			}
			if err := m.tx.DeleteProject(project.ID); err != nil {
				return fmt.Errorf("delete project %s: %w", project.ID, err)
			}
			return m.trail.record(ActionProjectHardDeleted, projectTarget(project),
				fmt.Sprintf("Permanently deleted project %q", project.Title),
				map[string]string{
					"members":    strconv.Itoa(len(members)),
					"tasks":      strconv.Itoa(len(tasks)),
					"milestones": strconv.Itoa(len(milestones)),
				})
		})
	})
}

// RestoreProject clears the soft-delete marker.
func (s *Service) RestoreProject(ctx context.Context, ref string) (domain.Project, error) {
	var out domain.Project
	err := s.run(ctx, "restore_project", func(ctx context.Context, p domain.Principal) error {
		return s.mutate(ctx, p, func(m *mutation) error {
			current, err := loadProject(m.tx, ref)
			if err != nil {
				return err
			}
			if !current.IsDeleted() {
				return notDeletedError(domain.EntityProject, ref)
			}
			if err := s.authz.RequireDelete(m.tx, p, current); err != nil {
				return err
			}
			out, err = m.tx.UpdateProject(current.ID, func(pr *domain.Project) error {
				pr.ClearDeleted()
				return nil
			})
			if err != nil {
				return fmt.Errorf("restore project %s: %w", current.ID, err)
			}
			return m.trail.record(ActionProjectRestored, projectTarget(out),
				fmt.Sprintf("Restored project %q", out.Title), nil)
		})
	})
	return out, err
}

// BulkUpdateProjects applies patch to every ref independently.
func (s *Service) BulkUpdateProjects(ctx context.Context, refs []string, patch domain.ProjectPatch) (domain.BulkResult[domain.Project], error) {
	var result domain.BulkResult[domain.Project]
	err := s.run(ctx, "bulk_update_projects", func(ctx context.Context, p domain.Principal) error {
		var projectID string
		result, projectID = runBulk(ctx, s, p, refs, func(m *mutation, ref string) (domain.Project, string, error) {
			_, updated, _, err := s.updateProject(m, ref, patch)
			return updated, updated.ID, err
		})
		return s.mutate(ctx, p, func(m *mutation) error {
			return m.trail.recordBatch(ActionProjectBulkUpdated, domain.EntityProject, "update", projectID, len(result.Succeeded), result.Failed)
		})
	})
	return result, err
}

// BulkDeleteProjects soft-deletes every ref independently and reports the
// refs that were deleted.
func (s *Service) BulkDeleteProjects(ctx context.Context, refs []string) (domain.BulkResult[string], error) {
	var result domain.BulkResult[string]
	err := s.run(ctx, "bulk_delete_projects", func(ctx context.Context, p domain.Principal) error {
		var projectID string
		result, projectID = runBulk(ctx, s, p, refs, func(m *mutation, ref string) (string, string, error) {
			deleted, err := s.deleteProject(m, ref)
			return ref, deleted.ID, err
		})
		return s.mutate(ctx, p, func(m *mutation) error {
			return m.trail.recordBatch(ActionProjectBulkDeleted, domain.EntityProject, "delete", projectID, len(result.Succeeded), result.Failed)
		})
	})
	return result, err
}

// ListProjects returns the projects visible to the caller.
func (s *Service) ListProjects(ctx context.Context, opts domain.ListOptions) (domain.Page[domain.Project], error) {
	var page domain.Page[domain.Project]
	err := s.run(ctx, "list_projects", func(ctx context.Context, p domain.Principal) error {
		return s.view(ctx, func(v domain.TransactionView) error {
			var err error
			page, err = s.queryProjects(v, p, opts)
			return err
		})
	})
	return page, err
}

func (s *Service) queryProjects(v domain.TransactionView, p domain.Principal, opts domain.ListOptions) (domain.Page[domain.Project], error) {
	projects := liveOnly(v.ListProjects(), opts.IncludeDeleted)
	projects = access.FilterByAccess(s.authz, v, p, projects)
	return applyQuery(projects, opts, projectList)
}

// ListProjectSummaries lists projects like ListProjects and enriches each
// item with counts read in independent transactions.
func (s *Service) ListProjectSummaries(ctx context.Context, opts domain.ListOptions) (domain.Page[domain.ProjectSummary], error) {
	var out domain.Page[domain.ProjectSummary]
	err := s.run(ctx, "list_project_summaries", func(ctx context.Context, p domain.Principal) error {
		var page domain.Page[domain.Project]
		if err := s.view(ctx, func(v domain.TransactionView) error {
			var err error
			page, err = s.queryProjects(v, p, opts)
			return err
		}); err != nil {
			return err
		}

		summaries := make([]domain.ProjectSummary, len(page.Items))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.fanout)
		for i, project := range page.Items {
			g.Go(func() error {
				return s.view(gctx, func(v domain.TransactionView) error {
					summaries[i] = summarize(v, project, p.ID)
					return nil
				})
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("summarize projects: %w", err)
		}
		out = domain.Page[domain.ProjectSummary]{Items: summaries, Total: page.Total, HasMore: page.HasMore}
		return nil
	})
	return out, err
}

func summarize(v domain.TransactionView, project domain.Project, viewerID string) domain.ProjectSummary {
	summary := domain.ProjectSummary{Project: project}
	for _, ms := range v.ListMilestonesByProject(project.ID) {
		if !ms.IsDeleted() {
			summary.MilestoneCount++
		}
	}
	for _, t := range v.ListTasksByProject(project.ID) {
		if t.IsDeleted() || t.Status == domain.TaskStatusCompleted || t.Status == domain.TaskStatusCancelled {
			continue
		}
		summary.OpenTaskCount++
	}
	for _, member := range v.ListMembersByProject(project.ID) {
		if member.Active() {
			summary.MemberCount++
		}
	}
	if member, ok := v.FindMember(project.ID, viewerID); ok && member.Active() {
		summary.ViewerRole = member.Role
	} else if project.OwnerID == viewerID {
		summary.ViewerRole = domain.RoleOwner
	}
	return summary
}
