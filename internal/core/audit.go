package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
	"workcore/internal/blob"
	"workcore/pkg/domain"
)

// Audit actions written by the controllers.
const (
	ActionProjectCreated         = "project.created"
	ActionProjectUpdated         = "project.updated"
	ActionProjectStatusUpdated   = "project.status_updated"
	ActionProjectProgressUpdated = "project.progress_updated"
	ActionProjectDeleted         = "project.deleted"
	ActionProjectHardDeleted     = "project.hard_deleted"
	ActionProjectRestored        = "project.restored"
	ActionProjectBulkUpdated     = "project.bulk_updated"
	ActionProjectBulkDeleted     = "project.bulk_deleted"

	ActionMemberAdded       = "member.added"
	ActionMemberRoleUpdated = "member.role_updated"
	ActionMemberRemoved     = "member.removed"

	ActionMilestoneCreated            = "milestone.created"
	ActionMilestoneUpdated            = "milestone.updated"
	ActionMilestoneStatusUpdated      = "milestone.status_updated"
	ActionMilestoneDeliverableUpdated = "milestone.deliverable_updated"
	ActionMilestoneDeleted            = "milestone.deleted"
	ActionMilestoneRestored           = "milestone.restored"
	ActionMilestoneBulkDeleted        = "milestone.bulk_deleted"

	ActionTaskCreated       = "task.created"
	ActionTaskUpdated       = "task.updated"
	ActionTaskStatusUpdated = "task.status_updated"
	ActionTaskDeleted       = "task.deleted"
	ActionTaskRestored      = "task.restored"
	ActionTaskBulkUpdated   = "task.bulk_updated"
	ActionTaskBulkDeleted   = "task.bulk_deleted"

	ActionAuditExported = "audit.exported"
)

// auditTrail appends entries inside the mutation transaction. A nil trail
// records nothing, which is how bulk items skip per-item entries.
type auditTrail struct {
	tx      domain.Transaction
	actor   string
	now     time.Time
	entries []domain.AuditLogEntry
}

func newAuditTrail(tx domain.Transaction, actor string, now time.Time) *auditTrail {
	return &auditTrail{tx: tx, actor: actor, now: now}
}

// auditTarget is the snapshot of the record an entry is about.
type auditTarget struct {
	entity    domain.EntityType
	publicID  string
	projectID string
	title     string
}

func projectTarget(p domain.Project) auditTarget {
	return auditTarget{entity: domain.EntityProject, publicID: p.PublicID, projectID: p.ID, title: p.Title}
}

func milestoneTarget(m domain.Milestone) auditTarget {
	return auditTarget{entity: domain.EntityMilestone, publicID: m.PublicID, projectID: m.ProjectID, title: m.Title}
}

func taskTarget(t domain.Task) auditTarget {
	return auditTarget{entity: domain.EntityTask, publicID: t.PublicID, projectID: t.ProjectID, title: t.Title}
}

func memberTarget(project domain.Project, m domain.ProjectMember) auditTarget {
	return auditTarget{entity: domain.EntityMember, publicID: m.UserID, projectID: project.ID, title: project.Title}
}

// record appends one entry. Its error aborts the enclosing mutation.
func (a *auditTrail) record(action string, target auditTarget, description string, metadata map[string]string) error {
	if a == nil {
		return nil
	}
	entry, err := a.tx.AppendAuditEntry(domain.AuditLogEntry{
		ActorID:     a.actor,
		Action:      action,
		Entity:      target.entity,
		TargetID:    target.publicID,
		ProjectID:   target.projectID,
		Title:       target.title,
		Description: description,
		Metadata:    metadata,
		CreatedAt:   a.now,
	})
	if err != nil {
		return fmt.Errorf("record audit %s: %w", action, err)
	}
	a.entries = append(a.entries, entry)
	return nil
}

// recordBatch appends the single summary entry of a bulk operation. The
// entry is scoped to projectID when the whole batch touched one project.
func (a *auditTrail) recordBatch(action string, entity domain.EntityType, verb, projectID string, succeeded int, failed []domain.BulkFailure) error {
	md := map[string]string{
		"succeeded": strconv.Itoa(succeeded),
		"failed":    strconv.Itoa(len(failed)),
	}
	if len(failed) > 0 {
		refs := make([]string, 0, len(failed))
		for _, f := range failed {
			refs = append(refs, f.ID)
		}
		md["failed_ids"] = strings.Join(refs, ",")
	}
	desc := fmt.Sprintf("Bulk %s of %ss: %d succeeded, %d failed", verb, entity, succeeded, len(failed))
	return a.record(action, auditTarget{entity: entity, projectID: projectID}, desc, md)
}

// ListAuditLog returns the audit entries of a project, newest first.
func (s *Service) ListAuditLog(ctx context.Context, projectRef string, opts domain.ListOptions) (domain.Page[domain.AuditLogEntry], error) {
	var page domain.Page[domain.AuditLogEntry]
	err := s.run(ctx, "list_audit_log", func(ctx context.Context, p domain.Principal) error {
		return s.view(ctx, func(v domain.TransactionView) error {
			project, err := loadProject(v, projectRef)
			if err != nil {
				return err
			}
			if err := s.authz.RequireView(v, p, project); err != nil {
				return err
			}
			entries := v.ListAuditEntriesByProject(project.ID)
			// Entries arrive in append order; reversing first keeps ties newest first.
			slices.Reverse(entries)
			sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
			page = paginate(entries, opts)
			return nil
		})
	})
	return page, err
}

// ExportAuditLog writes the whole audit trail as JSON lines to store under
// key. Only system admins may export.
func (s *Service) ExportAuditLog(ctx context.Context, store blob.Store, key string) (blob.Info, error) {
	var info blob.Info
	err := s.run(ctx, "export_audit_log", func(ctx context.Context, p domain.Principal) error {
		if err := s.authz.RequireSystemAdmin(p, "audit", "export"); err != nil {
			return err
		}
		var entries []domain.AuditLogEntry
		if err := s.view(ctx, func(v domain.TransactionView) error {
			entries = v.ListAuditEntries()
			return nil
		}); err != nil {
			return err
		}
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for _, e := range entries {
			if err := enc.Encode(e); err != nil {
				return fmt.Errorf("encode audit entry %s: %w", e.ID, err)
			}
		}
		var err error
		info, err = store.Put(ctx, key, &buf, blob.PutOptions{
			ContentType: "application/x-ndjson",
			Metadata:    map[string]string{"entries": strconv.Itoa(len(entries))},
		})
		if err != nil {
			return fmt.Errorf("write audit export: %w", err)
		}
		return s.mutate(ctx, p, func(m *mutation) error {
			return m.trail.record(ActionAuditExported, auditTarget{entity: domain.EntityAuditLog, publicID: info.Key},
				fmt.Sprintf("Exported %d audit entries", len(entries)), map[string]string{"driver": string(store.Driver())})
		})
	})
	return info, err
}
