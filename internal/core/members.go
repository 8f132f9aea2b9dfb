package core

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"workcore/pkg/domain"
)

// AddMember enrolls a user in a project. A previously removed membership
// is reactivated in place.
func (s *Service) AddMember(ctx context.Context, projectRef string, in domain.MemberInput) (domain.ProjectMember, error) {
	var out domain.ProjectMember
	err := s.run(ctx, "add_member", func(ctx context.Context, p domain.Principal) error {
		return s.mutate(ctx, p, func(m *mutation) error {
			project, err := loadLiveProject(m.tx, projectRef)
			if err != nil {
				return err
			}
			if err := s.authz.RequireManageTeam(m.tx, p, project, in.Role); err != nil {
				return err
			}
			if err := validate(domain.EntityMember, in); err != nil {
				return err
			}
			if in.Role == domain.RoleOwner {
				return domain.InvalidState(domain.EntityMember, in.UserID, "project %q already has an owner", project.PublicID)
			}
			status := in.Status
			if status == "" {
				status = domain.MemberStatusActive
			}
			perms := domain.MemberPermissions{CanEdit: in.Role.DefaultCanEdit(), Custom: cloneStrings(in.Custom)}
			if in.CanEdit != nil {
				perms.CanEdit = *in.CanEdit
			}

			existing, found := m.tx.FindMember(project.ID, in.UserID)
			switch {
			case found && existing.Status != domain.MemberStatusRemoved:
				return domain.Conflict(domain.EntityMember, existing.ID, "user %q is already a member of project %q", in.UserID, project.PublicID)
			case found:
				out, err = m.tx.UpdateMember(existing.ID, func(mb *domain.ProjectMember) error {
					mb.Role = in.Role
					mb.Status = status
					mb.Permissions = perms
					mb.JoinedAt = m.now
					mb.InvitedBy = p.ID
					mb.UpdatedAt = m.now
					mb.UpdatedBy = p.ID
					return nil
				})
			default:
				out, err = m.tx.CreateMember(domain.ProjectMember{
					Base:        domain.Base{CreatedBy: p.ID, UpdatedBy: p.ID, CreatedAt: m.now, UpdatedAt: m.now},
					ProjectID:   project.ID,
					UserID:      in.UserID,
					Role:        in.Role,
					Status:      status,
					Permissions: perms,
					JoinedAt:    m.now,
					InvitedBy:   p.ID,
				})
			}
			if err != nil {
				return fmt.Errorf("add member %s: %w", in.UserID, err)
			}
			return m.trail.record(ActionMemberAdded, memberTarget(project, out),
				fmt.Sprintf("Added %s as %s", out.UserID, out.Role),
				map[string]string{"role": string(out.Role), "status": string(out.Status)})
		})
	})
	return out, err
}

// UpdateMemberRole changes a member's role and resets the edit grant to the
// role default. The caller must be able to manage both the old and the new
// role.
func (s *Service) UpdateMemberRole(ctx context.Context, projectRef, userID string, role domain.MemberRole) (domain.ProjectMember, error) {
	var out domain.ProjectMember
	err := s.run(ctx, "update_member_role", func(ctx context.Context, p domain.Principal) error {
		return s.mutate(ctx, p, func(m *mutation) error {
			project, err := loadLiveProject(m.tx, projectRef)
			if err != nil {
				return err
			}
			member, err := loadMember(m.tx, project, userID)
			if err != nil {
				return err
			}
			if err := s.authz.RequireManageTeam(m.tx, p, project, member.Role); err != nil {
				return err
			}
			if err := s.authz.RequireManageTeam(m.tx, p, project, role); err != nil {
				return err
			}
			if !role.Valid() {
				return domain.ValidationFailed([]domain.ValidationError{{Field: "role", Message: fmt.Sprintf("invalid role %q", role)}})
			}
			if member.Role == domain.RoleOwner || role == domain.RoleOwner {
				return domain.InvalidState(domain.EntityMember, userID, "the owner role cannot be reassigned")
			}
			out, err = m.tx.UpdateMember(member.ID, func(mb *domain.ProjectMember) error {
				mb.Role = role
				mb.Permissions.CanEdit = role.DefaultCanEdit()
				mb.UpdatedAt = m.now
				mb.UpdatedBy = p.ID
				return nil
			})
			if err != nil {
				return fmt.Errorf("update member %s: %w", member.ID, err)
			}
			return m.trail.record(ActionMemberRoleUpdated, memberTarget(project, out),
				fmt.Sprintf("Changed role of %s from %s to %s", userID, member.Role, role),
				map[string]string{"from": string(member.Role), "to": string(role)})
		})
	})
	return out, err
}

// RemoveMember marks a membership removed. The owner cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, projectRef, userID string) error {
	return s.run(ctx, "remove_member", func(ctx context.Context, p domain.Principal) error {
		return s.mutate(ctx, p, func(m *mutation) error {
			project, err := loadLiveProject(m.tx, projectRef)
			if err != nil {
				return err
			}
			member, err := loadMember(m.tx, project, userID)
			if err != nil {
				return err
			}
			if err := s.authz.RequireManageTeam(m.tx, p, project, member.Role); err != nil {
				return err
			}
			if member.Role == domain.RoleOwner || member.UserID == project.OwnerID {
				return domain.InvalidState(domain.EntityMember, userID, "the project owner cannot be removed")
			}
			removed, err := m.tx.UpdateMember(member.ID, func(mb *domain.ProjectMember) error {
				mb.Status = domain.MemberStatusRemoved
				mb.UpdatedAt = m.now
				mb.UpdatedBy = p.ID
				return nil
			})
			if err != nil {
				return fmt.Errorf("remove member %s: %w", member.ID, err)
			}
			return m.trail.record(ActionMemberRemoved, memberTarget(project, removed),
				fmt.Sprintf("Removed %s", userID), map[string]string{"role": string(removed.Role)})
		})
	})
}

// ListMembers returns the non-removed members, highest role first.
func (s *Service) ListMembers(ctx context.Context, projectRef string) ([]domain.ProjectMember, error) {
	var out []domain.ProjectMember
	err := s.run(ctx, "list_members", func(ctx context.Context, p domain.Principal) error {
		return s.view(ctx, func(v domain.TransactionView) error {
			project, err := loadProject(v, projectRef)
			if err != nil {
				return err
			}
			if err := s.authz.RequireView(v, p, project); err != nil {
				return err
			}
			out = make([]domain.ProjectMember, 0)
			for _, member := range v.ListMembersByProject(project.ID) {
				if member.Status != domain.MemberStatusRemoved {
					out = append(out, member)
				}
			}
			slices.SortStableFunc(out, func(a, b domain.ProjectMember) int {
				if c := cmp.Compare(b.Role.Weight(), a.Role.Weight()); c != 0 {
					return c
				}
				if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
					return c
				}
				return cmp.Compare(a.UserID, b.UserID)
			})
			return nil
		})
	})
	return out, err
}
