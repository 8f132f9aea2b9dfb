// Package access decides view, edit, delete and team-management rights over
// projects and the records that belong to them. Milestones and tasks carry no
// rules of their own: every check resolves the owning project first.
package access

import "workcore/pkg/domain"

// Directory resolves the records permission checks depend on. Transaction
// views satisfy it, so checks observe the same snapshot as the mutation.
type Directory interface {
	FindProject(id string) (domain.Project, bool)
	FindMember(projectID, userID string) (domain.ProjectMember, bool)
}

// Evaluator is the single implementation of the permission rules.
type Evaluator struct {
	policy *SystemPolicy
}

// NewEvaluator constructs an evaluator. A nil policy falls back to the
// default grants.
func NewEvaluator(policy *SystemPolicy) (*Evaluator, error) {
	if policy == nil {
		var err error
		policy, err = NewSystemPolicy(DefaultGrants())
		if err != nil {
			return nil, err
		}
	}
	return &Evaluator{policy: policy}, nil
}

// IsSystemAdmin reports whether p bypasses project-level checks.
func (e *Evaluator) IsSystemAdmin(p domain.Principal) bool {
	if p.ID == "" {
		return false
	}
	return p.IsSystemAdmin() || e.policy.Allows(p.Role, "*", "*")
}

// CanCreateProject reports whether p may create new projects.
func (e *Evaluator) CanCreateProject(p domain.Principal) bool {
	if p.ID == "" {
		return false
	}
	return e.IsSystemAdmin(p) || e.policy.Allows(p.Role, "projects", "create") || p.HasPermission("projects.create")
}

// CanView reports whether p may read target.
func (e *Evaluator) CanView(dir Directory, p domain.Principal, target domain.Authorizable) bool {
	if p.ID == "" {
		return false
	}
	if e.IsSystemAdmin(p) {
		return true
	}
	project, ok := resolve(dir, target)
	if !ok {
		return false
	}
	return e.canViewProject(dir, p, project)
}

func (e *Evaluator) canViewProject(dir Directory, p domain.Principal, project domain.Project) bool {
	if project.Visibility == domain.VisibilityPublic || project.OwnerID == p.ID {
		return true
	}
	_, ok := activeMembership(dir, project.ID, p.ID)
	return ok
}

// CanEdit reports whether p may mutate target.
func (e *Evaluator) CanEdit(dir Directory, p domain.Principal, target domain.Authorizable) bool {
	if p.ID == "" {
		return false
	}
	if e.IsSystemAdmin(p) {
		return true
	}
	project, ok := resolve(dir, target)
	if !ok {
		return false
	}
	if project.OwnerID == p.ID {
		return true
	}
	member, ok := activeMembership(dir, project.ID, p.ID)
	if !ok {
		return false
	}
	switch member.Role {
	case domain.RoleOwner, domain.RoleAdmin:
		return true
	}
	return member.Permissions.CanEdit
}

// CanDelete reports whether p may delete or restore target. Admin members
// cannot delete unless they own the project.
func (e *Evaluator) CanDelete(dir Directory, p domain.Principal, target domain.Authorizable) bool {
	if p.ID == "" {
		return false
	}
	if e.IsSystemAdmin(p) {
		return true
	}
	project, ok := resolve(dir, target)
	if !ok {
		return false
	}
	return project.OwnerID == p.ID
}

// CanManageTeam reports whether p may add, change or remove a member holding
// targetRole. An empty targetRole asks whether p may manage anyone at all.
func (e *Evaluator) CanManageTeam(dir Directory, p domain.Principal, project domain.Project, targetRole domain.MemberRole) bool {
	if p.ID == "" {
		return false
	}
	if e.IsSystemAdmin(p) || project.OwnerID == p.ID {
		return true
	}
	member, ok := activeMembership(dir, project.ID, p.ID)
	if !ok || member.Role.Weight() < domain.RoleAdmin.Weight() {
		return false
	}
	return targetRole.Weight() < member.Role.Weight()
}

// RequireView fails with PermissionDenied when CanView is false.
func (e *Evaluator) RequireView(dir Directory, p domain.Principal, target domain.Authorizable) error {
	return e.require(p, target.Module(), "view", e.CanView(dir, p, target))
}

// RequireEdit fails with PermissionDenied when CanEdit is false.
func (e *Evaluator) RequireEdit(dir Directory, p domain.Principal, target domain.Authorizable) error {
	return e.require(p, target.Module(), "edit", e.CanEdit(dir, p, target))
}

// RequireDelete fails with PermissionDenied when CanDelete is false.
func (e *Evaluator) RequireDelete(dir Directory, p domain.Principal, target domain.Authorizable) error {
	return e.require(p, target.Module(), "delete", e.CanDelete(dir, p, target))
}

// RequireManageTeam fails with PermissionDenied when CanManageTeam is false.
func (e *Evaluator) RequireManageTeam(dir Directory, p domain.Principal, project domain.Project, targetRole domain.MemberRole) error {
	return e.require(p, "members", "manage", e.CanManageTeam(dir, p, project, targetRole))
}

// RequireCreateProject fails with PermissionDenied when CanCreateProject is false.
func (e *Evaluator) RequireCreateProject(p domain.Principal) error {
	return e.require(p, "projects", "create", e.CanCreateProject(p))
}

// RequireSystemAdmin fails unless p is a system admin.
func (e *Evaluator) RequireSystemAdmin(p domain.Principal, module, action string) error {
	return e.require(p, module, action, e.IsSystemAdmin(p))
}

func (e *Evaluator) require(p domain.Principal, module, action string, allowed bool) error {
	if p.ID == "" {
		return domain.Unauthenticated()
	}
	if !allowed {
		return domain.PermissionDenied(module+"."+action, module)
	}
	return nil
}

// Viewer is the part of Evaluator that FilterByAccess depends on.
type Viewer interface {
	IsSystemAdmin(p domain.Principal) bool
	CanView(dir Directory, p domain.Principal, target domain.Authorizable) bool
}

// FilterByAccess keeps the items p may view. System admins get the input
// back without per-item checks.
func FilterByAccess[T domain.Authorizable](v Viewer, dir Directory, p domain.Principal, items []T) []T {
	if v.IsSystemAdmin(p) {
		return items
	}
	visible := make(map[string]bool)
	out := make([]T, 0, len(items))
	for _, item := range items {
		projectID := item.OwningProjectID()
		ok, seen := visible[projectID]
		if !seen {
			ok = v.CanView(dir, p, item)
			visible[projectID] = ok
		}
		if ok {
			out = append(out, item)
		}
	}
	return out
}

func resolve(dir Directory, target domain.Authorizable) (domain.Project, bool) {
	switch t := target.(type) {
	case domain.Project:
		return t, true
	case *domain.Project:
		if t == nil {
			return domain.Project{}, false
		}
		return *t, true
	}
	if dir == nil {
		return domain.Project{}, false
	}
	return dir.FindProject(target.OwningProjectID())
}

func activeMembership(dir Directory, projectID, userID string) (domain.ProjectMember, bool) {
	if dir == nil {
		return domain.ProjectMember{}, false
	}
	member, ok := dir.FindMember(projectID, userID)
	if !ok || !member.Active() {
		return domain.ProjectMember{}, false
	}
	return member, true
}
