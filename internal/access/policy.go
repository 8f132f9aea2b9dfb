package access

import (
	_ "embed"
	"fmt"
	"workcore/pkg/domain"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
)

//go:embed policy_model.conf
var policyModel string

// SystemPolicy answers platform-wide questions that do not depend on any
// project, such as who may create projects or bypass membership checks.
type SystemPolicy struct {
	enforcer *casbin.Enforcer
}

// Grant is one allow rule of the system policy.
type Grant struct {
	Role   domain.SystemRole
	Object string
	Action string
}

// DefaultGrants gives system admins the wildcard grant and regular users the
// right to create projects.
func DefaultGrants() []Grant {
	return []Grant{
		{Role: domain.SystemRoleAdmin, Object: "*", Action: "*"},
		{Role: domain.SystemRoleUser, Object: "projects", Action: "create"},
	}
}

// roleInheritance lists child, parent pairs: the child holds every grant of the parent.
var roleInheritance = [][2]domain.SystemRole{
	{domain.SystemRoleSuperAdmin, domain.SystemRoleAdmin},
	{domain.SystemRoleAdmin, domain.SystemRoleUser},
	{domain.SystemRoleUser, domain.SystemRoleGuest},
}

// NewSystemPolicy builds an enforcer from the embedded model and grants.
func NewSystemPolicy(grants []Grant) (*SystemPolicy, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("load policy model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}
	for _, pair := range roleInheritance {
		if _, err := enforcer.AddGroupingPolicy(string(pair[0]), string(pair[1])); err != nil {
			return nil, fmt.Errorf("add role %s: %w", pair[0], err)
		}
	}
	for _, g := range grants {
		if _, err := enforcer.AddPolicy(string(g.Role), g.Object, g.Action); err != nil {
			return nil, fmt.Errorf("add grant %s %s.%s: %w", g.Role, g.Object, g.Action, err)
		}
	}
	return &SystemPolicy{enforcer: enforcer}, nil
}

// Allows reports whether role may perform action on object.
func (p *SystemPolicy) Allows(role domain.SystemRole, object, action string) bool {
	if p == nil || p.enforcer == nil || role == "" {
		return false
	}
	ok, err := p.enforcer.Enforce(string(role), object, action)
	return err == nil && ok
}
