package domain

// Principal is the authenticated actor performing an operation.
type Principal struct {
	ID          string     `json:"id"`
	Role        SystemRole `json:"role"`
	Permissions []string   `json:"permissions,omitempty"`
}

// IsSystemAdmin reports whether the principal holds a platform-wide admin role.
func (p Principal) IsSystemAdmin() bool {
	return p.Role == SystemRoleAdmin || p.Role == SystemRoleSuperAdmin
}

// HasPermission reports whether the principal carries an explicit grant.
func (p Principal) HasPermission(permission string) bool {
	for _, granted := range p.Permissions {
		if granted == permission || granted == "*" {
			return true
		}
	}
	return false
}
