package session

import "github.com/felixgeelhaar/pimis/internal/domain"

// Resolution selects which role precedence rules apply.
type Resolution int

const (
	// ResolveForLogin tries the asserted role, then the preferred role, then the first role.
	ResolveForLogin Resolution = iota
	// ResolveForSwitch accepts only the asserted role.
	ResolveForSwitch
)

// ResolveRole picks the current role among roles. The result is a copy of
// one element of roles, or nil.
func ResolveRole(identity domain.Identity, roles []domain.UserRole, preferred domain.RoleID, mode Resolution) *domain.UserRole {
	if asserted, ok := identity.CurrentRoleID(); ok {
		if ur := findRole(roles, asserted); ur != nil {
			return ur
		}
	}
	if mode == ResolveForSwitch {
		return nil
	}
	if preferred != 0 {
		if ur := findRole(roles, preferred); ur != nil {
			return ur
		}
	}
	if len(roles) > 0 {
		ur := roles[0].Clone()
		return &ur
	}
	return nil
}

func findRole(roles []domain.UserRole, id domain.RoleID) *domain.UserRole {
	for _, r := range roles {
		if r.RoleID == id {
			ur := r.Clone()
			return &ur
		}
	}
	return nil
}
