package domain

import "fmt"

// Role is a named bundle of permissions.
type Role struct {
	ID                int64         `json:"id"`
	Name              string        `json:"name"`
	Permissions       PermissionSet `json:"permissions"`
	PhaseIDs          []int64       `json:"phase_ids,omitempty"`
	OrganizationLevel *int          `json:"organization_level,omitempty"`
}

// UserRole assigns a Role to a user.
type UserRole struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	RoleID      RoleID  `json:"role_id"`
	Role        Role    `json:"role"`
	IsApproved  bool    `json:"is_approved"`
	IsDelegated bool    `json:"is_delegated"`
	IsDelegator bool    `json:"is_delegator"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
}

// Clone returns a deep copy.
func (u UserRole) Clone() UserRole {
	out := u
	out.Role.Permissions = u.Role.Permissions.Clone()
	if u.Role.PhaseIDs != nil {
		out.Role.PhaseIDs = append([]int64(nil), u.Role.PhaseIDs...)
	}
	return out
}

// Organization is the organisational unit a user belongs to.
type Organization struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id,omitempty"`
	Level    *int   `json:"level,omitempty"`
}

// Profile is the body of GET /users/me.
type Profile struct {
	ID           int64         `json:"id"`
	Username     string        `json:"username"`
	FullName     string        `json:"full_name"`
	Email        string        `json:"email"`
	Organization *Organization `json:"organization,omitempty"`
	UserRoles    []UserRole    `json:"user_roles"`
}

// RoleByID returns the first assignment for id.
func (p Profile) RoleByID(id RoleID) (UserRole, bool) {
	for _, ur := range p.UserRoles {
		if ur.RoleID == id {
			return ur, true
		}
	}
	return UserRole{}, false
}

// Validate checks that role assignments are unique by role id.
func (p Profile) Validate() error {
	seen := make(map[RoleID]struct{}, len(p.UserRoles))
	for _, ur := range p.UserRoles {
		if _, dup := seen[ur.RoleID]; dup {
			return fmt.Errorf("profile %d lists role %d more than once", p.ID, ur.RoleID)
		}
		seen[ur.RoleID] = struct{}{}
	}
	return nil
}
