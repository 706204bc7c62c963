package domain

import "strconv"

// UserInfo is the user state published after login or role switch.
// When CurrentRole is set it is one of UserRoles.
type UserInfo struct {
	ID           string         `json:"id"`
	Username     string         `json:"username"`
	FullName     string         `json:"full_name"`
	Email        string         `json:"email"`
	Organization *Organization  `json:"organization,omitempty"`
	UserRoles    []UserRole     `json:"user_roles"`
	CurrentRole  *UserRole      `json:"current_role"`
	Identity     map[string]any `json:"identity,omitempty"`
}

// NewUserInfo merges the token identity with the fetched profile.
// Profile fields win over identity claims.
func NewUserInfo(identity Identity, profile Profile, current *UserRole) UserInfo {
	info := UserInfo{
		ID:           identity.Subject(),
		Username:     profile.Username,
		FullName:     profile.FullName,
		Email:        profile.Email,
		Organization: profile.Organization,
		Identity:     identity.Claims(),
	}
	if profile.ID != 0 {
		info.ID = strconv.FormatInt(profile.ID, 10)
	}
	info.UserRoles = make([]UserRole, len(profile.UserRoles))
	for i, ur := range profile.UserRoles {
		info.UserRoles[i] = ur.Clone()
	}
	if current != nil {
		for i := range info.UserRoles {
			if info.UserRoles[i].RoleID == current.RoleID {
				info.CurrentRole = &info.UserRoles[i]
				break
			}
		}
	}
	return info
}

// Permissions returns the current role's permissions, or the empty set.
func (u UserInfo) Permissions() PermissionSet {
	if u.CurrentRole == nil {
		return PermissionSet{}
	}
	return u.CurrentRole.Role.Permissions.Clone()
}

// DisplayName prefers the full name.
func (u UserInfo) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Username != "" {
		return u.Username
	}
	return u.ID
}

// HasRoleSwitch reports whether the user can choose between roles.
func (u UserInfo) HasRoleSwitch() bool {
	return len(u.UserRoles) > 1
}
