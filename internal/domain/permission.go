package domain

import (
	"encoding/json"
	"sort"
)

// Permission is an atomic capability name such as "list_projects".
type Permission string

// PermissionSet is the set of permissions granted by the current role.
// A nil set is the empty "guest" set.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from names, ignoring empty strings.
func NewPermissionSet(names ...Permission) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, n := range names {
		if n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// Has reports whether p is granted.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Len returns the number of granted permissions
func (s PermissionSet) Len() int {
	return len(s)
}

// Names returns the permissions in sorted order.
func (s PermissionSet) Names() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy. The clone of nil is an empty set.
func (s PermissionSet) Clone() PermissionSet {
	out := make(PermissionSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

// Equal reports whether both sets hold the same names.
func (s PermissionSet) Equal(other PermissionSet) bool {
	if len(s) != len(other) {
		return false
	}
	for p := range s {
		if !other.Has(p) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a sorted array.
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON decodes an array of names. Any other JSON value decodes to
// the empty set, since a role with a malformed permission list grants nothing.
func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var names []Permission
	if err := json.Unmarshal(data, &names); err != nil {
		*s = PermissionSet{}
		return nil
	}
	*s = NewPermissionSet(names...)
	return nil
}
