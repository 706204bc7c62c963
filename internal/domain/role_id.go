package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RoleID identifies a role. It is the role_id of a role assignment, not the
// id of the assignment row.
// This is a value object; the zero value means "no role".
type RoleID int64

// ParseRoleID parses a stored or user-supplied role id.
func ParseRoleID(s string) (RoleID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("role id %q is not an integer", s)
	}
	id := RoleID(n)
	if err := id.Validate(); err != nil {
		return 0, err
	}
	return id, nil
}

// Validate checks that the id is positive
func (r RoleID) Validate() error {
	if r <= 0 {
		return fmt.Errorf("role id must be positive, got %d", int64(r))
	}
	return nil
}

// String returns the decimal form used in storage
func (r RoleID) String() string {
	return strconv.FormatInt(int64(r), 10)
}

// UnmarshalJSON accepts both numbers and numeric strings.
func (r *RoleID) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		var s string
		if err2 := json.Unmarshal(data, &s); err2 != nil {
			return fmt.Errorf("role id: %w", err)
		}
		n = json.Number(s)
	}
	v, err := n.Int64()
	if err != nil {
		return fmt.Errorf("role id %q is not an integer", n.String())
	}
	*r = RoleID(v)
	return nil
}
