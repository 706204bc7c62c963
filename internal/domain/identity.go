package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Identity is the server-asserted subject decoded from an access token.
// It is either a bare id or an object of claims that may carry current_role.
type Identity struct {
	subject     string
	claims      map[string]any
	currentRole RoleID
}

// ParseIdentity interprets a decoded token claim value. Numbers and strings
// give a bare identity; objects give a claims identity.
func ParseIdentity(v any) (Identity, error) {
	switch val := v.(type) {
	case map[string]any:
		return objectIdentity(val), nil
	case string:
		if val == "" {
			return Identity{}, fmt.Errorf("identity subject is empty")
		}
		return Identity{subject: val}, nil
	case float64:
		return Identity{subject: strconv.FormatFloat(val, 'f', -1, 64)}, nil
	case json.Number:
		return Identity{subject: val.String()}, nil
	case int64:
		return Identity{subject: strconv.FormatInt(val, 10)}, nil
	case int:
		return Identity{subject: strconv.Itoa(val)}, nil
	default:
		return Identity{}, fmt.Errorf("identity claim has unsupported type %T", v)
	}
}

func objectIdentity(m map[string]any) Identity {
	id := Identity{claims: make(map[string]any, len(m))}
	for k, v := range m {
		id.claims[k] = v
	}
	if raw, ok := m["id"]; ok {
		if bare, err := ParseIdentity(raw); err == nil {
			id.subject = bare.subject
		}
	}
	if cr, ok := m["current_role"].(map[string]any); ok {
		id.currentRole = claimRoleID(cr["role_id"])
	}
	return id
}

// claimRoleID returns 0 for anything that is not a positive integer.
func claimRoleID(v any) RoleID {
	var r RoleID
	switch val := v.(type) {
	case float64:
		if val != float64(int64(val)) {
			return 0
		}
		r = RoleID(int64(val))
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return 0
		}
		r = RoleID(n)
	case string:
		parsed, err := ParseRoleID(val)
		if err != nil {
			return 0
		}
		r = parsed
	case int64:
		r = RoleID(val)
	case int:
		r = RoleID(val)
	}
	if r.Validate() != nil {
		return 0
	}
	return r
}

// IsObject reports whether the identity carried claims rather than a bare id.
func (i Identity) IsObject() bool {
	return i.claims != nil
}

// Subject returns the bare id, or the "id" claim of an object identity.
func (i Identity) Subject() string {
	return i.subject
}

// Claims returns a copy of the object claims. Nil for bare identities.
func (i Identity) Claims() map[string]any {
	if i.claims == nil {
		return nil
	}
	out := make(map[string]any, len(i.claims))
	for k, v := range i.claims {
		out[k] = v
	}
	return out
}

// CurrentRoleID returns the asserted current_role.role_id, if any.
func (i Identity) CurrentRoleID() (RoleID, bool) {
	return i.currentRole, i.currentRole != 0
}
