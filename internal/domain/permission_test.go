package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionSetHas(t *testing.T) {
	set := NewPermissionSet("list_projects", "", "edit_profile")

	assert.True(t, set.Has("list_projects"))
	assert.False(t, set.Has(""))
	assert.Equal(t, 2, set.Len())

	var guest PermissionSet
	assert.False(t, guest.Has("list_projects"))
	assert.Equal(t, 0, guest.Len())
}

func TestPermissionSetJSON(t *testing.T) {
	set := NewPermissionSet("view_profile", "edit_profile")
	data, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `["edit_profile","view_profile"]`, string(data))

	tests := []struct {
		name string
		in   string
		want int
	}{
		{"array", `["a","b","a"]`, 2},
		{"null", `null`, 0},
		{"object", `{"a":true}`, 0},
		{"string", `"a"`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got PermissionSet
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got.Len())
		})
	}
}

func TestPermissionSetCloneIsIndependent(t *testing.T) {
	orig := NewPermissionSet("a")
	clone := orig.Clone()
	clone["b"] = struct{}{}

	assert.False(t, orig.Has("b"))
	assert.True(t, orig.Equal(NewPermissionSet("a")))
	assert.False(t, orig.Equal(clone))
	assert.NotNil(t, PermissionSet(nil).Clone())
}

func TestRoleIDParse(t *testing.T) {
	id, err := ParseRoleID(" 7 ")
	require.NoError(t, err)
	assert.Equal(t, RoleID(7), id)
	assert.Equal(t, "7", id.String())

	_, err = ParseRoleID("abc")
	assert.Error(t, err)
	_, err = ParseRoleID("0")
	assert.Error(t, err)
}

func TestRoleIDUnmarshal(t *testing.T) {
	var a, b RoleID
	require.NoError(t, json.Unmarshal([]byte(`12`), &a))
	require.NoError(t, json.Unmarshal([]byte(`"12"`), &b))
	assert.Equal(t, a, b)

	var c RoleID
	assert.Error(t, json.Unmarshal([]byte(`"x"`), &c))
}

func TestProfileValidate(t *testing.T) {
	p := Profile{ID: 1, UserRoles: []UserRole{{RoleID: 1}, {RoleID: 2}}}
	require.NoError(t, p.Validate())

	ur, ok := p.RoleByID(2)
	assert.True(t, ok)
	assert.Equal(t, RoleID(2), ur.RoleID)

	p.UserRoles = append(p.UserRoles, UserRole{RoleID: 1})
	assert.Error(t, p.Validate())
}
