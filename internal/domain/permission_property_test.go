package domain

import (
	"encoding/json"
	"testing"

	"pgregory.net/rapid"
)

func genPermission() *rapid.Generator[Permission] {
	return rapid.Custom(func(t *rapid.T) Permission {
		return Permission(rapid.StringMatching(`[a-z][a-z_]{0,15}`).Draw(t, "permission"))
	})
}

// Property: encoding a set and decoding it again yields an equal set.
func TestPermissionSetProperty_JSONPreservesMembers(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOf(genPermission()).Draw(t, "names")
		set := NewPermissionSet(names...)

		data, err := json.Marshal(set)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var back PermissionSet
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if !set.Equal(back) {
			t.Fatalf("decoded set %v differs from %v", back.Names(), set.Names())
		}
	})
}

// Property: Names is sorted and covers every member exactly once.
func TestPermissionSetProperty_NamesSorted(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		set := NewPermissionSet(rapid.SliceOf(genPermission()).Draw(t, "names")...)
		names := set.Names()
		if len(names) != set.Len() {
			t.Fatalf("Names() has %d entries, set has %d", len(names), set.Len())
		}
		for i := 1; i < len(names); i++ {
			if names[i-1] >= names[i] {
				t.Fatalf("names not strictly sorted at %d: %v", i, names)
			}
		}
	})
}
