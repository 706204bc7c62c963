package ux

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roleRow struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type menuLines []string

func (m menuLines) RenderText(w io.Writer) error {
	for _, l := range m {
		if _, err := fmt.Fprintln(w, "*", l); err != nil {
			return err
		}
	}
	return nil
}

type roleName int64

func (r roleName) String() string { return fmt.Sprintf("role #%d", int64(r)) }

func format(t *testing.T, format string, opts FormatterOptions, data any) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	opts.Writer = &buf
	f, err := NewFormatter(format, &opts)
	require.NoError(t, err)
	err = f.Format(data)
	return buf.String(), err
}

func TestNewFormatterRejectsUnknownFormat(t *testing.T) {
	for _, name := range append(Formats, "") {
		_, err := NewFormatter(name, nil)
		assert.NoError(t, err, "format %q", name)
	}

	_, err := NewFormatter("xml", nil)
	assert.ErrorContains(t, err, "supported: text, json, yaml")
}

func TestJSONFormatter(t *testing.T) {
	out, err := format(t, "json", FormatterOptions{}, roleRow{ID: 2, Name: "Admin"})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"id\": 2,\n  \"name\": \"Admin\"\n}\n", out)

	out, err = format(t, "json", FormatterOptions{Compact: true}, roleRow{ID: 2, Name: "Admin"})
	require.NoError(t, err)
	assert.Equal(t, "{\"id\":2,\"name\":\"Admin\"}\n", out)
}

func TestYAMLFormatter(t *testing.T) {
	out, err := format(t, "yaml", FormatterOptions{}, []roleRow{{ID: 1, Name: "Planner"}})
	require.NoError(t, err)
	assert.Contains(t, out, "- id: 1\n")
	assert.Contains(t, out, "name: Planner\n")
}

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name string
		data any
		want string
	}{
		{"string", "signed out", "signed out\n"},
		{"stringer", roleName(3), "role #3\n"},
		{"permissions", []string{"list_projects", "list_users"}, "list_projects\nlist_users\n"},
		{"map sorted by key", map[string]string{"variant": "ug", "api": "x"}, "api: x\nvariant: ug\n"},
		{"renderer", menuLines{"Home", "Admin"}, "* Home\n* Admin\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := format(t, "text", FormatterOptions{}, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestTextFormatterRejectsPlainStructs(t *testing.T) {
	_, err := format(t, "text", FormatterOptions{}, roleRow{ID: 1})
	assert.ErrorContains(t, err, "use --format json or yaml")
}
