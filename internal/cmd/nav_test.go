package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/pimis/internal/navigation"
)

func sampleTree() []navigation.Node {
	return []navigation.Node{
		{Title: "Home", Href: "/", Icon: "home"},
		{Title: "Projects", Href: "/projects", Icon: "folder", Children: []navigation.Node{
			{Title: "All", Href: "/projects"},
			{Title: "Archive", Href: "/archive"},
		}},
		{Title: "Admin", Icon: "settings", Children: []navigation.Node{
			{Title: "Users", Href: "/users"},
		}},
	}
}

func TestBuildEntries(t *testing.T) {
	labels := navigation.NewLabeler(nil)
	var panel navigation.Panel
	tree := sampleTree()
	panel.Select("Admin", tree[2], labels)

	entries := buildEntries(tree, "", "#/archive/3", panel.State(), labels)
	require.Len(t, entries, 3)

	assert.Equal(t, "/", entries[0].Key)
	assert.Equal(t, "leaf", entries[0].Kind)
	assert.False(t, entries[0].Active)

	projects := entries[1]
	assert.Equal(t, "/projects", projects.Key)
	assert.True(t, projects.Ancestor)
	assert.False(t, projects.Open)
	require.Len(t, projects.Children, 2)
	assert.Equal(t, "/projects-1", projects.Children[1].Key)
	assert.True(t, projects.Children[1].Active)

	admin := entries[2]
	assert.Equal(t, "Admin", admin.Key)
	assert.True(t, admin.Open)
	assert.True(t, admin.Selected, "open panel without an active descendant")
}

func TestTreeViewRenderText(t *testing.T) {
	labels := navigation.NewLabeler(nil)
	view := treeView{
		Title:    "PIMIS",
		Subtitle: "Public Investment Management Information System",
		Query:    "arch",
		Entries:  buildEntries(sampleTree(), "", "/archive", navigation.PanelState{}, labels),
	}

	var buf bytes.Buffer
	require.NoError(t, view.RenderText(&buf))
	out := buf.String()

	assert.Contains(t, out, "PIMIS · Public Investment Management Information System\n")
	assert.Contains(t, out, `search: "arch"`)
	assert.Contains(t, out, "> Projects  /projects\n")
	assert.Contains(t, out, "  * Archive  /archive\n")
	assert.Contains(t, out, "  Admin\n")
}

func TestTreeViewRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, treeView{Title: "IBP"}.RenderText(&buf))
	assert.Contains(t, buf.String(), "no entries visible")
}
