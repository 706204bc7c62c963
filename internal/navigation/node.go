// Package navigation decides which menu entries a session may see and
// tracks which second-level panel is open.
package navigation

import (
	"github.com/felixgeelhaar/pimis/internal/domain"
	"github.com/felixgeelhaar/pimis/pkg/pimis/features"
)

// Kind classifies a menu node by shape.
type Kind int

const (
	// KindLeaf has no children and is rendered as a link (or a label).
	KindLeaf Kind = iota
	// KindBranch has children and opens a submenu panel.
	KindBranch
	// KindGroup has children but no route or icon; it is a heading that
	// groups its children inside a panel.
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindBranch:
		return "branch"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Node is one entry of a navigation menu.
type Node struct {
	Title       string            `yaml:"title,omitempty" json:"title,omitempty"`
	Translation string            `yaml:"translation,omitempty" json:"translation,omitempty"`
	Href        string            `yaml:"href,omitempty" json:"href,omitempty"`
	Permission  domain.Permission `yaml:"permission,omitempty" json:"permission,omitempty"`
	Feature     features.Flag     `yaml:"feature,omitempty" json:"feature,omitempty"`
	Icon        string            `yaml:"icon,omitempty" json:"icon,omitempty"`
	Children    []Node            `yaml:"children,omitempty" json:"children,omitempty"`
}

// Kind reports the node's shape.
func (n Node) Kind() Kind {
	switch {
	case len(n.Children) == 0:
		return KindLeaf
	case n.Href == "" && n.Icon == "":
		return KindGroup
	default:
		return KindBranch
	}
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	out.Children = cloneNodes(n.Children)
	return out
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, c := range nodes {
		out[i] = c.Clone()
	}
	return out
}

// withChildren returns a shallow copy of n carrying the given children.
func (n Node) withChildren(children []Node) Node {
	out := n
	out.Children = children
	return out
}

// IconOf returns the node's icon, falling back to its first child's.
func IconOf(n Node) string {
	if n.Icon != "" {
		return n.Icon
	}
	if len(n.Children) > 0 {
		return n.Children[0].Icon
	}
	return ""
}
