package navigation

import (
	"strings"

	"github.com/felixgeelhaar/pimis/internal/domain"
	"github.com/felixgeelhaar/pimis/pkg/pimis/features"
)

// IsVisible reports whether a node's own gates pass. A node without a
// permission or feature gate passes that gate.
func IsVisible(n Node, perms domain.PermissionSet, flags features.Resolver) bool {
	if n.Permission != "" && !perms.Has(n.Permission) {
		return false
	}
	if n.Feature != "" && (flags == nil || !flags.IsEnabled(n.Feature)) {
		return false
	}
	return true
}

// Authorize returns a pruned copy of tree holding only the entries the
// permission set and feature flags allow. A hidden node hides its whole
// subtree. A branch without a route is dropped when none of its children
// survive.
func Authorize(tree []Node, perms domain.PermissionSet, flags features.Resolver, labels LabelResolver) []Node {
	a := authorization{perms: perms, flags: flags, labels: labels}
	out := make([]Node, 0, len(tree))
	for _, n := range tree {
		if kept, ok := a.node(n); ok {
			out = append(out, kept)
		}
	}
	return out
}

type authorization struct {
	perms  domain.PermissionSet
	flags  features.Resolver
	labels LabelResolver
}

func (a authorization) node(n Node) (Node, bool) {
	if !IsVisible(n, a.perms, a.flags) {
		return Node{}, false
	}
	label := a.labels.Label(n)
	if label == "" && n.Href == "" {
		return Node{}, false
	}

	switch n.Kind() {
	case KindLeaf:
		return n.withChildren(nil), true
	case KindBranch, KindGroup:
		children := a.children(n.Children)
		if len(children) == 0 {
			if n.Href == "" {
				return Node{}, false
			}
			// Nothing to expand; the entry degrades to a plain link.
			return n.withChildren(nil), true
		}
		return n.withChildren(children), true
	default:
		return Node{}, false
	}
}

func (a authorization) children(nodes []Node) []Node {
	var out []Node
	for _, c := range nodes {
		kept, ok := a.node(c)
		if !ok {
			continue
		}
		if a.labels.Label(kept) == "" && len(kept.Children) == 0 {
			continue
		}
		out = append(out, kept)
	}
	return out
}

// NormalizeQuery trims and lowercases a search query.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// FilterBySearch keeps a node when its label or any descendant's label
// contains query, case-insensitively. Branches keep only their matching
// children; a branch whose own label matches but has no matching children
// is kept with no children. The result never shares memory with n.
func FilterBySearch(n Node, query string, labels LabelResolver) (Node, bool) {
	q := NormalizeQuery(query)
	if q == "" {
		return n.Clone(), true
	}
	return filterNode(n, q, labels)
}

func filterNode(n Node, q string, labels LabelResolver) (Node, bool) {
	matches := strings.Contains(strings.ToLower(labels.Label(n)), q)

	switch n.Kind() {
	case KindLeaf:
		if matches {
			return n.Clone(), true
		}
		return Node{}, false
	case KindBranch, KindGroup:
		var children []Node
		for _, c := range n.Children {
			if kept, ok := filterNode(c, q, labels); ok {
				children = append(children, kept)
			}
		}
		if len(children) > 0 {
			return n.withChildren(children), true
		}
		if matches {
			return n.withChildren([]Node{}), true
		}
		return Node{}, false
	default:
		return Node{}, false
	}
}

// Search applies FilterBySearch to every root of tree, preserving order.
func Search(tree []Node, query string, labels LabelResolver) []Node {
	out := make([]Node, 0, len(tree))
	for _, n := range tree {
		if kept, ok := FilterBySearch(n, query, labels); ok {
			out = append(out, kept)
		}
	}
	return out
}
