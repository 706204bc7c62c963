package navigation

import (
	"strconv"
	"strings"

	"github.com/felixgeelhaar/pimis/internal/errors"
)

// RouteKey reduces a route to its first path segment:
// "#/projects/5" and "projects/5" both become "projects".
func RouteKey(route string) string {
	r := strings.TrimSpace(route)
	r = strings.TrimPrefix(r, "#")
	r = strings.TrimLeft(r, "/")
	if i := strings.IndexAny(r, "/?#"); i >= 0 {
		r = r[:i]
	}
	return r
}

// hrefMatches accepts any href containing key, so parameterised sub-routes
// light up their parent entry. The root route only matches "/".
func hrefMatches(href, key string) bool {
	if href == "" {
		return false
	}
	if key == "" {
		return href == "/"
	}
	return href == "/"+key || strings.Contains(href, key)
}

// MatchesRoute reports whether the node's own href matches route.
func MatchesRoute(n Node, route string) bool {
	return hrefMatches(n.Href, RouteKey(route))
}

// IsActive reports whether the node or any of its descendants matches route.
func IsActive(n Node, route string) bool {
	key := RouteKey(route)
	return hrefMatches(n.Href, key) || activeDescendant(n.Children, key)
}

// HasActiveDescendant reports whether a descendant, at any depth, matches
// route. The node's own href is not considered.
func HasActiveDescendant(n Node, route string) bool {
	return activeDescendant(n.Children, RouteKey(route))
}

func activeDescendant(nodes []Node, key string) bool {
	for _, c := range nodes {
		if hrefMatches(c.Href, key) || activeDescendant(c.Children, key) {
			return true
		}
	}
	return false
}

// IsSelected reports whether a branch should be highlighted itself: its
// panel is open and no descendant matches the route, so deep links
// highlight the leaf instead of the ancestor chain.
func IsSelected(n Node, key, route string, panel PanelState) bool {
	return panel.Open && panel.Key == key && !HasActiveDescendant(n, route)
}

// ItemKey identifies an entry for panel state. Top-level entries use their
// href, else their title, else their position; nested entries are keyed by
// their parent's key and position.
func ItemKey(n Node, idx int, parentKey string) string {
	if parentKey != "" {
		return parentKey + "-" + strconv.Itoa(idx)
	}
	if n.Href != "" {
		return n.Href
	}
	if n.Title != "" {
		return n.Title
	}
	return "nav-" + strconv.Itoa(idx)
}

// Lookup finds a top-level entry of tree by its item key.
func Lookup(tree []Node, key string) (Node, error) {
	for i, n := range tree {
		if ItemKey(n, i, "") == key {
			return n.Clone(), nil
		}
	}
	return Node{}, errors.NewUnknownMenuNodeError(key)
}
