package navigation

import (
	"github.com/felixgeelhaar/pimis/internal/domain"
	"github.com/felixgeelhaar/pimis/pkg/pimis/features"
)

func leaf(title, href string) Node {
	return Node{Title: title, Href: href}
}

func branch(title string, children ...Node) Node {
	return Node{Title: title, Icon: "dot", Children: children}
}

func group(title string, children ...Node) Node {
	return Node{Title: title, Children: children}
}

func gated(n Node, perm domain.Permission) Node {
	n.Permission = perm
	return n
}

func flagged(n Node, f features.Flag) Node {
	n.Feature = f
	return n
}

func titles(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Title
	}
	return out
}

func noFlags() features.Resolver {
	return features.NewSet()
}

var plain = NewLabeler(nil)
