package navigation

import (
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/felixgeelhaar/pimis/internal/domain"
)

var words = []string{"alpha", "beta", "gamma", "delta", "report", "user"}

func genNode(depth int) *rapid.Generator[Node] {
	return rapid.Custom(func(t *rapid.T) Node {
		n := Node{
			Title: rapid.SampledFrom(words).Draw(t, "title") + " " + rapid.SampledFrom(words).Draw(t, "suffix"),
			Href:  "/" + rapid.SampledFrom(words).Draw(t, "href"),
		}
		if rapid.Bool().Draw(t, "gated") {
			n.Permission = domain.Permission(rapid.SampledFrom(words).Draw(t, "perm"))
		}
		if depth > 0 && rapid.Bool().Draw(t, "branch") {
			n.Icon = "i"
			n.Children = rapid.SliceOfN(genNode(depth-1), 1, 4).Draw(t, "children")
		}
		return n
	})
}

func preorder(nodes []Node, out *[]string) {
	for _, n := range nodes {
		*out = append(*out, n.Title)
		preorder(n.Children, out)
	}
}

func isSubsequence(sub, full []string) bool {
	i := 0
	for _, s := range full {
		if i < len(sub) && sub[i] == s {
			i++
		}
	}
	return i == len(sub)
}

// Property: search keeps source order and only keeps nodes that match or
// lead to a match.
func TestSearchProperty_OrderPreservingAndRelevant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tree := rapid.SliceOfN(genNode(3), 0, 5).Draw(t, "tree")
		query := rapid.SampledFrom(words).Draw(t, "query")

		got := Search(tree, query, plain)

		var src, res []string
		preorder(tree, &src)
		preorder(got, &res)
		if !isSubsequence(res, src) {
			t.Fatalf("result %v is not an ordered subset of %v", res, src)
		}

		var check func(nodes []Node)
		check = func(nodes []Node) {
			for _, n := range nodes {
				if len(n.Children) == 0 && !strings.Contains(strings.ToLower(plain.Label(n)), query) {
					t.Fatalf("kept %q without a match for %q", n.Title, query)
				}
				check(n.Children)
			}
		}
		check(got)
	})
}

// Property: authorizing never reveals a node whose own gate fails, and a
// kept branch without an href always has children.
func TestAuthorizeProperty_GatesHold(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tree := rapid.SliceOfN(genNode(3), 0, 5).Draw(t, "tree")
		held := rapid.SliceOf(rapid.SampledFrom(words)).Draw(t, "held")
		perms := make([]domain.Permission, len(held))
		for i, p := range held {
			perms[i] = domain.Permission(p)
		}
		set := domain.NewPermissionSet(perms...)

		var check func(nodes []Node)
		check = func(nodes []Node) {
			for _, n := range nodes {
				if !IsVisible(n, set, noFlags()) {
					t.Fatalf("gated node %q leaked", n.Title)
				}
				if n.Href == "" && len(n.Children) == 0 {
					t.Fatalf("empty branch %q kept", n.Title)
				}
				check(n.Children)
			}
		}
		check(Authorize(tree, set, noFlags(), plain))
	})
}
