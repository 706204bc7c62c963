package navigation

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/pimis/pkg/pimis/features"
)

//go:embed menus/*.yaml
var menuFS embed.FS

// DefaultVariant is served when a deployment is not recognised.
const DefaultVariant = features.VariantUG

// Catalog holds the statically configured menu trees, keyed by the name of
// the menu file they were read from.
type Catalog struct {
	menus map[string][]Node
}

// NewCatalog builds a catalog from in-memory trees. Keys are menu names
// ("ug", "jm").
func NewCatalog(menus map[string][]Node) *Catalog {
	c := &Catalog{menus: make(map[string][]Node, len(menus))}
	for name, tree := range menus {
		c.menus[name] = cloneNodes(tree)
	}
	return c
}

// LoadCatalog parses the embedded menu files.
func LoadCatalog() (*Catalog, error) {
	menus := make(map[string][]Node)
	for _, name := range []string{"ug", "jm"} {
		data, err := menuFS.ReadFile("menus/" + name + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("failed to read menu %s: %w", name, err)
		}
		var tree []Node
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("failed to parse menu %s: %w", name, err)
		}
		menus[name] = tree
	}
	return &Catalog{menus: menus}, nil
}

var defaultCatalog = sync.OnceValues(LoadCatalog)

// DefaultCatalog returns the embedded catalog, parsed once.
func DefaultCatalog() (*Catalog, error) {
	return defaultCatalog()
}

// menuName maps a deployment to the menu it is served. ESNIP shares the
// IBP menu.
func menuName(v features.Variant) string {
	switch v {
	case features.VariantJM:
		return "jm"
	case features.VariantUG, features.VariantMZB:
		return "ug"
	default:
		return "ug"
	}
}

// Resolve returns a copy of the menu tree for a deployment. Unknown
// deployments get the default tree.
func (c *Catalog) Resolve(v features.Variant) []Node {
	return cloneNodes(c.menus[menuName(v)])
}

// ResolveMenu looks up a deployment's menu in the embedded catalog.
func ResolveMenu(v features.Variant) ([]Node, error) {
	c, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}
	return c.Resolve(v), nil
}

// Branding is the product name shown above a deployment's menu.
type Branding struct {
	Full     string
	Short    string
	Subtitle string
}

// Title returns the branding of a deployment.
func Title(v features.Variant) Branding {
	switch v {
	case features.VariantUG:
		return Branding{Full: "IBP", Short: "I", Subtitle: "Integrated Bank of Projects"}
	case features.VariantMZB:
		return Branding{Full: "ESNIP", Short: "E"}
	case features.VariantJM:
		return Branding{Full: "PIMIS", Short: "P", Subtitle: "Public Investment Management Information System"}
	default:
		return Branding{Full: "IBP", Short: "I"}
	}
}
