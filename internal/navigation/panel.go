package navigation

// Region classifies where a pointer interaction landed.
type Region int

const (
	// RegionElsewhere is anywhere outside the open panel and its trigger.
	RegionElsewhere Region = iota
	// RegionPanel is inside the open submenu panel.
	RegionPanel
	// RegionTrigger is the entry that opened the panel.
	RegionTrigger
)

// PanelState is a snapshot of the submenu panel. When Open is false the
// other fields are empty.
type PanelState struct {
	Open  bool
	Key   string
	Label string
	Items []Node
}

// Panel tracks which branch has its submenu open. At most one panel is open
// at a time and every transition takes effect immediately. A Panel is owned
// by one event loop and is not safe for concurrent use.
type Panel struct {
	state PanelState
}

// Select toggles the panel of a branch: selecting the open branch closes
// it, selecting another branch replaces it. Selecting a leaf changes
// nothing. Items are the branch's children with a label or children of
// their own.
func (p *Panel) Select(key string, n Node, labels LabelResolver) PanelState {
	if n.Kind() == KindLeaf {
		return p.State()
	}
	if p.state.Open && p.state.Key == key {
		p.close()
		return p.State()
	}

	items := make([]Node, 0, len(n.Children))
	for _, c := range n.Children {
		if labels.Label(c) != "" || len(c.Children) > 0 {
			items = append(items, c.Clone())
		}
	}
	p.state = PanelState{Open: true, Key: key, Label: labels.Label(n), Items: items}
	return p.State()
}

// Collapse closes the panel when the primary navigation narrows.
func (p *Panel) Collapse() { p.close() }

// Pointer closes the panel unless the interaction landed inside it or on
// its trigger.
func (p *Panel) Pointer(r Region) {
	switch r {
	case RegionPanel, RegionTrigger:
	case RegionElsewhere:
		p.close()
	default:
		p.close()
	}
}

// Navigate closes the panel ahead of a route change through one of its links.
func (p *Panel) Navigate() { p.close() }

// IsOpen reports whether the panel of key is open.
func (p *Panel) IsOpen(key string) bool {
	return p.state.Open && p.state.Key == key
}

// State returns a copy of the current state.
func (p *Panel) State() PanelState {
	s := p.state
	s.Items = cloneNodes(p.state.Items)
	return s
}

func (p *Panel) close() {
	p.state = PanelState{}
}
