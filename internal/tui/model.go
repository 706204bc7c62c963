package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/pimis/internal/domain"
	"github.com/felixgeelhaar/pimis/internal/navigation"
	"github.com/felixgeelhaar/pimis/pkg/pimis/features"
)

// Layout constants used both for rendering and for classifying mouse clicks.
const (
	menuWidth          = 34
	collapsedMenuWidth = 6
	headerHeight       = 4
)

// Focus is the pane receiving key input
type Focus int

const (
	// FocusMenu is the primary navigation list
	FocusMenu Focus = iota
	// FocusPanel is the open submenu panel
	FocusPanel
	// FocusSearch is the search box
	FocusSearch
)

// MenuSource computes the authorized menu
type MenuSource interface {
	Menu(ctx context.Context, variant features.Variant, query string) ([]navigation.Node, error)
}

// Model is the navigator state
type Model struct {
	ctx      context.Context
	source   MenuSource
	variant  features.Variant
	labels   navigation.LabelResolver
	branding navigation.Branding
	user     *domain.UserInfo

	tree        []navigation.Node
	cursor      int
	panel       navigation.Panel
	panelCursor int
	focus       Focus
	route       string
	collapsed   bool
	search      textinput.Model

	keys   KeyMap
	help   help.Model
	width  int
	height int
	ready  bool

	quitting bool
	err      error

	styles Styles
}

// Styles contains lipgloss styles for the TUI
type Styles struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Error       lipgloss.Style
	Muted       lipgloss.Style
	Border      lipgloss.Style
	Highlighted lipgloss.Style
	Active      lipgloss.Style
	Heading     lipgloss.Style
	Help        lipgloss.Style
}

// Options configure a navigator model
type Options struct {
	Variant features.Variant
	Labels  navigation.LabelResolver
	User    *domain.UserInfo
	Route   string
}

// NewModel creates a navigator over source
func NewModel(ctx context.Context, source MenuSource, opts Options) Model {
	search := textinput.New()
	search.Placeholder = "Search..."
	search.Prompt = "/ "
	search.CharLimit = 64

	labels := opts.Labels
	if labels == nil {
		labels = navigation.NewLabeler(nil)
	}

	return Model{
		ctx:      ctx,
		source:   source,
		variant:  opts.Variant,
		labels:   labels,
		branding: navigation.Title(opts.Variant),
		user:     opts.User,
		route:    opts.Route,
		search:   search,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		styles:   DefaultStyles(),
	}
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")), // Purple
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1),
		Highlighted: lipgloss.NewStyle().
			Background(lipgloss.Color("63")).
			Foreground(lipgloss.Color("230")).
			Bold(true),
		Active: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")), // Cyan
		Heading: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("244")),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
	}
}

// Messages

// MenuLoadedMsg carries a freshly authorized menu
type MenuLoadedMsg struct {
	Tree []navigation.Node
	Err  error
}

// UserChangedMsg reports a new published user (nil after logout)
type UserChangedMsg struct {
	User *domain.UserInfo
}

// NavigatedMsg reports a route change through a menu link
type NavigatedMsg struct {
	Href string
}

// loadMenu returns a command computing the menu for the current query
func (m Model) loadMenu() tea.Cmd {
	ctx, source, variant, query := m.ctx, m.source, m.variant, m.search.Value()
	return func() tea.Msg {
		tree, err := source.Menu(ctx, variant, query)
		return MenuLoadedMsg{Tree: tree, Err: err}
	}
}

// Init loads the first menu (required by Bubble Tea)
func (m Model) Init() tea.Cmd {
	return m.loadMenu()
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case MenuLoadedMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.tree = msg.Tree
		}
		m.cursor = clamp(m.cursor, len(m.tree))
		m.reconcilePanel()
		return m, nil

	case UserChangedMsg:
		m.user = msg.User
		// The open panel belongs to the previous role's menu.
		m.panel.Collapse()
		m.focus = FocusMenu
		return m, m.loadMenu()

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.focus == FocusSearch {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Search):
		m.focus = FocusSearch
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Collapse):
		m.collapsed = !m.collapsed
		if m.collapsed {
			m.panel.Collapse()
			m.focus = FocusMenu
		}

	case key.Matches(msg, m.keys.Close):
		m.closePanel()

	case key.Matches(msg, m.keys.Focus):
		switch {
		case m.focus == FocusMenu && m.panel.State().Open:
			m.focus = FocusPanel
			m.panelCursor = clamp(m.panelCursor, len(m.panelLinks()))
		default:
			m.focus = FocusMenu
		}

	case key.Matches(msg, m.keys.Up):
		if m.focus == FocusPanel {
			m.panelCursor = clamp(m.panelCursor-1, len(m.panelLinks()))
		} else {
			m.cursor = clamp(m.cursor-1, len(m.tree))
		}

	case key.Matches(msg, m.keys.Down):
		if m.focus == FocusPanel {
			m.panelCursor = clamp(m.panelCursor+1, len(m.panelLinks()))
		} else {
			m.cursor = clamp(m.cursor+1, len(m.tree))
		}

	case key.Matches(msg, m.keys.Select):
		if m.focus == FocusPanel {
			return m.activatePanelLink()
		}
		return m.activate(m.cursor)
	}

	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.search.Blur()
		m.focus = FocusMenu
		if m.search.Value() == "" {
			return m, nil
		}
		m.search.SetValue("")
		return m, m.loadMenu()
	case tea.KeyEnter:
		m.search.Blur()
		m.focus = FocusMenu
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}
	m.cursor = 0
	return m, tea.Batch(cmd, m.loadMenu())
}

// activate handles selecting a top-level entry: branches toggle their
// panel, links navigate.
func (m Model) activate(idx int) (tea.Model, tea.Cmd) {
	if idx < 0 || idx >= len(m.tree) {
		return m, nil
	}
	n := m.tree[idx]
	switch n.Kind() {
	case navigation.KindBranch, navigation.KindGroup:
		if m.collapsed {
			return m, nil
		}
		state := m.panel.Select(navigation.ItemKey(n, idx, ""), n, m.labels)
		m.panelCursor = 0
		if !state.Open {
			m.focus = FocusMenu
		}
		return m, nil
	case navigation.KindLeaf:
		return m.navigate(n.Href)
	default:
		return m, nil
	}
}

func (m Model) activatePanelLink() (tea.Model, tea.Cmd) {
	links := m.panelLinks()
	if m.panelCursor < 0 || m.panelCursor >= len(links) {
		return m, nil
	}
	m.panel.Navigate()
	m.focus = FocusMenu
	return m.navigate(links[m.panelCursor].Href)
}

func (m Model) navigate(href string) (tea.Model, tea.Cmd) {
	if href == "" {
		return m, nil
	}
	m.panel.Navigate()
	m.route = href
	return m, func() tea.Msg { return NavigatedMsg{Href: href} }
}

// closePanel closes the open panel by toggling its trigger.
func (m *Model) closePanel() {
	state := m.panel.State()
	if !state.Open {
		return
	}
	if n, err := navigation.Lookup(m.tree, state.Key); err == nil {
		m.panel.Select(state.Key, n, m.labels)
	} else {
		m.panel.Navigate()
	}
	m.focus = FocusMenu
}

// reconcilePanel closes the panel when its trigger is gone from a reloaded
// menu.
func (m *Model) reconcilePanel() {
	state := m.panel.State()
	if !state.Open {
		return
	}
	if _, err := navigation.Lookup(m.tree, state.Key); err != nil {
		m.panel.Collapse()
		m.focus = FocusMenu
	}
}

// panelLinks flattens the open panel into its navigable links. Group
// headings contribute their labelled children that have a route.
func (m Model) panelLinks() []navigation.Node {
	var links []navigation.Node
	for _, item := range m.panel.State().Items {
		switch item.Kind() {
		case navigation.KindLeaf:
			if item.Href != "" {
				links = append(links, item)
			}
		case navigation.KindBranch, navigation.KindGroup:
			if item.Href != "" {
				links = append(links, item.Clone())
			}
			for _, c := range item.Children {
				if c.Title != "" && c.Href != "" {
					links = append(links, c)
				}
			}
		}
	}
	return links
}

// handleMouse reports the click region to the panel, then activates the
// clicked top-level entry. Clicking the open trigger toggles its panel shut.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	region := m.regionAt(msg.X, msg.Y)
	m.panel.Pointer(region)
	if region == navigation.RegionPanel {
		return m, nil
	}
	m.focus = FocusMenu

	row := msg.Y - headerHeight
	if msg.X < m.menuColumnWidth() && row >= 0 && row < len(m.tree) {
		m.cursor = row
		return m.activate(row)
	}
	return m, nil
}

// regionAt classifies a screen position relative to the open panel.
func (m Model) regionAt(x, y int) navigation.Region {
	state := m.panel.State()
	if !state.Open {
		return navigation.RegionElsewhere
	}
	if x >= m.menuColumnWidth() {
		return navigation.RegionPanel
	}
	row := y - headerHeight
	if row >= 0 && row < len(m.tree) && navigation.ItemKey(m.tree[row], row, "") == state.Key {
		return navigation.RegionTrigger
	}
	return navigation.RegionElsewhere
}

func (m Model) menuColumnWidth() int {
	if m.collapsed {
		return collapsedMenuWidth
	}
	return menuWidth
}

// Route returns the current route
func (m Model) Route() string { return m.route }

// PanelState returns the submenu panel state
func (m Model) PanelState() navigation.PanelState { return m.panel.State() }

// Err returns the last menu error
func (m Model) Err() error { return m.err }

func clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
