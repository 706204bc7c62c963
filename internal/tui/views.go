package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/pimis/internal/navigation"
)

// View renders the TUI (required by Bubble Tea)
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())

	body := m.renderMenu()
	if state := m.panel.State(); state.Open && !m.collapsed {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.renderPanel(state))
	}
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader renders exactly headerHeight lines so that menu rows can be
// located from mouse coordinates.
func (m Model) renderHeader() string {
	title := m.styles.Title.Render(m.branding.Full)
	if m.collapsed {
		title = m.styles.Title.Render(m.branding.Short)
	} else if m.branding.Subtitle != "" {
		title += " " + m.styles.Subtitle.Render(m.branding.Subtitle)
	}

	who := m.styles.Muted.Render("not signed in")
	if m.user != nil {
		who = m.user.DisplayName()
		if m.user.CurrentRole != nil {
			who += m.styles.Muted.Render(" · " + m.user.CurrentRole.Role.Name)
		}
	}

	lines := []string{title, who, m.search.View(), ""}
	return strings.Join(lines, "\n") + "\n"
}

func (m Model) renderMenu() string {
	width := m.menuColumnWidth()
	state := m.panel.State()
	rows := make([]string, 0, len(m.tree))

	if len(m.tree) == 0 {
		rows = append(rows, m.styles.Muted.Render("no entries"))
	}

	for i, n := range m.tree {
		key := navigation.ItemKey(n, i, "")
		label := m.labels.Label(n)
		if m.collapsed {
			label = firstRune(label)
		}

		cursor := "  "
		if m.focus == FocusMenu && i == m.cursor {
			cursor = "› "
		}

		suffix := ""
		if n.Kind() != navigation.KindLeaf && !m.collapsed {
			suffix = " ▸"
		}

		text := label + suffix
		switch {
		case navigation.IsSelected(n, key, m.route, state):
			text = m.styles.Highlighted.Render(text)
		case navigation.MatchesRoute(n, m.route):
			text = m.styles.Active.Render(text)
		case navigation.HasActiveDescendant(n, m.route):
			text = m.styles.Active.Render(label) + m.styles.Muted.Render(suffix+" •")
		}

		rows = append(rows, lipgloss.NewStyle().Width(width).MaxWidth(width).Render(cursor+text))
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderPanel(state navigation.PanelState) string {
	var rows []string
	rows = append(rows, m.styles.Title.Render(state.Label))

	link := 0
	addLink := func(n navigation.Node, indent string) {
		cursor := "  "
		if m.focus == FocusPanel && link == m.panelCursor {
			cursor = "› "
		}
		text := m.labels.Label(n)
		if navigation.MatchesRoute(n, m.route) {
			text = m.styles.Active.Render(text)
		}
		rows = append(rows, indent+cursor+text)
		link++
	}

	for _, item := range state.Items {
		switch item.Kind() {
		case navigation.KindLeaf:
			if item.Href != "" {
				addLink(item, "")
			} else {
				rows = append(rows, m.styles.Heading.Render(m.labels.Label(item)))
			}
		case navigation.KindBranch, navigation.KindGroup:
			if item.Href != "" {
				addLink(item, "")
			} else {
				rows = append(rows, m.styles.Heading.Render(m.labels.Label(item)))
			}
			for _, c := range item.Children {
				if c.Title != "" && c.Href != "" {
					addLink(c, "  ")
				}
			}
		}
	}

	return m.styles.Border.Render(strings.Join(rows, "\n"))
}

func (m Model) renderFooter() string {
	var b strings.Builder
	route := m.route
	if route == "" {
		route = "/"
	}
	b.WriteString(m.styles.Muted.Render("route: " + route))
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render("Error: ") + m.err.Error())
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))
	return b.String()
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
