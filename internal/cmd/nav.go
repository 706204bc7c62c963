package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pimis/internal/navigation"
	"github.com/felixgeelhaar/pimis/internal/tui"
	"github.com/felixgeelhaar/pimis/internal/ux"
)

// refreshCheckInterval is how often nav browse looks at the refresh hint
const refreshCheckInterval = 30 * time.Second

var navCmd = &cobra.Command{
	Use:   "nav",
	Short: "Show the navigation menu of the current role",
}

var navTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the authorized menu",
	Long: `Print the menu entries the current role may see, after permission and
feature-flag pruning.

Markers:
  *  the entry matches --route
  >  a descendant matches --route
  +  the entry's submenu panel is open (--open)

Examples:
  pimis nav tree
  pimis nav tree --search proj
  pimis nav tree --route '#/projects/12' --open '/implementation-module'`,
	Args: cobra.NoArgs,
	RunE: runNavTree,
}

var navBrowseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the menu interactively",
	Long: `Open the sidebar navigator. Press ? for keys.

The session is watched while browsing: a login, role switch or logout in
another terminal sharing the same store redraws the menu.`,
	Args: cobra.NoArgs,
	RunE: runNavBrowse,
}

func init() {
	navTreeCmd.Flags().StringP("search", "s", "", "keep entries whose label contains this text")
	navTreeCmd.Flags().StringP("route", "r", "", "current route, e.g. '#/projects/12'")
	navTreeCmd.Flags().String("open", "", "item key of the top-level entry whose panel is open")

	navBrowseCmd.Flags().StringP("route", "r", "", "route to start on (default: the last one browsed)")

	navCmd.AddCommand(navTreeCmd)
	navCmd.AddCommand(navBrowseCmd)
	rootCmd.AddCommand(navCmd)
}

func runNavTree(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("search")
	route, _ := cmd.Flags().GetString("route")
	openKey, _ := cmd.Flags().GetString("open")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		tree, err := a.authorizer.Menu(ctx, a.variant(), query)
		if err != nil {
			return err
		}

		var panel navigation.Panel
		if openKey != "" {
			n, err := navigation.Lookup(tree, openKey)
			if err != nil {
				return err
			}
			panel.Select(openKey, n, a.labels)
		}

		brand := navigation.Title(a.variant())
		view := treeView{
			Title:    brand.Full,
			Subtitle: brand.Subtitle,
			Variant:  string(a.variant()),
			Route:    route,
			Query:    navigation.NormalizeQuery(query),
			Entries:  buildEntries(tree, "", route, panel.State(), a.labels),
		}
		if st := panel.State(); st.Open {
			view.Panel = &panelView{
				Key:     st.Key,
				Label:   st.Label,
				Entries: buildEntries(st.Items, st.Key, route, navigation.PanelState{}, a.labels),
			}
		}
		return a.render(cmd.OutOrStdout(), view)
	})
}

func runNavBrowse(cmd *cobra.Command, args []string) error {
	if !tui.IsInteractive() {
		return fmt.Errorf("nav browse needs a terminal; use 'pimis nav tree' instead")
	}
	route, _ := cmd.Flags().GetString("route")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		if route == "" {
			route = a.cfg.App.Route
		}
		user, err := a.manager.CurrentUser(ctx)
		if err != nil {
			return err
		}

		model := tui.NewModel(ctx, a.authorizer, tui.Options{
			Variant: a.variant(),
			Labels:  a.labels,
			User:    user,
			Route:   route,
		})
		nav := tui.NewNavigator(model)
		stop := nav.Watch(a.manager.Subscribe)
		defer stop()

		refreshCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go keepFresh(refreshCtx, a)

		final, err := nav.Run()
		if err != nil {
			return err
		}
		if err := final.Err(); err != nil {
			return err
		}
		return rememberRoute(a, final.Route())
	})
}

// keepFresh refreshes the access token whenever the hint left by the last
// refresh has passed, until ctx ends. A session without a hint is
// refreshed on the first tick.
func keepFresh(ctx context.Context, a *app) {
	ticker := time.NewTicker(refreshCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refreshIfNeeded(ctx, a)
		}
	}
}

// refreshIfNeeded runs one background refresh check. It reports whether a
// refresh was attempted.
func refreshIfNeeded(ctx context.Context, a *app) bool {
	need, err := a.manager.NeedsRefresh(ctx)
	if err != nil || !need {
		return false
	}
	if _, err := a.manager.RefreshToken(ctx); err != nil {
		a.logger.WithError(err).Warn("background token refresh failed")
	}
	return true
}

// rememberRoute stores the last route in the config file. The file is
// reloaded so environment and flag overrides are not persisted.
func rememberRoute(a *app, route string) error {
	if route == "" || route == a.cfg.App.Route {
		return nil
	}
	cfg, err := loadConfig(a.paths)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}
	cfg.App.Route = route
	return saveConfig(cfg, a.paths.ConfigFile())
}

// navEntry is one authorized menu entry as printed by nav tree
type navEntry struct {
	Key      string     `json:"key" yaml:"key"`
	Label    string     `json:"label" yaml:"label"`
	Kind     string     `json:"kind" yaml:"kind"`
	Href     string     `json:"href,omitempty" yaml:"href,omitempty"`
	Active   bool       `json:"active,omitempty" yaml:"active,omitempty"`
	Ancestor bool       `json:"ancestor,omitempty" yaml:"ancestor,omitempty"`
	Open     bool       `json:"open,omitempty" yaml:"open,omitempty"`
	Selected bool       `json:"selected,omitempty" yaml:"selected,omitempty"`
	Children []navEntry `json:"children,omitempty" yaml:"children,omitempty"`
}

type panelView struct {
	Key     string     `json:"key" yaml:"key"`
	Label   string     `json:"label" yaml:"label"`
	Entries []navEntry `json:"entries" yaml:"entries"`
}

type treeView struct {
	Title    string     `json:"title" yaml:"title"`
	Subtitle string     `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Variant  string     `json:"variant" yaml:"variant"`
	Route    string     `json:"route,omitempty" yaml:"route,omitempty"`
	Query    string     `json:"query,omitempty" yaml:"query,omitempty"`
	Entries  []navEntry `json:"entries" yaml:"entries"`
	Panel    *panelView `json:"panel,omitempty" yaml:"panel,omitempty"`
}

func buildEntries(nodes []navigation.Node, parentKey, route string, panel navigation.PanelState, labels navigation.LabelResolver) []navEntry {
	entries := make([]navEntry, 0, len(nodes))
	for i, n := range nodes {
		key := navigation.ItemKey(n, i, parentKey)
		e := navEntry{
			Key:   key,
			Label: labels.Label(n),
			Kind:  n.Kind().String(),
			Href:  n.Href,
		}
		if route != "" {
			e.Active = navigation.MatchesRoute(n, route)
			e.Ancestor = navigation.HasActiveDescendant(n, route)
		}
		e.Open = panel.Open && panel.Key == key
		e.Selected = navigation.IsSelected(n, key, route, panel)
		if len(n.Children) > 0 {
			e.Children = buildEntries(n.Children, key, route, navigation.PanelState{}, labels)
		}
		entries = append(entries, e)
	}
	return entries
}

func (v treeView) RenderText(w io.Writer) error {
	header := v.Title
	if v.Subtitle != "" {
		header += " · " + v.Subtitle
	}
	fmt.Fprintln(w, header)
	if v.Query != "" {
		fmt.Fprintf(w, "search: %q\n", v.Query)
	}
	fmt.Fprintln(w)

	if len(v.Entries) == 0 {
		fmt.Fprintln(w, "(no entries visible to the current role)")
		return nil
	}
	writeEntries(w, v.Entries, 0)

	if v.Panel != nil {
		fmt.Fprintf(w, "\n[%s]\n", v.Panel.Label)
		writeEntries(w, v.Panel.Entries, 1)
	}
	return nil
}

func writeEntries(w io.Writer, entries []navEntry, depth int) {
	for _, e := range entries {
		marker := " "
		switch {
		case e.Active:
			marker = "*"
		case e.Ancestor:
			marker = ">"
		case e.Open:
			marker = "+"
		}
		line := strings.Repeat("  ", depth) + marker + " " + e.Label
		if e.Href != "" {
			line += "  " + e.Href
		}
		fmt.Fprintln(w, line)
		writeEntries(w, e.Children, depth+1)
	}
}
