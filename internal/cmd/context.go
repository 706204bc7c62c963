package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pimis/internal/ux"
)

// CommandContext holds the persistent flags of one invocation. Empty values
// mean "not given" and leave the config file in charge.
type CommandContext struct {
	Home      string
	APIURL    string
	Variant   string
	Format    string
	LogLevel  string
	LogFormat string
}

// NewCommandContext extracts command context from cobra.Command flags.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	flags := cmd.Flags()
	c := &CommandContext{}
	for name, dst := range map[string]*string{
		"home":       &c.Home,
		"api-url":    &c.APIURL,
		"variant":    &c.Variant,
		"format":     &c.Format,
		"log-level":  &c.LogLevel,
		"log-format": &c.LogFormat,
	} {
		v, err := flags.GetString(name)
		if err != nil {
			return nil, err
		}
		*dst = v
	}
	if c.Format != "" && !slices.Contains(ux.Formats, c.Format) {
		return nil, fmt.Errorf("invalid flag --format %q (supported: text, json, yaml)", c.Format)
	}
	return c, nil
}

// Formatter returns the output formatter selected by --format
func (c *CommandContext) Formatter(cmd *cobra.Command) (ux.Formatter, error) {
	return ux.NewFormatter(c.Format, &ux.FormatterOptions{Writer: cmd.OutOrStdout()})
}
