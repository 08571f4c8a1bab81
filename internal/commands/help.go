package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"fstodo/internal/config"
	"fstodo/internal/exitcode"
	"fstodo/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "fstodo help" }
func (c *HelpCmd) NeedsStore() bool  { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  fstodo                                              List all lists and tasks
  fstodo list [common flags] <list-name|letter>       List tasks in a specific list
  fstodo lists [common flags]
  fstodo createlist [common flags] <list-name>
  fstodo add [common flags] [--list <list-name|letter>] <name...>
  fstodo done [common flags] [--list <list-name|letter>] <ref>
  fstodo rename [common flags] [--list <list-name|letter>] <ref> <name...>
  fstodo rm [common flags] [--list <list-name|letter>] [--yes] <ref>
  fstodo watch [common flags]
  fstodo tui [common flags]
  fstodo instances [common flags]
  fstodo createinstance [common flags] [--use] <name>
  fstodo join [common flags] [--use] <code>
  fstodo use [common flags] <code>
  fstodo theme [common flags] [light|dark|toggle]
  fstodo login [common flags]
  fstodo logout [common flags]
  fstodo help
  fstodo version

Refs:
  a1, a 1          Task 1 of list a (open tasks are numbered first)
  1                Task 1 when there is only one list or --list is given

Common flags:
  --config <dir>     Override config directory
  --instance <code>  Use this instance instead of the configured one
  --quiet            Suppress informational output
  --debug            Print debug logs to stderr
`
