package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"fstodo/internal/config"
	"fstodo/internal/exitcode"
	"fstodo/internal/prefs"
	"fstodo/internal/service"
)

func init() {
	Register(&ThemeCmd{})
}

// ThemeCmd implements the theme command.
type ThemeCmd struct{}

func (c *ThemeCmd) Name() string      { return "theme" }
func (c *ThemeCmd) Aliases() []string { return nil }
func (c *ThemeCmd) Synopsis() string  { return "Print or set the light/dark theme" }
func (c *ThemeCmd) Usage() string     { return "fstodo theme [common flags] [light|dark|toggle]" }
func (c *ThemeCmd) NeedsStore() bool  { return false }

func (c *ThemeCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ThemeCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	p := prefs.NewFileStore(cfg.PrefsPath())
	current := prefs.LoadTheme(p)

	if len(args) == 0 {
		fmt.Fprintln(out, current)
		return exitcode.Success
	}
	if len(args) > 1 {
		fmt.Fprintln(errOut, "error: too many arguments")
		return exitcode.UserError
	}

	next := current.Toggle()
	if args[0] != "toggle" {
		t, ok := prefs.ParseTheme(args[0])
		if !ok {
			fmt.Fprintf(errOut, "error: unknown theme: %s (must be 'light', 'dark' or 'toggle')\n", args[0])
			return exitcode.UserError
		}
		next = t
	}

	if err := prefs.SaveTheme(p, next); err != nil {
		fmt.Fprintf(errOut, "error: failed to save theme: %v\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, next)
	}
	return exitcode.Success
}
