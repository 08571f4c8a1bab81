package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"fstodo/internal/config"
	"fstodo/internal/exitcode"
	"fstodo/internal/output"
	"fstodo/internal/repository"
	"fstodo/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `fstodo` (no args) and `fstodo list <list-name>`.
type ListCmd struct{}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "fstodo list [common flags] [<list-name|letter>]" }
func (c *ListCmd) NeedsStore() bool  { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	repo, cancel, err := attachRepository(ctx, cfg, store)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
	defer cancel()

	lists := repo.Lists()
	if len(args) == 0 {
		printLists(cfg, lists, out)
		return exitcode.Success
	}

	// Otherwise, list specific list
	listName := strings.TrimSpace(strings.Join(args, " "))
	if listName == "" {
		fmt.Fprintln(errOut, "error: list name required")
		return exitcode.UserError
	}
	list, err := ResolveList(lists, listName)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	for i, l := range lists {
		if l.ID == list.ID {
			output.FormatList(out, ListLetter(i), l)
		}
	}
	return exitcode.Success
}

// printLists prints every list section, assigning letters a-z in snapshot
// order. Lists past z are printed without a letter.
func printLists(cfg *config.Config, lists []repository.List, out io.Writer) {
	if len(lists) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no lists found")
		}
		return
	}
	for i, list := range lists {
		output.FormatList(out, ListLetter(i), list)
	}
}
