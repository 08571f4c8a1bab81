package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"fstodo/internal/config"
	"fstodo/internal/exitcode"
	"fstodo/internal/repository"
	"fstodo/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	listName string
}

// SetListName sets the list name (for testing).
func (c *AddCmd) SetListName(name string) {
	c.listName = name
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return nil }
func (c *AddCmd) Synopsis() string  { return "Add a task to a list" }
func (c *AddCmd) Usage() string     { return "fstodo add [common flags] [--list <list-name|letter>] <name...>" }
func (c *AddCmd) NeedsStore() bool  { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	name := strings.Join(args, " ")
	if strings.TrimSpace(name) == "" {
		fmt.Fprintln(errOut, "error: task name required")
		return exitcode.UserError
	}

	repo, cancel, err := attachRepository(ctx, cfg, store)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
	defer cancel()

	// Without --list, a single list is the obvious target
	lists := repo.Lists()
	var list repository.List
	switch {
	case c.listName != "":
		list, err = ResolveList(lists, c.listName)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	case len(lists) == 1:
		list = lists[0]
	case len(lists) == 0:
		fmt.Fprintln(errOut, "error: no lists (run: fstodo createlist <name>)")
		return exitcode.UserError
	default:
		fmt.Fprintln(errOut, "error: --list required when there is more than one list")
		return exitcode.UserError
	}

	if err := repo.AddTask(ctx, list.ID, name); err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
