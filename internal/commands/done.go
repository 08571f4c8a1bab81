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
	Register(&DoneCmd{})
}

// DoneCmd implements the done command. Running it on a done task reopens it.
type DoneCmd struct {
	listName string
}

// SetListName sets the list name (for testing).
func (c *DoneCmd) SetListName(name string) {
	c.listName = name
}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string  { return "Toggle a task between open and done" }
func (c *DoneCmd) Usage() string     { return "fstodo done [common flags] [--list <list-name|letter>] <ref>" }
func (c *DoneCmd) NeedsStore() bool  { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	// Parse before touching the store so usage errors stay cheap
	if _, err := ParseTaskRef(args); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	repo, cancel, err := attachRepository(ctx, cfg, store)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
	defer cancel()

	target, err := lookupTask(repo.Lists(), c.listName, args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if err := repo.ToggleTaskDone(ctx, target.List.ID, target.Task.ID); err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
