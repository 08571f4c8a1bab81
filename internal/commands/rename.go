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
	Register(&RenameCmd{})
}

// RenameCmd implements the rename command.
type RenameCmd struct {
	listName string
}

func (c *RenameCmd) Name() string      { return "rename" }
func (c *RenameCmd) Aliases() []string { return []string{"edit"} }
func (c *RenameCmd) Synopsis() string  { return "Rename a task" }
func (c *RenameCmd) Usage() string {
	return "fstodo rename [common flags] [--list <list-name|letter>] <ref> <name...>"
}
func (c *RenameCmd) NeedsStore() bool { return true }

func (c *RenameCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
}

func (c *RenameCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	name := strings.Join(args[ref.Consumed:], " ")
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

	target, err := lookupTask(repo.Lists(), c.listName, args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	// Stage and commit through the session, like an inline edit
	session := repository.NewSession(repo)
	session.StartEdit(target.List.ID, target.Task.ID)
	session.SetEditText(name)
	if err := session.SaveEdit(ctx); err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
