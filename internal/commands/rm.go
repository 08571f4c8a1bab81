package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"fstodo/internal/config"
	"fstodo/internal/exitcode"
	"fstodo/internal/repository"
	"fstodo/internal/service"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command. The delete is requested first and only
// written once confirmed, either at the prompt or with --yes.
type RmCmd struct {
	listName string
	yes      bool
	in       io.Reader
}

// SetInput sets the reader used for the confirmation prompt (for testing).
func (c *RmCmd) SetInput(r io.Reader) {
	c.in = r
}

// SetYes skips the confirmation prompt (for testing).
func (c *RmCmd) SetYes(yes bool) {
	c.yes = yes
}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string {
	return "fstodo rm [common flags] [--list <list-name|letter>] [--yes] <ref>"
}
func (c *RmCmd) NeedsStore() bool { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
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

	session := repository.NewSession(repo)
	session.RequestDelete(target.List.ID, target.Task.ID)

	if !c.yes && !c.confirm(target.Task.Name, errOut) {
		session.CancelDelete()
		if !cfg.Quiet {
			fmt.Fprintln(out, "cancelled")
		}
		return exitcode.Success
	}

	if err := session.ConfirmDelete(ctx); err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// confirm asks on errOut and reads one answer line. Only y or yes confirms.
func (c *RmCmd) confirm(name string, errOut io.Writer) bool {
	in := c.in
	if in == nil {
		in = os.Stdin
	}
	fmt.Fprintf(errOut, "delete %q? [y/N] ", name)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
