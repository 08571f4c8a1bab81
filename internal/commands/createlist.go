package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"fstodo/internal/config"
	"fstodo/internal/exitcode"
	"fstodo/internal/service"
)

func init() {
	Register(&CreateListCmd{})
}

// CreateListCmd implements the createlist command.
// List names need not be unique.
type CreateListCmd struct{}

func (c *CreateListCmd) Name() string      { return "createlist" }
func (c *CreateListCmd) Aliases() []string { return []string{"addlist"} }
func (c *CreateListCmd) Synopsis() string  { return "Create a new list" }
func (c *CreateListCmd) Usage() string     { return "fstodo createlist [common flags] <list-name>" }
func (c *CreateListCmd) NeedsStore() bool  { return true }

func (c *CreateListCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *CreateListCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		fmt.Fprintln(errOut, "error: list name required")
		return exitcode.UserError
	}

	repo, cancel, err := attachRepository(ctx, cfg, store)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
	defer cancel()

	if err := repo.CreateList(ctx, name); err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
