package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"fstodo/internal/config"
	"fstodo/internal/exitcode"
	"fstodo/internal/output"
	"fstodo/internal/service"
)

func init() {
	Register(&ListsCmd{})
}

// ListsCmd implements the lists command.
type ListsCmd struct{}

func (c *ListsCmd) Name() string      { return "lists" }
func (c *ListsCmd) Aliases() []string { return nil }
func (c *ListsCmd) Synopsis() string  { return "Print all lists" }
func (c *ListsCmd) Usage() string     { return "fstodo lists [common flags]" }
func (c *ListsCmd) NeedsStore() bool  { return true }

func (c *ListsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ListsCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	repo, cancel, err := attachRepository(ctx, cfg, store)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
	defer cancel()

	for i, list := range repo.Lists() {
		output.FormatListName(out, ListLetter(i), list)
	}

	return exitcode.Success
}
