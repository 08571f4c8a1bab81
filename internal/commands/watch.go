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
	Register(&WatchCmd{})
}

// WatchCmd implements the watch command. It reprints every list whenever a
// new snapshot arrives, until interrupted.
type WatchCmd struct{}

func (c *WatchCmd) Name() string      { return "watch" }
func (c *WatchCmd) Aliases() []string { return nil }
func (c *WatchCmd) Synopsis() string  { return "Print lists on every change" }
func (c *WatchCmd) Usage() string     { return "fstodo watch [common flags]" }
func (c *WatchCmd) NeedsStore() bool  { return true }

func (c *WatchCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WatchCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	repo, cancel, err := attachRepository(ctx, cfg, store)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
	defer cancel()

	for {
		select {
		case <-repo.Changed():
			printLists(cfg, repo.Lists(), out)
			fmt.Fprintln(out)
		case <-ctx.Done():
			return exitcode.Success
		}
	}
}
