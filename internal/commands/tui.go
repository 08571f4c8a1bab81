package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"fstodo/internal/config"
	"fstodo/internal/exitcode"
	"fstodo/internal/prefs"
	"fstodo/internal/repository"
	"fstodo/internal/service"
	"fstodo/internal/tui"
)

func init() {
	Register(&TUICmd{})
}

// TUICmd implements the tui command.
type TUICmd struct {
	noHelp bool
	in     io.Reader
}

// SetInput sets the program input (for testing).
func (c *TUICmd) SetInput(r io.Reader) {
	c.in = r
}

func (c *TUICmd) Name() string      { return "tui" }
func (c *TUICmd) Aliases() []string { return nil }
func (c *TUICmd) Synopsis() string  { return "Open the interactive view" }
func (c *TUICmd) Usage() string     { return "fstodo tui [common flags] [--no-help]" }
func (c *TUICmd) NeedsStore() bool  { return true }

func (c *TUICmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.noHelp, "no-help", false, "")
}

func (c *TUICmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	// Log lines on stderr would tear the view, so they go to a file while it runs
	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	logFile, err := os.OpenFile(cfg.TUILogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	defer logFile.Close()

	viewCfg := *cfg
	viewCfg.Logger = cfg.Log().With()
	viewCfg.Logger.SetOutput(logFile)
	cfg = &viewCfg

	repo, cancel, err := attachRepository(ctx, cfg, store)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
	defer cancel()

	title := "fstodo"
	if cfg.Settings.Instance != "" {
		title += " · " + cfg.Settings.Instance
	}
	model := tui.New(ctx, repository.NewSession(repo), prefs.NewFileStore(cfg.PrefsPath()),
		tui.WithTitle(title),
		tui.WithFooter(!c.noHelp),
		tui.WithLogger(cfg.Log()),
	)

	in := c.in
	if in == nil {
		in = os.Stdin
	}
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
