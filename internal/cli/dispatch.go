// Package cli parses the command line and dispatches to registered commands.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"fstodo/internal/commands"
	"fstodo/internal/config"
	"fstodo/internal/exitcode"
	"fstodo/internal/logging"
	"fstodo/internal/service"
)

// StoreFactory opens the document store selected by cfg.
// Used to inject the backend during dispatch.
type StoreFactory func(ctx context.Context, cfg *config.Config) (service.Store, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  StoreFactory
}

// NewDispatcher creates a new dispatcher with the given registry and store factory.
func NewDispatcher(registry *commands.Registry, factory StoreFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		args = []string{"list"}
	}

	cmdName := args[0]
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args[1:], out, errOut)
}

type commonFlags struct {
	configDir string
	instance  string
	quiet     bool
	debug     bool
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	var common commonFlags
	fs.StringVar(&common.configDir, "config", "", "")
	fs.StringVar(&common.instance, "instance", "", "")
	fs.BoolVar(&common.quiet, "quiet", false, "")
	fs.BoolVar(&common.debug, "debug", false, "")

	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagError(err))
		return exitcode.UserError
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(common.configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = common.quiet
	cfg.Debug = common.debug
	if common.instance != "" {
		cfg.Settings.Instance = common.instance
	}
	cfg.Logger = newLogger(cfg, errOut)

	var store service.Store
	if cmd.NeedsStore() {
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.UserError
		}
		if code := preflight(cfg, errOut); code != exitcode.Success {
			return code
		}
		if d.factory == nil {
			fmt.Fprintln(errOut, "error: backend error: no store available")
			return exitcode.BackendError
		}

		store, err = d.factory(ctx, cfg)
		if err != nil {
			if isAuthError(err) {
				fmt.Fprintf(errOut, "error: auth error: %s\n", err)
				return exitcode.AuthError
			}
			fmt.Fprintf(errOut, "error: backend error: %s\n", err)
			return exitcode.BackendError
		}
		if c, ok := store.(io.Closer); ok {
			defer func() {
				if err := c.Close(); err != nil {
					cfg.Log().Warn("closing store", "err", err)
				}
			}()
		}
		cfg.Log().Debug("store opened", "backend", cfg.Settings.Backend, "instance", cfg.Settings.Instance)
	}

	return cmd.Run(ctx, cfg, store, positionalArgs, out, errOut)
}

// preflight reports missing credentials for the Firestore backend before any
// network call is made.
func preflight(cfg *config.Config, errOut io.Writer) int {
	if cfg.Settings.Backend != config.BackendFirestore {
		return exitcode.Success
	}
	if !cfg.HasOAuthClient() {
		fmt.Fprintf(errOut, "error: %s not found in %s\n", config.OAuthClientFile, cfg.Dir)
		return exitcode.AuthError
	}
	if !cfg.HasToken() {
		fmt.Fprintln(errOut, "error: not logged in (run: fstodo login)")
		return exitcode.AuthError
	}
	return exitcode.Success
}

func newLogger(cfg *config.Config, errOut io.Writer) *log.Logger {
	opts := logging.DefaultOptions()
	if cfg.Settings.Log.Level != "" {
		opts.Level = logging.ParseLevel(cfg.Settings.Log.Level)
	}
	opts.Formatter = logging.ParseFormatter(cfg.Settings.Log.Format)
	if cfg.Debug {
		opts.Level = log.DebugLevel
		opts.ReportTimestamp = true
	}
	return logging.New(errOut, opts)
}

// flagError rewrites flag package errors into the CLI's wording.
func flagError(err error) string {
	errStr := err.Error()
	switch {
	case strings.HasPrefix(errStr, "flag needs an argument:"):
		name := strings.TrimSpace(strings.TrimPrefix(errStr, "flag needs an argument:"))
		return "flag needs an argument: " + name
	case strings.HasPrefix(errStr, "flag provided but not defined:"):
		name := strings.TrimSpace(strings.TrimPrefix(errStr, "flag provided but not defined:"))
		return "unknown flag: " + name
	}
	return errStr
}

func isAuthError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "token") || strings.Contains(msg, "auth") || strings.Contains(msg, "login")
}
