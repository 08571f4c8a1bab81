// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"fstodo/internal/config"
	"fstodo/internal/repository"
	"fstodo/internal/service"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsStore returns true if the command reads or writes documents.
	// Commands like help, version, theme, login, logout return false.
	NeedsStore() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths, settings, logger).
	// store is nil if NeedsStore() returns false.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int
}

// newRepository builds a repository for the configured user and instance.
func newRepository(cfg *config.Config, store service.Store) *repository.Repository {
	return repository.New(store, cfg.Settings.User, cfg.Settings.Instance,
		repository.WithLogger(cfg.Log()))
}

// attachRepository builds a repository and waits for its first snapshot.
// The returned cancel ends the subscription.
func attachRepository(ctx context.Context, cfg *config.Config, store service.Store) (*repository.Repository, context.CancelFunc, error) {
	ctx, cancel := context.WithCancel(ctx)
	repo := newRepository(cfg, store)
	if err := repo.Attach(ctx); err != nil {
		cancel()
		return nil, nil, err
	}
	return repo, cancel, nil
}
