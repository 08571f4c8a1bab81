// Package main is the entry point for the fstodo CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fstodo/internal/backend/firestore"
	"fstodo/internal/backend/sqlite"
	"fstodo/internal/cli"
	"fstodo/internal/commands"
	"fstodo/internal/config"
	"fstodo/internal/service"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, openStore)
	os.Exit(dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// openStore opens the backend named in config.yaml.
func openStore(ctx context.Context, cfg *config.Config) (service.Store, error) {
	if cfg.Settings.Backend == config.BackendFirestore {
		client, err := firestore.New(ctx, cfg, cfg.Log())
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	backend, err := sqlite.New(cfg.Settings.SQLite.Path, cfg.Log())
	if err != nil {
		return nil, err
	}
	return backend, nil
}
