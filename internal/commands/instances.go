package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"fstodo/internal/config"
	"fstodo/internal/exitcode"
	"fstodo/internal/output"
	"fstodo/internal/repository"
	"fstodo/internal/service"
)

func init() {
	Register(&InstancesCmd{})
	Register(&CreateInstanceCmd{})
	Register(&JoinCmd{})
	Register(&UseCmd{})
}

// InstancesCmd implements the instances command.
type InstancesCmd struct{}

func (c *InstancesCmd) Name() string      { return "instances" }
func (c *InstancesCmd) Aliases() []string { return nil }
func (c *InstancesCmd) Synopsis() string  { return "Print instances you created or joined" }
func (c *InstancesCmd) Usage() string     { return "fstodo instances [common flags]" }
func (c *InstancesCmd) NeedsStore() bool  { return true }

func (c *InstancesCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *InstancesCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	members, err := newRepository(cfg, store).Instances(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	if len(members) == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "no instances (run: fstodo createinstance <name> or fstodo join <code>)")
	}
	for _, m := range members {
		output.FormatMembership(out, m, m.InstanceID == cfg.Settings.Instance)
	}
	return exitcode.Success
}

// CreateInstanceCmd implements the createinstance command.
type CreateInstanceCmd struct {
	use bool
}

func (c *CreateInstanceCmd) Name() string      { return "createinstance" }
func (c *CreateInstanceCmd) Aliases() []string { return nil }
func (c *CreateInstanceCmd) Synopsis() string  { return "Create a shared instance" }
func (c *CreateInstanceCmd) Usage() string {
	return "fstodo createinstance [common flags] [--use] <name>"
}
func (c *CreateInstanceCmd) NeedsStore() bool { return true }

func (c *CreateInstanceCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.use, "use", false, "")
}

func (c *CreateInstanceCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		fmt.Fprintln(errOut, "error: instance name required")
		return exitcode.UserError
	}

	m, err := newRepository(cfg, store).CreateInstance(ctx, name)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	if c.use {
		if code := switchInstance(cfg, m.InstanceID, errOut); code != exitcode.Success {
			return code
		}
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "created %s (code: %s)\n", m.InstanceName, m.InstanceID)
	}
	return exitcode.Success
}

// JoinCmd implements the join command.
type JoinCmd struct {
	use bool
}

func (c *JoinCmd) Name() string      { return "join" }
func (c *JoinCmd) Aliases() []string { return nil }
func (c *JoinCmd) Synopsis() string  { return "Join an instance by its code" }
func (c *JoinCmd) Usage() string     { return "fstodo join [common flags] [--use] <code>" }
func (c *JoinCmd) NeedsStore() bool  { return true }

func (c *JoinCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.use, "use", false, "")
}

func (c *JoinCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(errOut, "error: instance code required")
		return exitcode.UserError
	}

	m, err := newRepository(cfg, store).JoinInstance(ctx, args[0])
	if errors.Is(err, repository.ErrInstanceNotFound) {
		fmt.Fprintf(errOut, "error: instance does not exist: %s\n", strings.TrimSpace(args[0]))
		return exitcode.UserError
	}
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	if c.use {
		if code := switchInstance(cfg, m.InstanceID, errOut); code != exitcode.Success {
			return code
		}
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "joined %s\n", m.InstanceName)
	}
	return exitcode.Success
}

// UseCmd implements the use command. It makes an instance the active one.
type UseCmd struct{}

func (c *UseCmd) Name() string      { return "use" }
func (c *UseCmd) Aliases() []string { return nil }
func (c *UseCmd) Synopsis() string  { return "Switch the active instance" }
func (c *UseCmd) Usage() string     { return "fstodo use [common flags] <code>" }
func (c *UseCmd) NeedsStore() bool  { return true }

func (c *UseCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UseCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(errOut, "error: instance code required")
		return exitcode.UserError
	}
	code := strings.TrimSpace(args[0])

	members, err := newRepository(cfg, store).Instances(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
	var found *repository.Membership
	for i := range members {
		if members[i].InstanceID == code {
			found = &members[i]
		}
	}
	if found == nil {
		fmt.Fprintf(errOut, "error: not a member of instance: %s (run: fstodo join %s)\n", code, code)
		return exitcode.UserError
	}

	if rc := switchInstance(cfg, code, errOut); rc != exitcode.Success {
		return rc
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "using %s\n", found.InstanceName)
	}
	return exitcode.Success
}

// switchInstance saves code as the active instance in config.yaml.
func switchInstance(cfg *config.Config, code string, errOut io.Writer) int {
	cfg.Settings.Instance = code
	if err := cfg.Save(); err != nil {
		fmt.Fprintf(errOut, "error: failed to save %s: %v\n", config.SettingsFile, err)
		return exitcode.UserError
	}
	return exitcode.Success
}
