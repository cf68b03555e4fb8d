// Package cli wires the slime commands.
package cli

import (
	"github.com/danmuck/slime/internal/config"
	"github.com/danmuck/slime/internal/logging"
	"github.com/spf13/cobra"
)

// Version is stamped at link time with -ldflags "-X".
var Version = "dev"

// RootOptions carries state shared by every command.
type RootOptions struct {
	Config config.Config
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "slime",
		Short:         "slime - fail-closed actuation gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Build()
			if err != nil {
				return err
			}
			opts.Config = cfg
			logging.ConfigureRuntime(cfg.LogLevel)
			return nil
		},
	}

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewActuatorCommand(opts))
	cmd.AddCommand(NewDomainIDCommand())
	cmd.AddCommand(NewVersionCommand())
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}
