package cli

import (
	"fmt"

	"github.com/danmuck/slime/internal/abi"
	"github.com/danmuck/slime/internal/config"
	"github.com/danmuck/slime/internal/engine"
	"github.com/danmuck/slime/internal/protocol/schema"
	"github.com/spf13/cobra"
)

func NewDomainIDCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "domain-id <domain>",
		Short: "Print the 32-bit domain id policies see for a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain := []byte(args[0])
			if !schema.ValidDomain(domain) {
				return fmt.Errorf("invalid domain %q: use [A-Za-z0-9_-]", args[0])
			}
			id := abi.DomainID(domain)
			fmt.Fprintf(cmd.OutOrStdout(), "0x%08x %d\n", id, id)
			return nil
		},
	}
}

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version, engine variant and policy fingerprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := engine.New()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "slime %s variant=%s policy=%s\n", Version, eng.Variant(), eng.Fingerprint())
			return nil
		},
	}
}

func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the configuration compiled into this binary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := config.Render(rootOpts.Config)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(doc)
			return err
		},
	}
}
