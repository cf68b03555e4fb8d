package cli

import (
	"fmt"

	"github.com/danmuck/slime/internal/boot"
	"github.com/danmuck/slime/internal/engine"
	"github.com/spf13/cobra"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Open the egress channel, then accept action requests",
		Long: `Dial the actuator socket and, only once it is connected, bind the
ingress port and the read-only dashboard. A missing actuator exits with
status 1 before any port is bound.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := engine.New()
			if err != nil {
				return fmt.Errorf("load engine: %w", err)
			}
			return boot.New(rootOpts.Config, eng).Run()
		},
	}
}
