package cli

import (
	"os/signal"
	"syscall"

	"github.com/danmuck/slime/internal/actuator"
	"github.com/danmuck/slime/internal/logging"
	"github.com/spf13/cobra"
)

func NewActuatorCommand(rootOpts *RootOptions) *cobra.Command {
	var socket string

	cmd := &cobra.Command{
		Use:   "actuator",
		Short: "Run a reference actuator that logs every effect it receives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if socket == "" {
				socket = rootOpts.Config.Egress.Socket
			}
			bridge, err := actuator.Listen(socket, actuator.LogSink(logging.Component("actuator")))
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return bridge.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&socket, "socket", "", "unix socket path (defaults to the build egress.socket)")
	return cmd
}

