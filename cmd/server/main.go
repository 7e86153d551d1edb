package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "writer-backend",
		Short: "Local backend for LMMs-Lab Writer",
		Long: `Local backend for LMMs-Lab Writer.

Hosts interactive terminal sessions, supervises the OpenCode assistant
server and watches the open project for file changes. Notifications are
streamed to the UI over a WebSocket at /stream.

Settings come from WRITER_* environment variables. Flags override them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serve := newServeCmd()
	root.AddCommand(serve, newDoctorCmd())

	// Running without a subcommand serves.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}
