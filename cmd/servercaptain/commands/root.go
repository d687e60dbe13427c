package commands

import (
	"github.com/spf13/cobra"
)

// Root returns the root cobra command with all subcommands attached.
func Root() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "servercaptain",
		Short:         "Run server scripts and control OS services",
		Long:          "ServerCaptain runs maintenance commands with their output mirrored to a log file, starts and stops OS services with bounded waits, and keeps a history of both.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $SERVERCAPTAIN_CONFIG or /etc/servercaptain/servercaptain.conf)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug diagnostics to stderr")

	cmd.AddCommand(initCmd(opts))
	cmd.AddCommand(runCmd(opts))
	cmd.AddCommand(serverInfoCmd(opts))
	cmd.AddCommand(serviceCmd(opts))
	cmd.AddCommand(historyCmd(opts))
	cmd.AddCommand(versionCmd(opts))

	return cmd
}
