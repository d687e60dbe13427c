package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecairns22/ServerCaptain/internal/serverinfo"
	"github.com/ecairns22/ServerCaptain/internal/state"
)

func serverInfoCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "server-info <address[:port]>",
		Short: "Query a game server's status with the server info script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			cfg := serverinfo.Config{
				ScriptDir: a.cfg.Scripts.Dir,
				Script:    a.cfg.Scripts.ServerInfo,
				Shell:     a.cfg.ShellSpec(),
			}
			addr := args[0]
			started := time.Now()
			out, err := serverinfo.Query(cmd.Context(), cfg, addr, a.mirror(), a.logger).Wait(cmd.Context())
			fmt.Fprint(cmd.OutOrStdout(), out)

			a.record(cmd.Context(), &state.Operation{
				Kind:       state.KindCommand,
				Target:     addr,
				Action:     "server-info",
				Outcome:    commandOutcome(err),
				Detail:     commandDetail(cfg.Command(addr), err),
				StartedAt:  started,
				FinishedAt: time.Now(),
			})
			return err
		},
	}
}
