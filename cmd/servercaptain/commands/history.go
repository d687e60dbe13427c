package commands

import (
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

const historyTimeLayout = "2006-01-02 15:04:05"

func historyCmd(opts *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [target]",
		Short: "Show recorded service operations and command runs, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			var target string
			if len(args) == 1 {
				target = args[0]
			}
			ops, err := store.List(cmd.Context(), target, limit)
			if err != nil {
				return err
			}

			if len(ops) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No operations recorded.")
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Started", "Kind", "Target", "Action", "Outcome", "Duration", "Result"})
			table.SetAutoWrapText(false)
			table.SetBorder(false)
			for _, op := range ops {
				result := op.Result
				if result == "" {
					result = "-"
				}
				table.Append([]string{
					op.StartedAt.Local().Format(historyTimeLayout),
					op.Kind,
					op.Target,
					op.Action,
					op.Outcome,
					op.FinishedAt.Sub(op.StartedAt).Round(time.Millisecond).String(),
					result,
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of operations to show (0 for all)")
	return cmd
}
