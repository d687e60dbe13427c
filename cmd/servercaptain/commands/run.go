package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecairns22/ServerCaptain/internal/log"
	"github.com/ecairns22/ServerCaptain/internal/procexec"
	"github.com/ecairns22/ServerCaptain/internal/state"
)

func runCmd(opts *globalOptions) *cobra.Command {
	var (
		async bool
		shell bool
		dir   string
	)
	cmd := &cobra.Command{
		Use:   "run <path> [args...]",
		Short: "Run a command, print its output and mirror it to the log file",
		Long: `Run a command and capture its standard output and standard error line by line.

With --shell the command is handed to the configured shell, so path may be a
script or a built-in and args are quoted for that shell. With --async the
command runs as a background task whose ID is printed before the output.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			spec := procexec.Spec{Path: args[0], Args: args[1:], Dir: dir}
			if shell {
				spec = a.cfg.ShellSpec().Command(args[0], args[1:]...)
				spec.Dir = dir
			}

			ctx := cmd.Context()
			started := time.Now()
			r := procexec.NewRunner(a.mirror(), a.logger)
			var out string
			if async {
				h := r.Async(ctx, spec)
				fmt.Fprintf(cmd.ErrOrStderr(), "task %s started\n", h.ID())
				ctx = log.ContextAttrs(ctx, slog.String("task_id", h.ID().String()))
				out, err = h.Wait(ctx)
			} else {
				err = r.Execute(ctx, spec)
				out = r.Output()
			}
			fmt.Fprint(cmd.OutOrStdout(), out)

			a.record(ctx, &state.Operation{
				Kind:       state.KindCommand,
				Target:     args[0],
				Action:     "run",
				Outcome:    commandOutcome(err),
				Detail:     commandDetail(spec, err),
				StartedAt:  started,
				FinishedAt: time.Now(),
			})
			return err
		},
	}
	cmd.Flags().BoolVar(&async, "async", false, "run as a background task and wait for its completion")
	cmd.Flags().BoolVar(&shell, "shell", false, "run through the configured shell")
	cmd.Flags().StringVar(&dir, "dir", "", "working directory for the command")
	// Flags after <path> are passed to the command.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// commandOutcome summarizes a process error for the history.
func commandOutcome(err error) string {
	var ee *procexec.ExitError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ee):
		return "exit-" + strconv.Itoa(ee.Code)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "failed"
	}
}

func commandDetail(spec procexec.Spec, err error) map[string]string {
	d := map[string]string{"command": spec.String()}
	if err != nil {
		d["error"] = err.Error()
	}
	return d
}
