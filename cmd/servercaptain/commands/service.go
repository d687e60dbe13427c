package commands

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ecairns22/ServerCaptain/internal/service"
	"github.com/ecairns22/ServerCaptain/internal/state"
)

func serviceCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Start, stop or query an OS service",
	}
	cmd.AddCommand(serviceOpCmd(opts, service.OpStart, "Start a service and wait until it is running"))
	cmd.AddCommand(serviceOpCmd(opts, service.OpStop, "Stop a service and wait until it has stopped"))
	cmd.AddCommand(serviceOpCmd(opts, service.OpStatus, "Print the current status of a service"))
	return cmd
}

func serviceOpCmd(opts *globalOptions, op service.Op, short string) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   string(op) + " [name]",
		Short: short,
		Long:  short + ".\n\nThe name defaults to service.name from the config file.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			ctrl, err := a.controller()
			if err != nil {
				return err
			}

			name := a.cfg.Service.Name
			if len(args) == 1 {
				name = args[0]
			}
			if !cmd.Flags().Changed("timeout") {
				timeout = a.cfg.ServiceTimeout()
			}

			ctx := cmd.Context()
			started := time.Now()
			res, err := ctrl.Async(ctx, op, name, timeout).Wait(ctx)
			if err != nil {
				return err
			}
			if res.Kind == service.KindTimeout {
				res.Detail = ctrl.Diagnose(ctx, name)
			}

			printResult(cmd.OutOrStdout(), res)

			if name != "" {
				a.record(ctx, serviceOperation(res, timeout, started))
			}
			if !res.OK() {
				return fmt.Errorf("service %s %s: %s", op, name, res.Kind)
			}
			return nil
		},
	}
	if op != service.OpStatus {
		cmd.Flags().DurationVar(&timeout, "timeout", 0, "how long to wait for the service (default service.timeout_ms)")
	}
	return cmd
}

func printResult(w io.Writer, res service.Result) {
	c := color.New(color.FgRed)
	switch res.Kind {
	case service.KindOK:
		c = color.New(color.FgGreen)
	case service.KindTimeout, service.KindNotSet:
		c = color.New(color.FgYellow)
	}
	c.Fprintln(w, res.String())
	if res.Detail != "" {
		fmt.Fprintln(w, res.Detail)
	}
}

func serviceOperation(res service.Result, timeout time.Duration, started time.Time) *state.Operation {
	detail := map[string]string{"status": res.Status.String()}
	if res.Op != service.OpStatus {
		detail["timeout_ms"] = strconv.FormatInt(timeout.Milliseconds(), 10)
	}
	if res.Err != nil {
		detail["error"] = res.Err.Error()
	}
	if res.Detail != "" {
		detail["diagnostics"] = res.Detail
	}
	return &state.Operation{
		Kind:       state.KindService,
		Target:     res.Name,
		Action:     string(res.Op),
		Outcome:    string(res.Kind),
		Result:     res.String(),
		Detail:     detail,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
}
