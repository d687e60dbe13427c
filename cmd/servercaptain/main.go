package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/ecairns22/ServerCaptain/cmd/servercaptain/commands"
	"github.com/ecairns22/ServerCaptain/internal/procexec"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := commands.Root().ExecuteContext(ctx)
	stop()
	if err != nil {
		// Mirror the exit code of a command started with "run".
		var ee *procexec.ExitError
		if errors.As(err, &ee) && ee.Code > 0 {
			os.Exit(ee.Code)
		}
		os.Exit(1)
	}
}
