// Package serverinfo queries the status of a remote server through a
// helper script.
package serverinfo

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/ecairns22/ServerCaptain/internal/procexec"
	"github.com/ecairns22/ServerCaptain/internal/task"
)

// ErrNoAddress is returned when Query is called without a server address.
var ErrNoAddress = errors.New("server address is required")

// Config locates the helper script and the shell that runs it.
type Config struct {
	ScriptDir string
	Script    string
	Shell     procexec.ShellSpec
}

// Command returns the process spec for querying addr: the shell runs
// <ScriptDir>/<Script> with the script directory and addr as arguments.
func (c Config) Command(addr string) procexec.Spec {
	script := filepath.Join(c.ScriptDir, c.Script)
	spec := c.Shell.Command(c.Shell.Quote(script), c.ScriptDir, addr)
	spec.Dir = c.ScriptDir
	return spec
}

// Query starts the helper script for addr on its own goroutine. The handle
// completes with the script's combined output. Every line is also copied to
// mirror, which may be nil.
func Query(ctx context.Context, cfg Config, addr string, mirror procexec.LineWriter, logger *slog.Logger) *task.Handle[string] {
	return task.Go(ctx, func(ctx context.Context) (string, error) {
		if addr == "" {
			return "", ErrNoAddress
		}
		r := procexec.NewRunner(mirror, logger)
		err := r.Execute(ctx, cfg.Command(addr))
		return r.Output(), err
	})
}
