// Package runner executes short helper commands (systemctl, journalctl)
// whose complete output is needed at once.
package runner

import (
	"bytes"
	"context"
	"os/exec"
)

// CommandRunner abstracts command execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// OSRunner executes commands via os/exec.
type OSRunner struct {
	// Env is appended to the inherited environment, e.g. LC_ALL=C to keep
	// tool output parseable.
	Env []string
}

func (r *OSRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return outBuf.String(), errBuf.String(), err
}
