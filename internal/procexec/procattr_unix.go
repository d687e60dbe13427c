//go:build unix

package procexec

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// configureProc starts the child in its own process group so that
// cancellation also kills whatever the child started, e.g. the background
// jobs of a shell script.
func configureProc(cmd *exec.Cmd, _ Spec) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
}
