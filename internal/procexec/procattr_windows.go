//go:build windows

package procexec

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// configureProc hides the console window and hands cmd.exe its command
// line verbatim. Cancellation kills only the direct child; descendants that
// keep its output open are cut off by the runner's WaitDelay.
func configureProc(cmd *exec.Cmd, spec Spec) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
		CmdLine:       spec.rawLine,
	}
}
