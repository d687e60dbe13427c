//go:build !unix && !windows

package procexec

import "os/exec"

func configureProc(*exec.Cmd, Spec) {}
