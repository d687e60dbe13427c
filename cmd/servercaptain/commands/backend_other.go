//go:build !windows

package commands

import (
	"fmt"

	"github.com/ecairns22/ServerCaptain/internal/runner"
	"github.com/ecairns22/ServerCaptain/internal/service"
	"github.com/ecairns22/ServerCaptain/internal/systemd"
)

func newBackend(name string, r runner.CommandRunner) (service.Backend, error) {
	switch name {
	case "systemd":
		return systemd.New(r), nil
	case "scm":
		return nil, fmt.Errorf("service backend scm is only available on windows")
	default:
		return nil, fmt.Errorf("unknown service backend %q", name)
	}
}
