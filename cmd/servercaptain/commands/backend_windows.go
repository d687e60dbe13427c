//go:build windows

package commands

import (
	"fmt"

	"github.com/ecairns22/ServerCaptain/internal/runner"
	"github.com/ecairns22/ServerCaptain/internal/scm"
	"github.com/ecairns22/ServerCaptain/internal/service"
)

func newBackend(name string, _ runner.CommandRunner) (service.Backend, error) {
	switch name {
	case "scm":
		return scm.New(), nil
	case "systemd":
		return nil, fmt.Errorf("service backend systemd is not available on windows")
	default:
		return nil, fmt.Errorf("unknown service backend %q", name)
	}
}
