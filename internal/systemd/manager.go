package systemd

import (
	"context"
	"fmt"
	"strings"

	"github.com/ecairns22/ServerCaptain/internal/runner"
	"github.com/ecairns22/ServerCaptain/internal/service"
)

const journalLines = 20

// Manager controls systemd units through systemctl.
type Manager struct {
	runner runner.CommandRunner
}

// New creates a systemd manager with the given command runner.
func New(r runner.CommandRunner) *Manager {
	return &Manager{runner: r}
}

var unitSuffixes = []string{".service", ".socket", ".target", ".timer", ".mount", ".path", ".scope", ".slice"}

func unitName(name string) string {
	for _, s := range unitSuffixes {
		if strings.HasSuffix(name, s) {
			return name
		}
	}
	return name + ".service"
}

// Start runs systemctl start without waiting for the job to finish.
func (m *Manager) Start(ctx context.Context, name string) error {
	_, stderr, err := m.runner.Run(ctx, "systemctl", "start", "--no-block", unitName(name))
	if err != nil {
		return commandError("starting", name, stderr, err)
	}
	return nil
}

// Stop runs systemctl stop without waiting for the job to finish.
func (m *Manager) Stop(ctx context.Context, name string) error {
	_, stderr, err := m.runner.Run(ctx, "systemctl", "stop", "--no-block", unitName(name))
	if err != nil {
		return commandError("stopping", name, stderr, err)
	}
	return nil
}

// Query maps the unit's load, active and freezer state to a service.Status.
func (m *Manager) Query(ctx context.Context, name string) (service.Status, error) {
	stdout, stderr, err := m.runner.Run(ctx, "systemctl", "show", "-p", "LoadState,ActiveState,FreezerState", unitName(name))
	if err != nil {
		return service.Unknown, commandError("querying", name, stderr, err)
	}

	props := parseProperties(stdout)
	if props["LoadState"] == "not-found" {
		return service.Unknown, fmt.Errorf("unit %s: %w", unitName(name), service.ErrNotFound)
	}
	return mapState(props["ActiveState"], props["FreezerState"]), nil
}

// Diagnose returns the tail of the unit's journal.
func (m *Manager) Diagnose(ctx context.Context, name string) (string, error) {
	return m.JournalTail(ctx, name, journalLines)
}

// JournalTail returns the last n lines of journal output for the service.
func (m *Manager) JournalTail(ctx context.Context, name string, lines int) (string, error) {
	stdout, _, err := m.runner.Run(ctx, "journalctl", "-u", unitName(name), "-n", fmt.Sprintf("%d", lines), "--no-pager")
	if err != nil {
		return "", fmt.Errorf("reading journal for %s: %w", name, err)
	}
	return stdout, nil
}

func parseProperties(out string) map[string]string {
	props := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
		if ok {
			props[k] = v
		}
	}
	return props
}

func mapState(active, freezer string) service.Status {
	switch freezer {
	case "frozen":
		return service.Paused
	case "freezing":
		return service.PausePending
	case "thawing":
		return service.ContinuePending
	}
	switch active {
	case "active", "reloading":
		return service.Running
	case "activating":
		return service.StartPending
	case "deactivating":
		return service.StopPending
	case "inactive", "failed":
		return service.Stopped
	default:
		return service.Unknown
	}
}

func commandError(action, name, stderr string, err error) error {
	msg := strings.TrimSpace(stderr)
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "access denied"),
		strings.Contains(lower, "interactive authentication required"),
		strings.Contains(lower, "not authorized"):
		return fmt.Errorf("%s %s: %s: %w", action, name, msg, service.ErrAccessDenied)
	case strings.Contains(lower, "not found"),
		strings.Contains(lower, "not loaded"),
		strings.Contains(lower, "does not exist"):
		return fmt.Errorf("%s %s: %s: %w", action, name, msg, service.ErrNotFound)
	}
	if msg == "" {
		return fmt.Errorf("%s %s: %w", action, name, err)
	}
	return fmt.Errorf("%s %s: %s: %w", action, name, msg, err)
}

var (
	_ service.Backend   = (*Manager)(nil)
	_ service.Diagnoser = (*Manager)(nil)
)
