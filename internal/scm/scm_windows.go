//go:build windows

package scm

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"

	"github.com/ecairns22/ServerCaptain/internal/service"
)

// Manager implements service.Backend. It connects to the SCM and opens the
// service afresh on every call.
type Manager struct{}

func New() *Manager {
	return &Manager{}
}

func (m *Manager) Start(_ context.Context, name string) error {
	return withService(name, windows.SERVICE_START, func(s *mgr.Service) error {
		err := s.Start()
		if errors.Is(err, windows.ERROR_SERVICE_ALREADY_RUNNING) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("starting %s: %w", name, classify(err))
		}
		return nil
	})
}

func (m *Manager) Stop(_ context.Context, name string) error {
	return withService(name, windows.SERVICE_STOP, func(s *mgr.Service) error {
		_, err := s.Control(svc.Stop)
		if errors.Is(err, windows.ERROR_SERVICE_NOT_ACTIVE) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("stopping %s: %w", name, classify(err))
		}
		return nil
	})
}

func (m *Manager) Query(_ context.Context, name string) (service.Status, error) {
	status := service.Unknown
	err := withService(name, windows.SERVICE_QUERY_STATUS, func(s *mgr.Service) error {
		st, err := s.Query()
		if err != nil {
			return fmt.Errorf("querying %s: %w", name, classify(err))
		}
		status = mapState(st.State)
		return nil
	})
	return status, err
}

// withService opens name with only the access the operation needs, so
// status queries work without administrator rights.
func withService(name string, access uint32, fn func(*mgr.Service) error) error {
	h, err := windows.OpenSCManager(nil, nil, windows.SC_MANAGER_CONNECT)
	if err != nil {
		return fmt.Errorf("connecting to service manager: %w", classify(err))
	}
	m := &mgr.Mgr{Handle: h}
	defer m.Disconnect()

	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return fmt.Errorf("service name %q: %w", name, err)
	}
	sh, err := windows.OpenService(h, namePtr, access|windows.SERVICE_QUERY_STATUS)
	if err != nil {
		return fmt.Errorf("opening service %s: %w", name, classify(err))
	}
	s := &mgr.Service{Name: name, Handle: sh}
	defer s.Close()

	return fn(s)
}

func mapState(st svc.State) service.Status {
	switch st {
	case svc.Stopped:
		return service.Stopped
	case svc.StartPending:
		return service.StartPending
	case svc.StopPending:
		return service.StopPending
	case svc.Running:
		return service.Running
	case svc.ContinuePending:
		return service.ContinuePending
	case svc.PausePending:
		return service.PausePending
	case svc.Paused:
		return service.Paused
	default:
		return service.Unknown
	}
}

// classify keeps the Windows error and adds the matching service sentinel.
func classify(err error) error {
	switch {
	case errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST):
		return errors.Join(err, service.ErrNotFound)
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		return errors.Join(err, service.ErrAccessDenied)
	default:
		return err
	}
}

var _ service.Backend = (*Manager)(nil)
