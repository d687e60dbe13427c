// Package service starts, stops and queries named OS services and waits,
// for a bounded time, for them to reach the requested state.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecairns22/ServerCaptain/internal/task"
)

const DefaultPollInterval = 250 * time.Millisecond

var errWaitTimeout = errors.New("timed out waiting for service state")

// Backend talks to the OS service manager. Implementations look the service
// up on every call and wrap ErrNotFound and ErrAccessDenied where they apply.
type Backend interface {
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	Query(ctx context.Context, name string) (Status, error)
}

// Diagnoser is implemented by backends that can explain why a service did
// not reach its target state, e.g. with a log tail.
type Diagnoser interface {
	Diagnose(ctx context.Context, name string) (string, error)
}

// Controller runs service operations against a Backend.
type Controller struct {
	backend Backend
	poll    time.Duration
	logger  *slog.Logger
}

// New creates a Controller polling at the given interval while waiting for
// a state change. A non-positive interval selects DefaultPollInterval.
func New(b Backend, pollInterval time.Duration, logger *slog.Logger) *Controller {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{backend: b, poll: pollInterval, logger: logger}
}

// Start requests the service to start and waits up to timeout for it to be
// Running.
func (c *Controller) Start(ctx context.Context, name string, timeout time.Duration) Result {
	return c.transition(ctx, OpStart, name, timeout, Running, c.backend.Start)
}

// Stop requests the service to stop and waits up to timeout for it to be
// Stopped.
func (c *Controller) Stop(ctx context.Context, name string, timeout time.Duration) Result {
	return c.transition(ctx, OpStop, name, timeout, Stopped, c.backend.Stop)
}

// Status reads the current status without waiting.
func (c *Controller) Status(ctx context.Context, name string) Result {
	res := Result{Op: OpStatus, Name: name}
	if name == "" {
		res.Kind = KindNotSet
		return res
	}
	status, err := c.backend.Query(ctx, name)
	if err != nil {
		res.Kind = classify(err)
		res.Err = fmt.Errorf("querying %s: %w", name, err)
		c.logger.WarnContext(ctx, "service status failed", "service", name, "error", err)
		return res
	}
	res.Kind = KindOK
	res.Status = status
	return res
}

// Async runs op on its own goroutine. timeout is ignored for OpStatus.
func (c *Controller) Async(ctx context.Context, op Op, name string, timeout time.Duration) *task.Handle[Result] {
	return task.Go(ctx, func(ctx context.Context) (Result, error) {
		switch op {
		case OpStart:
			return c.Start(ctx, name, timeout), nil
		case OpStop:
			return c.Stop(ctx, name, timeout), nil
		case OpStatus:
			return c.Status(ctx, name), nil
		default:
			return Result{}, fmt.Errorf("unknown service operation %q", op)
		}
	})
}

// Diagnose returns backend diagnostics for name, or an empty string if the
// backend has none.
func (c *Controller) Diagnose(ctx context.Context, name string) string {
	d, ok := c.backend.(Diagnoser)
	if !ok || name == "" {
		return ""
	}
	out, err := d.Diagnose(ctx, name)
	if err != nil {
		c.logger.DebugContext(ctx, "collecting diagnostics failed", "service", name, "error", err)
		return ""
	}
	return out
}

func (c *Controller) transition(ctx context.Context, op Op, name string, timeout time.Duration, target Status, request func(context.Context, string) error) Result {
	res := Result{Op: op, Name: name}
	if name == "" {
		res.Kind = KindNotSet
		return res
	}
	logger := c.logger.With("service", name, "op", string(op))

	if err := request(ctx, name); err != nil {
		res.Kind = classify(err)
		res.Err = fmt.Errorf("%s %s: %w", op, name, err)
		logger.WarnContext(ctx, "service request failed", "error", err)
		return res
	}

	status, err := c.waitFor(ctx, name, target, timeout)
	res.Status = status
	switch {
	case err == nil:
		res.Kind = KindOK
		logger.InfoContext(ctx, "service reached target state", "status", status.String())
	case errors.Is(err, errWaitTimeout):
		res.Kind = KindTimeout
		res.Err = fmt.Errorf("%s did not become %s within %s: %w", name, target, timeout, err)
		logger.WarnContext(ctx, "timed out waiting for service", "target", target.String(), "status", status.String(), "timeout", timeout)
	default:
		res.Kind = classify(err)
		res.Err = fmt.Errorf("waiting for %s: %w", name, err)
		logger.WarnContext(ctx, "waiting for service failed", "error", err)
	}
	return res
}

// waitFor polls until the service reports target or timeout elapses, and
// returns the last status observed. The deadline also bounds each query.
func (c *Controller) waitFor(ctx context.Context, name string, target Status, timeout time.Duration) (Status, error) {
	if timeout <= 0 {
		status, err := c.backend.Query(ctx, name)
		if err != nil {
			return Unknown, err
		}
		if status != target {
			return status, errWaitTimeout
		}
		return status, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	last := Unknown
	for {
		status, err := c.backend.Query(waitCtx, name)
		switch {
		case err == nil:
			last = status
			if status == target {
				return status, nil
			}
		case ctx.Err() != nil:
			return last, ctx.Err()
		case waitCtx.Err() != nil:
			return last, errWaitTimeout
		default:
			return last, err
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return last, ctx.Err()
			}
			return last, errWaitTimeout
		case <-ticker.C:
		}
	}
}
