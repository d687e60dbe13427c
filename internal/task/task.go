// Package task runs one function per goroutine and hands the caller a
// handle to await, cancel or subscribe to its single outcome.
package task

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"github.com/ecairns22/ServerCaptain/internal/log"
)

// PanicError is the error a handle completes with when its function panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Handle is the outcome of a function started with Go.
type Handle[T any] struct {
	id     uuid.UUID
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	finished  bool
	value     T
	err       error
	callbacks []func(T, error)
}

// Go starts fn on a new goroutine. The context passed to fn is canceled by
// Cancel, by the parent ctx, or once fn returns, and carries the task ID as
// a log attribute.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Handle[T] {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle[T]{
		id:     uuid.New(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	ctx = log.ContextAttrs(ctx, slog.String("task_id", h.id.String()))
	go h.run(ctx, fn)
	return h
}

func (h *Handle[T]) run(ctx context.Context, fn func(context.Context) (T, error)) {
	defer h.cancel()

	var (
		v   T
		err error
	)
	func() {
		defer func() {
			if p := recover(); p != nil {
				err = &PanicError{Value: p, Stack: debug.Stack()}
				slog.ErrorContext(ctx, "task panicked", "panic", p)
			}
		}()
		v, err = fn(ctx)
	}()

	h.mu.Lock()
	h.value, h.err, h.finished = v, err, true
	callbacks := h.callbacks
	h.callbacks = nil
	close(h.done)
	h.mu.Unlock()

	for _, cb := range callbacks {
		cb(v, err)
	}
}

// ID identifies the task in logs and history.
func (h *Handle[T]) ID() uuid.UUID {
	return h.id
}

// Done is closed once the outcome is available.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Cancel cancels the context of the running function. The outcome is
// still delivered once the function returns.
func (h *Handle[T]) Cancel() {
	h.cancel()
}

// Wait blocks until the task completes or ctx ends.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the outcome without blocking; ok is false while the task
// is still running.
func (h *Handle[T]) Result() (value T, err error, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value, h.err, h.finished
}

// OnComplete registers fn to receive the outcome exactly once. fn runs on
// the task goroutine, or on the caller's goroutine if the task has already
// completed.
func (h *Handle[T]) OnComplete(fn func(T, error)) {
	h.mu.Lock()
	if !h.finished {
		h.callbacks = append(h.callbacks, fn)
		h.mu.Unlock()
		return
	}
	v, err := h.value, h.err
	h.mu.Unlock()
	fn(v, err)
}
