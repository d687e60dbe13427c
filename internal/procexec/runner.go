// Package procexec runs child processes and captures their combined
// standard output and standard error line by line.
package procexec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ecairns22/ServerCaptain/internal/task"
)

const (
	// Longer lines are split into pieces of this size.
	maxLineBytes = 1024 * 1024
	// How long Wait keeps reading output after the process has exited or
	// been killed.
	waitDelay = 2 * time.Second
)

// LineWriter receives every captured line, e.g. a log file mirror.
type LineWriter interface {
	WriteLine(line string)
}

// ExitError reports a process that ran but exited with a non-zero code.
// The captured output is still available from the runner.
type ExitError struct {
	Path string
	Code int
	err  *exec.ExitError
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Path, e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.err
}

// Runner executes processes one at a time and keeps their output.
type Runner struct {
	mirror LineWriter
	logger *slog.Logger

	mu  sync.Mutex // held for the duration of Execute
	buf Buffer
}

// NewRunner returns a Runner that copies every captured line to mirror.
// mirror and logger may be nil.
func NewRunner(mirror LineWriter, logger *slog.Logger) *Runner {
	if mirror == nil {
		mirror = discard{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{mirror: mirror, logger: logger}
}

// Output returns the text captured so far.
func (r *Runner) Output() string {
	return r.buf.String()
}

// Buffer returns the runner's output buffer.
func (r *Runner) Buffer() *Buffer {
	return &r.buf
}

// Execute starts the process described by spec, captures both streams until
// they close and waits for the process to exit. Failure to start the process
// is returned as is; a non-zero exit is returned as *ExitError.
func (r *Runner) Execute(ctx context.Context, spec Spec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !spec.Append {
		r.buf.Reset()
	}

	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.WaitDelay = waitDelay
	configureProc(cmd, spec)
	var killed atomic.Bool
	kill := cmd.Cancel
	cmd.Cancel = func() error {
		killed.Store(true)
		return kill()
	}

	// exec copies each stream into a pipe we drain line by line. Wait
	// closes the OS pipes after waitDelay even if a descendant still holds
	// them, so capture always ends.
	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	var g errgroup.Group
	g.Go(func() error { return r.capture(stdoutR) })
	g.Go(func() error { return r.capture(stderrR) })

	started := time.Now()
	if err := cmd.Start(); err != nil {
		stdoutW.Close()
		stderrW.Close()
		_ = g.Wait()
		return fmt.Errorf("starting %s: %w", spec.Path, err)
	}
	logger := r.logger.With("path", spec.Path, "pid", cmd.Process.Pid)
	logger.DebugContext(ctx, "process started", "args", spec.Args)

	waitErr := cmd.Wait()
	stdoutW.Close()
	stderrW.Close()
	readErr := g.Wait()

	logger.DebugContext(ctx, "process exited",
		"exit_code", cmd.ProcessState.ExitCode(),
		"duration", time.Since(started),
		"output_bytes", r.buf.Len())

	if errors.Is(waitErr, exec.ErrWaitDelay) {
		logger.WarnContext(ctx, "process exited but a child kept its output open; stopped reading", "wait_delay", waitDelay)
		waitErr = nil
	}
	if waitErr != nil {
		// A ctx that ends after the process exited does not hide its result.
		if killed.Load() {
			return fmt.Errorf("running %s: %w", spec.Path, ctx.Err())
		}
		var ee *exec.ExitError
		if errors.As(waitErr, &ee) {
			return &ExitError{Path: spec.Path, Code: ee.ExitCode(), err: ee}
		}
		return fmt.Errorf("waiting for %s: %w", spec.Path, waitErr)
	}
	if readErr != nil {
		return fmt.Errorf("reading output of %s: %w", spec.Path, readErr)
	}
	return nil
}

func (r *Runner) capture(rd io.Reader) error {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	sc.Split(scanLines)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		r.buf.Append(line)
		r.mirror.WriteLine(line)
	}
	if err := sc.Err(); err != nil {
		// keep the writer from blocking on a full pipe
		_, _ = io.Copy(io.Discard, rd)
		return err
	}
	return nil
}

// scanLines is bufio.ScanLines, except that a line longer than
// maxLineBytes is returned in maxLineBytes pieces.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	advance, token, err = bufio.ScanLines(data, atEOF)
	if advance == 0 && token == nil && err == nil && len(data) >= maxLineBytes {
		return maxLineBytes, data[:maxLineBytes], nil
	}
	return advance, token, err
}

// Async runs spec on its own goroutine with a fresh Runner sharing this
// runner's mirror and logger, and completes with the captured output.
func (r *Runner) Async(ctx context.Context, spec Spec) *task.Handle[string] {
	return task.Go(ctx, func(ctx context.Context) (string, error) {
		sub := NewRunner(r.mirror, r.logger)
		err := sub.Execute(ctx, spec)
		return sub.Output(), err
	})
}

type discard struct{}

func (discard) WriteLine(string) {}
