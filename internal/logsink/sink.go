// Package logsink mirrors captured process output into an append-only log
// file. A Sink owns its file and performs every write from a single
// goroutine; producers hand lines over a channel.
package logsink

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

const (
	DefaultHeader = "Command output:"
	defaultBuffer = 256
	timeLayout    = "2006-01-02 15:04:05"
)

// Config describes where and how a Sink writes.
type Config struct {
	Path   string
	Header string // written once, before the first line; DefaultHeader if empty
	Buffer int    // pending lines before WriteLine blocks; defaultBuffer if <= 0
}

// Sink is an append-only file mirror of output lines.
type Sink struct {
	path   string
	header string
	logger *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	closed bool
	lines  chan string
	done   chan struct{}
}

// New creates a Sink and starts its writer goroutine. The file is not
// opened until the first line arrives.
func New(cfg Config, logger *slog.Logger) *Sink {
	if cfg.Header == "" {
		cfg.Header = DefaultHeader
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sink{
		path:   cfg.Path,
		header: cfg.Header,
		logger: logger.With("log_file", cfg.Path),
		now:    time.Now,
		lines:  make(chan string, cfg.Buffer),
		done:   make(chan struct{}),
	}
	go s.loop()
	return s
}

// WriteLine queues line for writing. Empty lines and lines written after
// Close are dropped.
func (s *Sink) WriteLine(line string) {
	if line == "" {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	s.lines <- line
}

// Close stops accepting lines, waits for pending lines to be written and
// closes the file. It returns ctx.Err() if ctx ends first; the writer keeps
// draining in the background in that case.
func (s *Sink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.lines)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sink) loop() {
	defer close(s.done)

	var (
		f         *os.File
		w         *bufio.Writer
		attempted bool
	)
	defer func() {
		if f != nil {
			if err := f.Close(); err != nil {
				s.logger.Error("closing log file", "error", err)
			}
		}
	}()

	for line := range s.lines {
		if !attempted {
			attempted = true
			var err error
			f, err = os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				s.logger.Error("could not open log file; output will not be mirrored", "error", err)
				f = nil
				continue
			}
			w = bufio.NewWriter(f)
			fmt.Fprintf(w, "\n%s\n%s\n", s.now().Format(timeLayout), s.header)
		}
		if w == nil {
			continue
		}
		w.WriteString(line)
		w.WriteByte('\n')
		if err := w.Flush(); err != nil {
			s.logger.Warn("writing log file", "error", err)
		}
	}
}

// Discard is a line writer that drops everything.
type Discard struct{}

func (Discard) WriteLine(string) {}
