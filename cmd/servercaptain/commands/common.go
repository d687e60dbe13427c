package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ecairns22/ServerCaptain/internal/config"
	"github.com/ecairns22/ServerCaptain/internal/log"
	"github.com/ecairns22/ServerCaptain/internal/logsink"
	"github.com/ecairns22/ServerCaptain/internal/procexec"
	"github.com/ecairns22/ServerCaptain/internal/runner"
	"github.com/ecairns22/ServerCaptain/internal/service"
	"github.com/ecairns22/ServerCaptain/internal/state"
)

const sinkCloseTimeout = 5 * time.Second

type globalOptions struct {
	configPath string
	verbose    bool
}

// app holds what a command needs after config has been loaded.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	sink   *logsink.Sink // nil when log.file is empty
}

func loadConfig(opts *globalOptions) (*config.Config, error) {
	if opts.configPath != "" {
		return config.LoadFrom(opts.configPath)
	}
	return config.Load()
}

// buildApp loads config and sets up logging. The caller must call close.
func buildApp(opts *globalOptions, stderr io.Writer) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("config: log.level: %w", err)
	}
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := log.New(level, stderr)

	a := &app{cfg: cfg, logger: logger}
	if cfg.Log.File != "" {
		a.sink = logsink.New(logsink.Config{Path: cfg.Log.File, Header: cfg.Log.Header}, logger)
	}
	return a, nil
}

// mirror returns where captured process output is copied.
func (a *app) mirror() procexec.LineWriter {
	if a.sink == nil {
		return logsink.Discard{}
	}
	return a.sink
}

func (a *app) close() {
	if a.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sinkCloseTimeout)
	defer cancel()
	if err := a.sink.Close(ctx); err != nil {
		a.logger.Warn("log file not fully written", "error", err)
	}
}

func (a *app) controller() (*service.Controller, error) {
	b, err := newBackend(a.cfg.Service.Backend, &runner.OSRunner{Env: []string{"LC_ALL=C"}})
	if err != nil {
		return nil, err
	}
	return service.New(b, a.cfg.PollInterval(), a.logger), nil
}

func (a *app) openHistory() (*state.Store, error) {
	h := a.cfg.History
	if h.Driver == state.DriverSQLite && h.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(h.Path), 0755); err != nil {
			return nil, fmt.Errorf("creating history dir: %w", err)
		}
	}
	store, err := state.Open(h.Driver, h.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	return store, nil
}

// record appends op to the history. History is best effort: a failure is
// logged and does not fail the command.
func (a *app) record(ctx context.Context, op *state.Operation) {
	store, err := a.openHistory()
	if err != nil {
		a.logger.WarnContext(ctx, "operation not recorded", "error", err)
		return
	}
	defer store.Close()
	if err := store.Record(ctx, op); err != nil {
		a.logger.WarnContext(ctx, "operation not recorded", "error", err)
		return
	}
	a.logger.DebugContext(ctx, "operation recorded", "id", op.ID, "target", op.Target, "outcome", op.Outcome)
}
