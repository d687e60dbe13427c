package log_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ecairns22/ServerCaptain/internal/log"
)

func TestContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(slog.LevelDebug, &buf)

	ctx := log.ContextAttrs(context.Background(), slog.String("task_id", "abc"))
	ctx = log.ContextAttrs(ctx, slog.String("service", "spooler"))
	logger.InfoContext(ctx, "hello")

	out := buf.String()
	require.Contains(t, out, "task_id=abc")
	require.Contains(t, out, "service=spooler")
	require.Contains(t, out, "msg=hello")
}

func TestContextAttrsDoesNotAlias(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(slog.LevelInfo, &buf)

	base := log.ContextAttrs(context.Background(), slog.String("a", "1"))
	left := log.ContextAttrs(base, slog.String("b", "2"))
	right := log.ContextAttrs(base, slog.String("c", "3"))

	logger.InfoContext(left, "left")
	require.NotContains(t, buf.String(), "c=3")
	buf.Reset()
	logger.InfoContext(right, "right")
	require.NotContains(t, buf.String(), "b=2")
}

func TestWithAttrsKeepsContextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(slog.LevelInfo, &buf).With("component", "sink")

	ctx := log.ContextAttrs(context.Background(), slog.String("task_id", "xyz"))
	logger.InfoContext(ctx, "msg")
	require.Contains(t, buf.String(), "component=sink")
	require.Contains(t, buf.String(), "task_id=xyz")
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := log.ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := log.ParseLevel("loud")
	require.Error(t, err)
}
