package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testOperation(target, action string, started time.Time) *Operation {
	return &Operation{
		Kind:       KindService,
		Target:     target,
		Action:     action,
		Outcome:    "ok",
		Result:     "Service status = Running",
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
	}
}

func TestSchemaCreation(t *testing.T) {
	s := openTestStore(t)
	ops, err := s.List(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("listing operations: %v", err)
	}
	if len(ops) != 0 {
		t.Errorf("expected 0 operations, got %d", len(ops))
	}
}

func TestIdempotentOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	s1, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s1.Record(context.Background(), testOperation("nginx", "start", time.Now())); err != nil {
		t.Fatalf("recording: %v", err)
	}
	s1.Close()

	s2, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	ops, err := s2.List(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(ops) != 1 {
		t.Errorf("expected 1 persisted operation, got %d", len(ops))
	}
}

func TestUnsupportedDriver(t *testing.T) {
	if _, err := Open("postgres", "whatever"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestRecordRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	started := time.Now().Truncate(time.Millisecond)

	op := testOperation("Spooler", "start", started)
	op.Kind = KindService
	op.Outcome = "timeout"
	op.Detail = map[string]string{"timeout_ms": "5000", "journal": "line one"}

	if err := s.Record(ctx, op); err != nil {
		t.Fatalf("recording: %v", err)
	}
	if op.ID == "" {
		t.Fatal("expected Record to assign an ID")
	}

	got, err := s.Get(ctx, op.ID)
	if err != nil {
		t.Fatalf("getting: %v", err)
	}
	if got.Kind != KindService || got.Target != "Spooler" || got.Action != "start" {
		t.Errorf("unexpected identity: %+v", got)
	}
	if got.Outcome != "timeout" {
		t.Errorf("Outcome = %q, want timeout", got.Outcome)
	}
	if got.Result != op.Result {
		t.Errorf("Result = %q, want %q", got.Result, op.Result)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if got.FinishedAt.Sub(got.StartedAt) != 1500*time.Millisecond {
		t.Errorf("duration = %v, want 1.5s", got.FinishedAt.Sub(got.StartedAt))
	}
	if got.Detail["timeout_ms"] != "5000" || got.Detail["journal"] != "line one" {
		t.Errorf("Detail = %v", got.Detail)
	}
}

func TestRecordKeepsExplicitID(t *testing.T) {
	s := openTestStore(t)
	op := testOperation("nginx", "stop", time.Now())
	op.ID = "4f1c2a9e-0000-4000-8000-000000000001"

	if err := s.Record(context.Background(), op); err != nil {
		t.Fatalf("recording: %v", err)
	}
	if _, err := s.Get(context.Background(), op.ID); err != nil {
		t.Fatalf("getting by explicit ID: %v", err)
	}
	if err := s.Record(context.Background(), op); err == nil {
		t.Error("expected duplicate ID to fail")
	}
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNilDetail(t *testing.T) {
	s := openTestStore(t)
	op := testOperation("nginx", "status", time.Now())
	op.Result = ""

	if err := s.Record(context.Background(), op); err != nil {
		t.Fatalf("recording: %v", err)
	}
	got, err := s.Get(context.Background(), op.ID)
	if err != nil {
		t.Fatalf("getting: %v", err)
	}
	if got.Detail != nil {
		t.Errorf("expected nil Detail, got %v", got.Detail)
	}
	if got.Result != "" {
		t.Errorf("expected empty Result, got %q", got.Result)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Now().Truncate(time.Millisecond)

	for i, action := range []string{"start", "status", "stop"} {
		op := testOperation("nginx", action, base.Add(time.Duration(i)*time.Second))
		if err := s.Record(ctx, op); err != nil {
			t.Fatalf("recording %s: %v", action, err)
		}
	}
	cmd := &Operation{
		Kind:       KindCommand,
		Target:     "/usr/local/bin/backup.sh",
		Action:     "run",
		Outcome:    "exit-3",
		StartedAt:  base.Add(10 * time.Second),
		FinishedAt: base.Add(11 * time.Second),
	}
	if err := s.Record(ctx, cmd); err != nil {
		t.Fatalf("recording command: %v", err)
	}

	all, err := s.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("listing all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 operations, got %d", len(all))
	}
	if all[0].Target != cmd.Target {
		t.Errorf("expected newest first, got %s", all[0].Target)
	}

	nginx, err := s.List(ctx, "nginx", 0)
	if err != nil {
		t.Fatalf("listing nginx: %v", err)
	}
	if len(nginx) != 3 {
		t.Fatalf("expected 3 nginx operations, got %d", len(nginx))
	}
	want := []string{"stop", "status", "start"}
	for i, op := range nginx {
		if op.Action != want[i] {
			t.Errorf("nginx[%d].Action = %q, want %q", i, op.Action, want[i])
		}
	}

	limited, err := s.List(ctx, "nginx", 2)
	if err != nil {
		t.Fatalf("listing with limit: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 operations with limit, got %d", len(limited))
	}
}
