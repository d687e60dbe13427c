package task_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ecairns22/ServerCaptain/internal/task"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWait(t *testing.T) {
	h := task.Go(t.Context(), func(context.Context) (string, error) {
		return "done", nil
	})
	got, err := h.Wait(t.Context())
	require.NoError(t, err)
	require.Equal(t, "done", got)

	v, err, ok := h.Result()
	require.True(t, ok)
	require.NoError(t, err)
	require.Equal(t, "done", v)
}

func TestErrorIsDelivered(t *testing.T) {
	boom := errors.New("boom")
	h := task.Go(t.Context(), func(context.Context) (int, error) {
		return 0, boom
	})
	_, err := h.Wait(t.Context())
	require.ErrorIs(t, err, boom)
}

func TestPanicIsDelivered(t *testing.T) {
	h := task.Go(t.Context(), func(context.Context) (int, error) {
		panic("exploded")
	})
	_, err := h.Wait(t.Context())
	var pe *task.PanicError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "exploded", pe.Value)
}

func TestCancel(t *testing.T) {
	started := make(chan struct{})
	h := task.Go(t.Context(), func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})
	<-started
	h.Cancel()
	_, err := h.Wait(t.Context())
	require.ErrorIs(t, err, context.Canceled)
}

func TestWaitContextEnds(t *testing.T) {
	release := make(chan struct{})
	h := task.Go(t.Context(), func(context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	_, err := h.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, _, ok := h.Result()
	require.False(t, ok)

	close(release)
	<-h.Done()
}

func TestOnCompleteExactlyOnce(t *testing.T) {
	release := make(chan struct{})
	h := task.Go(t.Context(), func(context.Context) (string, error) {
		<-release
		return "out", nil
	})

	var before, after atomic.Int32
	h.OnComplete(func(v string, err error) {
		assert.Equal(t, "out", v)
		before.Add(1)
	})
	close(release)
	<-h.Done()

	// registered after completion: runs immediately on this goroutine
	h.OnComplete(func(v string, err error) {
		require.Equal(t, "out", v)
		after.Add(1)
	})

	require.Eventually(t, func() bool { return before.Load() == 1 }, time.Second, time.Millisecond)
	require.Equal(t, int32(1), after.Load())
}

func TestDistinctIDs(t *testing.T) {
	fn := func(context.Context) (int, error) { return 0, nil }
	a := task.Go(t.Context(), fn)
	b := task.Go(t.Context(), fn)
	<-a.Done()
	<-b.Done()
	require.NotEqual(t, a.ID(), b.ID())
}
