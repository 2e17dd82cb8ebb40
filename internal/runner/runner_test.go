package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/config"
)

func newRunner(t *testing.T, cfg config.TasksConfig) *Runner {
	t.Helper()
	r := New(cfg, zap.NewNop())
	r.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return r
}

func TestTasksRunInEnqueueOrder(t *testing.T) {
	r := newRunner(t, config.TasksConfig{QueueDepth: 16})

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) TaskFunc {
		return func(ctx context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	for _, name := range []string{"rankings", "fighters", "events"} {
		id, err := r.Enqueue(name, record(name))
		require.NoError(t, err)
		require.NotEmpty(t, id)
	}

	r.Start(context.Background())
	r.Stop()

	require.Equal(t, []string{"rankings", "fighters", "events"}, order)
}

func TestTasksNeverOverlap(t *testing.T) {
	r := newRunner(t, config.TasksConfig{QueueDepth: 16})

	var (
		mu      sync.Mutex
		running int
		maxSeen int
	)
	task := func(ctx context.Context) error {
		mu.Lock()
		running++
		if running > maxSeen {
			maxSeen = running
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		running--
		mu.Unlock()
		return nil
	}

	for i := 0; i < 5; i++ {
		_, err := r.Enqueue("overlap", task)
		require.NoError(t, err)
	}
	r.Start(context.Background())
	r.Stop()

	require.Equal(t, 1, maxSeen)
}

func TestRetriesUpToMaxThenGivesUp(t *testing.T) {
	r := newRunner(t, config.TasksConfig{QueueDepth: 4, MaxRetries: 3, BackoffSeconds: 60})

	var attempts int
	_, err := r.Enqueue("flaky", func(ctx context.Context) error {
		attempts++
		return errors.New("still broken")
	})
	require.NoError(t, err)

	r.Start(context.Background())
	r.Stop()

	// Initial attempt plus three retries.
	require.Equal(t, 4, attempts)
}

func TestRetryStopsOnSuccess(t *testing.T) {
	r := newRunner(t, config.TasksConfig{QueueDepth: 4, MaxRetries: 3})

	var attempts int
	_, err := r.Enqueue("recovers", func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)

	r.Start(context.Background())
	r.Stop()

	require.Equal(t, 2, attempts)
}

func TestQueueFull(t *testing.T) {
	r := newRunner(t, config.TasksConfig{QueueDepth: 1})

	_, err := r.Enqueue("first", func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	_, err = r.Enqueue("second", func(ctx context.Context) error { return nil })
	require.ErrorIs(t, err, ErrQueueFull)
}

func TestEnqueueAfterStop(t *testing.T) {
	r := newRunner(t, config.TasksConfig{QueueDepth: 4})
	r.Start(context.Background())
	r.Stop()

	_, err := r.Enqueue("late", func(ctx context.Context) error { return nil })
	require.ErrorIs(t, err, ErrStopped)
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	r := newRunner(t, config.TasksConfig{QueueDepth: 4})

	require.Error(t, r.Schedule("not a cron spec", "bad", func(ctx context.Context) error { return nil }))
	require.NoError(t, r.Schedule("0 6 * * *", "rankings", func(ctx context.Context) error { return nil }))
	require.NoError(t, r.Schedule("", "disabled", func(ctx context.Context) error { return nil }))
}
