// Package runner executes ingest tasks one at a time from a FIFO
// queue. Tasks never run in parallel: upserts over the store must
// serialize so duplicate detection stays deterministic without row
// locks.
package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/config"
	"github.com/fightdata/ufc-ranker/internal/metrics"
)

// ErrQueueFull is returned when the task queue cannot take another
// entry; callers retry at the next scheduled instant.
var ErrQueueFull = errors.New("runner: queue full")

// ErrStopped is returned for enqueues after Stop.
var ErrStopped = errors.New("runner: stopped")

// TaskFunc is one unit of work. The runner retries it on error.
type TaskFunc func(ctx context.Context) error

type task struct {
	id   string
	name string
	fn   TaskFunc
}

// Runner owns the single worker goroutine and the cron scheduler.
type Runner struct {
	queue      chan task
	maxRetries int
	backoff    time.Duration
	log        *zap.Logger
	cron       *cron.Cron

	mu      sync.Mutex
	stopped bool
	done    chan struct{}

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg config.TasksConfig, log *zap.Logger) *Runner {
	depth := cfg.QueueDepth
	if depth <= 0 {
		depth = 64
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	backoff := time.Duration(cfg.BackoffSeconds) * time.Second
	if cfg.BackoffSeconds <= 0 {
		backoff = 60 * time.Second
	}
	return &Runner{
		queue:      make(chan task, depth),
		maxRetries: retries,
		backoff:    backoff,
		log:        log.Named("runner"),
		cron:       cron.New(),
		done:       make(chan struct{}),
		sleep:      sleepCtx,
	}
}

// Enqueue appends a task to the queue. Tasks complete in enqueue
// order.
func (r *Runner) Enqueue(name string, fn TaskFunc) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return "", ErrStopped
	}

	t := task{id: uuid.NewString(), name: name, fn: fn}
	select {
	case r.queue <- t:
		r.log.Debug("task enqueued", zap.String("task", name), zap.String("run_id", t.id))
		return t.id, nil
	default:
		metrics.TaskRun(name, "rejected")
		return "", ErrQueueFull
	}
}

// Schedule registers a periodic task under a cron spec. An empty spec
// disables the task.
func (r *Runner) Schedule(spec, name string, fn TaskFunc) error {
	if spec == "" {
		r.log.Info("task not scheduled", zap.String("task", name))
		return nil
	}
	_, err := r.cron.AddFunc(spec, func() {
		if _, err := r.Enqueue(name, fn); err != nil {
			r.log.Warn("scheduled enqueue failed", zap.String("task", name), zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	r.log.Info("task scheduled", zap.String("task", name), zap.String("spec", spec))
	return nil
}

// Start launches the worker and the scheduler. The worker drains the
// queue until ctx is cancelled and Stop is called.
func (r *Runner) Start(ctx context.Context) {
	r.cron.Start()
	go r.work(ctx)
}

// Stop halts the scheduler, lets the worker finish the current task
// and drain the queue, then returns.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	r.cron.Stop()
	close(r.queue)
	<-r.done
}

func (r *Runner) work(ctx context.Context) {
	defer close(r.done)
	for t := range r.queue {
		r.run(ctx, t)
	}
}

// run executes one task with up to maxRetries additional attempts at
// a fixed backoff.
func (r *Runner) run(ctx context.Context, t task) {
	log := r.log.With(zap.String("task", t.name), zap.String("run_id", t.id))
	start := time.Now()
	for attempt := 0; ; attempt++ {
		err := t.fn(ctx)
		if err == nil {
			log.Info("task done",
				zap.Int("attempt", attempt+1),
				zap.Duration("elapsed", time.Since(start)))
			metrics.TaskRun(t.name, "ok")
			return
		}
		if attempt >= r.maxRetries || ctx.Err() != nil {
			log.Error("task failed", zap.Int("attempts", attempt+1), zap.Error(err))
			metrics.TaskRun(t.name, "failed")
			return
		}
		log.Warn("task attempt failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", r.backoff),
			zap.Error(err))
		metrics.TaskRun(t.name, "retry")
		if err := r.sleep(ctx, r.backoff); err != nil {
			log.Error("task abandoned during backoff", zap.Error(err))
			metrics.TaskRun(t.name, "failed")
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
