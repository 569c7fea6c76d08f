// Package cleanup runs periodic purges of expired records.
package cleanup

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/monopay/monopay/store"
)

// DefaultInterval is used when Config.Interval is not positive.
const DefaultInterval = time.Hour

// runTimeout bounds a single pass over all tasks.
const runTimeout = 5 * time.Minute

// Func performs cleanup and returns the number of items deleted.
type Func func(ctx context.Context) (int64, error)

// Task is a named cleanup function.
type Task struct {
	Name string
	Fn   Func
}

// ResetLedgerTask purges expired entries from the used reset token ledger.
func ResetLedgerTask(ledger store.ResetLedger) Task {
	return Task{Name: "used_reset_tokens", Fn: ledger.DeleteExpiredResetTokens}
}

// Config holds cleanup worker configuration.
type Config struct {
	// Tasks run in order on every pass.
	Tasks []Task

	// Interval is how often to run cleanup.
	// Defaults to 1 hour.
	Interval time.Duration

	Logger zerolog.Logger

	// OnResult is called once per task per pass.
	OnResult func(task string, deleted int64, err error)
}

// Stats summarizes the work done since the worker was created.
type Stats struct {
	LastRun time.Time
	Deleted int64
	Errors  int64
	Runs    int64
}

// Worker performs periodic cleanup of expired data.
type Worker struct {
	tasks    []Task
	interval time.Duration
	log      zerolog.Logger
	onResult func(string, int64, error)

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu    sync.RWMutex
	stats Stats
}

// NewWorker creates a new cleanup worker.
func NewWorker(cfg Config) *Worker {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Worker{
		tasks:    cfg.Tasks,
		interval: interval,
		log:      cfg.Logger.With().Str("component", "cleanup").Logger(),
		onResult: cfg.OnResult,
		done:     make(chan struct{}),
	}
}

// Start runs one pass immediately and then one per interval until Stop.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop gracefully stops the cleanup worker. It is safe to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
	w.wg.Wait()
}

func (w *Worker) run() {
	defer w.wg.Done()

	w.RunNow()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.RunNow()
		}
	}
}

// RunNow executes every task once, synchronously.
func (w *Worker) RunNow() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	var deleted, errs int64
	for _, task := range w.tasks {
		count, err := task.Fn(ctx)
		if w.onResult != nil {
			w.onResult(task.Name, count, err)
		}
		if err != nil {
			w.log.Error().Err(err).Str("task", task.Name).Msg("cleanup failed")
			errs++
			continue
		}
		if count > 0 {
			w.log.Info().Str("task", task.Name).Int64("deleted", count).Msg("expired records removed")
		}
		deleted += count
	}

	w.mu.Lock()
	w.stats.LastRun = time.Now()
	w.stats.Deleted += deleted
	w.stats.Errors += errs
	w.stats.Runs++
	w.mu.Unlock()
}

// Stats returns the current cleanup statistics.
func (w *Worker) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}
