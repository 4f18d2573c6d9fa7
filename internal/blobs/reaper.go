package blobs

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// FailureRecorder counts blob deletions that could not be completed.
type FailureRecorder interface {
	BlobDeleteFailed(source string)
}

// ReaperConfig controls the concurrency characteristics of the reaper.
type ReaperConfig struct {
	QueueSize int
	Workers   int
	Timeout   time.Duration
}

// Reaper deletes blobs on a background worker pool so request paths never wait
// on the object store. Failures are logged and counted, never retried.
type Reaper struct {
	store    Remover
	recorder FailureRecorder
	logger   *slog.Logger
	timeout  time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan string
	wg     sync.WaitGroup
	once   sync.Once
}

// NewReaper starts cfg.Workers goroutines that delete blobs from store.
func NewReaper(store Remover, recorder FailureRecorder, cfg ReaperConfig, logger *slog.Logger) *Reaper {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Reaper{
		store:    store,
		recorder: recorder,
		logger:   logger,
		timeout:  cfg.Timeout,
		jobs:     make(chan string, cfg.QueueSize),
	}

	r.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go r.worker()
	}

	return r
}

// Delete schedules ref for removal. It returns once the job is queued.
func (r *Reaper) Delete(ctx context.Context, ref string) error {
	if strings.TrimSpace(ref) == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case r.jobs <- ref:
		return nil
	}
}

// Shutdown stops accepting work and waits for queued deletions to finish.
func (r *Reaper) Shutdown(ctx context.Context) error {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.jobs)
		r.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (r *Reaper) worker() {
	defer r.wg.Done()

	for ref := range r.jobs {
		r.handleJob(ref)
	}
}

func (r *Reaper) handleJob(ref string) {
	if r.store == nil {
		r.logger.Error("blob reaper missing store", "ref", ref)
		r.recordFailure()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.store.Delete(ctx, ref); err != nil {
		r.logger.Error("blob deletion failed", "ref", ref, "error", err)
		r.recordFailure()
		return
	}
	r.logger.Debug("blob deleted", "ref", ref)
}

func (r *Reaper) recordFailure() {
	if r.recorder != nil {
		r.recorder.BlobDeleteFailed("reaper")
	}
}

var _ Remover = (*Reaper)(nil)
