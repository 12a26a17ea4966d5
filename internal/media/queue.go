package media

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/oyt/backend/internal/storage"
)

// Generator renders a thumbnail for the video stored at a path.
type Generator interface {
	Generate(ctx context.Context, path string) (string, error)
}

// ThumbnailQueueConfig controls the concurrency characteristics of the queue.
type ThumbnailQueueConfig struct {
	QueueSize  int
	Workers    int
	JobTimeout time.Duration
}

// ThumbnailQueue renders thumbnails on a bounded pool of background workers.
type ThumbnailQueue struct {
	generator  Generator
	logger     *slog.Logger
	jobTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan string
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewThumbnailQueue starts the worker pool.
func NewThumbnailQueue(generator Generator, cfg ThumbnailQueueConfig, logger *slog.Logger) *ThumbnailQueue {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &ThumbnailQueue{
		generator:  generator,
		logger:     logger,
		jobTimeout: cfg.JobTimeout,
		jobs:       make(chan string, cfg.QueueSize),
		ctx:        ctx,
		cancel:     cancel,
	}

	q.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go q.worker()
	}

	return q
}

// Enqueue schedules a thumbnail without blocking. A full queue drops the job.
func (q *ThumbnailQueue) Enqueue(path string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- path:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish. When ctx expires
// first, in-flight jobs are cancelled.
func (q *ThumbnailQueue) Shutdown(ctx context.Context) error {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.jobs)
		q.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		q.cancel()
		return ctx.Err()
	case <-done:
		q.cancel()
		return nil
	}
}

func (q *ThumbnailQueue) worker() {
	defer q.wg.Done()

	for path := range q.jobs {
		if q.ctx.Err() != nil {
			return
		}
		q.handleJob(path)
	}
}

func (q *ThumbnailQueue) handleJob(path string) {
	if q.generator == nil {
		q.logger.Error("thumbnail queue missing generator", "path", path)
		return
	}

	ctx, cancel := context.WithTimeout(q.ctx, q.jobTimeout)
	defer cancel()

	start := time.Now()
	thumbnail, err := q.generator.Generate(ctx, path)
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		// The video was deleted while the job waited.
		q.logger.Debug("thumbnail skipped, video removed", "path", path)
		return
	case err != nil:
		q.logger.Error("thumbnail generation failed", "path", path, "error", err)
		return
	}
	q.logger.Info("thumbnail generated", "path", path, "thumbnail", thumbnail, "duration", time.Since(start))
}
