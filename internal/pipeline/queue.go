package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// BatchJob is one queued pipeline submission.
type BatchJob struct {
	Request Request
}

// BatchQueue fans pipeline submissions out over a fixed worker pool.
// Used by batch ingestion (directory runs) where many files arrive at
// once but VLM throughput bounds useful parallelism.
type BatchQueue struct {
	orch    *Orchestrator
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan BatchJob
	wg   sync.WaitGroup
	once sync.Once

	mu        sync.Mutex
	closed    bool
	producers sync.WaitGroup
}

type QueueOption func(*BatchQueue)

func WithWorkers(n int) QueueOption {
	return func(q *BatchQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) QueueOption {
	return func(q *BatchQueue) {
		if n > 0 {
			q.ch = make(chan BatchJob, n)
		}
	}
}

func WithJobTimeout(d time.Duration) QueueOption {
	return func(q *BatchQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewBatchQueue(orch *Orchestrator, logger *slog.Logger, opts ...QueueOption) *BatchQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &BatchQueue{
		orch:    orch,
		logger:  logger,
		workers: 4,
		timeout: 10 * time.Minute,
		ch:      make(chan BatchJob, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *BatchQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("pipeline.worker.started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					result, err := q.orch.Process(ctx, job.Request)
					cancel()

					if err != nil {
						q.logger.Error("pipeline.worker.job_failed",
							"worker_id", workerID,
							"file", job.Request.Filename,
							"error", err)
					} else {
						q.logger.Info("pipeline.worker.job_done",
							"worker_id", workerID,
							"file", job.Request.Filename,
							"status", result.Job.Status)
					}
				}

				q.logger.Info("pipeline.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue queues a submission, blocking when the queue is full. Calls
// after Shutdown are dropped with a warning. The mutex guards only the
// closed check: the send happens outside it, so a producer waiting on a
// full queue never blocks other producers or Shutdown.
func (q *BatchQueue) Enqueue(_ context.Context, job BatchJob) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("pipeline.queue.closed", "file", job.Request.Filename)
		return nil
	}
	q.producers.Add(1)
	q.mu.Unlock()
	defer q.producers.Done()

	q.ch <- job
	q.logger.Info("pipeline.queue.enqueued", "file", job.Request.Filename)
	return nil
}

// Shutdown stops intake and waits for in-flight jobs, bounded by ctx.
func (q *BatchQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	// Accepted sends finish as workers drain, then the channel can
	// close safely.
	q.producers.Wait()
	close(q.ch)

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("pipeline.queue.shutdown_interrupted")
	case <-done:
		q.logger.Info("pipeline.queue.drained")
	}
}
