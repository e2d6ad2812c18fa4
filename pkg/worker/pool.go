// Package worker provides the asynchronous job pool that runs compaction and
// archive indexing off the write path. A settled write schedules work here
// and returns immediately; the writer is never blocked on compression.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
)

var (
	defaultNumWorkers   uint = 2
	defaultJobQueueSize uint = 64
)

// Job is a unit of background work.
type Job struct {
	// Name labels the job in logs.
	Name string

	// SessionID is the session the job concerns, for log correlation.
	SessionID string

	// Run does the work. Errors are logged, not returned; background work
	// has no caller to return to.
	Run func(ctx context.Context) error
}

// Config is the configuration for the worker pool.
type Config struct {
	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel.
	QueueSize uint

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Pool processes jobs asynchronously on a fixed set of workers.
type Pool struct {
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewPool creates a Pool and starts its worker goroutines.
func NewPool(c Config) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	p := &Pool{
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// Enqueue submits a job. Returns true if enqueued, false if the queue is
// full and the job was dropped.
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"job", job.Name,
			"session_id", job.SessionID,
		)
		return true
	default:
		p.logger.Error("job dropped, queue full",
			"job", job.Name,
			"session_id", job.SessionID,
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		if job.Run == nil {
			continue
		}

		if err := job.Run(context.Background()); err != nil {
			p.logger.Error("job failed",
				"job", job.Name,
				"session_id", job.SessionID,
				"error", err,
			)
		}
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}
