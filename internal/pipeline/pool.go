package pipeline

import (
	"context"
	"fmt"
	"sync"

	"albumocr/pkg/douban"
	errs "albumocr/pkg/errors"
	"albumocr/pkg/logger"
)

// Job is a single album item queued for processing
type Job struct {
	Link douban.ImageLink
}

// WorkerPool runs a Processor over submitted jobs with a fixed number of
// workers. With one worker results arrive in submission order.
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	stopOnce    sync.Once
	ctx         context.Context
	cancel      context.CancelFunc
	processor   *Processor
	logger      logger.Logger
}

// NewWorkerPool creates a worker pool bound to ctx. Cancelling ctx makes
// the remaining jobs fail fast instead of running.
func NewWorkerPool(ctx context.Context, numWorkers int, processor *Processor, log logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		processor:   processor,
		logger:      log,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop waits for queued jobs to finish and closes the result channel.
// It is safe to call more than once.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.jobQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
		wp.cancel()
		wp.logger.Debug("Worker pool stopped")
	})
}

// Submit queues a job, blocking while the queue is full
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	default:
	}

	select {
	case wp.jobQueue <- job:
		wp.logger.DebugWithFields("Job submitted to queue", map[string]interface{}{
			"index": job.Link.Index,
			"url":   job.Link.URL,
		})
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the channel results are delivered on. It must be drained
// until closed.
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

// Workers returns the configured number of workers
func (wp *WorkerPool) Workers() int {
	return wp.numWorkers
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		var result Result
		if err := wp.ctx.Err(); err != nil {
			result = Result{Link: job.Link, Err: errs.New(errs.KindNetwork, job.Link.URL, err)}
		} else {
			wp.logger.DebugWithFields("Worker processing job", map[string]interface{}{
				"worker_id": id,
				"index":     job.Link.Index,
			})
			result = wp.processor.Process(wp.ctx, job.Link)
		}
		wp.resultQueue <- result
	}
}
