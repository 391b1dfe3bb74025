package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work producing a value of type R
type Job[R any] interface {
	Execute(ctx context.Context) R
}

// JobFunc adapts a function to the Job interface
type JobFunc[R any] func(ctx context.Context) R

// Execute calls f
func (f JobFunc[R]) Execute(ctx context.Context) R {
	return f(ctx)
}

type queuedJob[R any] struct {
	index int
	job   Job[R]
}

type indexedResult[R any] struct {
	index int
	value R
}

// Pool manages a pool of workers that execute jobs concurrently.
// Wait returns results in submission order.
type Pool[R any] struct {
	workers     int
	jobQueue    chan queuedJob[R]
	results     chan indexedResult[R]
	collected   []indexedResult[R]
	collectDone chan struct{}
	submitted   int
	wg          sync.WaitGroup
	ctx         context.Context
	cancelFunc  context.CancelFunc
	closeOnce   sync.Once
	submitMu    sync.Mutex
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool[R any](ctx context.Context, workers int) *Pool[R] {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool[R]{
		workers:     workers,
		jobQueue:    make(chan queuedJob[R], workers*2),
		results:     make(chan indexedResult[R], workers*2),
		collectDone: make(chan struct{}),
		ctx:         ctx,
		cancelFunc:  cancel,
	}
}

// Start starts the workers and the result collector
func (p *Pool[R]) Start() {
	go p.collect()
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker is the worker goroutine that processes jobs
func (p *Pool[R]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case queued, ok := <-p.jobQueue:
			if !ok {
				return
			}
			value := queued.job.Execute(p.ctx)
			select {
			case p.results <- indexedResult[R]{index: queued.index, value: value}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// collect drains results so workers never block on a full channel
func (p *Pool[R]) collect() {
	defer close(p.collectDone)
	for result := range p.results {
		p.collected = append(p.collected, result)
	}
}

// Submit submits a job to the pool. It returns false once the pool is shut down.
func (p *Pool[R]) Submit(job Job[R]) bool {
	p.submitMu.Lock()
	defer p.submitMu.Unlock()

	if p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- queuedJob[R]{index: p.submitted, job: job}:
		p.submitted++
		return true
	}
}

// Wait waits for all submitted jobs and returns their results in submission
// order. Jobs dropped by a shutdown leave the zero value in their slot.
func (p *Pool[R]) Wait() []R {
	p.submitMu.Lock()
	close(p.jobQueue)
	submitted := p.submitted
	p.submitMu.Unlock()

	p.wg.Wait()
	p.closeResults()
	<-p.collectDone
	p.cancelFunc()

	out := make([]R, submitted)
	for _, result := range p.collected {
		out[result.index] = result.value
	}
	return out
}

// Shutdown stops the workers immediately
func (p *Pool[R]) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool[R]) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
