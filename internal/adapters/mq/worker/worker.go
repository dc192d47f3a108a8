// Package worker runs fit jobs from the queue on a fixed pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/xg/internal/adapters/mq/queue"
	"github.com/okian/xg/internal/domain/fit"
	"github.com/okian/xg/internal/domain/model"
	"github.com/okian/xg/pkg/logger"
	"github.com/okian/xg/pkg/metrics"
)

// Default worker configuration constants.
const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Task
}

// Worker processes fit tasks.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for fit tasks.
type InMemoryWorker struct {
	queue   Queue
	fitter  fit.Fitter
	name    string
	slowJob time.Duration

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, fitter fit.Fitter, opts ...Option) *InMemoryWorker {
	st := newSettings(opts)
	return newWorker(q, fitter, st.name, st)
}

func newWorker(q Queue, fitter fit.Fitter, name string, st settings) *InMemoryWorker {
	return &InMemoryWorker{
		queue:    q,
		fitter:   fitter,
		name:     name,
		slowJob:  st.slowJob,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   st.logger.Named(name),
	}
}

// Name returns the worker's name.
func (w *InMemoryWorker) Name() string { return w.name }

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-tasks:
			if !ok {
				return
			}
			w.process(t)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process fits one task and reports it. Done is buffered by the submitter.
func (w *InMemoryWorker) process(t queue.Task) { //nolint:gocritic // hugeParam: Task is passed by value for channel semantics
	ctx := t.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	res := fit.Execute(ctx, w.fitter, t.Job)
	metrics.RecordFitJob(string(t.Job.Stage), res.Failed(), float64(res.Duration.Milliseconds()))

	if res.Failed() {
		w.logger.Warn(ctx, "fit job failed",
			logger.String("recipe", t.Job.Recipe),
			logger.Int("candidate", t.Job.Candidate),
			logger.Int("fold", t.Job.Fold),
			logger.Error(res.Err),
		)
	} else if w.slowJob > 0 && res.Duration > w.slowJob {
		w.logger.Warn(ctx, "slow fit job",
			logger.String("recipe", t.Job.Recipe),
			logger.Int("candidate", t.Job.Candidate),
			logger.Int("fold", t.Job.Fold),
			logger.Duration("took", res.Duration),
		)
	} else {
		w.logger.Debug(ctx, "fit job done",
			logger.String("recipe", t.Job.Recipe),
			logger.Int("fold", t.Job.Fold),
			logger.Float64("auc", res.AUC),
			logger.Duration("took", res.Duration),
		)
	}

	t.Done <- queue.Result{Pos: t.Pos, FitResult: res}
}

// Pool manages multiple workers and runs batches of fit jobs on them.
// It implements fit.Runner.
type Pool struct {
	workers []*InMemoryWorker
	queue   queue.Queue
	fitter  fit.Fitter

	started atomic.Bool

	logger logger.Logger
}

var _ fit.Runner = (*Pool)(nil)

// NewPool creates a new worker pool. A non-positive count uses one worker
// per CPU.
func NewPool(workerCount int, q queue.Queue, fitter fit.Fitter, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	st := newSettings(opts)
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		fitter:  fitter,
		logger:  st.logger.Named(st.name + "-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = newWorker(q, fitter, st.name+"-"+strconv.Itoa(i), st)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Names returns the worker names in index order.
func (p *Pool) Names() []string {
	out := make([]string, len(p.workers))
	for i, w := range p.workers {
		out[i] = w.name
	}
	return out
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool. Later calls are no-ops.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Run submits jobs and blocks until each has a result, returned in job
// order. Jobs not yet finished when ctx ends fail with ctx's error. Before
// Start the batch runs on the calling goroutine.
func (p *Pool) Run(ctx context.Context, jobs []model.FitJob) []model.FitResult {
	if !p.started.Load() {
		return fit.Serial{Fitter: p.fitter}.Run(ctx, jobs)
	}

	out := make([]model.FitResult, len(jobs))
	filled := make([]bool, len(jobs))
	results := make(chan queue.Result, len(jobs))

	fail := func(from, to int, err error) {
		for i := from; i < to; i++ {
			if !filled[i] {
				out[i] = model.FitResult{Job: jobs[i], AUC: model.WorstAUC, Err: err}
				filled[i] = true
			}
		}
	}

	next, pending := 0, len(jobs)
	for pending > 0 {
		for next < len(jobs) {
			t := queue.Task{Ctx: ctx, Job: jobs[next], Pos: next, Done: results}
			if !p.queue.Enqueue(ctx, t) {
				break
			}
			next++
		}
		if next < len(jobs) && p.queue.IsClosed() {
			pending -= len(jobs) - next
			fail(next, len(jobs), queue.ErrStopped)
			next = len(jobs)
			if pending == 0 {
				break
			}
		}

		select {
		case r := <-results:
			out[r.Pos] = r.FitResult
			filled[r.Pos] = true
			pending--
		case <-ctx.Done():
			fail(0, len(jobs), ctx.Err())
			return out
		}
	}
	return out
}

// Stop signals every worker to stop without closing the queue.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		w.shutdownOnce.Do(func() { close(w.shutdown) })
	}
	if !p.started.Load() {
		return
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}
	metrics.UpdateWorkerCount(0)

	if !p.started.Load() {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown: %w", shutdownCtx.Err())
		}
	}
	return nil
}
