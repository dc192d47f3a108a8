// Package queue defines the contract for enqueuing and consuming fit tasks.
package queue

import (
	"context"
	"sync"

	"github.com/okian/xg/internal/domain/model"
	"github.com/okian/xg/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 4096
	defaultBufferSize    = 4096
)

// Task is one fit job plus where its result goes. Ctx is the submitting
// batch's context; workers fit under it so a cancelled batch drains fast.
type Task struct {
	Ctx  context.Context //nolint:containedctx // request-scoped message
	Job  model.FitJob
	Pos  int
	Done chan<- Result
}

// Result is a finished task; Pos echoes Task.Pos.
type Result struct {
	Pos int
	model.FitResult
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a task to the queue.
	// Returns false if the queue is full or closed and the task was not enqueued.
	Enqueue(ctx context.Context, t Task) bool

	// Dequeue returns a channel that will receive tasks as they become available.
	// The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Task

	// Len returns the current number of queued tasks.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	// After closing, no new tasks can be enqueued and the dequeue channel will be closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	tasks      chan Task
	capacity   int
	bufferSize int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}

	for _, opt := range opts {
		opt(q)
	}
	if q.bufferSize < q.capacity {
		q.bufferSize = q.capacity
	}

	q.tasks = make(chan Task, q.bufferSize)
	metrics.UpdateQueueSize(0)

	return q
}

// Enqueue adds a task to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Task) bool { //nolint:gocritic // hugeParam: Task is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}
	if len(q.tasks) >= q.capacity {
		return false
	}

	select {
	case q.tasks <- t:
		metrics.UpdateQueueSize(len(q.tasks))
		return true
	case <-ctx.Done():
		return false
	default:
		return false
	}
}

// Dequeue returns the receive side of the queue. Every consumer shares it,
// so each task is delivered exactly once.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Task {
	return q.tasks
}

// Len returns the current number of queued tasks.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.tasks)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.tasks)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
