package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/okian/xg/internal/domain/model"
)

func task(i int) Task {
	return Task{Ctx: context.Background(), Job: model.FitJob{Index: i, Recipe: "geometry"}, Pos: i}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, task(1)) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.Job.Index != 1 {
		t.Errorf("expected job 1, got %d", got.Job.Index)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, task(1)) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, task(2)) {
		t.Error("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, task(3)) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()
	producers, perProducer := 10, 100

	var pwg sync.WaitGroup
	for i := 0; i < producers; i++ {
		pwg.Add(1)
		go func(id int) {
			defer pwg.Done()
			for j := 0; j < perProducer; j++ {
				for !q.Enqueue(ctx, task(id*perProducer+j)) {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}

	seen := make(chan int, producers*perProducer)
	var cwg sync.WaitGroup
	for i := 0; i < 4; i++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for tk := range q.Dequeue(ctx) {
				seen <- tk.Job.Index
			}
		}()
	}

	pwg.Wait()
	_ = q.Close()
	cwg.Wait()
	close(seen)

	unique := map[int]bool{}
	for idx := range seen {
		if unique[idx] {
			t.Errorf("task %d delivered twice", idx)
		}
		unique[idx] = true
	}
	if len(unique) != producers*perProducer {
		t.Errorf("expected %d tasks, got %d", producers*perProducer, len(unique))
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	q.Enqueue(ctx, task(1))
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if q.Enqueue(ctx, task(2)) {
		t.Error("expected enqueue after close to fail")
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}

	n := 0
	for range q.Dequeue(ctx) {
		n++
	}
	if n != 1 {
		t.Errorf("expected buffered task to drain, got %d", n)
	}
}
