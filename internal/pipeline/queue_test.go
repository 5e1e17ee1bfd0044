package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/results"
)

func TestBatchQueueProcessesAllJobs(t *testing.T) {
	h := newHarness(t, wholeFile())

	var mu sync.Mutex
	processed := 0
	h.persist.fn = func(pc *Context) error {
		mu.Lock()
		processed++
		mu.Unlock()
		return nil
	}

	queue := NewBatchQueue(h.orch, nil, WithWorkers(1))
	for i := 0; i < 10; i++ {
		err := queue.Enqueue(context.Background(), BatchJob{Request: Request{
			SourceType: "local", SourceReference: "x", Filename: "x.pdf",
		}})
		if err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(ctx)

	mu.Lock()
	defer mu.Unlock()
	if processed != 10 {
		t.Errorf("processed = %d, want 10", processed)
	}

	_, total, err := h.results.ListJobs(context.Background(), results.JobFilter{
		Status: constants.JobStatusCompleted,
	})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if total != 10 {
		t.Errorf("completed jobs = %d, want 10", total)
	}
}

func TestBatchQueueEnqueueAfterShutdownDropped(t *testing.T) {
	h := newHarness(t, wholeFile())
	queue := NewBatchQueue(h.orch, nil, WithWorkers(1))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	queue.Shutdown(ctx)

	if err := queue.Enqueue(context.Background(), BatchJob{Request: Request{
		SourceType: "local", SourceReference: "x", Filename: "late.pdf",
	}}); err != nil {
		t.Errorf("late enqueue must be dropped quietly, got %v", err)
	}

	jobs, _, err := h.results.ListJobs(context.Background(), results.JobFilter{})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("dropped job still created %d job rows", len(jobs))
	}
}

func TestBatchQueueBlockedProducerDoesNotStallIntakeClose(t *testing.T) {
	h := newHarness(t, wholeFile())
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	h.persist.fn = func(*Context) error {
		once.Do(func() { close(entered) })
		<-release
		return nil
	}

	queue := NewBatchQueue(h.orch, nil, WithWorkers(1), WithQueueSize(1))
	job := func(name string) BatchJob {
		return BatchJob{Request: Request{SourceType: "local", SourceReference: "x", Filename: name}}
	}

	// The worker takes the first job and parks in persist; the second
	// fills the buffer; the third blocks inside its send.
	queue.Enqueue(context.Background(), job("a.pdf"))
	<-entered
	queue.Enqueue(context.Background(), job("b.pdf"))
	go queue.Enqueue(context.Background(), job("c.pdf"))
	time.Sleep(20 * time.Millisecond)

	shutdownDone := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		queue.Shutdown(ctx)
		close(shutdownDone)
	}()
	time.Sleep(20 * time.Millisecond)

	// Intake must already be closed: a late enqueue returns at once
	// instead of waiting behind the blocked producer.
	lateDone := make(chan struct{})
	go func() {
		queue.Enqueue(context.Background(), job("late.pdf"))
		close(lateDone)
	}()
	select {
	case <-lateDone:
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue stalled behind a producer waiting on a full queue")
	}

	close(release)
	<-shutdownDone

	_, total, err := h.results.ListJobs(context.Background(), results.JobFilter{})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if total != 3 {
		t.Errorf("jobs = %d, want the three accepted submissions processed", total)
	}
}

func TestBatchQueueShutdownIdempotent(t *testing.T) {
	h := newHarness(t, wholeFile())
	queue := NewBatchQueue(h.orch, nil)

	ctx := context.Background()
	queue.Shutdown(ctx)
	queue.Shutdown(ctx) // second call must not panic on the closed channel
}
